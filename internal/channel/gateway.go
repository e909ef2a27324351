// ABOUTME: Channel gateway contract and the named-event protocol spoken with the backend
// ABOUTME: Defines event names, payload shapes, and the Gateway interface the core depends on

package channel

import (
	"encoding/json"

	"github.com/couponly/chatcore/internal/chat"
)

// Event names of the channel protocol. Outbound commands and their inbound
// responses form fixed pairs; newMessage is an unsolicited push.
const (
	// Outbound
	EventGetConversations = "getConversations"
	EventGetMessages      = "getMessages"
	EventJoinConversation = "joinConversation"
	EventSendMessage      = "sendMessage"

	// Inbound
	EventConversations = "conversations"
	EventMessages      = "messages"
	EventNewMessage    = "newMessage"
)

// ConnState is the gateway connection state.
type ConnState int32

const (
	Disconnected ConnState = iota
	Connected
)

func (s ConnState) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// GetMessagesRequest asks for the history of one conversation.
type GetMessagesRequest struct {
	ConversationID int64 `json:"conversationId"`
}

// JoinRequest subscribes the session to future pushes for a conversation.
type JoinRequest struct {
	ConversationID int64 `json:"conversationId"`
}

// SendExistingRequest sends a message into an existing conversation.
type SendExistingRequest struct {
	ConversationID int64  `json:"conversationId"`
	Content        string `json:"content"`
}

// SendNewRequest sends the first message to a contact with no conversation.
// The backend creates the conversation and pushes the resulting newMessage;
// the refreshed conversation list is what promotes the local draft.
type SendNewRequest struct {
	ReceiverID int64                 `json:"receiverId"`
	Type       chat.ConversationType `json:"type"`
	Content    string                `json:"content"`
}

// MessagesResponse is the reply to getMessages.
type MessagesResponse struct {
	ConversationID int64          `json:"conversationId"`
	Data           []chat.Message `json:"data"`
}

// Handler receives the raw payload of one inbound event. Handlers for a
// single gateway run sequentially in arrival order.
type Handler func(data json.RawMessage)

// Gateway is the sole boundary to the persistent bidirectional channel. The
// channel delivers events at least once while connected and guarantees no
// ordering across event families; reconnect and backoff are owned by the
// collaborator behind the implementation, not by this interface.
type Gateway interface {
	State() ConnState
	Emit(event string, payload any) error
	Subscribe(event string, h Handler) (unsubscribe func())
}
