// ABOUTME: Session wires directory, store, reconciler, stream, and selection together
// ABOUTME: All state writes are serialized behind one mutex; channel handlers drive mutations

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/couponly/chatcore/internal/channel"
	"github.com/couponly/chatcore/internal/chat"
	"github.com/couponly/chatcore/internal/dedupe"
	"github.com/couponly/chatcore/internal/directory"
	"github.com/couponly/chatcore/internal/reconcile"
	"github.com/couponly/chatcore/internal/selection"
	"github.com/couponly/chatcore/internal/store"
	"github.com/couponly/chatcore/internal/stream"
)

const (
	dedupeTTL     = 5 * time.Minute
	dedupeMaxSize = 4096
)

// ErrNothingSelected is returned by Send when no conversation is active.
var ErrNothingSelected = errors.New("nothing selected")

// ContactSource is what the session needs from the directory layer.
type ContactSource interface {
	Load(ctx context.Context, token string) ([]chat.Contact, error)
}

// SelectedView is the read-only projection of the selection state.
type SelectedView struct {
	State selection.State
	ID    string // draft id or decimal conversation id, empty when unselected
}

// Session is the messaging core behind a chat UI: it keeps the reconciled
// inbox, the active conversation's message stream, and the selection state
// synchronized against the channel and the contact directory.
//
// Every mutation — user command or inbound channel event — runs under one
// mutex, so the UI can never observe a torn state between two patches. The
// gateway dispatches inbound events sequentially on a single pump, which
// preserves arrival order through here.
type Session struct {
	gateway  channel.Gateway
	contacts ContactSource
	viewer   chat.Role
	token    string

	convs *store.Store
	rec   *reconcile.Reconciler
	strm  *stream.Stream
	seen  *dedupe.Cache

	mu         sync.RWMutex
	directory  []chat.Contact
	inbox      []chat.InboxEntry
	sel        selection.Selection
	historyGen uint64

	unsubscribe []func()
	logger      *slog.Logger
}

// New creates a session for one viewer. Pass nil logger for default.
func New(gw channel.Gateway, contacts ContactSource, viewer chat.Role, token string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "session")
	return &Session{
		gateway:  gw,
		contacts: contacts,
		viewer:   viewer,
		token:    token,
		convs:    store.New(logger),
		rec:      reconcile.New(logger),
		strm:     stream.New(logger),
		seen:     dedupe.New(dedupeTTL, dedupeMaxSize),
		logger:   logger,
	}
}

// Start subscribes to the three inbound event families. Call Close to
// release the subscriptions.
func (s *Session) Start() {
	s.unsubscribe = []func(){
		s.gateway.Subscribe(channel.EventConversations, s.onConversations),
		s.gateway.Subscribe(channel.EventMessages, s.onMessages),
		s.gateway.Subscribe(channel.EventNewMessage, s.onNewMessage),
	}
}

// Close releases the channel subscriptions. The gateway itself is owned by
// the caller.
func (s *Session) Close() {
	for _, u := range s.unsubscribe {
		u()
	}
	s.unsubscribe = nil
}

// Refresh reloads the contact directory and requests a fresh conversation
// snapshot. An auth failure is returned to the caller (credentials need
// replacing before anything can work); a network failure degrades to an
// empty directory and is only logged.
func (s *Session) Refresh(ctx context.Context) error {
	contacts, err := s.contacts.Load(ctx, s.token)
	if err != nil {
		var authErr *directory.AuthError
		if errors.As(err, &authErr) {
			return err
		}
		s.logger.Warn("contact directory unavailable", "error", err)
		contacts = nil
	}

	s.mu.Lock()
	s.directory = contacts
	s.rebuildInboxLocked()
	s.mu.Unlock()

	if err := s.gateway.Emit(channel.EventGetConversations, nil); err != nil {
		s.logger.Warn("conversation refresh not sent", "error", err)
	}
	return nil
}

// Select activates a conversation by inbox entry id — a decimal conversation
// id or a draft id. A real selection joins the conversation and requests its
// history; a draft selection just clears the stream (there is nothing to
// fetch until the first send).
func (s *Session) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chat.IsDraftID(id) {
		if _, _, err := chat.ParseDraftID(id); err != nil {
			return err
		}
		s.sel.PickDraft(id)
		s.historyGen = s.strm.Reset(0)
		s.logger.Debug("draft selected", "draft_id", id)
		return nil
	}

	convID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid conversation id %q", id)
	}
	s.sel.PickReal(convID)
	s.enterRealLocked(convID)
	return nil
}

// Deselect clears the active conversation.
func (s *Session) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.Deselect()
	s.historyGen = s.strm.Reset(0)
}

// Send sends content into the active conversation. With a draft selected it
// uses the first-message form: the backend creates the conversation, and the
// following conversations snapshot promotes the draft invisibly.
func (s *Session) Send(content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.sel.State() {
	case selection.RealSelected:
		return s.gateway.Emit(channel.EventSendMessage, channel.SendExistingRequest{
			ConversationID: s.sel.ConversationID(),
			Content:        content,
		})
	case selection.DraftSelected:
		typ, contactID, err := chat.ParseDraftID(s.sel.DraftID())
		if err != nil {
			return err
		}
		return s.gateway.Emit(channel.EventSendMessage, channel.SendNewRequest{
			ReceiverID: contactID,
			Type:       typ,
			Content:    content,
		})
	default:
		s.logger.Warn("send with nothing selected")
		return ErrNothingSelected
	}
}

// Inbox returns the current reconciled inbox, most recently active first.
func (s *Session) Inbox() []chat.InboxEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]chat.InboxEntry(nil), s.inbox...)
}

// Messages returns the active conversation's message stream.
func (s *Session) Messages() []chat.Message {
	return s.strm.Messages()
}

// Selected returns the selection projection.
func (s *Session) Selected() SelectedView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.sel.State() {
	case selection.DraftSelected:
		return SelectedView{State: selection.DraftSelected, ID: s.sel.DraftID()}
	case selection.RealSelected:
		return SelectedView{State: selection.RealSelected, ID: chat.RealID(s.sel.ConversationID())}
	default:
		return SelectedView{}
	}
}

// onConversations installs a full snapshot, rebuilds the inbox, and runs the
// draft-resolution pass: a selected draft whose real conversation now exists
// is promoted in place, with the join and history fetch a real selection
// implies. The pass runs on every snapshot, not only after a send.
func (s *Session) onConversations(data json.RawMessage) {
	var convs []chat.Conversation
	if err := json.Unmarshal(data, &convs); err != nil {
		s.logger.Warn("bad conversations payload", "error", err)
		return
	}
	s.convs.ReplaceAll(convs)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebuildInboxLocked()

	if s.sel.State() != selection.DraftSelected {
		return
	}
	convID, ok := s.rec.ResolveDraft(s.sel.DraftID(), convs, s.viewer)
	if !ok {
		return
	}
	draftID := s.sel.DraftID()
	if err := s.sel.Promote(convID); err != nil {
		return
	}
	s.logger.Debug("draft promoted", "draft_id", draftID, "conversation_id", convID)
	s.enterRealLocked(convID)
}

// onMessages applies a history response; the stream drops it if the
// selection has moved on since the request.
func (s *Session) onMessages(data json.RawMessage) {
	var resp channel.MessagesResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		s.logger.Warn("bad messages payload", "error", err)
		return
	}

	s.mu.Lock()
	gen := s.historyGen
	s.mu.Unlock()

	if !s.strm.ApplyHistory(gen, resp.ConversationID, resp.Data) {
		s.logger.Debug("history response discarded", "conversation_id", resp.ConversationID)
	}
}

// onNewMessage routes a live push: dedupe first, then patch the store (which
// re-sorts the inbox via updated_at), then append to the stream when the
// message belongs to the active conversation. A message for a conversation
// the store does not know triggers a full re-sync instead of fabricating
// state.
func (s *Session) onNewMessage(data json.RawMessage) {
	var msg chat.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		s.logger.Warn("bad newMessage payload", "error", err)
		return
	}

	if s.seen.Seen(msg.ID) {
		s.logger.Debug("duplicate delivery dropped", "message_id", msg.ID)
		return
	}

	if err := s.convs.ApplyMessage(msg); err != nil {
		if errors.Is(err, store.ErrUnknownConversation) {
			s.logger.Info("message for unknown conversation, re-syncing",
				"conversation_id", msg.ConversationID)
			if emitErr := s.gateway.Emit(channel.EventGetConversations, nil); emitErr != nil {
				s.logger.Warn("re-sync not sent", "error", emitErr)
			}
			return
		}
		s.logger.Warn("message not applied", "error", err, "message_id", msg.ID)
		return
	}

	s.strm.AppendLive(msg)

	s.mu.Lock()
	s.rebuildInboxLocked()
	s.mu.Unlock()
}

// enterRealLocked performs the side effects of entering RealSelected:
// reset the stream, join the conversation, request its history.
// Must be called with mu held.
func (s *Session) enterRealLocked(convID int64) {
	s.historyGen = s.strm.Reset(convID)

	if err := s.gateway.Emit(channel.EventJoinConversation, channel.JoinRequest{ConversationID: convID}); err != nil {
		s.logger.Warn("join not sent", "conversation_id", convID, "error", err)
	}
	if err := s.gateway.Emit(channel.EventGetMessages, channel.GetMessagesRequest{ConversationID: convID}); err != nil {
		s.logger.Warn("history request not sent", "conversation_id", convID, "error", err)
	}
}

// rebuildInboxLocked recomputes the reconciled inbox from the current
// directory and conversation snapshot. Must be called with mu held.
func (s *Session) rebuildInboxLocked() {
	s.inbox = s.rec.Merge(s.directory, s.convs.Snapshot(), s.viewer)
}
