// ABOUTME: Core data types shared by the chat reconciliation layer
// ABOUTME: Defines Contact, Conversation, Message, InboxEntry and the draft id codec

package chat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ConversationType identifies which pair of roles a conversation connects.
// The set is closed; the reconciler's dispatch table covers exactly these.
type ConversationType string

const (
	SuperAdminAgent ConversationType = "SUPERADMIN_AGENT"
	AgentMerchant   ConversationType = "AGENT_MERCHANT"
)

// Role identifies the viewer's side of a conversation.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAgent      Role = "agent"
	RoleMerchant   Role = "merchant"
)

// Contact is a chattable counterpart sourced from the directory endpoint.
// Immutable within a session.
type Contact struct {
	ID     int64            `json:"id"`
	Type   ConversationType `json:"type"`
	Name   string           `json:"name"`
	Avatar string           `json:"avatar"`
}

// Conversation is a backend-persisted thread. The participant id fields are
// populated per type: SUPERADMIN_AGENT fills AgentID and SuperAdminID,
// AGENT_MERCHANT fills AgentID and MerchantID. Messages holds the preview
// tail the backend ships with each list snapshot.
type Conversation struct {
	ID           int64            `json:"id"`
	Type         ConversationType `json:"type"`
	AgentID      int64            `json:"agent_id"`
	SuperAdminID int64            `json:"super_admin_id"`
	MerchantID   int64            `json:"merchant_id"`
	Messages     []Message        `json:"messages"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Message is a single chat message. Immutable once received.
type Message struct {
	ID             string    `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	SenderRole     Role      `json:"sender_role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// InboxEntry is one row of the reconciled inbox: either a real conversation
// decorated with the matched contact's display fields, or a draft placeholder
// for a contact with no conversation yet. Drafts carry a zero UpdatedAt so
// they sort below any conversation with real activity.
type InboxEntry struct {
	ID                string
	IsDraft           bool
	Type              ConversationType
	ConversationID    int64 // zero for drafts
	ContactID         int64
	ParticipantName   string
	ParticipantAvatar string
	Messages          []Message
	UpdatedAt         time.Time
}

const draftPrefix = "draft:"

// ErrNotDraftID is returned by ParseDraftID for ids that are not draft ids.
var ErrNotDraftID = errors.New("not a draft id")

// MakeDraftID builds the synthetic id for a contact with no conversation.
// It is a pure function of (type, contactID): the same inputs always produce
// the same id, so no two drafts for one contact can coexist.
func MakeDraftID(t ConversationType, contactID int64) string {
	return fmt.Sprintf("%s%s:%d", draftPrefix, t, contactID)
}

// RealID renders a server conversation id in the string id space shared with
// draft ids.
func RealID(conversationID int64) string {
	return strconv.FormatInt(conversationID, 10)
}

// IsDraftID reports whether id is in the draft id space.
func IsDraftID(id string) bool {
	return strings.HasPrefix(id, draftPrefix)
}

// ParseDraftID is the inverse of MakeDraftID. It rejects ids that are not
// drafts, reference an unknown conversation type, or carry a malformed
// contact id.
func ParseDraftID(id string) (ConversationType, int64, error) {
	if !strings.HasPrefix(id, draftPrefix) {
		return "", 0, ErrNotDraftID
	}
	rest := strings.TrimPrefix(id, draftPrefix)
	sep := strings.LastIndex(rest, ":")
	if sep < 0 {
		return "", 0, fmt.Errorf("malformed draft id %q", id)
	}
	t := ConversationType(rest[:sep])
	switch t {
	case SuperAdminAgent, AgentMerchant:
	default:
		return "", 0, fmt.Errorf("unknown conversation type in draft id %q", id)
	}
	contactID, err := strconv.ParseInt(rest[sep+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed contact id in draft id %q: %w", id, err)
	}
	return t, contactID, nil
}
