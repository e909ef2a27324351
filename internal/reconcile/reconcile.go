// ABOUTME: Merge engine reconciling the contact directory against the conversation store
// ABOUTME: Emits one inbox entry per contact, synthesizing drafts and resolving promotions

package reconcile

import (
	"log/slog"
	"sort"

	"github.com/couponly/chatcore/internal/chat"
)

// participantID extracts the id field a viewer matches contacts against.
// The mapping is asymmetric: in a SUPERADMIN_AGENT conversation the
// super-admin's counterpart is the agent, and vice versa. This table is the
// single place role-to-field knowledge lives; adding a relationship type
// means adding rows here and nowhere else.
var participantID = map[chat.ConversationType]map[chat.Role]func(*chat.Conversation) int64{
	chat.SuperAdminAgent: {
		chat.RoleSuperAdmin: func(c *chat.Conversation) int64 { return c.AgentID },
		chat.RoleAgent:      func(c *chat.Conversation) int64 { return c.SuperAdminID },
	},
	chat.AgentMerchant: {
		chat.RoleAgent:    func(c *chat.Conversation) int64 { return c.MerchantID },
		chat.RoleMerchant: func(c *chat.Conversation) int64 { return c.AgentID },
	},
}

// Reconciler merges contacts and conversations into the inbox list. It is
// stateless and total: any well-typed input produces a result, never an
// error. Safe to re-run redundantly on every state change.
type Reconciler struct {
	logger *slog.Logger
}

// New creates a reconciler. Pass nil logger for default.
func New(logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{logger: logger.With("component", "reconcile")}
}

// Merge produces exactly one inbox entry per contact: the contact's real
// conversation when one exists, a draft placeholder otherwise. The result is
// sorted by UpdatedAt descending; drafts carry the zero time so they sink
// below any conversation with real activity. Ties keep contact-list order
// (stable sort), so identical inputs always yield identical output.
func (r *Reconciler) Merge(contacts []chat.Contact, convs []chat.Conversation, viewer chat.Role) []chat.InboxEntry {
	entries := make([]chat.InboxEntry, 0, len(contacts))

	for _, contact := range contacts {
		conv, ok := r.match(contact, convs, viewer)
		if !ok {
			entries = append(entries, chat.InboxEntry{
				ID:                chat.MakeDraftID(contact.Type, contact.ID),
				IsDraft:           true,
				Type:              contact.Type,
				ContactID:         contact.ID,
				ParticipantName:   contact.Name,
				ParticipantAvatar: contact.Avatar,
			})
			continue
		}
		entries = append(entries, chat.InboxEntry{
			ID:                chat.RealID(conv.ID),
			Type:              conv.Type,
			ConversationID:    conv.ID,
			ContactID:         contact.ID,
			ParticipantName:   contact.Name,
			ParticipantAvatar: contact.Avatar,
			Messages:          conv.Messages,
			UpdatedAt:         conv.UpdatedAt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})
	return entries
}

// ResolveDraft re-runs the match for the single contact a draft id names.
// Returns the real conversation id when one now exists. The session calls
// this on every conversation-list change while a draft is selected; a hit is
// what drives the invisible draft-to-real promotion.
func (r *Reconciler) ResolveDraft(draftID string, convs []chat.Conversation, viewer chat.Role) (int64, bool) {
	typ, contactID, err := chat.ParseDraftID(draftID)
	if err != nil {
		return 0, false
	}
	conv, ok := r.match(chat.Contact{ID: contactID, Type: typ}, convs, viewer)
	if !ok {
		return 0, false
	}
	return conv.ID, true
}

// match finds the contact's conversation, if any. Linear scan in store order;
// the first hit wins. A second hit is a backend data anomaly: it is logged
// and skipped, never surfaced as an error.
func (r *Reconciler) match(contact chat.Contact, convs []chat.Conversation, viewer chat.Role) (chat.Conversation, bool) {
	byRole, ok := participantID[contact.Type]
	if !ok {
		return chat.Conversation{}, false
	}
	field, ok := byRole[viewer]
	if !ok {
		return chat.Conversation{}, false
	}

	found := -1
	for i := range convs {
		if convs[i].Type != contact.Type || field(&convs[i]) != contact.ID {
			continue
		}
		if found >= 0 {
			r.logger.Warn("duplicate conversation match, keeping first",
				"contact_id", contact.ID,
				"type", contact.Type,
				"kept_conversation_id", convs[found].ID,
				"duplicate_conversation_id", convs[i].ID)
			continue
		}
		found = i
	}
	if found < 0 {
		return chat.Conversation{}, false
	}
	return convs[found], true
}
