// ABOUTME: Tests for the contact/conversation merge engine
// ABOUTME: Covers merge completeness, draft determinism, idempotence, promotion, and tie-breaks

package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couponly/chatcore/internal/chat"
)

func ts(sec int) time.Time {
	return time.Date(2026, 8, 1, 10, 0, sec, 0, time.UTC)
}

func TestMerge_DraftForContactWithoutConversation(t *testing.T) {
	r := New(nil)
	contacts := []chat.Contact{{ID: 5, Type: chat.AgentMerchant, Name: "Coffee House"}}

	got := r.Merge(contacts, nil, chat.RoleAgent)

	require.Len(t, got, 1)
	assert.Equal(t, "draft:AGENT_MERCHANT:5", got[0].ID)
	assert.True(t, got[0].IsDraft)
	assert.Equal(t, "Coffee House", got[0].ParticipantName)
	assert.Empty(t, got[0].Messages)
	assert.True(t, got[0].UpdatedAt.IsZero())
}

func TestMerge_ExactlyOneEntryPerContact(t *testing.T) {
	r := New(nil)
	contacts := []chat.Contact{
		{ID: 5, Type: chat.AgentMerchant, Name: "Coffee House"},
		{ID: 9, Type: chat.AgentMerchant, Name: "Bike Shed"},
		{ID: 2, Type: chat.SuperAdminAgent, Name: "HQ"},
	}
	convs := []chat.Conversation{
		{ID: 42, Type: chat.AgentMerchant, MerchantID: 5, UpdatedAt: ts(10)},
	}

	got := r.Merge(contacts, convs, chat.RoleAgent)

	require.Len(t, got, 3)
	seen := map[int64]int{}
	for _, e := range got {
		seen[e.ContactID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "contact %d", id)
	}
}

func TestMerge_RealEntryDecoratedWithContactFields(t *testing.T) {
	r := New(nil)
	contacts := []chat.Contact{{ID: 5, Type: chat.AgentMerchant, Name: "Coffee House", Avatar: "c.png"}}
	convs := []chat.Conversation{
		{ID: 42, Type: chat.AgentMerchant, AgentID: 1, MerchantID: 5, UpdatedAt: ts(10),
			Messages: []chat.Message{{ID: "m1", Content: "hello"}}},
	}

	got := r.Merge(contacts, convs, chat.RoleAgent)

	require.Len(t, got, 1)
	assert.False(t, got[0].IsDraft)
	assert.Equal(t, "42", got[0].ID)
	assert.Equal(t, int64(42), got[0].ConversationID)
	assert.Equal(t, "Coffee House", got[0].ParticipantName)
	assert.Equal(t, "c.png", got[0].ParticipantAvatar)
	assert.Len(t, got[0].Messages, 1)
}

func TestMerge_RoleFieldAsymmetry(t *testing.T) {
	r := New(nil)
	conv := chat.Conversation{ID: 7, Type: chat.SuperAdminAgent, SuperAdminID: 1, AgentID: 3, UpdatedAt: ts(1)}

	// Super-admin viewer matches agents by agent_id.
	got := r.Merge([]chat.Contact{{ID: 3, Type: chat.SuperAdminAgent}}, []chat.Conversation{conv}, chat.RoleSuperAdmin)
	require.Len(t, got, 1)
	assert.False(t, got[0].IsDraft)

	// Agent viewer matches super-admins by super_admin_id.
	got = r.Merge([]chat.Contact{{ID: 1, Type: chat.SuperAdminAgent}}, []chat.Conversation{conv}, chat.RoleAgent)
	require.Len(t, got, 1)
	assert.False(t, got[0].IsDraft)

	// The agent's own id must not match from the super-admin side.
	got = r.Merge([]chat.Contact{{ID: 1, Type: chat.SuperAdminAgent}}, []chat.Conversation{conv}, chat.RoleSuperAdmin)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsDraft)
}

func TestMerge_SortsByUpdatedAtDescWithDraftsLast(t *testing.T) {
	r := New(nil)
	contacts := []chat.Contact{
		{ID: 5, Type: chat.AgentMerchant, Name: "quiet"},
		{ID: 9, Type: chat.AgentMerchant, Name: "old"},
		{ID: 4, Type: chat.AgentMerchant, Name: "busy"},
	}
	convs := []chat.Conversation{
		{ID: 20, Type: chat.AgentMerchant, MerchantID: 9, UpdatedAt: ts(1)},
		{ID: 30, Type: chat.AgentMerchant, MerchantID: 4, UpdatedAt: ts(9)},
	}

	got := r.Merge(contacts, convs, chat.RoleAgent)

	require.Len(t, got, 3)
	assert.Equal(t, "busy", got[0].ParticipantName)
	assert.Equal(t, "old", got[1].ParticipantName)
	assert.Equal(t, "quiet", got[2].ParticipantName)
	assert.True(t, got[2].IsDraft)
}

func TestMerge_Idempotent(t *testing.T) {
	r := New(nil)
	contacts := []chat.Contact{
		{ID: 5, Type: chat.AgentMerchant, Name: "a"},
		{ID: 9, Type: chat.AgentMerchant, Name: "b"},
	}
	convs := []chat.Conversation{
		{ID: 42, Type: chat.AgentMerchant, MerchantID: 5, UpdatedAt: ts(3)},
	}

	first := r.Merge(contacts, convs, chat.RoleAgent)
	second := r.Merge(contacts, convs, chat.RoleAgent)
	assert.Equal(t, first, second)
}

func TestMerge_DuplicateMatchKeepsFirst(t *testing.T) {
	r := New(nil)
	contacts := []chat.Contact{{ID: 5, Type: chat.AgentMerchant}}
	convs := []chat.Conversation{
		{ID: 42, Type: chat.AgentMerchant, MerchantID: 5, UpdatedAt: ts(1)},
		{ID: 43, Type: chat.AgentMerchant, MerchantID: 5, UpdatedAt: ts(2)},
	}

	got := r.Merge(contacts, convs, chat.RoleAgent)
	require.Len(t, got, 1)
	assert.Equal(t, int64(42), got[0].ConversationID)

	// Same winner on every run.
	again := r.Merge(contacts, convs, chat.RoleAgent)
	assert.Equal(t, got, again)
}

func TestMerge_UnknownViewerRoleYieldsDrafts(t *testing.T) {
	r := New(nil)
	contacts := []chat.Contact{{ID: 5, Type: chat.AgentMerchant}}
	convs := []chat.Conversation{{ID: 42, Type: chat.AgentMerchant, MerchantID: 5}}

	// A merchant-type contact is meaningless to a super-admin viewer; the
	// reconciler must stay total and fall back to a draft.
	got := r.Merge(contacts, convs, chat.RoleSuperAdmin)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsDraft)
}

func TestResolveDraft_FindsNewConversation(t *testing.T) {
	r := New(nil)
	draftID := chat.MakeDraftID(chat.AgentMerchant, 5)

	_, ok := r.ResolveDraft(draftID, nil, chat.RoleAgent)
	assert.False(t, ok)

	convs := []chat.Conversation{{ID: 42, Type: chat.AgentMerchant, MerchantID: 5, UpdatedAt: ts(1)}}
	id, ok := r.ResolveDraft(draftID, convs, chat.RoleAgent)
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
}

func TestResolveDraft_RejectsNonDraftIDs(t *testing.T) {
	r := New(nil)
	convs := []chat.Conversation{{ID: 42, Type: chat.AgentMerchant, MerchantID: 5}}

	_, ok := r.ResolveDraft("42", convs, chat.RoleAgent)
	assert.False(t, ok)
	_, ok = r.ResolveDraft("draft:bogus", convs, chat.RoleAgent)
	assert.False(t, ok)
}
