// ABOUTME: Selection state machine tracking which conversation is active
// ABOUTME: Three states: Unselected, DraftSelected, RealSelected; promotion is system-driven

package selection

import (
	"errors"
	"fmt"
)

// State enumerates the selection states.
type State int

const (
	Unselected State = iota
	DraftSelected
	RealSelected
)

func (s State) String() string {
	switch s {
	case DraftSelected:
		return "draft_selected"
	case RealSelected:
		return "real_selected"
	default:
		return "unselected"
	}
}

// ErrNotDraft is returned by Promote outside the DraftSelected state.
var ErrNotDraft = errors.New("no draft selected")

// Selection is the active-conversation state machine. User picks move freely
// between drafts and real conversations; Promote is the one system-driven
// transition, legal only while a draft is selected. Nothing auto-reverts to
// Unselected except an explicit Deselect.
type Selection struct {
	state          State
	draftID        string
	conversationID int64
}

// State returns the current state.
func (s *Selection) State() State { return s.state }

// DraftID returns the selected draft id, empty unless DraftSelected.
func (s *Selection) DraftID() string { return s.draftID }

// ConversationID returns the selected real conversation id, zero unless
// RealSelected.
func (s *Selection) ConversationID() int64 { return s.conversationID }

// PickDraft selects a draft conversation (user-driven).
func (s *Selection) PickDraft(draftID string) {
	s.state = DraftSelected
	s.draftID = draftID
	s.conversationID = 0
}

// PickReal selects a real conversation (user-driven).
func (s *Selection) PickReal(conversationID int64) {
	s.state = RealSelected
	s.draftID = ""
	s.conversationID = conversationID
}

// Promote switches a selected draft to its freshly created real conversation.
// This is the system-driven transition: it fires when reconciliation finds a
// match for the selected draft, never on user action.
func (s *Selection) Promote(conversationID int64) error {
	if s.state != DraftSelected {
		return fmt.Errorf("%w (state %s)", ErrNotDraft, s.state)
	}
	s.state = RealSelected
	s.draftID = ""
	s.conversationID = conversationID
	return nil
}

// Deselect returns to Unselected.
func (s *Selection) Deselect() {
	s.state = Unselected
	s.draftID = ""
	s.conversationID = 0
}
