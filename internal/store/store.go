// ABOUTME: In-memory conversation store, the authoritative projection of server-known conversations
// ABOUTME: Mutated only by channel events: full snapshots replace, live messages patch

package store

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/couponly/chatcore/internal/chat"
)

// ErrUnknownConversation is returned when a live message references a
// conversation id absent from the store. The store never fabricates a
// conversation for it; the caller reacts by requesting a full re-sync.
var ErrUnknownConversation = errors.New("unknown conversation")

// Store holds the list of real (server-known) conversations with their
// message previews. Order is preserved exactly as received from the backend,
// which keeps the reconciler's first-match tie-break deterministic.
//
// Reads return copies so a UI goroutine never observes a half-applied patch.
type Store struct {
	mu     sync.RWMutex
	convs  []chat.Conversation
	index  map[int64]int // conversation id -> position in convs
	logger *slog.Logger
}

// New creates an empty store. Pass nil logger for default.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		index:  make(map[int64]int),
		logger: logger.With("component", "store"),
	}
}

// ReplaceAll installs a full conversation snapshot, discarding previous
// contents. The input is copied; callers keep ownership of their slice.
func (s *Store) ReplaceAll(convs []chat.Conversation) {
	next := make([]chat.Conversation, len(convs))
	index := make(map[int64]int, len(convs))
	for i, c := range convs {
		c.Messages = append([]chat.Message(nil), c.Messages...)
		next[i] = c
		if _, dup := index[c.ID]; !dup {
			index[c.ID] = i
		}
	}

	s.mu.Lock()
	s.convs = next
	s.index = index
	s.mu.Unlock()

	s.logger.Debug("conversation snapshot installed", "count", len(next))
}

// ApplyMessage appends a message to its conversation's preview tail and bumps
// UpdatedAt to the message timestamp. A message id already present in the
// tail is ignored, so at-least-once redelivery cannot double-append or
// double-bump. Returns ErrUnknownConversation when the id is not in the
// store.
func (s *Store) ApplyMessage(msg chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[msg.ConversationID]
	if !ok {
		return ErrUnknownConversation
	}

	conv := &s.convs[i]
	for _, m := range conv.Messages {
		if m.ID == msg.ID {
			return nil
		}
	}

	conv.Messages = append(conv.Messages, msg)
	if msg.CreatedAt.After(conv.UpdatedAt) {
		conv.UpdatedAt = msg.CreatedAt
	}
	return nil
}

// Get returns a copy of one conversation by id.
func (s *Store) Get(id int64) (chat.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return chat.Conversation{}, false
	}
	c := s.convs[i]
	c.Messages = append([]chat.Message(nil), c.Messages...)
	return c, true
}

// Snapshot returns a copy of all conversations in store order.
func (s *Store) Snapshot() []chat.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chat.Conversation, len(s.convs))
	for i, c := range s.convs {
		c.Messages = append([]chat.Message(nil), c.Messages...)
		out[i] = c
	}
	return out
}

// Len returns the number of conversations currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.convs)
}
