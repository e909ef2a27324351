// ABOUTME: Ordered message stream for the active conversation
// ABOUTME: Guards appends by conversation id and discards stale history responses by generation

package stream

import (
	"log/slog"
	"sync"

	"github.com/couponly/chatcore/internal/chat"
)

// Stream holds the messages of the currently active conversation. It is fed
// twice: once by the history response for the active id, and continuously by
// live pushes. Both feeds race freely on the channel, so every write is
// guarded by the active conversation id, and history additionally by a
// generation counter so a response for a previously active conversation is
// discarded instead of applied.
type Stream struct {
	mu         sync.RWMutex
	activeID   int64 // zero while unselected or a draft is selected
	generation uint64
	messages   []chat.Message
	logger     *slog.Logger
}

// New creates an empty stream. Pass nil logger for default.
func New(logger *slog.Logger) *Stream {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stream{logger: logger.With("component", "stream")}
}

// Reset clears the stream and targets it at conversationID. Pass zero for a
// draft or deselected state (no history has a target then). Returns the new
// generation; the caller hands it back with the matching history response.
func (s *Stream) Reset(conversationID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeID = conversationID
	s.generation++
	s.messages = nil
	return s.generation
}

// ApplyHistory installs a history response. It is dropped unless both the
// generation and the conversation id still match the active state, which is
// what makes a late response for a stale conversation harmless. Messages
// already appended by a live push are merged back in keyed by id, so a push
// that raced ahead of the snapshot is never lost.
func (s *Stream) ApplyHistory(generation uint64, conversationID int64, msgs []chat.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation || conversationID != s.activeID {
		s.logger.Debug("discarding stale history response",
			"conversation_id", conversationID,
			"active_id", s.activeID)
		return false
	}

	merged := append([]chat.Message(nil), msgs...)
	known := make(map[string]struct{}, len(merged))
	for _, m := range merged {
		known[m.ID] = struct{}{}
	}
	for _, m := range s.messages {
		if _, ok := known[m.ID]; !ok {
			merged = append(merged, m)
			known[m.ID] = struct{}{}
		}
	}
	s.messages = merged
	return true
}

// AppendLive appends a pushed message if it belongs to the active
// conversation. Append-only: prior entries are never re-ordered. Messages
// already present (by id) are ignored, covering the push-before-history
// overlap.
func (s *Stream) AppendLive(msg chat.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeID == 0 || msg.ConversationID != s.activeID {
		return false
	}
	for _, m := range s.messages {
		if m.ID == msg.ID {
			return true
		}
	}
	s.messages = append(s.messages, msg)
	return true
}

// ActiveID returns the conversation id the stream is targeting, zero if none.
func (s *Stream) ActiveID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Messages returns a snapshot copy of the stream contents.
func (s *Stream) Messages() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]chat.Message(nil), s.messages...)
}
