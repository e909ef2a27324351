// ABOUTME: Tests for the seen-message cache
// ABOUTME: Verifies redelivery detection, TTL expiry, and size-bounded eviction

package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeen_FirstDeliveryIsNew(t *testing.T) {
	c := New(time.Minute, 100)

	assert.False(t, c.Seen("msg-1"))
	assert.True(t, c.Seen("msg-1"))
	assert.False(t, c.Seen("msg-2"))
}

func TestSeen_ExpiredEntryIsNewAgain(t *testing.T) {
	c := New(10*time.Millisecond, 100)

	assert.False(t, c.Seen("msg-1"))
	time.Sleep(20 * time.Millisecond)
	assert.False(t, c.Seen("msg-1"))
}

func TestSeen_EvictsOldestAtCapacity(t *testing.T) {
	c := New(time.Minute, 2)

	assert.False(t, c.Seen("a"))
	assert.False(t, c.Seen("b"))
	assert.False(t, c.Seen("c")) // evicts a
	assert.Equal(t, 2, c.Len())
	assert.False(t, c.Seen("a"), "evicted key must look new")
}

func TestSeen_PrunesExpired(t *testing.T) {
	c := New(10*time.Millisecond, 100)
	c.Seen("a")
	c.Seen("b")
	time.Sleep(20 * time.Millisecond)

	c.Seen("c")
	assert.Equal(t, 1, c.Len())
}
