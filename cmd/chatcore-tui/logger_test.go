// ABOUTME: Tests for the TUI log handler
// ABOUTME: Covers level gating, attr accumulation, and group flattening

package main

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couponly/chatcore/internal/config"
)

func TestSetupLoggerLevels(t *testing.T) {
	logger := setupLogger(config.LoggingConfig{Level: "warn"})
	require.NotNil(t, logger)

	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
}

func TestColorHandlerWithAttrs(t *testing.T) {
	h := &colorHandler{level: slog.LevelInfo}

	derived := h.WithAttrs([]slog.Attr{slog.String("component", "session")})
	ch, ok := derived.(*colorHandler)
	require.True(t, ok)
	require.Len(t, ch.attrs, 1)
	assert.Equal(t, "component", ch.attrs[0].Key)
	assert.Empty(t, h.attrs, "parent handler must be untouched")
}

func TestColorHandlerWithGroupFlattens(t *testing.T) {
	h := &colorHandler{level: slog.LevelInfo}

	grouped := h.WithGroup("request")
	assert.Same(t, slog.Handler(h), grouped, "groups are flattened to the same handler")
}
