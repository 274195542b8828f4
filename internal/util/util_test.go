// internal/util/util_test.go
package util

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownError(t *testing.T) {
	err := fmt.Errorf("create card: %w", &CooldownError{Remaining: 90 * time.Minute})

	assert.True(t, IsError(err, ErrCooldownActive))
	assert.False(t, IsError(err, ErrPersistence))
	assert.Contains(t, err.Error(), "1h30m0s remaining")

	var ce *CooldownError
	assert.True(t, errors.As(err, &ce))
	assert.Equal(t, 90*time.Minute, ce.Remaining)
}

func TestPersistenceError(t *testing.T) {
	disk := errors.New("disk full")
	err := errors.Join(&PersistenceError{Op: "save cards.yml", Err: disk})

	assert.True(t, IsPersistenceError(err))
	assert.True(t, IsError(err, ErrPersistence))
	assert.True(t, IsError(err, disk))
	assert.Contains(t, err.Error(), "save cards.yml: disk full")

	assert.False(t, IsPersistenceError(ErrCardNotFound))
	assert.False(t, IsPersistenceError(nil))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" DEBUG ", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestGetLoggerInitializesLazily(t *testing.T) {
	logger = nil
	assert.NotNil(t, GetLogger())
	assert.Same(t, GetLogger(), GetLogger())
}
