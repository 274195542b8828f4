// internal/scheduler/autosave_test.go
package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardledger/internal/util"
)

type countingTarget struct {
	calls atomic.Int32
	err   error
}

func (c *countingTarget) SaveAll(context.Context) error {
	c.calls.Add(1)
	return c.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAutosaver_RunsPeriodically(t *testing.T) {
	target := &countingTarget{}
	a := NewAutosaver(time.Second, discardLogger(), target)
	require.NoError(t, a.Start())

	assert.Eventually(t, func() bool { return target.calls.Load() >= 1 }, 5*time.Second, 50*time.Millisecond)

	before := target.calls.Load()
	require.NoError(t, a.Shutdown(context.Background()))
	assert.GreaterOrEqual(t, target.calls.Load(), before+1, "shutdown performs a final save")
}

func TestAutosaver_Disabled(t *testing.T) {
	cards, skins := &countingTarget{}, &countingTarget{}
	a := NewAutosaver(0, discardLogger(), cards, skins)
	require.NoError(t, a.Start())

	require.NoError(t, a.Shutdown(context.Background()))
	assert.Equal(t, int32(1), cards.calls.Load())
	assert.Equal(t, int32(1), skins.calls.Load())
}

func TestAutosaver_FinalSaveReportsFailures(t *testing.T) {
	failing := &countingTarget{err: &util.PersistenceError{Op: "save cards.yml", Err: errors.New("disk full")}}
	healthy := &countingTarget{}
	a := NewAutosaver(0, discardLogger(), failing, healthy)

	err := a.Shutdown(context.Background())
	require.Error(t, err)
	assert.True(t, util.IsPersistenceError(err))
	assert.Equal(t, int32(1), healthy.calls.Load(), "later targets still run")
}
