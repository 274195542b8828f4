// internal/scheduler/autosave.go
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Checkpointer writes a full snapshot of its state.
type Checkpointer interface {
	SaveAll(ctx context.Context) error
}

// saveTimeout bounds a single autosave run.
const saveTimeout = 30 * time.Second

// Autosaver periodically checkpoints the ledger and runs the final save on shutdown.
type Autosaver struct {
	cron     *cron.Cron
	interval time.Duration
	targets  []Checkpointer
	logger   *slog.Logger
}

// NewAutosaver creates an Autosaver. An interval of zero or less disables the
// periodic job; Shutdown still performs the final save.
func NewAutosaver(interval time.Duration, logger *slog.Logger, targets ...Checkpointer) *Autosaver {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)))

	return &Autosaver{
		cron:     c,
		interval: interval,
		targets:  targets,
		logger:   logger,
	}
}

// Start registers the autosave job and starts the cron scheduler.
func (a *Autosaver) Start() error {
	if a.interval <= 0 {
		a.logger.Info("Autosave disabled")
		return nil
	}
	spec := fmt.Sprintf("@every %s", a.interval)
	if _, err := a.cron.AddFunc(spec, a.run); err != nil {
		return fmt.Errorf("schedule autosave %q: %w", spec, err)
	}
	a.cron.Start()
	a.logger.Info("Scheduled autosave", "interval", a.interval.String())
	return nil
}

func (a *Autosaver) run() {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := a.SaveNow(ctx); err != nil {
		a.logger.Error("Autosave failed", "error", err)
	}
}

// SaveNow checkpoints every target, continuing past failures.
func (a *Autosaver) SaveNow(ctx context.Context) error {
	var errs []error
	for _, t := range a.targets {
		if err := t.SaveAll(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Shutdown stops the timer, waits for a running autosave to finish, then
// performs the final save synchronously.
func (a *Autosaver) Shutdown(ctx context.Context) error {
	select {
	case <-a.cron.Stop().Done():
	case <-ctx.Done():
		a.logger.Warn("Timed out waiting for running autosave", "error", ctx.Err())
	}

	if err := a.SaveNow(ctx); err != nil {
		a.logger.Error("Final save failed", "error", err)
		return fmt.Errorf("final save: %w", err)
	}
	a.logger.Info("Final save completed")
	return nil
}
