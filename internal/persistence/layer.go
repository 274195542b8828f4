// internal/persistence/layer.go
package persistence

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"cardledger/internal/domain"
	"cardledger/internal/util"
)

// Files names the three snapshot documents.
type Files struct {
	Cards     string
	Cooldowns string
	Skins     string
}

// DefaultFiles matches the historical on-disk names.
var DefaultFiles = Files{Cards: "cards.yml", Cooldowns: "cooldowns.yml", Skins: "skins.yml"}

// Layer loads and saves ledger snapshots through a Backend.
//
// Saves carry the version of the state they were captured at. Writes are
// serialized, and a save whose version is older than one already written
// for the same document is dropped. Callers can therefore capture a snapshot
// under their own lock and write it after releasing that lock without ever
// letting an older state overwrite a newer one.
type Layer struct {
	backend Backend
	files   Files
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	written map[string]uint64
}

// NewLayer creates a Layer. Empty file names fall back to DefaultFiles.
func NewLayer(backend Backend, files Files, logger *slog.Logger) *Layer {
	if files.Cards == "" {
		files.Cards = DefaultFiles.Cards
	}
	if files.Cooldowns == "" {
		files.Cooldowns = DefaultFiles.Cooldowns
	}
	if files.Skins == "" {
		files.Skins = DefaultFiles.Skins
	}
	return &Layer{
		backend: backend,
		files:   files,
		logger:  logger,
		now:     time.Now,
		written: make(map[string]uint64),
	}
}

// LoadCards reads the cards document. A missing document is created empty.
func (l *Layer) LoadCards(ctx context.Context) (CardsSnapshot, error) {
	data, err := l.read(ctx, l.files.Cards, func() ([]byte, error) {
		return EncodeCards(CardsSnapshot{}, l.now())
	})
	if err != nil || data == nil {
		return CardsSnapshot{}, err
	}
	snap, err := DecodeCards(data, l.logger)
	if err != nil {
		return CardsSnapshot{}, &util.PersistenceError{Op: "load " + l.files.Cards, Err: err}
	}
	l.logger.Info("Loaded cards", "cards", len(snap.Cards), "retired_ids", len(snap.RetiredIDs))
	return snap, nil
}

// LoadCooldowns reads the cooldowns document. A missing document is created empty.
func (l *Layer) LoadCooldowns(ctx context.Context) (map[string]time.Time, error) {
	data, err := l.read(ctx, l.files.Cooldowns, func() ([]byte, error) {
		return EncodeCooldowns(nil, l.now())
	})
	if err != nil || data == nil {
		return map[string]time.Time{}, err
	}
	expires, err := DecodeCooldowns(data, l.logger)
	if err != nil {
		return map[string]time.Time{}, &util.PersistenceError{Op: "load " + l.files.Cooldowns, Err: err}
	}
	l.logger.Info("Loaded cooldowns", "cooldowns", len(expires))
	return expires, nil
}

// LoadSkins reads the skins document. A missing document is created empty.
func (l *Layer) LoadSkins(ctx context.Context) (map[string]domain.SkinSet, error) {
	data, err := l.read(ctx, l.files.Skins, func() ([]byte, error) {
		return EncodeSkins(nil)
	})
	if err != nil || data == nil {
		return map[string]domain.SkinSet{}, err
	}
	sets, err := DecodeSkins(data, l.logger)
	if err != nil {
		return map[string]domain.SkinSet{}, &util.PersistenceError{Op: "load " + l.files.Skins, Err: err}
	}
	l.logger.Info("Loaded skins", "owners", len(sets))
	return sets, nil
}

// read returns nil data (and no error) when the document did not exist and
// an empty one was written in its place.
func (l *Layer) read(ctx context.Context, name string, empty func() ([]byte, error)) ([]byte, error) {
	data, err := l.backend.Read(ctx, name)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, ErrSnapshotNotFound) {
		l.logger.Error("Failed to read snapshot", "document", name, "error", err)
		return nil, &util.PersistenceError{Op: "load " + name, Err: err}
	}

	l.logger.Info("Snapshot missing, creating empty document", "document", name)
	body, err := empty()
	if err == nil {
		err = l.write(ctx, name, 0, body)
	}
	if err != nil {
		return nil, err
	}
	return nil, nil
}

// SaveCards writes the cards document captured at version.
func (l *Layer) SaveCards(ctx context.Context, version uint64, snap CardsSnapshot) error {
	body, err := EncodeCards(snap, l.now())
	if err != nil {
		return &util.PersistenceError{Op: "encode " + l.files.Cards, Err: err}
	}
	return l.write(ctx, l.files.Cards, version, body)
}

// SaveCooldowns writes the cooldowns document captured at version.
func (l *Layer) SaveCooldowns(ctx context.Context, version uint64, expires map[string]time.Time) error {
	body, err := EncodeCooldowns(expires, l.now())
	if err != nil {
		return &util.PersistenceError{Op: "encode " + l.files.Cooldowns, Err: err}
	}
	return l.write(ctx, l.files.Cooldowns, version, body)
}

// SaveSkins writes the skins document captured at version.
func (l *Layer) SaveSkins(ctx context.Context, version uint64, sets map[string]domain.SkinSet) error {
	body, err := EncodeSkins(sets)
	if err != nil {
		return &util.PersistenceError{Op: "encode " + l.files.Skins, Err: err}
	}
	return l.write(ctx, l.files.Skins, version, body)
}

func (l *Layer) write(ctx context.Context, name string, version uint64, body []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if version < l.written[name] {
		l.logger.Debug("Dropping stale snapshot", "document", name, "version", version, "written", l.written[name])
		return nil
	}
	if err := l.backend.Write(ctx, name, body); err != nil {
		l.logger.Error("Failed to save snapshot", "document", name, "version", version, "error", err)
		return &util.PersistenceError{Op: "save " + name, Err: err}
	}
	l.written[name] = version
	l.logger.Debug("Saved snapshot", "document", name, "version", version, "bytes", len(body))
	return nil
}
