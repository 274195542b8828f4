// internal/persistence/sqlstore/store_test.go
package sqlstore

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardledger/internal/domain"
	"cardledger/internal/persistence"
	"cardledger/pkg/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	conn, err := db.NewSQLiteDB(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	s, err := New(context.Background(), conn)
	require.NoError(t, err)
	return s
}

func TestStore_ReadWrite(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Read(ctx, "cards.yml")
	assert.ErrorIs(t, err, persistence.ErrSnapshotNotFound)

	require.NoError(t, s.Write(ctx, "cards.yml", []byte("first")))
	require.NoError(t, s.Write(ctx, "cards.yml", []byte("second")))

	got, err := s.Read(ctx, "cards.yml")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	require.NoError(t, s.Migrate(ctx), "migrate is idempotent")
}

func TestStore_BacksLayer(t *testing.T) {
	s := newTestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	layer := persistence.NewLayer(s, persistence.DefaultFiles, logger)
	ctx := context.Background()

	snap, err := layer.LoadCards(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Cards)

	card := domain.NewCard("1234-5678", "u1", "Alice", domain.DefaultColor, time.Now())
	card.Balance = 500
	require.NoError(t, layer.SaveCards(ctx, 1, persistence.CardsSnapshot{
		Cards:      []domain.Card{card},
		RetiredIDs: []string{"0000-0007"},
	}))

	reloaded, err := persistence.NewLayer(s, persistence.DefaultFiles, logger).LoadCards(ctx)
	require.NoError(t, err)
	require.Len(t, reloaded.Cards, 1)
	assert.Equal(t, card, reloaded.Cards[0])
	assert.Equal(t, []string{"0000-0007"}, reloaded.RetiredIDs)
}
