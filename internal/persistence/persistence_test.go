// internal/persistence/persistence_test.go
package persistence

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardledger/internal/domain"
	"cardledger/internal/util"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memBackend is an in-memory Backend that can be told to fail.
type memBackend struct {
	mu     sync.Mutex
	docs   map[string][]byte
	writes int
	fail   error
}

func newMemBackend() *memBackend {
	return &memBackend{docs: make(map[string][]byte)}
}

func (b *memBackend) Read(_ context.Context, name string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.docs[name]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return data, nil
}

func (b *memBackend) Write(_ context.Context, name string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return b.fail
	}
	b.docs[name] = append([]byte(nil), data...)
	b.writes++
	return nil
}

func TestCardsRoundTrip(t *testing.T) {
	created, err := domain.ParseTimestamp("01-01-2024 00:00:00")
	require.NoError(t, err)

	in := CardsSnapshot{
		Cards: []domain.Card{{
			ID:               "1234-5678",
			OwnerID:          "u1",
			OwnerDisplayName: "Alice",
			Balance:          500,
			CreatedAt:        created,
			LastUsedAt:       created,
			Color:            16777215,
		}},
		RetiredIDs: []string{"0000-0001"},
	}

	body, err := EncodeCards(in, time.Now())
	require.NoError(t, err)
	assert.Contains(t, string(body), "total-cards: 1")
	assert.Contains(t, string(body), "created: 01-01-2024 00:00:00")

	out, err := DecodeCards(body, discardLogger())
	require.NoError(t, err)
	require.Len(t, out.Cards, 1)
	assert.Equal(t, in.Cards[0], out.Cards[0])
	assert.Equal(t, []string{"0000-0001"}, out.RetiredIDs)
}

func TestDecodeCards_DefaultsAndMalformed(t *testing.T) {
	body := []byte(`
total-cards: 99
last-save: 01-01-2024 00:00:00
cards:
  "1111-1111":
    owner: u1
  "22223333":
    owner: u2
    balance: 10
    color: 255
  "2222-4444":
    owner: "bad owner"
    balance: 5
  "3333-3333":
    owner: u3
    balance: -4
  not-an-id:
    owner: u4
`)
	snap, err := DecodeCards(body, discardLogger())
	require.NoError(t, err)

	byID := map[string]domain.Card{}
	for _, c := range snap.Cards {
		byID[c.ID] = c
	}
	require.Len(t, byID, 2)

	def := byID["1111-1111"]
	assert.Equal(t, domain.DefaultOwnerName, def.OwnerDisplayName)
	assert.Equal(t, int64(0), def.Balance)
	assert.Equal(t, domain.DefaultColor, def.Color)

	assert.Equal(t, int64(10), byID["2222-3333"].Balance)
	assert.Equal(t, 255, byID["2222-3333"].Color)

	assert.ElementsMatch(t, []string{"2222-4444", "3333-3333"}, snap.RetiredIDs)
}

func TestDecodeCards_BrokenDocument(t *testing.T) {
	_, err := DecodeCards([]byte("cards: [unterminated"), discardLogger())
	assert.Error(t, err)
}

func TestCooldownsRoundTrip(t *testing.T) {
	expiry := time.UnixMilli(1_800_000_000_000)
	body, err := EncodeCooldowns(map[string]time.Time{"u1": expiry}, time.Now())
	require.NoError(t, err)
	assert.Contains(t, string(body), "version: 1")
	assert.Contains(t, string(body), "total-cooldowns: 1")

	out, err := DecodeCooldowns(body, discardLogger())
	require.NoError(t, err)
	assert.True(t, expiry.Equal(out["u1"]))
}

func TestDecodeCooldowns_SkipsMalformedKeys(t *testing.T) {
	body := []byte(`
version: 1
total-cooldowns: 3
cooldowns:
  u1: 1800000000000
  "bad key": 1800000000000
  u2: soon
`)
	out, err := DecodeCooldowns(body, discardLogger())
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Contains(t, out, "u1")
}

func TestSkinsRoundTrip(t *testing.T) {
	in := map[string]domain.SkinSet{
		"u1": {OwnerName: "Alice", Skins: []string{"1", "5"}},
	}
	body, err := EncodeSkins(in)
	require.NoError(t, err)

	out, err := DecodeSkins(body, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeSkins_Malformed(t *testing.T) {
	body := []byte(`
skins:
  u1:
    name: Alice
    skins: ["1", "x", 2, "1"]
  u2:
    name: Bob
    skins: []
`)
	out, err := DecodeSkins(body, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.SkinSet{"u1": {OwnerName: "Alice", Skins: []string{"1", "2"}}}, out)
}

func TestLayer_LoadCreatesMissingDocuments(t *testing.T) {
	backend := newMemBackend()
	layer := NewLayer(backend, Files{}, discardLogger())
	ctx := context.Background()

	cards, err := layer.LoadCards(ctx)
	require.NoError(t, err)
	assert.Empty(t, cards.Cards)

	cooldowns, err := layer.LoadCooldowns(ctx)
	require.NoError(t, err)
	assert.Empty(t, cooldowns)

	skins, err := layer.LoadSkins(ctx)
	require.NoError(t, err)
	assert.Empty(t, skins)

	assert.Contains(t, backend.docs, "cards.yml")
	assert.Contains(t, backend.docs, "cooldowns.yml")
	assert.Contains(t, backend.docs, "skins.yml")

	// A second load decodes the freshly written documents.
	cards, err = layer.LoadCards(ctx)
	require.NoError(t, err)
	assert.Empty(t, cards.Cards)
}

func TestLayer_DropsStaleVersions(t *testing.T) {
	backend := newMemBackend()
	layer := NewLayer(backend, DefaultFiles, discardLogger())
	ctx := context.Background()

	newer := CardsSnapshot{Cards: []domain.Card{domain.NewCard("0000-0002", "u1", "A", 0, time.Now())}}
	older := CardsSnapshot{Cards: []domain.Card{domain.NewCard("0000-0001", "u1", "A", 0, time.Now())}}

	require.NoError(t, layer.SaveCards(ctx, 5, newer))
	require.NoError(t, layer.SaveCards(ctx, 4, older))
	assert.Equal(t, 1, backend.writes)

	snap, err := layer.LoadCards(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Cards, 1)
	assert.Equal(t, "0000-0002", snap.Cards[0].ID)

	require.NoError(t, layer.SaveCards(ctx, 5, newer))
	assert.Equal(t, 2, backend.writes, "same version is rewritten")
}

func TestLayer_WriteFailureIsPersistenceError(t *testing.T) {
	backend := newMemBackend()
	backend.fail = errors.New("disk full")
	layer := NewLayer(backend, DefaultFiles, discardLogger())

	err := layer.SaveCooldowns(context.Background(), 1, map[string]time.Time{"u1": time.Now()})
	require.Error(t, err)
	assert.True(t, util.IsPersistenceError(err))
	assert.ErrorIs(t, err, util.ErrPersistence)

	// A failed write does not advance the written version.
	backend.fail = nil
	require.NoError(t, layer.SaveCooldowns(context.Background(), 1, nil))
	assert.Equal(t, 1, backend.writes)
}

func TestFileBackend(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	b, err := NewFileBackend(dir)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = b.Read(ctx, "cards.yml")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	require.NoError(t, b.Write(ctx, "cards.yml", []byte("one")))
	require.NoError(t, b.Write(ctx, "cards.yml", []byte("two")))

	data, err := b.Read(ctx, "cards.yml")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are renamed away")
}

func TestLayer_FileBackendEndToEnd(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	layer := NewLayer(b, DefaultFiles, discardLogger())
	ctx := context.Background()

	card := domain.NewCard("4321-8765", "u1", "Alice", 0x00FF00, time.Now())
	card.Balance = 42
	require.NoError(t, layer.SaveCards(ctx, 1, CardsSnapshot{Cards: []domain.Card{card}}))

	fresh := NewLayer(b, DefaultFiles, discardLogger())
	snap, err := fresh.LoadCards(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Cards, 1)
	assert.Equal(t, card, snap.Cards[0])
}
