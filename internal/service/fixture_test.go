// internal/service/fixture_test.go
package service

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cardledger/internal/idgen"
	"cardledger/internal/notify"
	"cardledger/internal/persistence"
	"cardledger/internal/repository/memory"
)

// fakeBackend is an in-memory persistence.Backend that can be told to fail.
type fakeBackend struct {
	mu   sync.Mutex
	docs map[string][]byte
	fail error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{docs: make(map[string][]byte)}
}

func (b *fakeBackend) Read(_ context.Context, name string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.docs[name]
	if !ok {
		return nil, persistence.ErrSnapshotNotFound
	}
	return data, nil
}

func (b *fakeBackend) Write(_ context.Context, name string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return b.fail
	}
	b.docs[name] = append([]byte(nil), data...)
	return nil
}

func (b *fakeBackend) setFail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = err
}

func (b *fakeBackend) doc(name string) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.docs[name]
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MockPublisher is a mock implementation of notify.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event notify.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type ledgerFixture struct {
	svc     LedgerService
	backend *fakeBackend
	clock   *fakeClock
	pub     *MockPublisher
}

func newLedgerFixture(t *testing.T, cfg LedgerConfig) *ledgerFixture {
	t.Helper()
	return newLedgerFixtureOn(t, newFakeBackend(), cfg)
}

func newLedgerFixtureOn(t *testing.T, backend *fakeBackend, cfg LedgerConfig) *ledgerFixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = 24 * time.Hour
	}
	cfg.Clock = clock.Now

	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()

	logger := discardLogger()
	layer := persistence.NewLayer(backend, persistence.DefaultFiles, logger)
	svc := NewLedgerService(
		memory.NewCardStore(),
		memory.NewCooldownStore(),
		idgen.New(rand.NewPCG(11, 22), clock.Now),
		layer,
		pub,
		cfg,
		logger,
	)
	require.NoError(t, svc.Load(context.Background()))
	return &ledgerFixture{svc: svc, backend: backend, clock: clock, pub: pub}
}

// fundedCard fabricates a card and deposits balance into it.
func (f *ledgerFixture) fundedCard(t *testing.T, id, owner string, balance int64) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.CreateCardWithID(ctx, owner, "Alice", id)
	require.NoError(t, err)
	if balance > 0 {
		_, err = f.svc.Deposit(ctx, id, balance)
		require.NoError(t, err)
	}
}
