// internal/service/skin_service_test.go
package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardledger/internal/persistence"
	"cardledger/internal/repository/memory"
	"cardledger/internal/util"
)

func newSkinFixture(t *testing.T, backend *fakeBackend, catalog map[string]string) SkinService {
	t.Helper()
	logger := discardLogger()
	svc := NewSkinService(memory.NewSkinStore(), persistence.NewLayer(backend, persistence.DefaultFiles, logger), catalog, logger)
	require.NoError(t, svc.Load(context.Background()))
	return svc
}

func TestSkinService_AddRemove(t *testing.T) {
	ctx := context.Background()
	svc := newSkinFixture(t, newFakeBackend(), nil)

	require.NoError(t, svc.Add(ctx, "u1", "Alice", "3"))
	require.NoError(t, svc.Add(ctx, "u1", "Alice", "01"))
	assert.Equal(t, []string{"3", "1"}, svc.GetAvailable("u1"))

	assert.ErrorIs(t, svc.Add(ctx, "u1", "Alice", "3"), util.ErrSkinAlreadyOwned)
	assert.ErrorIs(t, svc.Add(ctx, "u1", "Alice", "gold"), util.ErrInvalidSkin)
	assert.ErrorIs(t, svc.Add(ctx, "bad owner", "Alice", "3"), util.ErrInvalidOwner)

	require.NoError(t, svc.Remove(ctx, "u1", "3"))
	assert.Equal(t, []string{"1"}, svc.GetAvailable("u1"))
	assert.ErrorIs(t, svc.Remove(ctx, "u1", "3"), util.ErrSkinNotOwned)

	require.NoError(t, svc.Remove(ctx, "u1", "1"))
	assert.Empty(t, svc.GetAvailable("u1"))
	assert.ErrorIs(t, svc.Remove(ctx, "u2", "1"), util.ErrSkinNotOwned)
}

func TestSkinService_Catalog(t *testing.T) {
	ctx := context.Background()
	svc := newSkinFixture(t, newFakeBackend(), map[string]string{"10": "Gold", "2": "Silver", "x": "Broken"})

	assert.Equal(t, map[string]string{"10": "Gold", "2": "Silver"}, svc.Catalog())
	assert.ErrorIs(t, svc.Add(ctx, "u1", "Alice", "3"), util.ErrUnknownSkin)

	require.NoError(t, svc.Add(ctx, "u1", "Alice", "10"))
	added, err := svc.AddAll(ctx, "u1", "Alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, added)
	assert.Equal(t, []string{"10", "2"}, svc.GetAvailable("u1"))

	added, err = svc.AddAll(ctx, "u1", "Alice")
	require.NoError(t, err)
	assert.Empty(t, added)
}

func TestSkinService_PersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	svc := newSkinFixture(t, backend, nil)
	require.NoError(t, svc.Add(ctx, "u1", "Alice", "7"))

	reloaded := newSkinFixture(t, backend, nil)
	assert.Equal(t, []string{"7"}, reloaded.GetAvailable("u1"))
}

func TestSkinService_PersistenceFailure(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	svc := newSkinFixture(t, backend, nil)

	backend.setFail(errors.New("read-only filesystem"))
	err := svc.Add(ctx, "u1", "Alice", "7")
	assert.True(t, util.IsPersistenceError(err))
	assert.Equal(t, []string{"7"}, svc.GetAvailable("u1"))
}
