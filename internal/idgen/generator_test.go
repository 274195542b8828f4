// internal/idgen/generator_test.go
package idgen

import (
	"math/rand/v2"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardledger/internal/util"
)

var idPattern = regexp.MustCompile(`^\d{4}-\d{4}$`)

type setReserver struct {
	mu   sync.Mutex
	used map[string]bool
}

func newSetReserver(ids ...string) *setReserver {
	r := &setReserver{used: make(map[string]bool)}
	for _, id := range ids {
		r.used[id] = true
	}
	return r
}

func (r *setReserver) Reserve(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.used[id] {
		return false
	}
	r.used[id] = true
	return true
}

// fullReserver rejects everything except the listed ids.
type fullReserver struct {
	allow map[string]bool
	tried []string
}

func (r *fullReserver) Reserve(id string) bool {
	r.tried = append(r.tried, id)
	return r.allow[id]
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0000-0000", Format(0))
	assert.Equal(t, "0012-3456", Format(123456))
	assert.Equal(t, "9999-9999", Format(99999999))
}

func TestGenerateUniqueID(t *testing.T) {
	t.Run("ids are distinct and reserved", func(t *testing.T) {
		g := New(rand.NewPCG(1, 2), nil)
		used := newSetReserver()

		seen := make(map[string]bool)
		for i := 0; i < 1000; i++ {
			id, err := g.GenerateUniqueID(used)
			require.NoError(t, err)
			assert.Regexp(t, idPattern, id)
			assert.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
			assert.True(t, used.used[id])
		}
	})

	t.Run("never returns a used id", func(t *testing.T) {
		// Same seed yields the same first draw.
		first, err := New(rand.NewPCG(7, 7), nil).GenerateUniqueID(newSetReserver())
		require.NoError(t, err)

		id, err := New(rand.NewPCG(7, 7), nil).GenerateUniqueID(newSetReserver(first))
		require.NoError(t, err)
		assert.NotEqual(t, first, id)
	})

	t.Run("falls back to clock after exhausting attempts", func(t *testing.T) {
		clock := func() time.Time { return time.UnixMilli(1_700_000_123_456) }
		g := New(rand.NewPCG(3, 4), clock)
		used := &fullReserver{allow: map[string]bool{"0012-3456": true}}

		id, err := g.GenerateUniqueID(used)
		require.NoError(t, err)
		assert.Equal(t, "0012-3456", id)
		assert.Len(t, used.tried, MaxAttempts+1)
	})

	t.Run("exhausted when fallback collides", func(t *testing.T) {
		g := New(rand.NewPCG(3, 4), func() time.Time { return time.UnixMilli(42) })
		_, err := g.GenerateUniqueID(&fullReserver{})
		assert.ErrorIs(t, err, util.ErrIDExhausted)
	})

	t.Run("concurrent callers never share an id", func(t *testing.T) {
		g := New(nil, nil)
		used := newSetReserver()

		var wg sync.WaitGroup
		ids := make(chan string, 400)
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					id, err := g.GenerateUniqueID(used)
					if err == nil {
						ids <- id
					}
				}
			}()
		}
		wg.Wait()
		close(ids)

		seen := make(map[string]bool)
		for id := range ids {
			assert.False(t, seen[id])
			seen[id] = true
		}
		assert.Len(t, seen, 400)
	})
}

func TestRandomColor(t *testing.T) {
	g := New(rand.NewPCG(9, 9), nil)
	for i := 0; i < 100; i++ {
		c := g.RandomColor()
		assert.GreaterOrEqual(t, c, 0)
		assert.LessOrEqual(t, c, 0xFFFFFF)
	}
}
