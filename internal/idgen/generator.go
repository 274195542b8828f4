// internal/idgen/generator.go
package idgen

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"cardledger/internal/util"
)

// MaxAttempts bounds the random draws before falling back to a clock-derived id.
const MaxAttempts = 100

const idSpace = 100_000_000 // 8 digits

// Reserver atomically claims an id. It returns false when the id was already used.
// The in-memory card store implements it over its used-id set.
type Reserver interface {
	Reserve(id string) bool
}

// Generator issues NNNN-NNNN card ids and random card colors.
// It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// New creates a Generator. A nil src seeds from the runtime; a nil clock uses time.Now.
func New(src rand.Source, clock func() time.Time) *Generator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	if clock == nil {
		clock = time.Now
	}
	return &Generator{rnd: rand.New(src), now: clock}
}

// GenerateUniqueID draws random ids until one can be reserved in used.
// The returned id is already reserved; callers must not reserve it again.
// After MaxAttempts collisions a time-derived id is tried once, and
// util.ErrIDExhausted is returned if that one is taken too.
func (g *Generator) GenerateUniqueID(used Reserver) (string, error) {
	for i := 0; i < MaxAttempts; i++ {
		id := Format(g.draw())
		if used.Reserve(id) {
			return id, nil
		}
	}

	// epoch ms mod 10^13 as a 12-digit string; the low 8 digits form the id
	stamp := fmt.Sprintf("%012d", g.now().UnixMilli()%10_000_000_000_000)
	tail := stamp[len(stamp)-8:]
	id := tail[:4] + "-" + tail[4:]
	if used.Reserve(id) {
		return id, nil
	}
	return "", util.ErrIDExhausted
}

// RandomColor returns a random 24-bit RGB value.
func (g *Generator) RandomColor() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.IntN(0x1000000)
}

func (g *Generator) draw() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rnd.IntN(idSpace)
}

// Format renders n (0 <= n < 10^8) as NNNN-NNNN.
func Format(n int) string {
	s := fmt.Sprintf("%08d", n%idSpace)
	return s[:4] + "-" + s[4:]
}
