// Package identifier produces compact, time-sortable, collision-resistant
// identifiers for committed documents without external coordination.
package identifier

import (
	"fmt"
	"math/big"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// customEpoch is 2025-01-01T00:00:00Z in Unix milliseconds. The time
// component counts milliseconds since this epoch and occupies the
// most-significant digits, so identifiers sort by creation time.
const customEpoch = 1735689600000

const (
	sequenceBound = 100
	randomBound   = 1000
)

// packed layout: ((time * sequenceBound) + sequence) * randomBound + random
var (
	randMultiplier = big.NewInt(randomBound)
	timeMultiplier = big.NewInt(sequenceBound * randomBound)
)

// Generator is safe for concurrent use; the read-modify-write of the last
// timestamp and sequence is a single critical section.
type Generator struct {
	mu            sync.Mutex
	lastTimestamp int64
	sequence      int64

	now     func() time.Time
	randInt func(bound int64) int64
}

func NewGenerator() *Generator {
	return &Generator{
		lastTimestamp: -1,
		now:           time.Now,
		randInt:       rand.Int63n,
	}
}

// NewID issues the next identifier. When the per-millisecond sequence is
// exhausted the generator waits for the clock to advance; the observed clock
// never goes backwards.
func (g *Generator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now().UnixMilli()
	if ts < g.lastTimestamp {
		ts = g.lastTimestamp
	}

	if ts == g.lastTimestamp {
		g.sequence++
		if g.sequence >= sequenceBound {
			ts = g.waitNextMilli(g.lastTimestamp)
			g.sequence = 0
		}
	} else {
		g.sequence = 0
	}
	g.lastTimestamp = ts

	effective := ts - customEpoch
	if effective < 0 {
		effective = 0
	}
	// random component reduces guessability only, never uniqueness
	random := g.randInt(randomBound)

	value := new(big.Int).SetInt64(effective)
	value.Mul(value, timeMultiplier)
	value.Add(value, new(big.Int).SetInt64(g.sequence*randomBound))
	value.Add(value, big.NewInt(random))

	return encodeBaseX(value)
}

// DecodedID is the diagnostic breakdown of an identifier. Informational
// only, never used for authorization.
type DecodedID struct {
	Timestamp time.Time
	Sequence  int64
	Random    int64
}

// Decode recovers the timestamp, sequence and random components.
func (g *Generator) Decode(id string) (DecodedID, error) {
	value, err := decodeBaseX(id)
	if err != nil {
		return DecodedID{}, fmt.Errorf("decode identifier: %w", err)
	}

	rem := new(big.Int)
	value.DivMod(value, randMultiplier, rem)
	random := rem.Int64()

	value.DivMod(value, big.NewInt(sequenceBound), rem)
	sequence := rem.Int64()

	return DecodedID{
		Timestamp: time.UnixMilli(value.Int64() + customEpoch).UTC(),
		Sequence:  sequence,
		Random:    random,
	}, nil
}

// IsValid reports whether every character belongs to the identifier
// alphabet.
func IsValid(id string) bool {
	if strings.TrimSpace(id) == "" {
		return false
	}
	for _, r := range id {
		if !strings.ContainsRune(alphabet32, r) {
			return false
		}
	}
	return true
}

func (g *Generator) waitNextMilli(last int64) int64 {
	ts := g.now().UnixMilli()
	for ts <= last {
		// short sleep keeps the spin from pegging a core under contention
		time.Sleep(100 * time.Microsecond)
		ts = g.now().UnixMilli()
	}
	return ts
}
