package engine

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source supplies the randomness behind candidate metric drift.
type Source interface {
	Float64() float64
	IntN(n int) int
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSource returns a goroutine-safe PCG source. Seed 0 seeds from the clock.
func NewSource(seed uint64) Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &lockedSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}
