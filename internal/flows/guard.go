package flows

import (
	"sync/atomic"

	set "github.com/deckarep/golang-set/v2"
)

// Guard allows a single submission in flight.
type Guard struct {
	inFlight atomic.Bool
}

// TryAcquire marks the guard as in flight and reports whether it was free.
func (g *Guard) TryAcquire() bool {
	return g.inFlight.CompareAndSwap(false, true)
}

func (g *Guard) Release() {
	g.inFlight.Store(false)
}

func (g *Guard) InFlight() bool {
	return g.inFlight.Load()
}

// KeyedGuard allows a single submission in flight per key.
type KeyedGuard struct {
	keys set.Set[string]
}

func NewKeyedGuard() *KeyedGuard {
	return &KeyedGuard{keys: set.NewSet[string]()}
}

func (g *KeyedGuard) TryAcquire(key string) bool {
	return g.keys.Add(key)
}

func (g *KeyedGuard) Release(key string) {
	g.keys.Remove(key)
}

func (g *KeyedGuard) InFlight(key string) bool {
	return g.keys.Contains(key)
}
