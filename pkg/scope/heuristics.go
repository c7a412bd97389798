package scope

import "sync/atomic"

// Estimator is an adaptive single-value estimator: it remembers the usage
// recorded for the previous cycle and serves it as the guess for the next.
// Reads and writes are atomic so an estimator may live in shared component
// state without ceremony; convergence needs no history, just last-write-wins.
type Estimator struct {
	guess atomic.Int64
}

// Read returns the current guess.
func (e *Estimator) Read() int {
	return int(e.guess.Load())
}

// Write records the actual usage of the cycle that just ended.
func (e *Estimator) Write(n int) {
	e.guess.Store(int64(n))
}

// Heuristics is the estimator pair sizing scopes at one structural position
// of the render tree: allocated bytes for the bump region, owned handles for
// the owned-list capacity. Keep one per component and pass it to [Child];
// the next render of the same component is then pre-sized to the previous
// render's actual usage.
type Heuristics struct {
	Bytes Estimator
	Owned Estimator
}

// NewHeuristics creates an estimator pair with zero guesses.
func NewHeuristics() *Heuristics {
	return &Heuristics{}
}
