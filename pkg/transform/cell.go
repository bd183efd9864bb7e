package transform

import "sync"

// Cell holds the live transform state for one crop session. The interaction
// controller is the only writer; render paths read immutable snapshots taken
// at render time, so a frame never sees a half-applied mutation.
type Cell struct {
	mu    sync.Mutex
	state State
}

// NewCell creates a cell holding the given initial state.
func NewCell(initial State) *Cell {
	return &Cell{state: initial}
}

// Snapshot returns a copy of the current state.
func (c *Cell) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reset replaces the state wholesale, discarding any prior adjustments.
func (c *Cell) Reset(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Update applies a mutation function to the current state. Mutations are
// applied strictly in call order.
func (c *Cell) Update(fn func(State) State) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = fn(c.state)
	return c.state
}
