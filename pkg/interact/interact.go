// Package interact translates pointer and slider input into transform
// mutations. A Controller is the single writer of its transform cell:
// feed it one event stream from one input source.
package interact

import "github.com/menta2k/circle-crop/pkg/transform"

// Controller maps a pointer-down/move/up sequence to an ongoing drag and
// slider values to absolute zoom/rotation updates.
type Controller struct {
	cell         *transform.Cell
	viewportEdge float64

	dragging bool
	lastX    float64
	lastY    float64

	onChange func()
}

// NewController creates a controller writing to the given cell. viewportEdge
// is the preview canvas edge; pointer-down events outside the square
// [0,edge]×[0,edge] never start a drag.
func NewController(cell *transform.Cell, viewportEdge float64) *Controller {
	return &Controller{cell: cell, viewportEdge: viewportEdge}
}

// SetOnChange registers a hook invoked after every transform mutation.
// Static previews re-render from it.
func (c *Controller) SetOnChange(fn func()) {
	c.onChange = fn
}

// PointerDown records the starting coordinate and enters the dragging state
// if the point lies within the viewport.
func (c *Controller) PointerDown(x, y float64) {
	if x < 0 || y < 0 || x > c.viewportEdge || y > c.viewportEdge {
		return
	}
	c.dragging = true
	c.lastX = x
	c.lastY = y
}

// PointerMove applies the delta from the previously recorded coordinate and
// re-records the current one. Deltas accumulate incrementally, so a drag
// that wanders and returns to its origin leaves the pan unchanged. Moves
// without a preceding down are ignored.
func (c *Controller) PointerMove(x, y float64) {
	if !c.dragging {
		return
	}
	dx := x - c.lastX
	dy := y - c.lastY
	c.lastX = x
	c.lastY = y
	if dx == 0 && dy == 0 {
		return
	}
	c.cell.Update(func(s transform.State) transform.State {
		return s.ApplyPanDelta(dx, dy)
	})
	c.changed()
}

// PointerUp exits the dragging state.
func (c *Controller) PointerUp() {
	c.dragging = false
}

// Dragging reports whether a drag is in progress.
func (c *Controller) Dragging() bool {
	return c.dragging
}

// SetZoom sets the absolute zoom level, clamped by the transform model.
func (c *Controller) SetZoom(z float64) {
	c.cell.Update(func(s transform.State) transform.State {
		return s.SetZoom(z)
	})
	c.changed()
}

// SetRotation sets the absolute rotation in degrees, clamped by the
// transform model.
func (c *Controller) SetRotation(deg float64) {
	c.cell.Update(func(s transform.State) transform.State {
		return s.SetRotation(deg)
	})
	c.changed()
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
