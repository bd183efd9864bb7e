package interact

import (
	"testing"

	"github.com/menta2k/circle-crop/pkg/transform"
)

func newTestController() (*Controller, *transform.Cell) {
	cell := transform.NewCell(transform.State{Zoom: 1})
	return NewController(cell, 800), cell
}

func TestDragAccumulatesDeltas(t *testing.T) {
	c, cell := newTestController()

	c.PointerDown(100, 100)
	c.PointerMove(130, 145)
	c.PointerUp()

	got := cell.Snapshot()
	if got.PanX != 30 || got.PanY != 45 {
		t.Errorf("pan = (%v,%v), want (30,45)", got.PanX, got.PanY)
	}
}

func TestDragIncrementalNotFromStart(t *testing.T) {
	c, cell := newTestController()

	c.PointerDown(0, 0)
	c.PointerMove(10, 0)
	c.PointerMove(15, 5)
	c.PointerMove(15, 25)
	c.PointerUp()

	// Each move contributes its delta from the previous point, so the net
	// pan equals the displacement from down to the final move.
	got := cell.Snapshot()
	if got.PanX != 15 || got.PanY != 25 {
		t.Errorf("pan = (%v,%v), want (15,25)", got.PanX, got.PanY)
	}
}

func TestDownUpWithoutMoveLeavesPanUnchanged(t *testing.T) {
	c, cell := newTestController()

	c.PointerDown(200, 200)
	c.PointerUp()

	got := cell.Snapshot()
	if got.PanX != 0 || got.PanY != 0 {
		t.Errorf("pan = (%v,%v), want (0,0)", got.PanX, got.PanY)
	}
}

func TestMoveWithoutDownIgnored(t *testing.T) {
	c, cell := newTestController()

	c.PointerMove(50, 50)
	c.PointerMove(90, 90)

	got := cell.Snapshot()
	if got.PanX != 0 || got.PanY != 0 {
		t.Errorf("pan = (%v,%v), want (0,0)", got.PanX, got.PanY)
	}
}

func TestDownOutsideViewportIgnored(t *testing.T) {
	c, cell := newTestController()

	c.PointerDown(900, 100)
	c.PointerMove(950, 150)
	c.PointerUp()

	if c.Dragging() {
		t.Error("controller should not be dragging after an outside down")
	}
	got := cell.Snapshot()
	if got.PanX != 0 || got.PanY != 0 {
		t.Errorf("pan = (%v,%v), want (0,0)", got.PanX, got.PanY)
	}
}

func TestDragStopsAfterUp(t *testing.T) {
	c, cell := newTestController()

	c.PointerDown(100, 100)
	c.PointerMove(110, 100)
	c.PointerUp()
	c.PointerMove(500, 500)

	got := cell.Snapshot()
	if got.PanX != 10 || got.PanY != 0 {
		t.Errorf("pan = (%v,%v), want (10,0)", got.PanX, got.PanY)
	}
}

func TestReturnTripIsNeutral(t *testing.T) {
	c, cell := newTestController()

	c.PointerDown(100, 100)
	c.PointerMove(160, 130)
	c.PointerMove(100, 100)
	c.PointerUp()

	got := cell.Snapshot()
	if got.PanX != 0 || got.PanY != 0 {
		t.Errorf("pan = (%v,%v), want (0,0)", got.PanX, got.PanY)
	}
}

func TestSliderSettersClamp(t *testing.T) {
	c, cell := newTestController()

	c.SetZoom(10)
	c.SetRotation(-400)

	got := cell.Snapshot()
	if got.Zoom != transform.MaxZoom {
		t.Errorf("zoom = %v, want %v", got.Zoom, transform.MaxZoom)
	}
	if got.RotationDegrees != transform.MinRotation {
		t.Errorf("rotation = %v, want %v", got.RotationDegrees, transform.MinRotation)
	}
}

func TestOnChangeFires(t *testing.T) {
	c, _ := newTestController()

	var calls int
	c.SetOnChange(func() { calls++ })

	c.PointerDown(10, 10)
	c.PointerMove(20, 10) // change
	c.PointerMove(20, 10) // zero delta, no change
	c.PointerUp()
	c.SetZoom(2)     // change
	c.SetRotation(5) // change

	if calls != 3 {
		t.Errorf("onChange fired %d times, want 3", calls)
	}
}
