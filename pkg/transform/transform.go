// Package transform holds the pan/zoom/rotation state for a crop session.
//
// State is a pure value: every mutator returns a new State and enforces the
// documented clamps. Cell wraps a State for concurrent use with a
// single-writer, snapshot-reader policy.
package transform

// Zoom and rotation limits applied by the setters.
const (
	MinZoom     = 0.1
	MaxZoom     = 5.0
	MinRotation = -180.0
	MaxRotation = 180.0
)

// MaskFraction is the fraction of the canvas edge covered by the circular
// mask diameter. The auto-fit zoom and every export scale derive from it.
const MaskFraction = 0.8

// State describes how the loaded media is placed behind the circular mask.
// Pan offsets are in canvas pixels at preview scale and are deliberately
// unconstrained: media may be dragged fully out of view for off-center crops.
type State struct {
	PanX            float64
	PanY            float64
	Zoom            float64
	RotationDegrees float64
}

// Initialize computes the auto-fit state for media of the given intrinsic
// size: the media's shorter edge exactly fills the mask diameter
// (MaskFraction × canvasEdge), pan (0,0), rotation 0.
func Initialize(mediaWidth, mediaHeight, canvasEdge int) State {
	short := mediaWidth
	if mediaHeight < short {
		short = mediaHeight
	}
	zoom := float64(canvasEdge) * MaskFraction / float64(short)
	return State{Zoom: zoom}
}

// ApplyPanDelta adds a drag delta to the pan offset. No clamping.
func (s State) ApplyPanDelta(dx, dy float64) State {
	s.PanX += dx
	s.PanY += dy
	return s
}

// SetZoom sets the absolute zoom level, clamped to [MinZoom, MaxZoom].
func (s State) SetZoom(z float64) State {
	s.Zoom = clamp(z, MinZoom, MaxZoom)
	return s
}

// SetRotation sets the absolute rotation in degrees, clamped to
// [MinRotation, MaxRotation].
func (s State) SetRotation(deg float64) State {
	s.RotationDegrees = clamp(deg, MinRotation, MaxRotation)
	return s
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
