package transform

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Affine is a 2D affine transform in row form:
//
//	x' = A*x + B*y + TX
//	y' = C*x + D*y + TY
type Affine struct {
	A, B, TX float64
	C, D, TY float64
}

// Identity returns the identity transform.
func Identity() Affine {
	return Affine{A: 1, D: 1}
}

// Translation returns a transform that moves points by (tx, ty).
func Translation(tx, ty float64) Affine {
	return Affine{A: 1, D: 1, TX: tx, TY: ty}
}

// Rotation returns a transform that rotates points by the given angle in
// radians, clockwise in the y-down canvas coordinate system.
func Rotation(radians float64) Affine {
	cos := math.Cos(radians)
	sin := math.Sin(radians)
	return Affine{A: cos, B: -sin, C: sin, D: cos}
}

// Scaling returns a uniform scale about the origin.
func Scaling(s float64) Affine {
	return Affine{A: s, D: s}
}

// Mul composes two transforms: (m.Mul(n)).Apply(p) == m.Apply(n.Apply(p)).
func (m Affine) Mul(n Affine) Affine {
	return Affine{
		A:  m.A*n.A + m.B*n.C,
		B:  m.A*n.B + m.B*n.D,
		TX: m.A*n.TX + m.B*n.TY + m.TX,
		C:  m.C*n.A + m.D*n.C,
		D:  m.C*n.B + m.D*n.D,
		TY: m.C*n.TX + m.D*n.TY + m.TY,
	}
}

// Apply maps a point through the transform.
func (m Affine) Apply(x, y float64) (float64, float64) {
	return m.A*x + m.B*y + m.TX, m.C*x + m.D*y + m.TY
}

// Aff3 converts the transform to the x/image affine representation.
func (m Affine) Aff3() f64.Aff3 {
	return f64.Aff3{m.A, m.B, m.TX, m.C, m.D, m.TY}
}

// Placement builds the media placement transform for a render at the given
// canvas center and scale ratio. The chain is translate(center + pan·ratio),
// rotate, scale(zoom·ratio), translate(-w/2, -h/2), so the media's midpoint
// lands at the canvas center offset by the scaled pan. Preview renders use
// ratio = canvasEdge/previewEdge; circle-filling exports use
// ratio = exportEdge/(previewEdge × MaskFraction).
func (s State) Placement(mediaWidth, mediaHeight int, centerX, centerY, ratio float64) Affine {
	move := Translation(centerX+s.PanX*ratio, centerY+s.PanY*ratio)
	rot := Rotation(s.RotationDegrees * math.Pi / 180)
	scale := Scaling(s.Zoom * ratio)
	origin := Translation(-float64(mediaWidth)/2, -float64(mediaHeight)/2)
	return move.Mul(rot).Mul(scale).Mul(origin)
}
