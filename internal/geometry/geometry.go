// Package geometry holds the window-geometry primitives and the pure
// size-hint constraint solver used by the client core.
package geometry

// Rect is a window rectangle in pixels.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Point is a pixel coordinate.
type Point struct {
	X int
	Y int
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// TopLeft returns the rectangle's top-left corner.
func (r Rect) TopLeft() Point {
	return Point{X: r.X, Y: r.Y}
}

// Strut describes screen-edge space a window reserves (docks, bars).
type Strut struct {
	Left   int `json:"left" yaml:"left"`
	Right  int `json:"right" yaml:"right"`
	Top    int `json:"top" yaml:"top"`
	Bottom int `json:"bottom" yaml:"bottom"`
}

// Empty reports whether the strut reserves no space.
func (s Strut) Empty() bool {
	return s.Left == 0 && s.Right == 0 && s.Top == 0 && s.Bottom == 0
}

// Shrink subtracts the strut from the rectangle, clamping at zero size.
func (r Rect) Shrink(s Strut) Rect {
	r.X += s.Left
	r.Y += s.Top
	r.Width -= s.Left + s.Right
	r.Height -= s.Top + s.Bottom
	if r.Width < 0 {
		r.Width = 0
	}
	if r.Height < 0 {
		r.Height = 0
	}
	return r
}

// Gravity mirrors the protocol's window gravity hint.
type Gravity int

const (
	GravityNorthWest Gravity = iota
	GravityNorth
	GravityNorthEast
	GravityWest
	GravityCenter
	GravityEast
	GravitySouthWest
	GravitySouth
	GravitySouthEast
	GravityStatic
)

// HintFlags records which size-hint fields a client actually supplied.
type HintFlags uint16

const (
	HintBaseSize HintFlags = 1 << iota
	HintMinSize
	HintMaxSize
	HintResizeInc
	HintAspect
	HintGravity
	HintUserPosition
	HintUserSize
)

// Has reports whether all bits in want are set.
func (f HintFlags) Has(want HintFlags) bool {
	return f&want == want
}

// AspectRatio is a protocol aspect bound expressed as a fraction.
type AspectRatio struct {
	Num int
	Den int
}

// SizeHints carries the protocol sizing constraints of a client. Fields are
// only meaningful when the matching flag bit is set.
type SizeHints struct {
	Flags      HintFlags
	BaseWidth  int
	BaseHeight int
	MinWidth   int
	MinHeight  int
	MaxWidth   int
	MaxHeight  int
	WidthInc   int
	HeightInc  int
	MinAspect  AspectRatio
	MaxAspect  AspectRatio
	Gravity    Gravity
}

// base returns the effective base size: the explicit base size when supplied,
// the min size otherwise, zero when neither is present.
func (h SizeHints) base() (int, int) {
	switch {
	case h.Flags.Has(HintBaseSize):
		return h.BaseWidth, h.BaseHeight
	case h.Flags.Has(HintMinSize):
		return h.MinWidth, h.MinHeight
	}
	return 0, 0
}

// min returns the effective min size, substituting the base size when the min
// size is not supplied.
func (h SizeHints) min() (int, int) {
	switch {
	case h.Flags.Has(HintMinSize):
		return h.MinWidth, h.MinHeight
	case h.Flags.Has(HintBaseSize):
		return h.BaseWidth, h.BaseHeight
	}
	return 0, 0
}

// Fixed reports whether the hints pin the window to a single size.
func (h SizeHints) Fixed() bool {
	if !h.Flags.Has(HintMinSize) || !h.Flags.Has(HintMaxSize) {
		return false
	}
	return h.MinWidth == h.MaxWidth && h.MinHeight == h.MaxHeight &&
		h.MinWidth > 0 && h.MinHeight > 0
}

// Constrain adjusts the candidate rectangle's size to honor the hints. It
// never moves the rectangle, and a degenerate zero-sized result is returned
// as-is for the caller to reject.
//
// Note the aspect clamp treats the two bounds asymmetrically: the high-bound
// branch keeps the low bound's ratio in its divisor. Clients depend on the
// resulting sizes, so both branches stay exactly as they are.
func Constrain(h SizeHints, candidate Rect) Rect {
	basew, baseh := h.base()
	minw, minh := h.min()

	if h.Flags.Has(HintAspect) &&
		h.MinAspect.Num > 0 && h.MinAspect.Den > 0 &&
		candidate.Height-baseh > 0 && candidate.Width-basew > 0 {
		dx := float64(candidate.Width - basew)
		dy := float64(candidate.Height - baseh)
		low := float64(h.MinAspect.Num) / float64(h.MinAspect.Den)
		high := float64(h.MaxAspect.Num) / float64(h.MinAspect.Den)
		ratio := dx / dy
		if high > 0 && low > 0 && ratio > 0 {
			if ratio < low {
				dy = (dx*low + dy) / (low*low + 1)
				dx = dy * low
				candidate.Width = int(dx) + basew
				candidate.Height = int(dy) + baseh
			} else if ratio > high {
				dy = (dx*low + dy) / (high*high + 1)
				dx = dy * low
				candidate.Width = int(dx) + basew
				candidate.Height = int(dy) + baseh
			}
		}
	}

	if minw > 0 && candidate.Width < minw {
		candidate.Width = minw
	}
	if minh > 0 && candidate.Height < minh {
		candidate.Height = minh
	}

	if h.Flags.Has(HintMaxSize) {
		if h.MaxWidth > 0 && candidate.Width > h.MaxWidth {
			candidate.Width = h.MaxWidth
		}
		if h.MaxHeight > 0 && candidate.Height > h.MaxHeight {
			candidate.Height = h.MaxHeight
		}
	}

	if h.Flags.Has(HintResizeInc) && h.WidthInc > 0 && h.HeightInc > 0 {
		dw := candidate.Width - basew
		if dw < 0 {
			dw = 0
		}
		dh := candidate.Height - baseh
		if dh < 0 {
			dh = 0
		}
		candidate.Width -= dw % h.WidthInc
		candidate.Height -= dh % h.HeightInc
	}

	return candidate
}

// ClampIntoArea nudges a rectangle so it cannot sit entirely outside the
// display area. Size is left untouched.
func ClampIntoArea(r Rect, area Rect) Rect {
	if r.X > area.Width {
		r.X = area.Width - r.Width
	}
	if r.Y > area.Height {
		r.Y = area.Height - r.Height
	}
	if r.X+r.Width < 0 {
		r.X = 0
	}
	if r.Y+r.Height < 0 {
		r.Y = 0
	}
	return r
}
