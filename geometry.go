package main

import "fmt"

// Geometry is the position and size of a window in pixels. X and Y
// are the coordinates of the top-left corner relative to the root.
type Geometry struct {
	X, Y int16
	W, H uint16
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", g.W, g.H, g.X, g.Y)
}

// SizeHints is the subset of a client's WM_NORMAL_HINTS that we
// enforce. A zero value means the client set no hints and is
// unconstrained apart from the 1x1 floor the X server imposes.
type SizeHints struct {
	MinW, MinH int
	MaxW, MaxH int
	IncW, IncH int
	BaseW, BaseH int
}

// ClampSize clamps a requested width/height against hints. The result
// lies within [min, max] and, when the client asks for a resize
// increment, is of the form base + k*inc for non-negative k, snapped
// to the nearest valid size at or below the request. ClampSize is
// idempotent.
func ClampSize(w, h int, hints SizeHints) (int, int) {
	return clampAxis(w, hints.MinW, hints.MaxW, hints.BaseW, hints.IncW),
		clampAxis(h, hints.MinH, hints.MaxH, hints.BaseH, hints.IncH)
}

// Clamp applies ClampSize to a geometry, leaving the position alone.
func Clamp(g Geometry, hints SizeHints) Geometry {
	w, h := ClampSize(int(g.W), int(g.H), hints)
	g.W = uint16(w)
	g.H = uint16(h)
	return g
}

func clampAxis(size, min, max, base, inc int) int {
	if min < 1 {
		// Zero-size windows are a protocol error; never emit one.
		min = 1
	}
	if size < min {
		size = min
	}
	if max > 0 && size > max {
		size = max
	}
	if inc > 0 {
		// ICCCM 4.1.2.3: when no base size is given, the minimum
		// size acts as the base for increment calculations.
		if base <= 0 {
			base = min
		}
		if size > base {
			size = base + (size-base)/inc*inc
		}
		if size < min {
			size = min
		}
	}
	return size
}
