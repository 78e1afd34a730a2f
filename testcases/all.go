package testcases

import (
	"image"
	"math"

	"seehuhn.de/go/geom/path"
)

// All contains all test cases, grouped by category.
// The category name is used as a prefix in generated file names.
var All = map[string][]TestCase{
	"basic": basicCases,
	"shape": shapeCases,
	"alpha": alphaCases,
}

// Get returns the test case with the given category and name.
func Get(category, name string) (TestCase, bool) {
	for _, tc := range All[category] {
		if tc.Name == name {
			return tc, true
		}
	}
	return TestCase{}, false
}

var basicCases = []TestCase{
	{
		Name:    "opaque",
		Path:    rectangle(0, 0, 100, 100),
		Width:   100,
		Height:  100,
		Aligned: true,
		Solid:   image.Rect(0, 0, 100, 100),
	},
	{
		Name:    "transparent",
		Width:   64,
		Height:  64,
		Aligned: true,
	},
	{
		Name:    "inset",
		Path:    rectangle(16, 8, 48, 40),
		Width:   64,
		Height:  48,
		Aligned: true,
		Solid:   image.Rect(16, 8, 48, 40),
	},
	{
		Name:    "top_left",
		Path:    rectangle(0, 0, 50, 50),
		Width:   100,
		Height:  100,
		Aligned: true,
		Solid:   image.Rect(0, 0, 50, 50),
	},
	{
		Name:    "single_pixel",
		Path:    rectangle(3, 5, 4, 6),
		Width:   8,
		Height:  8,
		Aligned: true,
		Solid:   image.Rect(3, 5, 4, 6),
	},
	{
		Name:    "corners",
		Path:    twoSquares(0, 0, 10, 90, 90, 10),
		Width:   100,
		Height:  100,
		Aligned: true,
		Solid:   image.Rect(0, 0, 100, 100),
	},
}

var shapeCases = []TestCase{
	{
		Name:   "triangle",
		Path:   triangle(10, 50, 32, 10, 54, 50),
		Width:  64,
		Height: 64,
	},
	{
		Name:   "star",
		Path:   fivePointStar(32, 32, 25),
		Width:  64,
		Height: 64,
	},
	{
		Name:   "circle",
		Path:   circle(50, 50, 40),
		Width:  100,
		Height: 100,
	},
	{
		Name:    "ring",
		Path:    ring(50, 50, 40, 20),
		Width:   100,
		Height:  100,
		Aligned: true,
		Solid:   image.Rect(10, 10, 90, 90),
	},
	{
		Name:    "l_shape",
		Path:    lShape(0, 0, 80, 60, 30),
		Width:   80,
		Height:  60,
		Aligned: true,
		Solid:   image.Rect(0, 0, 80, 60),
	},
}

var alphaCases = []TestCase{
	{
		Name:    "half_opaque",
		Path:    rectangle(4, 4, 28, 28),
		Width:   32,
		Height:  32,
		Opacity: 0.5,
		Aligned: true,
		Solid:   image.Rect(4, 4, 28, 28),
	},
	{
		Name:    "faint",
		Path:    rectangle(0, 0, 32, 16),
		Width:   32,
		Height:  32,
		Opacity: 0.05,
		Aligned: true,
		Solid:   image.Rect(0, 0, 32, 16),
	},
	{
		Name:   "soft_circle",
		Path:   circle(16, 16, 10.5),
		Width:  32,
		Height: 32,
	},
}

// rectangle builds an axis-aligned rectangle, clockwise on screen.
func rectangle(x1, y1, x2, y2 float64) *path.Data {
	return (&path.Data{}).
		MoveTo(pt(x1, y1)).
		LineTo(pt(x2, y1)).
		LineTo(pt(x2, y2)).
		LineTo(pt(x1, y2)).
		Close()
}

// twoSquares builds two squares of the given size at (x1, y1) and (x2, y2).
func twoSquares(x1, y1, size, x2, y2, size2 float64) *path.Data {
	p := rectangle(x1, y1, x1+size, y1+size)
	return p.
		MoveTo(pt(x2, y2)).
		LineTo(pt(x2+size2, y2)).
		LineTo(pt(x2+size2, y2+size2)).
		LineTo(pt(x2, y2+size2)).
		Close()
}

// triangle builds a triangular path.
func triangle(x1, y1, x2, y2, x3, y3 float64) *path.Data {
	return (&path.Data{}).
		MoveTo(pt(x1, y1)).
		LineTo(pt(x2, y2)).
		LineTo(pt(x3, y3)).
		Close()
}

// fivePointStar builds a five-pointed star (self-intersecting).
// The nonzero rule fills the central pentagon.
func fivePointStar(cx, cy, r float64) *path.Data {
	p := &path.Data{}
	for k, i := range []int{0, 2, 4, 1, 3} {
		angle := float64(i)*2*math.Pi/5 - math.Pi/2
		v := pt(cx+r*math.Cos(angle), cy+r*math.Sin(angle))
		if k == 0 {
			p.MoveTo(v)
		} else {
			p.LineTo(v)
		}
	}
	return p.Close()
}

const kappa = 0.5522847498307936

// circle builds an approximate circle using four cubic Bezier curves.
func circle(cx, cy, r float64) *path.Data {
	k := r * kappa
	return (&path.Data{}).
		MoveTo(pt(cx+r, cy)).
		CubeTo(pt(cx+r, cy-k), pt(cx+k, cy-r), pt(cx, cy-r)).
		CubeTo(pt(cx-k, cy-r), pt(cx-r, cy-k), pt(cx-r, cy)).
		CubeTo(pt(cx-r, cy+k), pt(cx-k, cy+r), pt(cx, cy+r)).
		CubeTo(pt(cx+k, cy+r), pt(cx+r, cy+k), pt(cx+r, cy)).
		Close()
}

// ring builds a square ring. The inner square runs counter-clockwise so
// that it cuts a hole under the nonzero rule.
func ring(cx, cy, outer, inner float64) *path.Data {
	return rectangle(cx-outer, cy-outer, cx+outer, cy+outer).
		MoveTo(pt(cx-inner, cy-inner)).
		LineTo(pt(cx-inner, cy+inner)).
		LineTo(pt(cx+inner, cy+inner)).
		LineTo(pt(cx+inner, cy-inner)).
		Close()
}

// lShape builds an L whose vertical bar runs down the left side and whose
// horizontal bar runs along the bottom; both bars have the given thickness.
func lShape(x, y, w, h, thickness float64) *path.Data {
	return (&path.Data{}).
		MoveTo(pt(x, y)).
		LineTo(pt(x+thickness, y)).
		LineTo(pt(x+thickness, y+h-thickness)).
		LineTo(pt(x+w, y+h-thickness)).
		LineTo(pt(x+w, y+h)).
		LineTo(pt(x, y+h)).
		Close()
}
