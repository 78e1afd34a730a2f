// seehuhn.de/go/occlusion - pixel-accurate occlusion for overhead tiles
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package occlusion

import (
	"image"
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// Geometry is the placement of a tile in world coordinates.
type Geometry struct {
	// X and Y are the top left corner of the unrotated tile rectangle.
	X, Y float64

	// Width and Height give the size of the tile in world units.
	// The texture is stretched to fill this rectangle.
	Width, Height float64

	// Rotation is the clockwise rotation in degrees about the centre of
	// the tile rectangle.
	Rotation float64
}

// Rect returns the unrotated tile rectangle, normalised.
func (g Geometry) Rect() rect.Rect {
	return Normalize(rect.Rect{LLx: g.X, LLy: g.Y, URx: g.X + g.Width, URy: g.Y + g.Height})
}

// Center returns the centre of rotation.
func (g Geometry) Center() vec.Vec2 {
	return vec.Vec2{X: g.X + g.Width/2, Y: g.Y + g.Height/2}
}

// angle returns the rotation in degrees, reduced to [0, 360).
// Non-finite rotations are treated as zero.
func (g Geometry) angle() float64 {
	return normalizeAngle(g.Rotation)
}

func normalizeAngle(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// LocalToWorld returns the transformation from texture pixel coordinates
// (origin at the top left of the texture, one unit per texture pixel) to
// world coordinates.  If tex has no pixels, the local frame is taken to be
// the tile rectangle itself at one unit per world unit.
func (g Geometry) LocalToWorld(tex image.Point) matrix.Matrix {
	tw, th := float64(tex.X), float64(tex.Y)
	if tex.X <= 0 || tex.Y <= 0 {
		tw, th = g.Width, g.Height
	}
	sx, sy := 1.0, 1.0
	if tw != 0 {
		sx = g.Width / tw
	}
	if th != 0 {
		sy = g.Height / th
	}

	c := g.Center()
	M := matrix.Identity.Translate(-tw/2, -th/2).Mul(matrix.Scale(sx, sy))
	if a := g.angle(); a != 0 {
		M = M.Mul(matrix.RotateDeg(a))
	}
	return M.Translate(c.X, c.Y)
}

// ToLocal maps the world point p into the texture pixel frame of a tile
// with geometry g and texture size tex.  The result is false if the tile
// has zero area, in which case no point maps into it.
func (g Geometry) ToLocal(p vec.Vec2, tex image.Point) (vec.Vec2, bool) {
	inv, ok := invert(g.LocalToWorld(tex))
	if !ok {
		return vec.Vec2{}, false
	}
	q := apply(inv, p)
	if math.IsNaN(q.X) || math.IsNaN(q.Y) {
		return vec.Vec2{}, false
	}
	return q, true
}

// RotatedBounds returns the smallest axis-aligned rectangle which contains
// r after rotating it by deg degrees about its centre.  The result is
// normalised.  A rectangle of zero width or height is still rotated as a
// line segment; a point stays a point.
func RotatedBounds(r rect.Rect, deg float64) rect.Rect {
	r = Normalize(r)
	deg = normalizeAngle(deg)
	if deg == 0 {
		return r
	}

	R := matrix.RotateDeg(deg)
	cos, sin := math.Abs(R[0]), math.Abs(R[1])

	cx, cy := (r.LLx+r.URx)/2, (r.LLy+r.URy)/2
	hw, hh := (r.URx-r.LLx)/2, (r.URy-r.LLy)/2
	ew := hw*cos + hh*sin
	eh := hw*sin + hh*cos
	return rect.Rect{LLx: cx - ew, LLy: cy - eh, URx: cx + ew, URy: cy + eh}
}

// Normalize returns r with its corners swapped, where needed, so that
// LLx <= URx and LLy <= URy.
func Normalize(r rect.Rect) rect.Rect {
	if r.LLx > r.URx {
		r.LLx, r.URx = r.URx, r.LLx
	}
	if r.LLy > r.URy {
		r.LLy, r.URy = r.URy, r.LLy
	}
	return r
}

// transformBounds returns the bounding box of r after applying M.
func transformBounds(M matrix.Matrix, r rect.Rect) rect.Rect {
	corners := [4]vec.Vec2{
		{X: r.LLx, Y: r.LLy},
		{X: r.URx, Y: r.LLy},
		{X: r.URx, Y: r.URy},
		{X: r.LLx, Y: r.URy},
	}
	var out rect.Rect
	for i, c := range corners {
		q := apply(M, c)
		if i == 0 {
			out = rect.Rect{LLx: q.X, LLy: q.Y, URx: q.X, URy: q.Y}
			continue
		}
		out.LLx = min(out.LLx, q.X)
		out.LLy = min(out.LLy, q.Y)
		out.URx = max(out.URx, q.X)
		out.URy = max(out.URy, q.Y)
	}
	return out
}

// overlaps reports whether a and b intersect. Touching edges count.
func overlaps(a, b rect.Rect) bool {
	return a.LLx <= b.URx && b.LLx <= a.URx && a.LLy <= b.URy && b.LLy <= a.URy
}

func apply(M matrix.Matrix, p vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: M[0]*p.X + M[2]*p.Y + M[4],
		Y: M[1]*p.X + M[3]*p.Y + M[5],
	}
}

// invert returns the inverse of M, or false if M is (nearly) singular.
func invert(M matrix.Matrix) (matrix.Matrix, bool) {
	det := M[0]*M[3] - M[1]*M[2]
	if math.Abs(det) < singularThreshold || math.IsNaN(det) || math.IsInf(det, 0) {
		return matrix.Matrix{}, false
	}
	return M.Inv(), true
}

// singularThreshold is the smallest determinant for which a tile transform
// is considered invertible.
const singularThreshold = 1e-12
