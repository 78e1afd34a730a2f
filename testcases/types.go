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

// Package testcases provides named tile textures for tests, benchmarks and
// the visualisation commands.
package testcases

import (
	"image"
	"image/color"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/occlusion/raster"
)

// TestCase describes a tile texture.
type TestCase struct {
	Name   string     // lowercase a-z and _ only
	Path   *path.Data // the opaque part of the texture, in pixel coordinates
	Width  int        // texture width in pixels
	Height int        // texture height in pixels

	// Opacity scales the alpha of the painted area.
	// The zero value means fully opaque.
	Opacity float64

	// Aligned is set when all edges of Path lie on pixel boundaries, so
	// that every pixel is either fully painted or fully transparent.
	Aligned bool

	// Solid is the bounding box of the painted pixels.
	// It is only exact for aligned test cases.
	Solid image.Rectangle
}

// Image renders the texture as white paint on a transparent background.
func (tc TestCase) Image() *image.NRGBA {
	mask := image.NewAlpha(image.Rect(0, 0, tc.Width, tc.Height))
	if tc.Path != nil {
		raster.NewRasteriser(rect.Rect{}).FillAlpha(tc.Path, mask)
	}

	opacity := tc.Opacity
	if opacity == 0 {
		opacity = 1
	}

	img := image.NewNRGBA(mask.Rect)
	for y := range tc.Height {
		for x := range tc.Width {
			a := mask.AlphaAt(x, y).A
			if a == 0 {
				continue
			}
			img.SetNRGBA(x, y, color.NRGBA{
				R: 255, G: 255, B: 255,
				A: uint8(float64(a)*opacity + 0.5),
			})
		}
	}
	return img
}

// pt is a helper to create a vec.Vec2 from x, y coordinates.
func pt(x, y float64) vec.Vec2 {
	return vec.Vec2{X: x, Y: y}
}
