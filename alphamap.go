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
	"fmt"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// AlphaMapOptions control how an [AlphaMap] is built.
// The zero value keeps only the bounding box and samples at full
// resolution with a threshold of zero.
type AlphaMapOptions struct {
	// KeepPixels retains one byte per pixel of the bounding box, 1 where
	// the texture is solid.
	KeepPixels bool

	// KeepTexture retains an alpha image of the whole texture which is
	// opaque where the texture is solid and transparent elsewhere.
	KeepTexture bool

	// Threshold is the opacity, as a fraction in [0, 1), which a pixel
	// must exceed to count as solid.
	Threshold float64

	// Resolution is the sampling density relative to the native texture
	// resolution, in (0, 1].  The zero value means 1.
	Resolution float64
}

// Validate checks that the options are within range.
func (o AlphaMapOptions) Validate() error {
	if math.IsNaN(o.Threshold) || o.Threshold < 0 || o.Threshold >= 1 {
		return fmt.Errorf("%w: alpha threshold %g not in [0, 1)", ErrInvalidConfig, o.Threshold)
	}
	if math.IsNaN(o.Resolution) || o.Resolution < 0 || o.Resolution > 1 {
		return fmt.Errorf("%w: resolution %g not in (0, 1]", ErrInvalidConfig, o.Resolution)
	}
	return nil
}

// AlphaMap records which pixels of a tile texture are solid.
//
// The map lives in the texture's own pixel frame: unrotated, unscaled, with
// the origin at the top left corner.  Callers map world points into this
// frame with [Geometry.ToLocal] before calling [AlphaMap.Contains].
//
// An AlphaMap is not safe for concurrent use, since Contains may
// materialise the pixel array on first use.
type AlphaMap struct {
	// Bounds is the tight box around all solid pixels, in native texture
	// pixels.  It is empty for fully transparent or unreadable textures.
	Bounds image.Rectangle

	// Size is the native size of the texture.
	Size image.Point

	sx, sy  float64         // sampled pixels per native pixel
	grid    image.Rectangle // Bounds, in sampled pixels
	pixels  []byte          // solid flags over grid, row-major
	texture *image.Alpha    // 0xff where solid, over the whole sample
}

// BuildAlphaMap samples img and returns its alpha map.
// A nil image or an image without pixels gives an empty map.
// The options must be valid, see [AlphaMapOptions.Validate].
func BuildAlphaMap(img image.Image, opts AlphaMapOptions) *AlphaMap {
	m := &AlphaMap{sx: 1, sy: 1}
	if img == nil {
		return m
	}
	src := img.Bounds()
	if src.Empty() {
		return m
	}
	m.Size = src.Size()

	alpha := sampleAlpha(img, opts.Resolution)
	sw, sh := alpha.Rect.Dx(), alpha.Rect.Dy()
	m.sx = float64(sw) / float64(m.Size.X)
	m.sy = float64(sh) / float64(m.Size.Y)

	// A pixel is solid iff a/255 > Threshold.
	cut := uint8(math.Floor(opts.Threshold * 255))
	minX, minY, maxX, maxY := sw, sh, -1, -1
	for y := range sh {
		row := alpha.Pix[y*alpha.Stride : y*alpha.Stride+sw]
		for x, a := range row {
			if a > cut {
				row[x] = 0xff
				minX = min(minX, x)
				maxX = max(maxX, x)
				minY = min(minY, y)
				maxY = y
			} else {
				row[x] = 0
			}
		}
	}
	if maxX < 0 {
		return m
	}

	m.grid = image.Rect(minX, minY, maxX+1, maxY+1)
	m.Bounds = image.Rect(
		int(math.Floor(float64(minX)/m.sx)),
		int(math.Floor(float64(minY)/m.sy)),
		min(int(math.Ceil(float64(maxX+1)/m.sx)), m.Size.X),
		min(int(math.Ceil(float64(maxY+1)/m.sy)), m.Size.Y),
	)

	if opts.KeepPixels {
		m.pixels = pixelsFrom(alpha, m.grid)
	}
	if opts.KeepTexture {
		m.texture = alpha
	}
	return m
}

// sampleAlpha copies the alpha channel of img into a fresh image with
// origin (0, 0), downsampling if resolution is below 1.
func sampleAlpha(img image.Image, resolution float64) *image.Alpha {
	src := img.Bounds()
	if resolution <= 0 || resolution >= 1 {
		dst := image.NewAlpha(image.Rect(0, 0, src.Dx(), src.Dy()))
		xdraw.Draw(dst, dst.Rect, img, src.Min, xdraw.Src)
		return dst
	}

	w := max(1, int(math.Round(float64(src.Dx())*resolution)))
	h := max(1, int(math.Round(float64(src.Dy())*resolution)))
	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(dst, dst.Rect, img, src, xdraw.Src, nil)
	return dst
}

// pixelsFrom extracts the solid flags inside r from a thresholded mask.
func pixelsFrom(mask *image.Alpha, r image.Rectangle) []byte {
	w := r.Dx()
	pixels := make([]byte, w*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := mask.Pix[mask.PixOffset(r.Min.X, y):]
		out := pixels[(y-r.Min.Y)*w:]
		for x := range w {
			if row[x] != 0 {
				out[x] = 1
			}
		}
	}
	return pixels
}

// Empty reports whether the texture has no solid pixels.
func (m *AlphaMap) Empty() bool {
	return m.Bounds.Empty()
}

// Contains reports whether the point (x, y), given in native texture
// pixels, lies on a solid pixel.  Points on the outer edge of the bounding
// box count as inside.
//
// If neither pixels nor texture were kept, only the bounding box is
// tested.  If only the texture was kept, the pixel array is built on the
// first call.
func (m *AlphaMap) Contains(x, y float64) bool {
	if m.Bounds.Empty() {
		return false
	}
	b := m.Bounds
	if !(x >= float64(b.Min.X) && x <= float64(b.Max.X) &&
		y >= float64(b.Min.Y) && y <= float64(b.Max.Y)) {
		return false // also rejects NaN
	}

	if m.pixels == nil {
		if m.texture == nil {
			return true
		}
		m.pixels = pixelsFrom(m.texture, m.grid)
	}

	g := m.grid
	gx := min(max(int(math.Floor(x*m.sx)), g.Min.X), g.Max.X-1)
	gy := min(max(int(math.Floor(y*m.sy)), g.Min.Y), g.Max.Y-1)
	return m.pixels[(gy-g.Min.Y)*g.Dx()+gx-g.Min.X] != 0
}

// Pixels returns the solid flags over the bounding box in row-major order,
// at the sampling resolution.  The result is nil if the pixels were not
// kept and have not been materialised yet.  The slice must not be
// modified.
func (m *AlphaMap) Pixels() []byte {
	return m.pixels
}

// RenderTexture returns the thresholded alpha image of the texture, or nil
// if it was not kept.  Solid pixels are opaque, all others transparent.
func (m *AlphaMap) RenderTexture() *image.Alpha {
	return m.texture
}
