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

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/occlusion/raster"
)

// cacheState tracks whether an Overhead's alpha map can be used.
type cacheState int

const (
	stale cacheState = iota
	fresh
)

func (s cacheState) String() string {
	if s == fresh {
		return "fresh"
	}
	return "stale"
}

// Overhead holds the occlusion data of one tile: its alpha map, which it
// owns exclusively, and its current occlusion state.
//
// The alpha map is rebuilt lazily.  [Overhead.Invalidate] only marks it
// stale; the next call which needs the map rebuilds it.
type Overhead struct {
	tile     Tile
	textures TextureSource
	opts     AlphaMapOptions

	state cacheState
	alpha *AlphaMap

	// texture, rotation and size the current map was built for
	builtTexture  string
	builtRotation float64
	builtWidth    float64
	builtHeight   float64

	occluded bool

	raster *raster.Rasteriser
}

// NewOverhead returns the occlusion data for tile.  Texture pixels are
// obtained from textures when first needed.
func NewOverhead(tile Tile, textures TextureSource, opts AlphaMapOptions) (*Overhead, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Overhead{
		tile:     tile,
		textures: textures,
		opts:     opts,
	}, nil
}

// Tile returns the tile this data belongs to.
func (o *Overhead) Tile() Tile {
	return o.tile
}

// Occluded reports whether the tile is currently occluded by a token.
func (o *Overhead) Occluded() bool {
	return o.occluded
}

// Stale reports whether the alpha map needs to be rebuilt before use.
func (o *Overhead) Stale() bool {
	return o.state == stale
}

// Invalidate drops the cached alpha map.
func (o *Overhead) Invalidate() {
	if o.state == fresh {
		Logger().Debug("alpha map invalidated", "tile", o.tile.ID())
	}
	o.state = stale
	o.alpha = nil
}

// Sync compares the tile's texture, rotation and size with the ones the
// cached alpha map was built for, and invalidates the map if any of them
// changed.  Moving the tile does not invalidate the map.
// The result reports whether the map was invalidated.
func (o *Overhead) Sync() bool {
	if o.state == stale {
		return false
	}
	g := o.tile.Geometry()
	if o.tile.Texture() == o.builtTexture &&
		g.angle() == o.builtRotation &&
		g.Width == o.builtWidth &&
		g.Height == o.builtHeight {
		return false
	}
	o.Invalidate()
	return true
}

// AlphaMap returns the alpha map of the tile's current texture, building
// it if necessary.  Unreadable textures give an empty map, which is kept
// until the next invalidation.
func (o *Overhead) AlphaMap() *AlphaMap {
	o.Sync()
	if o.state == fresh {
		return o.alpha
	}

	key := o.tile.Texture()
	var img image.Image
	if o.textures != nil {
		var err error
		img, err = o.textures.Texture(key)
		if err != nil {
			Logger().Warn("cannot read tile texture",
				"tile", o.tile.ID(), "texture", key, "error", err)
			img = nil
		}
	}

	g := o.tile.Geometry()
	o.alpha = BuildAlphaMap(img, o.opts)
	o.builtTexture = key
	o.builtRotation = g.angle()
	o.builtWidth = g.Width
	o.builtHeight = g.Height
	o.state = fresh

	Logger().Debug("alpha map built",
		"tile", o.tile.ID(), "texture", key, "bounds", o.alpha.Bounds)
	return o.alpha
}

// ContainsPixel reports whether the world point (x, y) lies on a solid
// pixel of the tile.
func (o *Overhead) ContainsPixel(x, y float64) bool {
	m := o.AlphaMap()
	if m.Empty() {
		return false
	}
	p, ok := o.tile.Geometry().ToLocal(vec.Vec2{X: x, Y: y}, m.Size)
	if !ok {
		return false
	}
	return m.Contains(p.X, p.Y)
}

// AlphaBounds returns the world-space bounding box of the solid pixels,
// taking the tile's rotation into account.  The result is false if the
// tile has no solid pixels.
func (o *Overhead) AlphaBounds() (rect.Rect, bool) {
	m := o.AlphaMap()
	if m.Empty() {
		return rect.Rect{}, false
	}
	M := o.tile.Geometry().LocalToWorld(m.Size)
	return transformBounds(M, localRect(m.Bounds)), true
}

// RoofMask draws the solid part of the tile into a world-space alpha
// image, for example to cut roofs out of a fog-of-war layer.  The image
// bounds are the integer hull of [Overhead.AlphaBounds].  The result is
// nil if the tile has no solid pixels.
func (o *Overhead) RoofMask() *image.Alpha {
	box, ok := o.AlphaBounds()
	if !ok {
		return nil
	}
	r := image.Rect(
		int(math.Floor(box.LLx)), int(math.Floor(box.LLy)),
		int(math.Ceil(box.URx)), int(math.Ceil(box.URy)),
	)
	dst := image.NewAlpha(r)
	if r.Empty() {
		return dst
	}

	m := o.alpha
	if o.raster == nil {
		o.raster = raster.NewRasteriser(rect.Rect{})
	}
	o.raster.Reset(rect.Rect{})
	o.raster.CTM = o.tile.Geometry().LocalToWorld(m.Size)
	o.raster.FillAlpha(quad(localRect(m.Bounds)), dst)

	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := dst.Pix[dst.PixOffset(r.Min.X, y):]
		for i := range r.Dx() {
			if row[i] == 0 {
				continue
			}
			if !o.ContainsPixel(float64(r.Min.X+i)+0.5, float64(y)+0.5) {
				row[i] = 0
			}
		}
	}
	return dst
}

// setOccluded records a new occlusion state and reports whether it changed.
func (o *Overhead) setOccluded(occluded bool) bool {
	if o.occluded == occluded {
		return false
	}
	o.occluded = occluded
	return true
}

func localRect(b image.Rectangle) rect.Rect {
	return rect.Rect{
		LLx: float64(b.Min.X), LLy: float64(b.Min.Y),
		URx: float64(b.Max.X), URy: float64(b.Max.Y),
	}
}

// quad returns r as a closed path.
func quad(r rect.Rect) *path.Data {
	return (&path.Data{}).
		MoveTo(vec.Vec2{X: r.LLx, Y: r.LLy}).
		LineTo(vec.Vec2{X: r.URx, Y: r.LLy}).
		LineTo(vec.Vec2{X: r.URx, Y: r.URy}).
		LineTo(vec.Vec2{X: r.LLx, Y: r.URy}).
		Close()
}
