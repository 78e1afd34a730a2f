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

// Package occlusion decides when an overhead tile (a roof, a tree canopy,
// a bridge) must fade out because a token is standing underneath it.
//
// A tile is a rectangular, possibly rotated image placed in a scene.  The
// decision respects the tile's actual non-transparent pixels: every tile
// keeps a lazily built [AlphaMap] of its texture, and a [Tester] samples up
// to nine points of a token's footprint against that map.  A [Controller]
// ties this to a scene: it invalidates cached maps when textures or
// transforms change and notifies a [Sink] whenever a tile's occlusion state
// flips.
//
// World coordinates have their origin at the top left with y pointing
// down.  Tile rotation is given in degrees, clockwise on screen, about the
// centre of the tile rectangle.
//
// Nothing in this package is safe for concurrent use, except
// [TextureCache].
package occlusion

import "seehuhn.de/go/geom/rect"

// Tile is the view of a scene tile needed for occlusion testing.
type Tile interface {
	// ID identifies the tile within its scene.
	ID() string

	// Geometry returns the current placement of the tile.
	Geometry() Geometry

	// Overhead reports whether the tile is drawn above tokens and should
	// yield to tokens underneath it.
	Overhead() bool

	// Texture returns the key under which the tile's image can be obtained
	// from a [TextureSource].
	Texture() string
}

// Token is a movable scene object that can stand under a tile.
type Token interface {
	// Footprint returns the world rectangle covered by the token.
	// LLx/LLy are the minimum coordinates, URx/URy the maximum ones.
	Footprint() rect.Rect
}

// Sink receives occlusion state changes, for example to start or stop a
// fade effect.
type Sink interface {
	OcclusionChanged(tile Tile, occluded bool)
}

// SinkFunc adapts an ordinary function to the [Sink] interface.
type SinkFunc func(tile Tile, occluded bool)

// OcclusionChanged calls f(tile, occluded).
func (f SinkFunc) OcclusionChanged(tile Tile, occluded bool) {
	f(tile, occluded)
}
