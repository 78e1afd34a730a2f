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
	"cmp"
	"slices"
)

// Controller keeps the occlusion state of the tiles of a scene up to date.
//
// The scene reports tile changes with [Controller.TileChanged] and token
// movement with [Controller.UpdateTokens].  The sink is only notified when
// a tile's occlusion state actually changes.
type Controller struct {
	tester   *Tester
	textures TextureSource
	sink     Sink

	tiles map[string]*Overhead
	order []*Overhead // sorted by tile ID
}

// NewController returns a controller which reads textures from textures
// and reports state changes to sink.  The sink may be nil.
func NewController(textures TextureSource, sink Sink, cfg Config) (*Controller, error) {
	tester, err := NewTester(cfg)
	if err != nil {
		return nil, err
	}
	return &Controller{
		tester:   tester,
		textures: textures,
		sink:     sink,
		tiles:    make(map[string]*Overhead),
	}, nil
}

// Track starts tracking tile.  If a tile with the same ID is already
// tracked, it is replaced and its cached data dropped.
func (c *Controller) Track(tile Tile) *Overhead {
	o := &Overhead{
		tile:     tile,
		textures: c.textures,
		opts:     c.tester.cfg.alphaMapOptions(),
	}
	id := tile.ID()
	if _, exists := c.tiles[id]; exists {
		c.remove(id)
	}
	c.tiles[id] = o
	i, _ := slices.BinarySearchFunc(c.order, id, func(o *Overhead, id string) int {
		return cmp.Compare(o.tile.ID(), id)
	})
	c.order = slices.Insert(c.order, i, o)
	return o
}

// Forget stops tracking the tile with the given ID.
func (c *Controller) Forget(id string) {
	c.remove(id)
}

func (c *Controller) remove(id string) {
	o, ok := c.tiles[id]
	if !ok {
		return
	}
	delete(c.tiles, id)
	c.order = slices.DeleteFunc(c.order, func(x *Overhead) bool { return x == o })
}

// Overhead returns the occlusion data of the tile with the given ID.
func (c *Controller) Overhead(id string) (*Overhead, bool) {
	o, ok := c.tiles[id]
	return o, ok
}

// Occluded reports whether the tile with the given ID is currently
// occluded.  Untracked tiles are never occluded.
func (c *Controller) Occluded(id string) bool {
	o, ok := c.tiles[id]
	return ok && o.Occluded()
}

// TileChanged must be called after the texture or geometry of a tracked
// tile changed.  A new texture, rotation or size invalidates the cached
// alpha map; a pure move does not.  Untracked tiles are ignored.
func (c *Controller) TileChanged(tile Tile) {
	if o, ok := c.tiles[tile.ID()]; ok {
		o.Sync()
	}
}

// TextureReady must be called when the texture src has become readable
// or has been replaced.  All tiles using it rebuild their alpha maps on
// next use.
func (c *Controller) TextureReady(src string) {
	for _, o := range c.order {
		if o.tile.Texture() == src || o.builtTexture == src {
			o.Invalidate()
		}
	}
}

// UpdateTokens recomputes the occlusion state of every tracked tile for
// the given tokens, and notifies the sink of each tile whose state
// changed, in order of tile ID.
func (c *Controller) UpdateTokens(tokens []Token) {
	for _, o := range c.order {
		before := o.Occluded()
		after := c.tester.UpdateOcclusion(o, tokens)
		if after != before && c.sink != nil {
			c.sink.OcclusionChanged(o.tile, after)
		}
	}
}
