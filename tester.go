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
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// OcclusionOptions select the points of a token footprint which are tested
// against a tile.
type OcclusionOptions struct {
	// Corners adds the four corners of the footprint to the centre and the
	// four edge midpoints.  With Corners set nine points are tested,
	// otherwise five.
	Corners bool

	// Inset moves the corner and edge points towards the centre by this
	// many world units, so that a token merely touching a tile does not
	// occlude it.  The inset is limited to half the footprint size.
	Inset float64
}

// DefaultOcclusionOptions returns the options used when none are given:
// all nine points, no inset.
func DefaultOcclusionOptions() OcclusionOptions {
	return OcclusionOptions{Corners: true}
}

// Config holds the settings of a [Tester] and a [Controller].
type Config struct {
	// Threshold is the opacity, as a fraction in [0, 1), above which a
	// texture pixel counts as solid.
	Threshold float64

	// Resolution is the alpha map sampling density relative to the
	// native texture resolution, in (0, 1].  Zero means 1.
	Resolution float64

	// KeepTexture additionally retains the thresholded alpha image of
	// every tile texture, see [AlphaMap.RenderTexture].
	KeepTexture bool

	// Occlusion are the options used by [Tester.UpdateOcclusion].
	Occlusion OcclusionOptions
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Resolution: 1,
		Occlusion:  DefaultOcclusionOptions(),
	}
}

// Validate checks that all settings are within range.
func (c Config) Validate() error {
	if err := c.alphaMapOptions().Validate(); err != nil {
		return err
	}
	inset := c.Occlusion.Inset
	if math.IsNaN(inset) || math.IsInf(inset, 0) || inset < 0 {
		return fmt.Errorf("%w: inset %g", ErrInvalidConfig, inset)
	}
	return nil
}

func (c Config) alphaMapOptions() AlphaMapOptions {
	return AlphaMapOptions{
		KeepPixels:  true,
		KeepTexture: c.KeepTexture,
		Threshold:   c.Threshold,
		Resolution:  c.Resolution,
	}
}

// Tester decides whether tokens occlude overhead tiles.
type Tester struct {
	cfg    Config
	points []vec.Vec2
}

// NewTester returns a Tester for the given configuration.
func NewTester(cfg Config) (*Tester, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Tester{cfg: cfg}, nil
}

// Config returns the tester's configuration.
func (t *Tester) Config() Config {
	return t.cfg
}

// TestOcclusion reports whether token occludes the tile of o, that is
// whether any of the token's sample points lies on a solid tile pixel.
func (t *Tester) TestOcclusion(o *Overhead, token Token, opts OcclusionOptions) bool {
	footprint := Normalize(token.Footprint())
	box, ok := o.AlphaBounds()
	if !ok || !overlaps(box, footprint) {
		return false
	}

	m := o.AlphaMap()
	toLocal, ok := invert(o.tile.Geometry().LocalToWorld(m.Size))
	if !ok {
		return false
	}

	t.points = SamplePoints(t.points[:0], footprint, opts)
	for _, p := range t.points {
		q := apply(toLocal, p)
		if m.Contains(q.X, q.Y) {
			return true
		}
	}
	return false
}

// UpdateOcclusion sets the occlusion state of o to whether any of the
// given tokens occludes it, and returns the new state.  Tiles which are
// not overhead are never occluded.  The caller selects the tokens.
func (t *Tester) UpdateOcclusion(o *Overhead, tokens []Token) bool {
	occluded := false
	if o.tile.Overhead() {
		for _, token := range tokens {
			if t.TestOcclusion(o, token, t.cfg.Occlusion) {
				occluded = true
				break
			}
		}
	}
	if o.setOccluded(occluded) {
		Logger().Debug("occlusion changed", "tile", o.tile.ID(), "occluded", occluded)
	}
	return occluded
}

// SamplePoints appends the sample points of a footprint to dst: the
// centre, the four edge midpoints and, if opts.Corners is set, the four
// corners.  Negative or NaN insets are treated as zero.
func SamplePoints(dst []vec.Vec2, footprint rect.Rect, opts OcclusionOptions) []vec.Vec2 {
	r := Normalize(footprint)
	cx, cy := (r.LLx+r.URx)/2, (r.LLy+r.URy)/2

	inset := opts.Inset
	if !(inset > 0) {
		inset = 0
	}
	dx := min(inset, (r.URx-r.LLx)/2)
	dy := min(inset, (r.URy-r.LLy)/2)
	x0, x1 := r.LLx+dx, r.URx-dx
	y0, y1 := r.LLy+dy, r.URy-dy

	dst = append(dst,
		vec.Vec2{X: cx, Y: cy},
		vec.Vec2{X: cx, Y: y0},
		vec.Vec2{X: x1, Y: cy},
		vec.Vec2{X: cx, Y: y1},
		vec.Vec2{X: x0, Y: cy},
	)
	if opts.Corners {
		dst = append(dst,
			vec.Vec2{X: x0, Y: y0},
			vec.Vec2{X: x1, Y: y0},
			vec.Vec2{X: x1, Y: y1},
			vec.Vec2{X: x0, Y: y1},
		)
	}
	return dst
}
