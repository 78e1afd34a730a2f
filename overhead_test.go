package occlusion

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"seehuhn.de/go/geom/rect"
)

func TestOverheadBuildsLazily(t *testing.T) {
	o, _, src := newTestOverhead(t, "basic", "opaque", Geometry{Width: 100, Height: 100})
	assert.True(t, o.Stale())
	assert.Equal(t, 0, src.lookups, "nothing is built before the first query")

	assert.True(t, o.ContainsPixel(10, 10))
	assert.False(t, o.Stale())
	for range 10 {
		o.ContainsPixel(20, 20)
	}
	assert.Equal(t, 1, src.lookups, "the map is built once")
}

func TestOverheadInvalidation(t *testing.T) {
	o, tile, src := newTestOverhead(t, "basic", "opaque", Geometry{Width: 100, Height: 100})
	o.AlphaMap()

	t.Run("moving keeps the map", func(t *testing.T) {
		tile.geom.X, tile.geom.Y = 300, 400
		assert.False(t, o.Sync())
		assert.Equal(t, 1, src.lookups)
		assert.True(t, o.ContainsPixel(350, 450))
		assert.False(t, o.ContainsPixel(50, 50))
	})

	t.Run("rotation invalidates", func(t *testing.T) {
		tile.geom.Rotation = 10
		assert.True(t, o.Sync())
		assert.True(t, o.Stale())
		o.AlphaMap()
		assert.Equal(t, 2, src.lookups)
	})

	t.Run("equivalent rotation does not", func(t *testing.T) {
		tile.geom.Rotation = 370
		assert.False(t, o.Sync())
	})

	t.Run("resizing invalidates", func(t *testing.T) {
		tile.geom.Width = 200
		assert.True(t, o.Sync())
	})

	t.Run("explicit invalidation", func(t *testing.T) {
		o.AlphaMap()
		o.Invalidate()
		assert.True(t, o.Stale())
		assert.False(t, o.Sync(), "a stale map is not invalidated twice")
	})
}

func TestOverheadTextureSwap(t *testing.T) {
	o, tile, src := newTestOverhead(t, "basic", "opaque", Geometry{Width: 100, Height: 100})
	src.images["top_left"] = fixture(t, "basic", "top_left")

	require.True(t, o.ContainsPixel(75, 75))

	tile.texture = "top_left"
	assert.False(t, o.ContainsPixel(75, 75), "solid before, transparent in the new texture")
	assert.True(t, o.ContainsPixel(25, 25))
}

func TestOverheadUnreadableTexture(t *testing.T) {
	src := newMapSource()
	tile := &testTile{id: "t", geom: Geometry{Width: 100, Height: 100}, overhead: true, texture: "missing"}
	o, err := NewOverhead(tile, src, AlphaMapOptions{KeepPixels: true})
	require.NoError(t, err)

	assert.False(t, o.ContainsPixel(50, 50))
	_, ok := o.AlphaBounds()
	assert.False(t, ok)
	assert.Nil(t, o.RoofMask())

	// the empty map is kept until the tile is invalidated
	src.images["missing"] = fixture(t, "basic", "opaque")
	assert.False(t, o.ContainsPixel(50, 50))
	o.Invalidate()
	assert.True(t, o.ContainsPixel(50, 50))
}

func TestOverheadZeroAreaTile(t *testing.T) {
	o, _, _ := newTestOverhead(t, "basic", "opaque", Geometry{X: 10, Y: 10, Width: 0, Height: 100})
	assert.False(t, o.ContainsPixel(10, 50))
	b, ok := o.AlphaBounds()
	require.True(t, ok)
	assert.False(t, math.IsNaN(b.LLx) || math.IsNaN(b.URy))
	assert.Equal(t, 0.0, b.URx-b.LLx)
}

func TestAlphaBounds(t *testing.T) {
	o, _, _ := newTestOverhead(t, "basic", "inset", Geometry{X: 100, Y: 100, Width: 128, Height: 96})
	b, ok := o.AlphaBounds()
	require.True(t, ok)
	// texture pixels 16..48 × 8..40 at scale 2
	assertRect(t, rect.Rect{LLx: 132, LLy: 116, URx: 196, URy: 180}, b)

	o, _, _ = newTestOverhead(t, "basic", "opaque", Geometry{Width: 100, Height: 100, Rotation: 45})
	b, ok = o.AlphaBounds()
	require.True(t, ok)
	assert.InDelta(t, 100*math.Sqrt2, b.URx-b.LLx, 1e-9)
}

func TestRoofMask(t *testing.T) {
	t.Run("axis aligned", func(t *testing.T) {
		o, _, _ := newTestOverhead(t, "basic", "inset", Geometry{X: 10, Y: 20, Width: 64, Height: 48})
		mask := o.RoofMask()
		require.NotNil(t, mask)
		assert.Equal(t, image.Rect(26, 28, 58, 60), mask.Rect)
		assert.Equal(t, uint8(255), mask.AlphaAt(26, 28).A)
		assert.Equal(t, uint8(255), mask.AlphaAt(57, 59).A)
	})

	t.Run("follows the pixels", func(t *testing.T) {
		o, _, _ := newTestOverhead(t, "shape", "ring", Geometry{Width: 100, Height: 100})
		mask := o.RoofMask()
		require.NotNil(t, mask)
		assert.Equal(t, image.Rect(10, 10, 90, 90), mask.Rect)
		assert.Equal(t, uint8(0), mask.AlphaAt(50, 50).A)
		assert.Equal(t, uint8(255), mask.AlphaAt(15, 50).A)
	})

	t.Run("rotated", func(t *testing.T) {
		o, _, _ := newTestOverhead(t, "basic", "opaque", Geometry{Width: 100, Height: 100, Rotation: 45})
		mask := o.RoofMask()
		require.NotNil(t, mask)
		assert.Equal(t, uint8(255), mask.AlphaAt(50, 50).A)
		assert.Equal(t, uint8(0), mask.AlphaAt(mask.Rect.Min.X, mask.Rect.Min.Y).A, "corner of the box")
		assert.Equal(t, uint8(255), mask.AlphaAt(50, -10).A, "outside the unrotated tile")
	})
}
