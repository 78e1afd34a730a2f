package occlusion

import (
	"image"
	"maps"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seehuhn.de/go/occlusion/testcases"
)

func TestAlphaMapBoundsMatchFixtures(t *testing.T) {
	for _, category := range slices.Sorted(maps.Keys(testcases.All)) {
		for _, tc := range testcases.All[category] {
			if !tc.Aligned {
				continue
			}
			t.Run(category+"_"+tc.Name, func(t *testing.T) {
				m := BuildAlphaMap(tc.Image(), AlphaMapOptions{KeepPixels: true})
				assert.Equal(t, tc.Solid, m.Bounds)
				assert.Equal(t, image.Pt(tc.Width, tc.Height), m.Size)
			})
		}
	}
}

func TestTransparentTexture(t *testing.T) {
	m := BuildAlphaMap(fixture(t, "basic", "transparent"), AlphaMapOptions{KeepPixels: true})
	assert.True(t, m.Empty())
	for y := -1.0; y <= 65; y += 0.5 {
		for x := -1.0; x <= 65; x += 0.5 {
			if m.Contains(x, y) {
				t.Fatalf("transparent texture contains (%g, %g)", x, y)
			}
		}
	}
}

func TestUnreadableTexture(t *testing.T) {
	for name, img := range map[string]image.Image{
		"nil":   nil,
		"empty": image.NewNRGBA(image.Rect(0, 0, 0, 10)),
	} {
		t.Run(name, func(t *testing.T) {
			m := BuildAlphaMap(img, AlphaMapOptions{KeepPixels: true})
			assert.True(t, m.Empty())
			assert.False(t, m.Contains(0, 0))
		})
	}
}

func TestOpaqueTexture(t *testing.T) {
	m := BuildAlphaMap(fixture(t, "basic", "opaque"), AlphaMapOptions{KeepPixels: true})
	require.Equal(t, image.Rect(0, 0, 100, 100), m.Bounds)

	cases := []struct {
		x, y float64
		want bool
	}{
		{50, 50, true},
		{0, 0, true},
		{100, 100, true}, // the outer edge is inclusive
		{99.99, 0.01, true},
		{100.01, 50, false},
		{-0.01, 50, false},
		{50, 150, false},
		{math.NaN(), 50, false},
		{50, math.Inf(1), false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, m.Contains(c.x, c.y), "(%g, %g)", c.x, c.y)
	}
}

func TestRingHole(t *testing.T) {
	m := BuildAlphaMap(fixture(t, "shape", "ring"), AlphaMapOptions{KeepPixels: true})
	assert.True(t, m.Contains(15.5, 50.5))
	assert.False(t, m.Contains(50.5, 50.5), "inside the hole")
	assert.False(t, m.Contains(5.5, 5.5), "outside the ring")
}

func TestBuildIsDeterministic(t *testing.T) {
	for _, name := range []string{"circle", "star", "triangle"} {
		img := fixture(t, "shape", name)
		opts := AlphaMapOptions{KeepPixels: true}
		a := BuildAlphaMap(img, opts)
		b := BuildAlphaMap(img, opts)
		assert.Equal(t, a.Bounds, b.Bounds, name)
		assert.Equal(t, a.Pixels(), b.Pixels(), name)
		assert.NotEmpty(t, a.Pixels(), name)
	}
}

func TestThreshold(t *testing.T) {
	faint := fixture(t, "alpha", "faint")

	m := BuildAlphaMap(faint, AlphaMapOptions{KeepPixels: true})
	assert.True(t, m.Contains(10, 5), "any alpha counts by default")

	m = BuildAlphaMap(faint, AlphaMapOptions{KeepPixels: true, Threshold: 0.1})
	assert.True(t, m.Empty(), "faint pixels are below the threshold")

	half := fixture(t, "alpha", "half_opaque")
	m = BuildAlphaMap(half, AlphaMapOptions{KeepPixels: true, Threshold: 0.4})
	assert.Equal(t, image.Rect(4, 4, 28, 28), m.Bounds)
	m = BuildAlphaMap(half, AlphaMapOptions{KeepPixels: true, Threshold: 0.6})
	assert.True(t, m.Empty())
}

func TestKeepTextureOnly(t *testing.T) {
	m := BuildAlphaMap(fixture(t, "shape", "l_shape"), AlphaMapOptions{KeepTexture: true})
	require.Nil(t, m.Pixels())
	tex := m.RenderTexture()
	require.NotNil(t, tex)
	assert.Equal(t, uint8(0xff), tex.AlphaAt(5, 5).A)
	assert.Equal(t, uint8(0), tex.AlphaAt(60, 5).A)

	// the first query materialises the pixel array
	assert.True(t, m.Contains(5.5, 5.5))
	assert.NotNil(t, m.Pixels())
	assert.False(t, m.Contains(60.5, 5.5))
	assert.True(t, m.Contains(60.5, 55.5))
}

func TestBoundsOnly(t *testing.T) {
	m := BuildAlphaMap(fixture(t, "shape", "l_shape"), AlphaMapOptions{})
	assert.Nil(t, m.Pixels())
	assert.Nil(t, m.RenderTexture())
	// without pixel data only the bounding box is known
	assert.True(t, m.Contains(60.5, 5.5))
	assert.False(t, m.Contains(90, 5))
}

func TestReducedResolution(t *testing.T) {
	img := fixture(t, "basic", "inset")
	m := BuildAlphaMap(img, AlphaMapOptions{KeepPixels: true, Resolution: 0.5})
	assert.Equal(t, image.Rect(16, 8, 48, 40), m.Bounds)
	assert.Len(t, m.Pixels(), 16*16)
	assert.True(t, m.Contains(20, 20))
	assert.True(t, m.Contains(48, 40))
	assert.False(t, m.Contains(10, 20))
}

func TestAlphaMapOptionsValidate(t *testing.T) {
	assert.NoError(t, AlphaMapOptions{}.Validate())
	assert.NoError(t, AlphaMapOptions{Threshold: 0.5, Resolution: 1}.Validate())
	for _, opts := range []AlphaMapOptions{
		{Threshold: -0.1},
		{Threshold: 1},
		{Threshold: math.NaN()},
		{Resolution: -1},
		{Resolution: 1.5},
	} {
		assert.ErrorIs(t, opts.Validate(), ErrInvalidConfig, "%+v", opts)
	}
}
