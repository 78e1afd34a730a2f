package occlusion

import (
	"fmt"
	"image"
	"testing"

	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/occlusion/testcases"
)

// testTile is a mutable Tile for tests.
type testTile struct {
	id       string
	geom     Geometry
	overhead bool
	texture  string
}

func (t *testTile) ID() string         { return t.id }
func (t *testTile) Geometry() Geometry { return t.geom }
func (t *testTile) Overhead() bool     { return t.overhead }
func (t *testTile) Texture() string    { return t.texture }

// box is a token with a fixed footprint.
type box rect.Rect

func (b box) Footprint() rect.Rect { return rect.Rect(b) }

// centered returns a token of the given size centred on (x, y).
func centered(x, y, size float64) box {
	return box{LLx: x - size/2, LLy: y - size/2, URx: x + size/2, URy: y + size/2}
}

// mapSource serves textures from a map and counts lookups.
type mapSource struct {
	images  map[string]image.Image
	lookups int
}

func newMapSource() *mapSource {
	return &mapSource{images: make(map[string]image.Image)}
}

func (s *mapSource) Texture(src string) (image.Image, error) {
	s.lookups++
	img, ok := s.images[src]
	if !ok {
		return nil, fmt.Errorf("texture %q: %w", src, ErrTextureNotLoaded)
	}
	return img, nil
}

// fixture returns the image of a named test case.
func fixture(t testing.TB, category, name string) image.Image {
	t.Helper()
	tc, ok := testcases.Get(category, name)
	if !ok {
		t.Fatalf("unknown test case %s_%s", category, name)
	}
	return tc.Image()
}

// newTestOverhead returns Overhead data for a tile showing the given
// fixture, together with the tile.
func newTestOverhead(t testing.TB, category, name string, geom Geometry) (*Overhead, *testTile, *mapSource) {
	t.Helper()
	src := newMapSource()
	src.images[name] = fixture(t, category, name)
	tile := &testTile{id: name, geom: geom, overhead: true, texture: name}
	o, err := NewOverhead(tile, src, DefaultConfig().alphaMapOptions())
	if err != nil {
		t.Fatal(err)
	}
	return o, tile, src
}
