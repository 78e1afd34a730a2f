package occlusion

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io/fs"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testFS(t *testing.T) fstest.MapFS {
	return fstest.MapFS{
		"roofs/opaque.png": {Data: encodePNG(t, fixture(t, "basic", "opaque"))},
		"roofs/ring.png":   {Data: encodePNG(t, fixture(t, "shape", "ring"))},
		"roofs/broken.png": {Data: []byte("not an image")},
	}
}

func TestTextureCacheLoad(t *testing.T) {
	c := NewTextureCache(testFS(t))
	defer c.Close()
	ctx := context.Background()

	_, err := c.Texture("roofs/ring.png")
	assert.ErrorIs(t, err, ErrTextureNotLoaded)

	img, err := c.Load(ctx, "roofs/ring.png", "")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())

	again, err := c.Texture("roofs/ring.png")
	require.NoError(t, err)
	assert.Same(t, img, again)

	got, ok := c.Get("roofs/ring.png")
	assert.True(t, ok)
	assert.Same(t, img, got)

	m := BuildAlphaMap(img, AlphaMapOptions{KeepPixels: true})
	assert.Equal(t, image.Rect(10, 10, 90, 90), m.Bounds)
}

func TestTextureCacheFailures(t *testing.T) {
	c := NewTextureCache(testFS(t))
	defer c.Close()
	ctx := context.Background()

	_, err := c.Load(ctx, "roofs/missing.png", "")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = c.Load(ctx, "roofs/broken.png", "")
	assert.ErrorIs(t, err, ErrUnreadableTexture)

	// failures are cached
	_, err = c.Texture("roofs/broken.png")
	assert.ErrorIs(t, err, ErrUnreadableTexture)
	_, ok := c.Get("roofs/broken.png")
	assert.False(t, ok)
}

func TestTextureCacheFallback(t *testing.T) {
	c := NewTextureCache(testFS(t))
	defer c.Close()
	ctx := context.Background()

	img, err := c.Load(ctx, "roofs/missing.png", "roofs/opaque.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())

	cached, err := c.Texture("roofs/missing.png")
	require.NoError(t, err)
	assert.Same(t, img, cached)

	_, err = c.Load(ctx, "roofs/other.png", "roofs/broken.png")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.ErrorIs(t, err, ErrUnreadableTexture)
}

func TestTextureCacheExists(t *testing.T) {
	c := NewTextureCache(testFS(t))
	defer c.Close()

	assert.True(t, c.Exists("roofs/opaque.png"))
	assert.False(t, c.Exists("roofs/missing.png"))
	assert.False(t, c.Exists("roofs"), "directories are not textures")

	require.NoError(t, c.Put("generated", fixture(t, "basic", "inset")))
	assert.True(t, c.Exists("generated"))

	assert.False(t, NewTextureCache(nil).Exists("roofs/opaque.png"))
}

func TestTextureCachePut(t *testing.T) {
	c := NewTextureCache(nil)
	defer c.Close()

	img := fixture(t, "basic", "inset")
	require.NoError(t, c.Put("inset", img))
	got, err := c.Texture("inset")
	require.NoError(t, err)
	assert.Same(t, img, got)

	// Load does not touch the file system for stored textures
	got, err = c.Load(context.Background(), "inset", "")
	require.NoError(t, err)
	assert.Same(t, img, got)

	require.NoError(t, c.Put("inset", nil))
	_, err = c.Texture("inset")
	assert.ErrorIs(t, err, ErrUnreadableTexture)

	c.Forget("inset")
	_, err = c.Texture("inset")
	assert.ErrorIs(t, err, ErrTextureNotLoaded)
}

func TestTextureCacheConcurrentLoads(t *testing.T) {
	c := NewTextureCache(testFS(t))
	defer c.Close()

	var wg sync.WaitGroup
	results := make([]image.Image, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			img, err := c.Load(context.Background(), "roofs/opaque.png", "")
			assert.NoError(t, err)
			results[i] = img
		}()
	}
	wg.Wait()
	for _, img := range results[1:] {
		assert.Same(t, results[0], img, "the texture is decoded once")
	}
}

func TestTextureCacheCancel(t *testing.T) {
	c := NewTextureCache(testFS(t))
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Load(ctx, "roofs/missing.png", "")
	// either the context or the missing file wins the race
	assert.True(t, errors.Is(err, context.Canceled) || errors.Is(err, fs.ErrNotExist),
		"unexpected error %v", err)
}

func TestTextureCacheClose(t *testing.T) {
	c := NewTextureCache(testFS(t))
	_, err := c.Load(context.Background(), "roofs/opaque.png", "")
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err = c.Load(context.Background(), "roofs/opaque.png", "")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.Put("x", fixture(t, "basic", "opaque")), ErrClosed)
	_, err = c.Texture("roofs/opaque.png")
	assert.ErrorIs(t, err, ErrTextureNotLoaded)
}

func TestTextureCacheAsSource(t *testing.T) {
	c := NewTextureCache(testFS(t))
	defer c.Close()

	tile := &testTile{id: "roof", geom: Geometry{Width: 100, Height: 100}, overhead: true, texture: "roofs/ring.png"}
	o, err := NewOverhead(tile, c, DefaultConfig().alphaMapOptions())
	require.NoError(t, err)
	assert.False(t, o.ContainsPixel(15, 50), "still loading")

	_, err = c.Load(context.Background(), "roofs/ring.png", "")
	require.NoError(t, err)
	o.Invalidate()
	assert.True(t, o.ContainsPixel(15, 50))
	assert.False(t, o.ContainsPixel(50, 50))
}
