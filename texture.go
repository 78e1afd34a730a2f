package occlusion

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// TextureSource gives synchronous access to decoded tile textures.
type TextureSource interface {
	// Texture returns the image stored under src.  An error means that
	// the image cannot be read right now; the occlusion code then treats
	// the texture as fully transparent.
	Texture(src string) (image.Image, error)
}

// TextureCache loads tile textures from a file system and keeps the
// decoded images.  It is meant to be created once at start-up, passed to
// the components which need textures, and closed at shutdown.
//
// A TextureCache is safe for concurrent use.
type TextureCache struct {
	fsys fs.FS

	mu      sync.Mutex
	entries map[string]*textureEntry
	closed  bool
	wg      sync.WaitGroup
}

type textureEntry struct {
	done chan struct{} // closed once img/err are set
	img  image.Image
	err  error
}

// NewTextureCache returns an empty cache which reads files from fsys.
// The cache can be used without a file system if all textures are
// added with [TextureCache.Put].
func NewTextureCache(fsys fs.FS) *TextureCache {
	return &TextureCache{
		fsys:    fsys,
		entries: make(map[string]*textureEntry),
	}
}

// Exists reports whether src names a readable file or a cached texture.
func (c *TextureCache) Exists(src string) bool {
	c.mu.Lock()
	e := c.entries[src]
	c.mu.Unlock()
	if e != nil {
		select {
		case <-e.done:
			if e.err == nil {
				return true
			}
		default:
		}
	}
	if c.fsys == nil {
		return false
	}
	info, err := fs.Stat(c.fsys, src)
	return err == nil && !info.IsDir()
}

// Put stores img under src, replacing any previous texture.
func (c *TextureCache) Put(src string, img image.Image) error {
	e := &textureEntry{done: make(chan struct{}), img: img}
	if img == nil || img.Bounds().Empty() {
		e.img = nil
		e.err = fmt.Errorf("texture %q: %w", src, ErrUnreadableTexture)
	}
	close(e.done)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.entries[src] = e
	return nil
}

// Get returns the texture stored under src, if it has finished loading
// successfully.
func (c *TextureCache) Get(src string) (image.Image, bool) {
	c.mu.Lock()
	e := c.entries[src]
	c.mu.Unlock()
	if e == nil {
		return nil, false
	}
	select {
	case <-e.done:
		return e.img, e.err == nil
	default:
		return nil, false
	}
}

// Texture implements [TextureSource].  It never blocks: textures which are
// still loading give [ErrTextureNotLoaded].
func (c *TextureCache) Texture(src string) (image.Image, error) {
	c.mu.Lock()
	e := c.entries[src]
	c.mu.Unlock()
	if e == nil {
		return nil, fmt.Errorf("texture %q: %w", src, ErrTextureNotLoaded)
	}
	select {
	case <-e.done:
		return e.img, e.err
	default:
		return nil, fmt.Errorf("texture %q: %w", src, ErrTextureNotLoaded)
	}
}

// Load returns the texture stored under src, starting to decode it in the
// background if needed, and waits until it is available or ctx is done.
// If src cannot be read and fallback is not empty, the fallback texture is
// loaded instead and cached under src as well.
func (c *TextureCache) Load(ctx context.Context, src, fallback string) (image.Image, error) {
	e, err := c.start(src)
	if err != nil {
		return nil, err
	}

	select {
	case <-e.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if e.err == nil {
		return e.img, nil
	}

	Logger().Warn("texture load failed", "texture", src, "error", e.err)
	if fallback == "" || fallback == src {
		return nil, e.err
	}
	img, err := c.Load(ctx, fallback, "")
	if err != nil {
		return nil, errors.Join(e.err, err)
	}
	c.mu.Lock()
	if !c.closed {
		c.entries[src] = &textureEntry{done: e.done, img: img}
	}
	c.mu.Unlock()
	return img, nil
}

// start returns the entry for src, launching a decoder if the texture is
// not yet known.
func (c *TextureCache) start(src string) (*textureEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if e, ok := c.entries[src]; ok {
		return e, nil
	}

	e := &textureEntry{done: make(chan struct{})}
	c.entries[src] = e
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		e.img, e.err = c.decode(src)
		close(e.done)
	}()
	return e, nil
}

func (c *TextureCache) decode(src string) (image.Image, error) {
	if c.fsys == nil {
		return nil, fmt.Errorf("texture %q: %w", src, fs.ErrNotExist)
	}
	f, err := c.fsys.Open(src)
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", src, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w: %w", src, ErrUnreadableTexture, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("texture %q: %w", src, ErrUnreadableTexture)
	}
	return img, nil
}

// Forget removes src from the cache.  Loads in progress still complete,
// but their result is discarded.
func (c *TextureCache) Forget(src string) {
	c.mu.Lock()
	delete(c.entries, src)
	c.mu.Unlock()
}

// Close waits for pending loads to finish and releases all textures.
// Further calls to Load and Put fail with [ErrClosed].
func (c *TextureCache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.wg.Wait()

	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
	return nil
}
