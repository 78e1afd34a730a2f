package occlusion

import "errors"

var (
	// ErrInvalidConfig is returned by constructors for out-of-range
	// configuration values.
	ErrInvalidConfig = errors.New("occlusion: invalid configuration")

	// ErrUnreadableTexture indicates that texture data could not be
	// decoded or has no pixels.
	ErrUnreadableTexture = errors.New("occlusion: unreadable texture")

	// ErrTextureNotLoaded is returned by [TextureCache.Texture] for
	// textures which are unknown or still loading.
	ErrTextureNotLoaded = errors.New("occlusion: texture not loaded")

	// ErrClosed is returned after [TextureCache.Close].
	ErrClosed = errors.New("occlusion: texture cache closed")
)
