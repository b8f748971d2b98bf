package resources

import (
	"sync"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

type BaseTextureOptions struct {
	/** @brief Mipmap generation mode. */
	Mipmap MipmapMode
	/** @brief How the alpha channel is stored. */
	AlphaMode AlphaMode
	/** @brief The resolution of the source (2 for @2x assets). */
	Resolution float64
	/** @brief Flip the pixels on the y-axis when decoding. */
	FlipY bool
	/** @brief GL pixel format of uncompressed data, 0 when unknown. */
	Format uint32
	/** @brief GL component type of uncompressed data, 0 when unknown. */
	Type uint32
}

/**
 * @brief A BaseTexture owns the pixel data. Several textures may share one base,
 * for example every frame of a spritesheet.
 */
type BaseTexture struct {
	/** @brief The unique id of this instance. */
	ID string
	/** @brief The identifier the texture was loaded from. */
	Source string
	/** @brief Width in pixels of the top level. */
	Width uint32
	/** @brief Height in pixels of the top level. */
	Height uint32
	/** @brief The number of channels in Pixels. */
	ChannelCount uint8
	/** @brief Uncompressed RGBA pixel data, nil for compressed textures. */
	Pixels []uint8
	/** @brief Compressed data, one entry per mip level. */
	Levels [][]byte
	/** @brief GL internal format of compressed data. */
	InternalFormat uint32
	/** @brief Options the texture was created with. */
	Options BaseTextureOptions
	/** @brief Key/value metadata of KTX containers. */
	KeyValueData map[string][]byte

	mu       sync.Mutex
	disposed core.Signal
}

func NewBaseTexture(source string, width, height uint32, opts BaseTextureOptions) *BaseTexture {
	return &BaseTexture{
		ID:      core.NewID(),
		Source:  source,
		Width:   width,
		Height:  height,
		Options: opts,
	}
}

// Compressed reports whether the texture holds compressed mip levels.
func (b *BaseTexture) Compressed() bool {
	return len(b.Levels) > 0
}

// Valid reports whether the texture still holds data.
func (b *BaseTexture) Valid() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.disposed.Fired() && (len(b.Pixels) > 0 || len(b.Levels) > 0)
}

func (b *BaseTexture) OnDispose(fn func()) {
	b.disposed.Subscribe(fn)
}

// Destroy releases the pixel data and fires the disposal signal.
func (b *BaseTexture) Destroy() {
	b.mu.Lock()
	b.Pixels = nil
	b.Levels = nil
	b.KeyValueData = nil
	b.mu.Unlock()
	b.disposed.Fire()
}

/** @brief A rectangle inside a base texture. */
type Rect struct {
	X      uint32
	Y      uint32
	Width  uint32
	Height uint32
}

/**
 * @brief A Texture is a view on a region of a BaseTexture.
 */
type Texture struct {
	/** @brief The unique id of this instance. */
	ID string
	/** @brief The base texture holding the data. */
	Base *BaseTexture
	/** @brief The region of the base texture used by this texture. */
	Frame Rect
}

// NewTexture returns a texture covering the whole base texture.
func NewTexture(base *BaseTexture) *Texture {
	return NewTextureFrame(base, Rect{Width: base.Width, Height: base.Height})
}

func NewTextureFrame(base *BaseTexture, frame Rect) *Texture {
	return &Texture{
		ID:    core.NewID(),
		Base:  base,
		Frame: frame,
	}
}

func (t *Texture) Width() uint32 {
	return t.Frame.Width
}

func (t *Texture) Height() uint32 {
	return t.Frame.Height
}

// OnDispose follows the base texture, a texture is gone once its data is gone.
func (t *Texture) OnDispose(fn func()) {
	t.Base.OnDispose(fn)
}

// Destroy drops the texture. The base texture is only released with destroyBase.
func (t *Texture) Destroy(destroyBase bool) {
	if destroyBase && t.Base != nil {
		t.Base.Destroy()
	}
}
