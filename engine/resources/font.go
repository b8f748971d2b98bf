package resources

import (
	"golang.org/x/image/font/sfnt"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

/**
 * @brief A FontFace is a web font registered with the platform font book.
 */
type FontFace struct {
	/** @brief The unique id of this instance. */
	ID string
	/** @brief The family name, derived from the file name. */
	Family string
	/** @brief The weight of the face ("normal", "bold", "100".."900"). */
	Weight string
	/** @brief The identifier the face was loaded from. */
	Source string
	/** @brief The parsed font, nil for containers that are not parsed (woff, woff2). */
	Font *sfnt.Font
	/** @brief The raw font file. */
	Data []byte

	disposed core.Signal
}

func NewFontFace(family, weight, source string) *FontFace {
	return &FontFace{
		ID:     core.NewID(),
		Family: family,
		Weight: weight,
		Source: source,
	}
}

func (f *FontFace) OnDispose(fn func()) {
	f.disposed.Subscribe(fn)
}

// Dispose fires the disposal signal once.
func (f *FontFace) Dispose() {
	f.disposed.Fire()
}

/**
 * @brief A single glyph of a bitmap font.
 */
type FontGlyph struct {
	Codepoint int32
	X         uint16
	Y         uint16
	Width     uint16
	Height    uint16
	XOffset   int16
	YOffset   int16
	XAdvance  int16
	PageID    uint8
}

/**
 * @brief Kerning between two codepoints.
 */
type FontKerning struct {
	Codepoint0 int32
	Codepoint1 int32
	Amount     int16
}

/**
 * @brief A bitmap font with one texture per page.
 */
type BitmapFont struct {
	/** @brief The unique id of this instance. */
	ID         string
	Face       string
	Size       uint32
	LineHeight int32
	Baseline   int32
	AtlasSizeX int32
	AtlasSizeY int32
	Glyphs     map[int32]*FontGlyph
	Kernings   []*FontKerning
	/** @brief Page textures, indexed by page id. */
	Pages []*Texture

	disposed core.Signal
}

func NewBitmapFont(face string) *BitmapFont {
	return &BitmapFont{
		ID:     core.NewID(),
		Face:   face,
		Glyphs: make(map[int32]*FontGlyph),
	}
}

// Bind ties the font to its pages: the font is disposed as soon as any page is.
func (bf *BitmapFont) Bind() {
	for _, p := range bf.Pages {
		if p != nil {
			p.OnDispose(bf.Destroy)
		}
	}
}

func (bf *BitmapFont) OnDispose(fn func()) {
	bf.disposed.Subscribe(fn)
}

// Destroy drops glyph data, destroys the page textures and fires the disposal signal.
func (bf *BitmapFont) Destroy() {
	if !bf.disposed.Fire() {
		return
	}
	for _, p := range bf.Pages {
		if p != nil {
			p.Destroy(true)
		}
	}
}

/**
 * @brief A SystemFont is a font collection described by a .fontcfg file.
 */
type SystemFont struct {
	/** @brief The unique id of this instance. */
	ID string
	/** @brief The identifier the configuration was loaded from. */
	Source string
	/** @brief The face names listed in the configuration. */
	Faces []string
	/** @brief The parsed font collection. */
	Collection *sfnt.Collection
	/** @brief Size in bytes of the font binary. */
	BinarySize uint64
}
