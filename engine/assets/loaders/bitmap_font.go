package loaders

import (
	"context"
	"fmt"

	"github.com/fzipp/bmfont"

	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/platform"
	"github.com/spaghettifunk/anima-assets/engine/resources"
)

// BitmapFontLoader imports AngelCode .fnt descriptors. Page images are loaded
// through the loader, so they are cached and shared like any other texture.
type BitmapFontLoader struct {
	// Files maps identifiers to paths on disk, bmfont only reads local files.
	Files *platform.FileFetcher
}

func (fl *BitmapFontLoader) Name() string { return "bitmap-font" }

func (fl *BitmapFontLoader) Test(src string) bool {
	return hasExt(src, "fnt")
}

func (fl *BitmapFontLoader) Load(ctx context.Context, req assets.Request, h assets.Handle) (any, error) {
	if platform.IsRemote(req.Src) {
		return nil, fmt.Errorf("bitmap font '%s' must be a local file", req.Src)
	}
	files := fl.Files
	if files == nil {
		files = &platform.FileFetcher{}
	}

	// pages are loaded below, through the loader
	d, err := bmfont.LoadDescriptor(files.Path(req.Src))
	if err != nil {
		return nil, err
	}

	font := resources.NewBitmapFont(d.Info.Face)
	font.Size = uint32(d.Info.Size)
	font.LineHeight = int32(d.Common.LineHeight)
	font.Baseline = int32(d.Common.Base)
	font.AtlasSizeX = int32(d.Common.ScaleW)
	font.AtlasSizeY = int32(d.Common.ScaleH)

	for _, g := range d.Chars {
		font.Glyphs[int32(g.ID)] = &resources.FontGlyph{
			Codepoint: int32(g.ID),
			X:         uint16(g.X),
			Y:         uint16(g.Y),
			Width:     uint16(g.Width),
			Height:    uint16(g.Height),
			XOffset:   int16(g.XOffset),
			YOffset:   int16(g.YOffset),
			XAdvance:  int16(g.XAdvance),
			PageID:    uint8(g.Page),
		}
	}
	for p, k := range d.Kerning {
		font.Kernings = append(font.Kernings, &resources.FontKerning{
			Codepoint0: int32(p.First),
			Codepoint1: int32(p.Second),
			Amount:     int16(k.Amount),
		})
	}

	pageSrc := make(map[int]string)
	srcs := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		if p.ID < 0 || p.ID >= len(d.Pages) {
			return nil, fmt.Errorf("page id %d of '%s' out of range, the font has %d pages", p.ID, req.Src, len(d.Pages))
		}
		src := relativeTo(req.Src, p.File)
		pageSrc[p.ID] = src
		srcs = append(srcs, src)
	}
	if len(srcs) > 0 {
		v, err := h.Load(ctx, srcs)
		if err != nil {
			return nil, fmt.Errorf("failed to load pages of '%s': %w", req.Src, err)
		}
		loaded := v.(map[string]any)

		font.Pages = make([]*resources.Texture, len(d.Pages))
		for id, src := range pageSrc {
			tex, ok := loaded[src].(*resources.Texture)
			if !ok {
				return nil, fmt.Errorf("page '%s' of '%s' is not a texture", src, req.Src)
			}
			font.Pages[id] = tex
		}
	}
	font.Bind()

	return font, nil
}

func (fl *BitmapFontLoader) Unload(asset any) error {
	font, ok := asset.(*resources.BitmapFont)
	if !ok {
		return fmt.Errorf("cannot unload %T as a bitmap font", asset)
	}
	font.Destroy()
	return nil
}
