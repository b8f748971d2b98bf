package loaders

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/image/font/opentype"

	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/platform"
	"github.com/spaghettifunk/anima-assets/engine/resources"
)

var (
	webFontExtensions = []string{"woff", "woff2", "ttf", "otf"}
	validWeights      = []string{"normal", "bold", "100", "200", "300", "400", "500", "600", "700", "800", "900"}
)

// WebFontOptions is the metadata understood by the web font loader. Family
// overrides the name derived from the file name.
type WebFontOptions struct {
	Family  string   `asset:"family"`
	Weights []string `asset:"weights"`
}

// WebFontLoader registers font files with the platform font book.
type WebFontLoader struct{}

func (wl *WebFontLoader) Name() string { return "webfont" }

func (wl *WebFontLoader) Test(src string) bool {
	return hasExt(src, webFontExtensions...)
}

func (wl *WebFontLoader) Load(ctx context.Context, req assets.Request, h assets.Handle) (any, error) {
	p := h.Platform()
	if !p.Online() {
		return nil, fmt.Errorf("%w: cannot load font '%s'", core.ErrOffline, req.Src)
	}
	if p.Fonts == nil {
		core.LogWarn("font registration is not supported, skipping '%s'", req.Src)
		return nil, nil
	}

	opts := WebFontOptions{Family: FontFamilyName(req.Src)}
	if w, ok := req.Get("weight"); ok {
		// a single "weight" key is accepted as shorthand for "weights"
		opts.Weights = []string{fmt.Sprint(w)}
	}
	if err := req.Decode(&opts); err != nil {
		return nil, err
	}
	if len(opts.Weights) == 0 {
		opts.Weights = []string{"normal"}
	}
	weights := slices.DeleteFunc(slices.Clone(opts.Weights), func(w string) bool {
		return !slices.Contains(validWeights, w)
	})
	if len(weights) == 0 {
		core.LogWarn("no valid font weight in %v, skipping '%s'", opts.Weights, req.Src)
		return nil, nil
	}

	data, err := h.Fetch(ctx, req.Src)
	if err != nil {
		return nil, err
	}

	face := resources.NewFontFace(opts.Family, weights[0], req.Src)
	face.Data = data
	if hasExt(req.Src, "ttf", "otf") {
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font '%s': %w", req.Src, err)
		}
		face.Font = f
	}

	fonts := p.Fonts
	fonts.Add(face)
	face.OnDispose(func() {
		fonts.Delete(face)
	})
	return face, nil
}

func (wl *WebFontLoader) Unload(asset any) error {
	face, ok := asset.(*resources.FontFace)
	if !ok {
		return fmt.Errorf("cannot unload %T as a font face", asset)
	}
	face.Dispose()
	return nil
}

// FontFamilyName derives a family name from a font identifier:
// "fonts/titan-one.woff" becomes "Titan One".
func FontFamilyName(src string) string {
	file := path.Base(platform.StripQuery(src))
	name := strings.TrimSuffix(file, path.Ext(file))
	name = strings.ToLower(strings.NewReplacer("-", " ", "_", " ").Replace(name))

	words := strings.Split(name, " ")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size > 0 {
			words[i] = string(unicode.ToUpper(r)) + w[size:]
		}
	}
	return strings.Join(words, " ")
}
