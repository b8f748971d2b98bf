package loaders

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/resources"
)

var textureExtensions = []string{"png", "jpg", "jpeg", "gif", "bmp", "tif", "tiff", "webp"}

// TextureOptions is the metadata understood by the texture loader.
type TextureOptions struct {
	Mipmap     resources.MipmapMode `asset:"mipmap"`
	AlphaMode  resources.AlphaMode  `asset:"alpha_mode"`
	Resolution float64              `asset:"resolution"`
	FlipY      bool                 `asset:"flip_y"`
}

// TextureLoader decodes raster images into RGBA textures.
type TextureLoader struct{}

func (tl *TextureLoader) Name() string { return "texture" }

func (tl *TextureLoader) Test(src string) bool {
	return hasExt(src, textureExtensions...)
}

func (tl *TextureLoader) Load(ctx context.Context, req assets.Request, h assets.Handle) (any, error) {
	data, err := h.Fetch(ctx, req.Src)
	if err != nil {
		return nil, err
	}
	if mime := mimetype.Detect(data); !strings.HasPrefix(mime.String(), "image/") {
		return nil, fmt.Errorf("'%s' is %s, not an image", req.Src, mime.String())
	}

	opts := TextureOptions{
		Mipmap:     resources.MipmapModePow2,
		AlphaMode:  resources.AlphaModePremultiplyOnUpload,
		Resolution: resolutionOf(req.Src),
	}
	if err := req.Decode(&opts); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	rgba := toRGBA(img, opts.FlipY)

	base := resources.NewBaseTexture(req.Src, uint32(rgba.Rect.Dx()), uint32(rgba.Rect.Dy()), resources.BaseTextureOptions{
		Mipmap:     opts.Mipmap,
		AlphaMode:  opts.AlphaMode,
		Resolution: opts.Resolution,
		FlipY:      opts.FlipY,
		Format:     glRGBA,
		Type:       glUnsignedByte,
	})
	base.ChannelCount = 4
	base.Pixels = rgba.Pix
	return resources.NewTexture(base), nil
}

func (tl *TextureLoader) Unload(asset any) error {
	return destroyTexture(asset)
}

func destroyTexture(asset any) error {
	t, ok := asset.(*resources.Texture)
	if !ok {
		return fmt.Errorf("cannot unload %T as a texture", asset)
	}
	t.Destroy(true)
	return nil
}

// toRGBA converts img to tightly packed RGBA, optionally flipped vertically.
func toRGBA(img image.Image, flipY bool) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	if !flipY {
		return dst
	}
	row := make([]byte, dst.Stride)
	for top, bottom := 0, dst.Rect.Dy()-1; top < bottom; top, bottom = top+1, bottom-1 {
		t := dst.Pix[top*dst.Stride : (top+1)*dst.Stride]
		bt := dst.Pix[bottom*dst.Stride : (bottom+1)*dst.Stride]
		copy(row, t)
		copy(t, bt)
		copy(bt, row)
	}
	return dst
}
