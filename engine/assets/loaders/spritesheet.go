package loaders

import (
	"context"
	"fmt"

	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/resources"
)

// SpritesheetParser composes TexturePacker style documents (hash or array
// frames) into spritesheets. The atlas image is loaded through the loader, so it
// is cached under its own identifier.
type SpritesheetParser struct{}

func (sp *SpritesheetParser) Name() string { return "spritesheet" }

func (sp *SpritesheetParser) TestTransform(value any, src string) bool {
	doc, ok := value.(map[string]any)
	if !ok {
		return false
	}
	if _, ok := doc["frames"]; !ok {
		return false
	}
	return atlasImage(doc) != ""
}

func (sp *SpritesheetParser) Transform(ctx context.Context, value any, req assets.Request, h assets.Handle) (any, error) {
	doc := value.(map[string]any)
	imageSrc := relativeTo(req.Src, atlasImage(doc))

	var image any = imageSrc
	if md, ok := req.Get("image_metadata"); ok {
		if m, ok := md.(map[string]any); ok {
			image = assets.NewRequest(imageSrc, m)
		}
	}
	v, err := h.Load(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("failed to load atlas of '%s': %w", req.Src, err)
	}
	atlas, ok := v.(*resources.Texture)
	if !ok {
		return nil, fmt.Errorf("atlas '%s' is %T, not a texture", imageSrc, v)
	}

	frames, err := spriteFrames(doc["frames"])
	if err != nil {
		return nil, fmt.Errorf("'%s': %w", req.Src, err)
	}

	sheet := resources.NewSpritesheet(atlas.Base, doc)
	for name, r := range frames {
		sheet.Textures[name] = resources.NewTextureFrame(atlas.Base, r)
	}
	if anims, ok := doc["animations"].(map[string]any); ok {
		for name, list := range anims {
			items, _ := list.([]any)
			for _, it := range items {
				if s, ok := it.(string); ok {
					sheet.Animations[name] = append(sheet.Animations[name], s)
				}
			}
		}
	}
	return sheet, nil
}

func (sp *SpritesheetParser) Unload(asset any) error {
	s, ok := asset.(*resources.Spritesheet)
	if !ok {
		return fmt.Errorf("cannot unload %T as a spritesheet", asset)
	}
	s.Destroy()
	return nil
}

func atlasImage(doc map[string]any) string {
	meta, ok := doc["meta"].(map[string]any)
	if !ok {
		return ""
	}
	img, _ := meta["image"].(string)
	return img
}

func spriteFrames(v any) (map[string]resources.Rect, error) {
	out := make(map[string]resources.Rect)
	switch frames := v.(type) {
	case map[string]any:
		for name, f := range frames {
			r, err := frameRect(f)
			if err != nil {
				return nil, fmt.Errorf("frame '%s': %w", name, err)
			}
			out[name] = r
		}
	case []any:
		for i, f := range frames {
			m, _ := f.(map[string]any)
			name, _ := m["filename"].(string)
			if name == "" {
				return nil, fmt.Errorf("frame %d has no filename", i)
			}
			r, err := frameRect(f)
			if err != nil {
				return nil, fmt.Errorf("frame '%s': %w", name, err)
			}
			out[name] = r
		}
	default:
		return nil, fmt.Errorf("frames must be an object or an array, got %T", v)
	}
	return out, nil
}

func frameRect(v any) (resources.Rect, error) {
	m, _ := v.(map[string]any)
	f, ok := m["frame"].(map[string]any)
	if !ok {
		return resources.Rect{}, fmt.Errorf("missing frame rectangle")
	}
	var vals [4]uint32
	for i, k := range []string{"x", "y", "w", "h"} {
		n, ok := number(f[k])
		if !ok || n < 0 {
			return resources.Rect{}, fmt.Errorf("invalid '%s' in frame rectangle", k)
		}
		vals[i] = uint32(n)
	}
	return resources.Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}
