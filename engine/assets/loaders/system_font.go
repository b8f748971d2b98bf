package loaders

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/image/font/opentype"

	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/resources"
)

// SystemFontLoader reads .fontcfg descriptors:
//
//	# comment
//	file=NotoSans.ttc
//	face=Noto Sans
//
// The font file is resolved relative to the descriptor.
type SystemFontLoader struct{}

func (fl *SystemFontLoader) Name() string { return "system-font" }

func (fl *SystemFontLoader) Test(src string) bool {
	return hasExt(src, "fontcfg")
}

func (fl *SystemFontLoader) Load(ctx context.Context, req assets.Request, h assets.Handle) (any, error) {
	cfg, err := h.Fetch(ctx, req.Src)
	if err != nil {
		return nil, err
	}

	font := &resources.SystemFont{ID: core.NewID(), Source: req.Src}
	scanner := bufio.NewScanner(bytes.NewReader(cfg))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}

		if file, ok := strings.CutPrefix(line, "file="); ok {
			fontBytes, err := h.Fetch(ctx, relativeTo(req.Src, file))
			if err != nil {
				return nil, err
			}
			c, err := opentype.ParseCollection(fontBytes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse font '%s': %w", file, err)
			}
			font.Collection = c
			font.BinarySize = uint64(len(fontBytes))
		} else if face, ok := strings.CutPrefix(line, "face="); ok {
			font.Faces = append(font.Faces, face)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if font.Collection == nil {
		return nil, fmt.Errorf("'%s' has no file entry", req.Src)
	}
	return font, nil
}
