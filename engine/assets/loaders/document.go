package loaders

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/resources"
)

var documentExtensions = []string{"json", "yaml", "yml", "toml"}

// DocumentParser decodes structured text blobs. Objects become map[string]any,
// JSON and YAML arrays become []any.
type DocumentParser struct{}

func (dp *DocumentParser) Name() string { return "document" }

func (dp *DocumentParser) TestTransform(value any, src string) bool {
	b, ok := value.(*resources.Blob)
	return ok && slices.Contains(documentExtensions, b.Ext)
}

func (dp *DocumentParser) Transform(ctx context.Context, value any, req assets.Request, h assets.Handle) (any, error) {
	b := value.(*resources.Blob)
	doc, err := decodeDocument(b.Ext, b.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode '%s': %w", req.Src, err)
	}
	return doc, nil
}

func decodeDocument(ext string, data []byte) (any, error) {
	var doc any
	switch ext {
	case "json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case "toml":
		m := map[string]any{}
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		doc = m
	default:
		return nil, fmt.Errorf("unsupported document type '%s'", ext)
	}
	if doc == nil {
		// empty yaml documents decode to nil
		doc = map[string]any{}
	}
	return doc, nil
}
