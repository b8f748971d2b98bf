package assets

import (
	"fmt"
	"maps"
	"path"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/platform"
)

// Metadata is the free-form per-request configuration handed to parsers.
type Metadata map[string]any

// Request is the normalized form of everything a caller can pass to Load.
type Request struct {
	// Src is the identifier, also used as the cache key.
	Src string
	// Data is never nil after normalization and must not be mutated.
	Data Metadata
}

// Get returns a metadata value.
func (r Request) Get(key string) (any, bool) {
	v, ok := r.Data[key]
	return v, ok
}

// Decode merges the metadata into out, which should already hold the parser
// defaults. Keys are matched against `asset` struct tags; unknown keys are ignored.
func (r Request) Decode(out any) error {
	if len(r.Data) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "asset",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.TextUnmarshallerHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(r.Data)); err != nil {
		return fmt.Errorf("invalid metadata for '%s': %w", r.Src, err)
	}
	return nil
}

// Ext returns the lower-cased extension of the identifier without the dot,
// ignoring query string and fragment.
func (r Request) Ext() string {
	return Ext(r.Src)
}

func Ext(src string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(platform.StripQuery(src)), "."))
}

// NewRequest builds a request; a nil data map becomes an empty one.
func NewRequest(src string, data Metadata) Request {
	if data == nil {
		data = Metadata{}
	} else {
		data = maps.Clone(data)
	}
	return Request{Src: src, Data: data}
}

// Normalize turns the accepted call shapes into requests. The second result
// reports whether the input was a list shape.
//
// Accepted: string, []string, Request, *Request, []Request, []*Request and []any
// mixing the single shapes.
func Normalize(input any) ([]Request, bool, error) {
	switch in := input.(type) {
	case string, Request, *Request:
		r, err := normalizeOne(in)
		if err != nil {
			return nil, false, err
		}
		return []Request{r}, false, nil
	case []string:
		out := make([]Request, 0, len(in))
		for _, s := range in {
			r, err := normalizeOne(s)
			if err != nil {
				return nil, true, err
			}
			out = append(out, r)
		}
		return out, true, nil
	case []Request:
		out := make([]Request, 0, len(in))
		for _, s := range in {
			r, err := normalizeOne(s)
			if err != nil {
				return nil, true, err
			}
			out = append(out, r)
		}
		return out, true, nil
	case []*Request:
		out := make([]Request, 0, len(in))
		for _, s := range in {
			r, err := normalizeOne(s)
			if err != nil {
				return nil, true, err
			}
			out = append(out, r)
		}
		return out, true, nil
	case []any:
		out := make([]Request, 0, len(in))
		for _, s := range in {
			r, err := normalizeOne(s)
			if err != nil {
				return nil, true, err
			}
			out = append(out, r)
		}
		return out, true, nil
	default:
		return nil, false, fmt.Errorf("%w: unsupported input %T", core.ErrInvalidRequest, input)
	}
}

func normalizeOne(input any) (Request, error) {
	var r Request
	switch in := input.(type) {
	case string:
		r = NewRequest(in, nil)
	case Request:
		r = NewRequest(in.Src, in.Data)
	case *Request:
		if in == nil {
			return Request{}, fmt.Errorf("%w: nil request", core.ErrInvalidRequest)
		}
		r = NewRequest(in.Src, in.Data)
	default:
		return Request{}, fmt.Errorf("%w: unsupported input %T", core.ErrInvalidRequest, input)
	}
	if r.Src == "" {
		return Request{}, fmt.Errorf("%w: empty identifier", core.ErrInvalidRequest)
	}
	return r, nil
}
