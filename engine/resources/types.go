package resources

import (
	"fmt"
	"strings"
)

/**
 * @brief Disposable is implemented by every resource that can be released. The
 * callback runs once, when the resource is disposed. Subscribing to an already
 * disposed resource runs the callback immediately.
 */
type Disposable interface {
	OnDispose(fn func())
}

/**
 * @brief Group is an ordered sequence of resources produced for a single
 * identifier (e.g. every face of a KTX cubemap).
 */
type Group []any

// Disposables returns the elements of the group that carry a disposal signal.
func (g Group) Disposables() []Disposable {
	out := make([]Disposable, 0, len(g))
	for _, v := range g {
		if d, ok := v.(Disposable); ok {
			out = append(out, d)
		}
	}
	return out
}

/** @brief Determines how the alpha channel of a texture is stored. */
type AlphaMode int

const (
	/** @brief Alpha is not premultiplied (the default for compressed textures). */
	AlphaModeNoPremultiplied AlphaMode = iota
	/** @brief Alpha is premultiplied when uploaded. */
	AlphaModePremultiplyOnUpload
	/** @brief The source data is already premultiplied. */
	AlphaModePremultiplied
)

/** @brief Determines if mipmaps are generated for a texture. */
type MipmapMode int

const (
	/** @brief No mipmaps. */
	MipmapModeOff MipmapMode = iota
	/** @brief Mipmaps only for power-of-two textures. */
	MipmapModePow2
	/** @brief Always generate mipmaps. */
	MipmapModeOn
)

func (m *AlphaMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "no-premultiplied", "npm", "0":
		*m = AlphaModeNoPremultiplied
	case "premultiply-on-upload", "unpack", "1":
		*m = AlphaModePremultiplyOnUpload
	case "premultiplied", "pma", "2":
		*m = AlphaModePremultiplied
	default:
		return fmt.Errorf("unknown alpha mode '%s'", text)
	}
	return nil
}

func (m *MipmapMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "off", "0":
		*m = MipmapModeOff
	case "pow2", "1":
		*m = MipmapModePow2
	case "on", "2":
		*m = MipmapModeOn
	default:
		return fmt.Errorf("unknown mipmap mode '%s'", text)
	}
	return nil
}
