package loaders

import (
	"net/url"
	"path"
	"regexp"
	"slices"
	"strconv"

	"github.com/spaghettifunk/anima-assets/engine/assets"
	"github.com/spaghettifunk/anima-assets/engine/platform"
)

var resolutionPattern = regexp.MustCompile(`@([0-9.]+)x`)

// hasExt reports whether the extension of src is one of exts.
func hasExt(src string, exts ...string) bool {
	return slices.Contains(exts, assets.Ext(src))
}

// resolutionOf reads the "@2x" style resolution suffix of an identifier,
// defaulting to 1.
func resolutionOf(src string) float64 {
	m := resolutionPattern.FindStringSubmatch(platform.StripQuery(src))
	if m == nil {
		return 1
	}
	r, err := strconv.ParseFloat(m[1], 64)
	if err != nil || r <= 0 {
		return 1
	}
	return r
}

// relativeTo resolves ref against the identifier of the document referencing it.
func relativeTo(base, ref string) string {
	if platform.IsRemote(ref) || path.IsAbs(ref) {
		return ref
	}
	if platform.IsRemote(base) {
		b, err := url.Parse(base)
		if err != nil {
			return ref
		}
		r, err := url.Parse(ref)
		if err != nil {
			return ref
		}
		return b.ResolveReference(r).String()
	}
	return path.Join(path.Dir(platform.StripQuery(base)), ref)
}

// number converts the numeric types produced by the document decoders.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	}
	return 0, false
}
