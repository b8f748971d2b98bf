package assets

import (
	"context"

	"github.com/spaghettifunk/anima-assets/engine/platform"
)

// Parser is a format plugin. A parser takes part in a stage by implementing the
// matching capability: LoadParser for the initial load, TransformParser for
// post-processing and Unloader for releasing what it produced.
type Parser interface {
	Name() string
}

// LoadParser claims identifiers for the initial load stage.
type LoadParser interface {
	Parser
	// Test is a cheap, side-effect free eligibility check, usually on the extension.
	Test(src string) bool
	// Load fetches and decodes the asset. It may return a single value or a
	// resources.Group.
	Load(ctx context.Context, req Request, h Handle) (any, error)
}

// TransformParser refines a value produced by an earlier stage.
type TransformParser interface {
	Parser
	TestTransform(value any, src string) bool
	// Transform returns the refined value. Returning nil keeps the current value
	// and ends the chain.
	Transform(ctx context.Context, value any, req Request, h Handle) (any, error)
}

// Unloader releases the native handles of one resource. For groups it is called
// once per element.
type Unloader interface {
	Unload(asset any) error
}

// Handle is the view of the loader a parser gets while it runs. Parsers must not
// load their own identifier through it.
type Handle interface {
	Fetch(ctx context.Context, src string) ([]byte, error)
	Platform() *platform.Platform
	Load(ctx context.Context, input any) (any, error)
	Evict(src string) bool
}
