package assets

import (
	"context"
	"fmt"

	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/resources"
)

// DefaultMaxTransformPasses bounds the transform chain of a single resolution.
const DefaultMaxTransformPasses = 32

// LoadError reports a parser failure for one identifier.
type LoadError struct {
	Src    string
	Parser string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load '%s' with parser %s: %v", e.Src, e.Parser, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// resolution is the outcome of running the parsers for one request.
type resolution struct {
	value any
	// owner produced the terminal value and unloads it.
	owner Parser
	// loader claimed the load stage.
	loader Parser
}

// resolve selects the load parser, runs the transform chain to a fixed point and
// collapses single element groups.
func (l *Loader) resolve(ctx context.Context, req Request) (resolution, error) {
	parsers := l.registry.snapshot()

	lp, ok := findLoadParser(parsers, req.Src)
	if !ok {
		return resolution{}, fmt.Errorf("%w: '%s'", core.ErrNoParserFound, req.Src)
	}
	core.LogDebug("loading '%s' with parser %s", req.Src, lp.Name())

	value, err := lp.Load(ctx, req, l)
	if err != nil {
		return resolution{loader: lp}, &LoadError{Src: req.Src, Parser: lp.Name(), Err: err}
	}
	res := resolution{value: value, owner: lp, loader: lp}

	for pass := 0; ; pass++ {
		tp, ok := findTransformParser(parsers, res.value, req.Src)
		if !ok {
			break
		}
		if pass >= l.maxTransformPasses {
			return res, &LoadError{
				Src:    req.Src,
				Parser: tp.Name(),
				Err:    fmt.Errorf("%w after %d passes", core.ErrTransformLoop, pass),
			}
		}
		core.LogDebug("transforming '%s' with parser %s", req.Src, tp.Name())
		next, err := tp.Transform(ctx, res.value, req, l)
		if err != nil {
			return res, &LoadError{Src: req.Src, Parser: tp.Name(), Err: err}
		}
		if next == nil {
			break
		}
		res.value, res.owner = next, tp
	}

	res.value = collapse(res.value)
	return res, nil
}

// collapse returns the only element of a single element group.
func collapse(value any) any {
	if g, ok := value.(resources.Group); ok && len(g) == 1 {
		return g[0]
	}
	return value
}

// elements flattens a value into the resources it is made of.
func elements(value any) []any {
	if value == nil {
		return nil
	}
	if g, ok := value.(resources.Group); ok {
		return g
	}
	return []any{value}
}
