package platform

import "context"

// Platform bundles the host capabilities parsers depend on.
type Platform struct {
	Fetcher Fetcher
	// Fonts is nil when the host has no font registration support.
	Fonts  *FontBook
	online func() bool
}

type Option func(*Platform)

// WithFontBook replaces the font book; nil disables font registration.
func WithFontBook(fb *FontBook) Option {
	return func(p *Platform) {
		p.Fonts = fb
	}
}

// WithOnlineCheck installs the probe used by Online.
func WithOnlineCheck(fn func() bool) Option {
	return func(p *Platform) {
		p.online = fn
	}
}

func New(fetcher Fetcher, opts ...Option) *Platform {
	p := &Platform{
		Fetcher: fetcher,
		Fonts:   NewFontBook(),
		online:  func() bool { return true },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Platform) Fetch(ctx context.Context, src string) ([]byte, error) {
	return p.Fetcher.Fetch(ctx, src)
}

// Online reports whether the host can currently reach the network.
func (p *Platform) Online() bool {
	if p.online == nil {
		return true
	}
	return p.online()
}
