package sites

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Registry owns the handlers and remembers the last hostname lookup.
type Registry struct {
	mu       sync.Mutex
	handlers []Handler

	cached     bool
	cachedHost string
	active     Handler
}

func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{}
	for _, h := range handlers {
		r.Register(h)
	}
	return r
}

type defaultOptions struct {
	googleWait time.Duration
}

// DefaultOption tunes a built-in handler.
type DefaultOption func(*defaultOptions)

// WithGoogleViewerWait overrides how long the Google handler waits for the
// viewer to swap in the full image. Zero keeps ViewerWait.
func WithGoogleViewerWait(d time.Duration) DefaultOption {
	return func(o *defaultOptions) { o.googleWait = d }
}

// NewDefaultRegistry registers the built-in site handlers.
func NewDefaultRegistry(opts ...DefaultOption) *Registry {
	var o defaultOptions
	for _, opt := range opts {
		opt(&o)
	}

	google := NewGoogleImages()
	if o.googleWait > 0 {
		google = google.WithWait(o.googleWait)
	}
	return NewRegistry(
		NewPinterest(),
		NewTwitter(),
		NewImgur(),
		NewInstagram(),
		NewFacebook(),
		google,
	)
}

func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers = append(r.handlers, h)
	sort.SliceStable(r.handlers, func(i, j int) bool {
		return r.handlers[i].Priority() > r.handlers[j].Priority()
	})
	r.cached = false
}

// Active returns the first handler, by descending priority, with a pattern
// matching hostname. The answer is cached until the hostname changes or Reset.
func (r *Registry) Active(hostname string) Handler {
	host := strings.ToLower(strings.TrimSpace(hostname))

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached && r.cachedHost == host {
		return r.active
	}

	r.active = nil
	for _, h := range r.handlers {
		if matchesHost(h, host) {
			r.active = h
			break
		}
	}
	r.cached = true
	r.cachedHost = host
	return r.active
}

// Reset drops the cached lookup, called on navigation.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = false
	r.cachedHost = ""
	r.active = nil
}

// All returns the handlers by descending priority.
func (r *Registry) All() []Handler {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]Handler, len(r.handlers))
	copy(result, r.handlers)
	return result
}

func matchesHost(h Handler, host string) bool {
	if host == "" {
		return false
	}
	for _, p := range h.HostPatterns() {
		if p.MatchString(host) {
			return true
		}
	}
	return false
}
