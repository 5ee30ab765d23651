// Package host adapts the chat platform that embeds the marketplace as a
// Mini App. The platform SDK is a black box: the client only needs to tell it
// the app is ready, ask for full-size presentation, and read the launch
// identity and init token it provides.
package host

import (
	"log/slog"
	"sync"

	"github.com/donaldgifford/classmart/pkg/logger"
	domain "github.com/donaldgifford/classmart/pkg/types"
)

// Host events posted by Initialize, in order.
const (
	EventReady  = "web_app_ready"
	EventExpand = "web_app_expand"
)

// Bridge is the client's view of the embedding host. All operations are
// total: absence of the host is reported through empty results, never errors.
type Bridge interface {
	// Initialize signals readiness and requests full-size presentation.
	// Safe to call more than once; only the first call has effect.
	Initialize()
	// CurrentUser returns the host-provided profile, or nil outside the host.
	CurrentUser() *domain.HostUser
	// AuthToken returns the raw init data, or "" when unavailable.
	AuthToken() string
}

// EventPoster delivers an event to the host platform.
type EventPoster interface {
	PostEvent(name string) error
}

// EventPosterFunc adapts a function to EventPoster.
type EventPosterFunc func(name string) error

// PostEvent calls f(name).
func (f EventPosterFunc) PostEvent(name string) error {
	return f(name)
}

// WebApp is a Bridge backed by the launch parameters the host passes to the
// Mini App.
type WebApp struct {
	raw    string
	data   *InitData
	poster EventPoster
	log    *slog.Logger

	once sync.Once
	mu   sync.Mutex
	done bool
}

// Option configures a WebApp.
type Option func(*WebApp)

// WithEventPoster sets where host events are delivered. The default only
// logs them.
func WithEventPoster(p EventPoster) Option {
	return func(w *WebApp) {
		w.poster = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *WebApp) {
		w.log = logger.OrDiscard(l)
	}
}

// NewWebApp creates a bridge from raw init data. Malformed init data leaves
// the bridge without a user but keeps the raw string as the auth token; the
// backend is the one that decides whether it is acceptable.
func NewWebApp(rawInitData string, opts ...Option) *WebApp {
	w := &WebApp{
		raw: rawInitData,
		log: logger.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.poster == nil {
		w.poster = EventPosterFunc(func(name string) error {
			w.log.Debug("host event", "event", name)
			return nil
		})
	}

	if rawInitData != "" {
		data, err := ParseInitData(rawInitData)
		if err != nil {
			w.log.Warn("ignoring malformed host init data", "error", err)
		} else {
			w.data = data
		}
	}

	return w
}

// Initialize posts the ready and expand events once.
func (w *WebApp) Initialize() {
	w.once.Do(func() {
		for _, ev := range []string{EventReady, EventExpand} {
			if err := w.poster.PostEvent(ev); err != nil {
				w.log.Warn("host event failed", "event", ev, "error", err)
			}
		}
		w.mu.Lock()
		w.done = true
		w.mu.Unlock()
	})
}

// Initialized reports whether Initialize has completed.
func (w *WebApp) Initialized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done
}

// CurrentUser returns a copy of the launch user, or nil.
func (w *WebApp) CurrentUser() *domain.HostUser {
	if w.data == nil || w.data.User == nil {
		return nil
	}
	u := *w.data.User
	return &u
}

// AuthToken returns the raw init data.
func (w *WebApp) AuthToken() string {
	return w.raw
}

// Detached is the Bridge used when the app runs outside the host, for example
// in local development. It has no user and no token.
type Detached struct{}

// Initialize does nothing.
func (Detached) Initialize() {}

// CurrentUser returns nil.
func (Detached) CurrentUser() *domain.HostUser { return nil }

// AuthToken returns "".
func (Detached) AuthToken() string { return "" }

// New returns a WebApp for non-empty init data and Detached otherwise.
func New(rawInitData string, opts ...Option) Bridge {
	if rawInitData == "" {
		return Detached{}
	}
	return NewWebApp(rawInitData, opts...)
}
