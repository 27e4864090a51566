package router

import (
	"context"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// MessageSkipWaiting is the out-of-band trigger that activates a waiting router.
const MessageSkipWaiting = "SKIP_WAITING"

// Message is an out-of-band instruction posted to the registration.
type Message struct {
	Type string `json:"type"`
}

// Registration is the single interception slot for the app's origin. Every
// request passes through the active router, or straight to upstream when no
// router is active.
type Registration struct {
	log      zerolog.Logger
	upstream http.RoundTripper

	mu      sync.RWMutex
	active  *Router
	waiting *Router
}

func NewRegistration(log zerolog.Logger, upstream http.RoundTripper) *Registration {
	if upstream == nil {
		upstream = http.DefaultTransport
	}
	return &Registration{
		log:      log.With().Str("module", "registration").Logger(),
		upstream: upstream,
	}
}

// Upstream is the transport unintercepted requests go to.
func (g *Registration) Upstream() http.RoundTripper {
	return g.upstream
}

// Register installs r. A router that asked to skip waiting is activated
// immediately and claims all traffic; otherwise it waits for SkipWaiting.
func (g *Registration) Register(ctx context.Context, r *Router) (*InstallReport, error) {
	report, err := r.Install(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "install failed")
	}

	g.mu.Lock()
	if g.waiting != nil && g.waiting != r {
		g.waiting.Close()
	}
	g.waiting = r
	g.mu.Unlock()

	if r.skipWaitingRequested() {
		if err := g.SkipWaiting(ctx); err != nil {
			return report, err
		}
	}
	return report, nil
}

// SkipWaiting activates the waiting router, if any, and retires the old one.
func (g *Registration) SkipWaiting(ctx context.Context) error {
	g.mu.Lock()
	next := g.waiting
	if next == nil {
		g.mu.Unlock()
		return nil
	}
	g.waiting = nil
	g.mu.Unlock()

	if _, err := next.Activate(ctx); err != nil {
		return errors.Wrap(err, "activate failed")
	}

	g.mu.Lock()
	prev := g.active
	g.active = next
	g.mu.Unlock()

	if prev != nil && prev != next {
		prev.Close()
	}

	g.log.Info().Str("version", next.cfg.Version).Msg("router claimed clients")
	return nil
}

// Message handles an out-of-band instruction. Unknown types are ignored.
func (g *Registration) Message(ctx context.Context, msg Message) error {
	switch msg.Type {
	case MessageSkipWaiting:
		g.mu.RLock()
		w := g.waiting
		g.mu.RUnlock()
		if w != nil {
			w.RequestSkipWaiting()
		}
		return g.SkipWaiting(ctx)
	default:
		g.log.Debug().Str("type", msg.Type).Msg("ignoring message")
		return nil
	}
}

// Unregister removes every router. It reports whether anything was registered.
func (g *Registration) Unregister() bool {
	g.mu.Lock()
	active, waiting := g.active, g.waiting
	g.active, g.waiting = nil, nil
	g.mu.Unlock()

	if active != nil {
		active.Close()
	}
	if waiting != nil {
		waiting.Close()
	}

	found := active != nil || waiting != nil
	if found {
		g.log.Info().Msg("router unregistered")
	}
	return found
}

// Active returns the router currently answering requests.
func (g *Registration) Active() *Router {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.active
}

// Waiting returns the installed router that has not been activated yet.
func (g *Registration) Waiting() *Router {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.waiting
}

// Controlled reports whether requests are currently intercepted.
func (g *Registration) Controlled() bool {
	return g.Active() != nil
}

func (g *Registration) RoundTrip(req *http.Request) (*http.Response, error) {
	if r := g.Active(); r != nil {
		return r.RoundTrip(req)
	}
	return g.upstream.RoundTrip(req)
}
