// Package router is the installable caching intermediary that answers every
// outgoing read before it reaches the network.
//
// Requests are classified by URL shape (first match wins, GET only):
//
//	navigation           network-first (1.5s) against the shell store
//	entity-data host     network-first (2.5s) against the pokeapi store
//	sprite host          cache-first against the sprites store
//	same origin          stale-while-revalidate against the runtime store
//	anything else        not intercepted
//
// All stores share one version tag so a new version invalidates them together
// on activation.
package router

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/pokechu/internal/domain"
	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"
)

const (
	// Prefix is shared by every store this package has ever created.
	Prefix         = "pokechu-"
	DefaultVersion = "pokechu-v1"

	DefaultNavigationTimeout = 1500 * time.Millisecond
	DefaultEntityTimeout     = 2500 * time.Millisecond

	DefaultEntityOrigin     = "https://pokeapi.co"
	DefaultEntityPathPrefix = "/api/v2/pokemon/"
	DefaultSpriteHost       = "raw.githubusercontent.com"
	DefaultSpriteMarker     = "/PokeAPI/sprites/"
	DefaultAssetsMarker     = "/assets/"
)

// ErrNoResponse is returned when neither the network nor a store can answer.
var ErrNoResponse = errors.New("no response available")

var defaultShellPaths = []string{
	"",
	"index.html",
	"manifest.json",
	"icons/pokeball.svg",
	"icons/pokeball-maskable.svg",
}

type Config struct {
	// Scope is the app origin plus base path, e.g. https://host/PwaPokedex/.
	Scope *url.URL
	// Version tags every store name.
	Version string

	NavigationTimeout time.Duration
	EntityTimeout     time.Duration

	EntityOrigin     string
	EntityPathPrefix string
	SpriteHost       string
	SpriteMarker     string
	AssetsMarker     string

	// ShellPaths are precached on install, relative to Scope.
	ShellPaths []string
}

func (c *Config) setDefaults() {
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = DefaultNavigationTimeout
	}
	if c.EntityTimeout <= 0 {
		c.EntityTimeout = DefaultEntityTimeout
	}
	if c.EntityOrigin == "" {
		c.EntityOrigin = DefaultEntityOrigin
	}
	if c.EntityPathPrefix == "" {
		c.EntityPathPrefix = DefaultEntityPathPrefix
	}
	if c.SpriteHost == "" {
		c.SpriteHost = DefaultSpriteHost
	}
	if c.SpriteMarker == "" {
		c.SpriteMarker = DefaultSpriteMarker
	}
	if c.AssetsMarker == "" {
		c.AssetsMarker = DefaultAssetsMarker
	}
	if c.ShellPaths == nil {
		c.ShellPaths = defaultShellPaths
	}
}

// Strategy names how a classified request is answered.
type Strategy string

const (
	StrategyNone                 Strategy = "none"
	StrategyNavigation           Strategy = "navigation"
	StrategyNetworkFirst         Strategy = "network-first"
	StrategyCacheFirst           Strategy = "cache-first"
	StrategyStaleWhileRevalidate Strategy = "stale-while-revalidate"
)

// Route is the outcome of classifying a request.
type Route struct {
	Strategy Strategy
	Store    string
	Timeout  time.Duration
}

// Router implements http.RoundTripper over the versioned response stores.
type Router struct {
	log      zerolog.Logger
	cfg      Config
	repo     domain.ResponseRepository
	upstream http.RoundTripper

	revalidations singleflight.Group
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc

	// closeMu orders background work registration against Close.
	closeMu sync.Mutex
	closed  bool

	skipWaiting *atomic.Bool
}

func New(log zerolog.Logger, cfg Config, repo domain.ResponseRepository, upstream http.RoundTripper) (*Router, error) {
	if cfg.Scope == nil || !cfg.Scope.IsAbs() {
		return nil, errors.New("router scope must be an absolute URL")
	}
	cfg.setDefaults()
	if upstream == nil {
		upstream = http.DefaultTransport
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Router{
		log:         log.With().Str("module", "router").Str("version", cfg.Version).Logger(),
		cfg:         cfg,
		repo:        repo,
		upstream:    upstream,
		ctx:         ctx,
		cancel:      cancel,
		skipWaiting: atomic.NewBool(false),
	}, nil
}

func (r *Router) ShellStore() string   { return r.cfg.Version + "-shell" }
func (r *Router) RuntimeStore() string { return r.cfg.Version + "-runtime" }
func (r *Router) EntityStore() string  { return r.cfg.Version + "-pokeapi" }
func (r *Router) SpriteStore() string  { return r.cfg.Version + "-sprites" }

// IndexURL is the shell document every navigation resolves to.
func (r *Router) IndexURL() string {
	return r.resolve("index.html")
}

func (r *Router) resolve(path string) string {
	return r.cfg.Scope.ResolveReference(&url.URL{Path: path}).String()
}

// IsNavigation reports whether req is a top-level page navigation.
func IsNavigation(req *http.Request) bool {
	return req.Header.Get("Sec-Fetch-Mode") == "navigate"
}

// MarkNavigation flags req as a top-level page navigation.
func MarkNavigation(req *http.Request) {
	req.Header.Set("Sec-Fetch-Mode", "navigate")
}

func (r *Router) sameOrigin(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, r.cfg.Scope.Scheme) && strings.EqualFold(u.Host, r.cfg.Scope.Host)
}

func origin(u *url.URL) string {
	return strings.ToLower(u.Scheme + "://" + u.Host)
}

// Classify picks the strategy for req. Only GET requests are intercepted.
func (r *Router) Classify(req *http.Request) Route {
	if req.Method != http.MethodGet && req.Method != "" {
		return Route{Strategy: StrategyNone}
	}
	u := req.URL

	switch {
	case IsNavigation(req):
		return Route{Strategy: StrategyNavigation, Store: r.ShellStore(), Timeout: r.cfg.NavigationTimeout}
	case origin(u) == strings.ToLower(strings.TrimSuffix(r.cfg.EntityOrigin, "/")) && strings.HasPrefix(u.Path, r.cfg.EntityPathPrefix):
		return Route{Strategy: StrategyNetworkFirst, Store: r.EntityStore(), Timeout: r.cfg.EntityTimeout}
	case strings.EqualFold(u.Hostname(), r.cfg.SpriteHost) && strings.Contains(u.Path, r.cfg.SpriteMarker):
		return Route{Strategy: StrategyCacheFirst, Store: r.SpriteStore()}
	case r.sameOrigin(u):
		return Route{Strategy: StrategyStaleWhileRevalidate, Store: r.RuntimeStore()}
	}
	return Route{Strategy: StrategyNone}
}

// RoundTrip answers req through its classified strategy, or hands it to the
// upstream transport when the request is not intercepted.
func (r *Router) RoundTrip(req *http.Request) (*http.Response, error) {
	route := r.Classify(req)

	r.log.Trace().Str("url", req.URL.String()).Str("strategy", string(route.Strategy)).Msg("fetch")

	switch route.Strategy {
	case StrategyNavigation:
		return r.navigate(req, route)
	case StrategyNetworkFirst:
		return r.networkFirst(req, route.Store, route.Timeout)
	case StrategyCacheFirst:
		return r.cacheFirst(req, route.Store)
	case StrategyStaleWhileRevalidate:
		return r.staleWhileRevalidate(req, route.Store)
	default:
		return r.upstream.RoundTrip(req)
	}
}

// RequestSkipWaiting asks for activation as soon as installation finishes.
func (r *Router) RequestSkipWaiting() {
	r.skipWaiting.Store(true)
}

func (r *Router) skipWaitingRequested() bool {
	return r.skipWaiting.Load()
}

// Wait blocks until background revalidations finish.
func (r *Router) Wait() {
	r.wg.Wait()
}

// Close abandons background revalidations and waits for them to return.
// Requests answered after Close never start new background work.
func (r *Router) Close() {
	r.closeMu.Lock()
	r.closed = true
	r.closeMu.Unlock()

	r.cancel()
	r.wg.Wait()
}

// track registers one unit of background work, unless the router is closed.
func (r *Router) track() bool {
	r.closeMu.Lock()
	defer r.closeMu.Unlock()
	if r.closed {
		return false
	}
	r.wg.Add(1)
	return true
}
