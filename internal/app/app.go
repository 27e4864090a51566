package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/varoOP/pokechu/internal/config"
	"github.com/varoOP/pokechu/internal/database"
	"github.com/varoOP/pokechu/internal/domain"
	"github.com/varoOP/pokechu/internal/encounter"
	"github.com/varoOP/pokechu/internal/netstate"
	"github.com/varoOP/pokechu/internal/notification"
	"github.com/varoOP/pokechu/internal/pokeapi"
	"github.com/varoOP/pokechu/internal/pokecache"
	"github.com/varoOP/pokechu/internal/profile"
	"github.com/varoOP/pokechu/internal/router"
	"github.com/varoOP/pokechu/internal/schedule"
	"github.com/varoOP/pokechu/internal/sfx"
	"github.com/varoOP/pokechu/internal/storage"
	"github.com/varoOP/pokechu/internal/toast"
)

// App represents the main application with all dependencies initialized
type App struct {
	log    zerolog.Logger
	config *domain.Config
	scope  *url.URL

	db        *database.DB
	responses domain.ResponseRepository
	store     *storage.Store

	net          *netstate.Status
	registration *router.Registration
	client       *http.Client

	fetcher  domain.PokemonFetcher
	notifier domain.NotificationService
	profile  *profile.Profile
	toasts   *toast.Queue
	player   *sfx.Player
	sched    schedule.Scheduler
}

// NewApp creates a new application instance with all dependencies initialized
func NewApp(log zerolog.Logger) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return New(log, cfg)
}

// New wires the application around an already loaded configuration.
func New(log zerolog.Logger, cfg *domain.Config) (*App, error) {
	scope, err := config.Scope(cfg)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDB(cfg.DataDir, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	store := storage.New(log, database.NewKVRepo(log, db))
	net := netstate.New(!cfg.Offline)

	// Every outgoing read goes through the registration, which hands it to
	// the active router or straight to the (possibly offline) network.
	upstream := netstate.Transport(net, http.DefaultTransport)
	registration := router.NewRegistration(log, upstream)
	client := &http.Client{Transport: registration}

	cache := pokecache.New[domain.Pokemon](log, store, storage.KeyPokemonCache, pokecache.Options{})

	player := sfx.NewPlayer(log, nil)
	if !cfg.Sound {
		player = sfx.NewPlayer(log, func() (sfx.Output, error) {
			return nil, errors.New("sound disabled by configuration")
		})
	}

	sched := schedule.Real()

	return &App{
		log:          log.With().Str("module", "app").Logger(),
		config:       cfg,
		scope:        scope,
		db:           db,
		responses:    database.NewResponseRepo(log, db),
		store:        store,
		net:          net,
		registration: registration,
		client:       client,
		fetcher:      pokeapi.NewService(log, cfg, client, cache, net),
		notifier:     notification.NewService(log, cfg, nil),
		profile:      profile.New(context.Background(), log, store, nil),
		toasts:       toast.NewQueue(log, sched),
		player:       player,
		sched:        sched,
	}, nil
}

func (a *App) Close() error {
	a.registration.Unregister()
	return a.db.Close()
}

func (a *App) Config() *domain.Config { return a.config }

func (a *App) Profile() *profile.Profile { return a.profile }

func (a *App) Toasts() *toast.Queue { return a.toasts }

func (a *App) Player() *sfx.Player { return a.player }

func (a *App) Net() *netstate.Status { return a.net }

func (a *App) Registration() *router.Registration { return a.registration }

// NewRouter builds a router for the configured app origin.
func (a *App) NewRouter() (*router.Router, error) {
	base, err := url.Parse(a.config.PokeAPIBase)
	if err != nil {
		return nil, fmt.Errorf("invalid pokeapi_base: %w", err)
	}

	return router.New(a.log, router.Config{
		Scope:             a.scope,
		NavigationTimeout: a.config.NavigationTimeout,
		EntityTimeout:     a.config.EntityTimeout,
		EntityOrigin:      base.Scheme + "://" + base.Host,
		EntityPathPrefix:  strings.TrimSuffix(base.Path, "/") + "/pokemon/",
	}, a.responses, a.registration.Upstream())
}

// Install registers a fresh router and reports what it precached.
func (a *App) Install(ctx context.Context) (*router.InstallReport, error) {
	r, err := a.NewRouter()
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	report, err := a.registration.Register(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to register router: %w", err)
	}
	return report, nil
}

// NewController builds an encounter controller over the app's profile.
func (a *App) NewController() *encounter.Controller {
	return encounter.NewController(a.log, encounter.Deps{
		Fetcher:          a.fetcher,
		Profile:          a.profile,
		Notices:          a.toasts,
		Notifier:         a.notifier,
		Player:           a.player,
		Net:              a.net,
		Scheduler:        a.sched,
		ShinyProbability: a.config.ShinyProbability,
	})
}

// Dex lists the logbook entries matching filter and query.
func (a *App) Dex(filter profile.Filter, query string) []domain.PokedexEntry {
	return a.profile.Logbook(filter, query)
}

// Reset clears every namespaced key, deletes every router store and
// unregisters the router, then reloads the profile. Partial failures are
// reported as a notice and the reset carries on.
func (a *App) Reset(ctx context.Context) error {
	a.toasts.Add("Resetting app…", domain.ToneInfo)

	var errs []error
	if err := a.store.Clear(ctx); err != nil {
		errs = append(errs, err)
	}
	n, err := router.DeleteStores(ctx, a.responses)
	if err != nil {
		errs = append(errs, err)
	}
	unregistered := a.registration.Unregister()

	a.profile.Reload(ctx)

	a.log.Info().Int("stores_deleted", n).Bool("unregistered", unregistered).Msg("reset complete")

	if len(errs) > 0 {
		a.toasts.Add("Could not fully reset (cache/SW). Reloading anyway…", domain.ToneWarning)
		return fmt.Errorf("reset incomplete: %w", errors.Join(errs...))
	}
	return nil
}

// Serve installs the router and exposes it over HTTP until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	if err := a.db.Ping(ctx); err != nil {
		return fmt.Errorf("database check failed: %w", err)
	}
	if _, err := a.Install(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              a.config.ListenAddr,
		Handler:           router.NewHandler(a.log, a.registration, a.scope),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Str("scope", a.scope.String()).Msg("serving")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
