package router

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/gocolly/colly"
	"github.com/pkg/errors"
	"github.com/varoOP/pokechu/internal/domain"
	"golang.org/x/sync/errgroup"
)

const precacheParallelism = 6

// InstallReport lists what install managed to precache.
type InstallReport struct {
	Precached []string
	Failed    []string
}

// Install populates the shell store. Individual precache failures and a
// failed asset discovery are tolerated so a minimal shell always installs.
// Installation always ends by requesting immediate activation.
func (r *Router) Install(ctx context.Context) (*InstallReport, error) {
	if err := r.repo.Open(ctx, r.ShellStore()); err != nil {
		return nil, errors.Wrap(err, "failed to open shell store")
	}

	report := &InstallReport{}
	shell := make([]string, 0, len(r.cfg.ShellPaths))
	for _, p := range r.cfg.ShellPaths {
		shell = append(shell, r.resolve(p))
	}
	r.precache(ctx, shell, report)

	assets, err := r.discoverAssets()
	if err != nil {
		r.log.Warn().Err(err).Msg("asset discovery failed, installing minimal shell")
	} else {
		r.precache(ctx, assets, report)
	}

	sort.Strings(report.Precached)
	sort.Strings(report.Failed)

	r.log.Info().
		Int("precached", len(report.Precached)).
		Int("failed", len(report.Failed)).
		Msg("install complete")

	r.RequestSkipWaiting()
	return report, nil
}

// precache adds every url to the shell store, settling all of them.
func (r *Router) precache(ctx context.Context, urls []string, report *InstallReport) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(precacheParallelism)

	for _, u := range urls {
		g.Go(func() error {
			err := r.add(gctx, r.ShellStore(), u)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.log.Debug().Err(err).Str("url", u).Msg("precache failed")
				report.Failed = append(report.Failed, u)
				return nil
			}
			report.Precached = append(report.Precached, u)
			return nil
		})
	}
	g.Wait()
}

// add fetches u and stores it; a non-success status is an error.
func (r *Router) add(ctx context.Context, store, u string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	stored, err := r.fetch(req, 0)
	if err != nil {
		return err
	}
	if !ok(stored.Status) {
		return errors.Errorf("unexpected status code %d from %s", stored.Status, u)
	}

	return r.repo.Put(ctx, store, stored)
}

// discoverAssets fetches the shell document fresh and collects same-origin
// href/src references whose path carries the assets marker.
func (r *Router) discoverAssets() ([]string, error) {
	c := colly.NewCollector()
	c.IgnoreRobotsTxt = true
	c.AllowURLRevisit = true
	c.WithTransport(r.upstream)

	c.OnRequest(func(req *colly.Request) {
		req.Headers.Set("Cache-Control", "no-store")
	})

	found := make(map[string]struct{})
	collect := func(raw string) {
		if !strings.Contains(raw, r.cfg.AssetsMarker) {
			return
		}
		abs, err := r.cfg.Scope.Parse(raw)
		if err != nil {
			return
		}
		if r.sameOrigin(abs) {
			found[abs.String()] = struct{}{}
		}
	}
	c.OnHTML("[href]", func(e *colly.HTMLElement) { collect(e.Attr("href")) })
	c.OnHTML("[src]", func(e *colly.HTMLElement) { collect(e.Attr("src")) })

	var visitErr error
	c.OnError(func(resp *colly.Response, err error) {
		if resp == nil {
			visitErr = err
			return
		}
		visitErr = errors.Wrapf(err, "shell document returned %d", resp.StatusCode)
	})

	if err := c.Visit(r.IndexURL()); err != nil {
		if visitErr != nil {
			return nil, visitErr
		}
		return nil, errors.Wrap(err, "failed to fetch shell document")
	}

	assets := make([]string, 0, len(found))
	for u := range found {
		assets = append(assets, u)
	}
	sort.Strings(assets)

	r.log.Debug().Strs("assets", assets).Msg("discovered shell assets")
	return assets, nil
}

// Activate deletes every store of an older version.
func (r *Router) Activate(ctx context.Context) ([]string, error) {
	names, err := r.repo.Stores(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list stores")
	}

	var deleted []string
	for _, name := range names {
		if !strings.HasPrefix(name, Prefix) || strings.HasPrefix(name, r.cfg.Version+"-") {
			continue
		}
		if _, err := r.repo.DeleteStore(ctx, name); err != nil {
			return deleted, errors.Wrapf(err, "failed to delete store %s", name)
		}
		deleted = append(deleted, name)
	}

	r.log.Info().Strs("deleted", deleted).Msg("activated")
	return deleted, nil
}

// DeleteStores removes every store this package owns, across versions.
func DeleteStores(ctx context.Context, repo domain.ResponseRepository) (int, error) {
	names, err := repo.Stores(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to list stores")
	}

	n := 0
	for _, name := range names {
		if !strings.HasPrefix(name, Prefix) {
			continue
		}
		if _, err := repo.DeleteStore(ctx, name); err != nil {
			return n, errors.Wrapf(err, "failed to delete store %s", name)
		}
		n++
	}
	return n, nil
}
