package router

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/varoOP/pokechu/internal/domain"
)

var errTimeout = errors.New("network read timed out")

func ok(status int) bool {
	return status >= 200 && status < 300
}

// navigate serves the shell document for any page navigation.
func (r *Router) navigate(req *http.Request, route Route) (*http.Response, error) {
	shellReq, err := http.NewRequestWithContext(req.Context(), http.MethodGet, r.IndexURL(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create shell request")
	}

	resp, err := r.networkFirst(shellReq, route.Store, route.Timeout)
	if err == nil {
		resp.Request = req
		return resp, nil
	}

	if cached := r.match(req.Context(), route.Store, r.IndexURL()); cached != nil {
		return toResponse(cached, req), nil
	}
	return nil, errors.Wrap(ErrNoResponse, "navigation")
}

// networkFirst races the network against timeout and falls back to the store
// on timeout or transport failure. A non-success status is returned as is and
// is never written to the store.
func (r *Router) networkFirst(req *http.Request, store string, timeout time.Duration) (*http.Response, error) {
	key := req.URL.String()

	stored, err := r.fetch(req, timeout)
	if err == nil {
		if ok(stored.Status) {
			r.put(req.Context(), store, stored)
		}
		return toResponse(stored, req), nil
	}

	r.log.Debug().Err(err).Str("url", key).Str("store", store).Msg("network-first falling back to store")

	if cached := r.match(req.Context(), store, key); cached != nil {
		return toResponse(cached, req), nil
	}
	return nil, errors.Wrapf(ErrNoResponse, "network-first %s: %v", key, err)
}

// cacheFirst answers from the store when it can and never revalidates.
func (r *Router) cacheFirst(req *http.Request, store string) (*http.Response, error) {
	if cached := r.match(req.Context(), store, req.URL.String()); cached != nil {
		return toResponse(cached, req), nil
	}

	stored, err := r.fetch(req, 0)
	if err != nil {
		return nil, err
	}
	if ok(stored.Status) {
		r.put(req.Context(), store, stored)
	}
	return toResponse(stored, req), nil
}

// staleWhileRevalidate answers from the store immediately and refreshes the
// entry in the background. Without a stored copy it waits for the network,
// then for the store a second time.
func (r *Router) staleWhileRevalidate(req *http.Request, store string) (*http.Response, error) {
	key := req.URL.String()
	cached := r.match(req.Context(), store, key)
	refreshed := r.revalidate(req, store)

	if cached != nil {
		return toResponse(cached, req), nil
	}

	select {
	case stored := <-refreshed:
		if stored != nil {
			return toResponse(stored, req), nil
		}
	case <-req.Context().Done():
		return nil, req.Context().Err()
	}

	if cached := r.match(req.Context(), store, key); cached != nil {
		return toResponse(cached, req), nil
	}
	return nil, errors.Wrapf(ErrNoResponse, "stale-while-revalidate %s", key)
}

// revalidate refreshes one store entry outside the caller's lifetime.
// Concurrent revalidations of the same entry share one network read.
func (r *Router) revalidate(req *http.Request, store string) <-chan *domain.StoredResponse {
	key := store + " " + req.URL.String()
	bg := req.Clone(r.ctx)

	out := make(chan *domain.StoredResponse, 1)
	if !r.track() {
		out <- nil
		return out
	}
	results := r.revalidations.DoChan(key, func() (any, error) {
		stored, err := r.fetch(bg, 0)
		if err != nil {
			r.log.Debug().Err(err).Str("url", bg.URL.String()).Msg("revalidation failed")
			return nil, err
		}
		if ok(stored.Status) {
			r.put(r.ctx, store, stored)
		}
		return stored, nil
	})

	go func() {
		defer r.wg.Done()
		res := <-results
		if res.Err != nil {
			out <- nil
			return
		}
		out <- res.Val.(*domain.StoredResponse)
	}()
	return out
}

// fetch performs one upstream read and buffers the body. A positive timeout
// bounds the wait for response headers only.
func (r *Router) fetch(req *http.Request, timeout time.Duration) (*domain.StoredResponse, error) {
	ctx, cancel := context.WithCancel(req.Context())
	defer cancel()

	var timer *time.Timer
	if timeout > 0 {
		timer = time.AfterFunc(timeout, cancel)
	}

	resp, err := r.upstream.RoundTrip(req.Clone(ctx))
	if timer != nil && !timer.Stop() {
		if err == nil {
			resp.Body.Close()
		}
		return nil, errTimeout
	}
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	return &domain.StoredResponse{
		URL:      req.URL.String(),
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: time.Now(),
	}, nil
}

func (r *Router) match(ctx context.Context, store, key string) *domain.StoredResponse {
	cached, err := r.repo.Match(context.WithoutCancel(ctx), store, key)
	if err != nil {
		r.log.Warn().Err(err).Str("store", store).Str("url", key).Msg("store lookup failed")
		return nil
	}
	return cached
}

func (r *Router) put(ctx context.Context, store string, stored *domain.StoredResponse) {
	if err := r.repo.Put(context.WithoutCancel(ctx), store, stored); err != nil {
		r.log.Warn().Err(err).Str("store", store).Str("url", stored.URL).Msg("store write failed")
	}
}

func toResponse(stored *domain.StoredResponse, req *http.Request) *http.Response {
	header := stored.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", stored.Status, http.StatusText(stored.Status)),
		StatusCode:    stored.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(stored.Body)),
		ContentLength: int64(len(stored.Body)),
		Request:       req,
	}
}
