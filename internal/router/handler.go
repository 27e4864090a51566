package router

import (
	"encoding/json"
	"io"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/net/http/httpguts"
)

// MessagePath receives out-of-band registration messages.
const MessagePath = "/_router/message"

var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// removeHopHeaders drops hop-by-hop headers, including any named by
// Connection. It reports whether the request asked for trailers.
func removeHopHeaders(h http.Header) bool {
	trailers := httpguts.HeaderValuesContainsToken(h["Te"], "trailers")

	for _, f := range h["Connection"] {
		for _, name := range strings.Split(f, ",") {
			if name = textproto.TrimString(name); httpguts.ValidHeaderFieldName(name) {
				h.Del(name)
			}
		}
	}
	for _, k := range hopHeaders {
		h.Del(k)
	}
	return trailers
}

type handler struct {
	log   zerolog.Logger
	reg   *Registration
	scope *url.URL
}

// NewHandler exposes reg as a local HTTP intermediary. Origin-form paths are
// mapped onto scope; absolute-form requests are forwarded as written when they
// target the scope origin or a host the active router intercepts.
func NewHandler(log zerolog.Logger, reg *Registration, scope *url.URL) http.Handler {
	h := &handler{
		log:   log.With().Str("module", "router-http").Logger(),
		reg:   reg,
		scope: scope,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+MessagePath, h.message)
	mux.HandleFunc("/", h.forward)
	return mux
}

func (h *handler) message(w http.ResponseWriter, r *http.Request) {
	var msg Message
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&msg); err != nil {
		http.Error(w, "invalid message", http.StatusBadRequest)
		return
	}

	if err := h.reg.Message(r.Context(), msg); err != nil {
		h.log.Error().Err(err).Str("type", msg.Type).Msg("message failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *handler) target(r *http.Request) *url.URL {
	if r.URL.IsAbs() {
		return r.URL
	}
	rel := &url.URL{
		Path:     strings.TrimPrefix(r.URL.Path, "/"),
		RawQuery: r.URL.RawQuery,
	}
	return h.scope.ResolveReference(rel)
}

// permitted limits forwarding to the app origin and the hosts the active
// router intercepts.
func (h *handler) permitted(u *url.URL) bool {
	if strings.EqualFold(u.Scheme, h.scope.Scheme) && strings.EqualFold(u.Host, h.scope.Host) {
		return true
	}
	r := h.reg.Active()
	if r == nil {
		return false
	}
	req := &http.Request{Method: http.MethodGet, URL: u, Header: http.Header{}}
	return r.Classify(req).Strategy != StrategyNone
}

func (h *handler) forward(w http.ResponseWriter, r *http.Request) {
	target := h.target(r)
	if !h.permitted(target) {
		h.log.Debug().Str("url", target.String()).Msg("refusing to forward off-scope request")
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	out, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	out.Header = r.Header.Clone()
	if removeHopHeaders(out.Header) {
		out.Header.Set("Te", "trailers")
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		out.ContentLength = r.ContentLength
	}

	resp, err := h.reg.RoundTrip(out)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, ErrNoResponse) {
			status = http.StatusGatewayTimeout
		}
		h.log.Debug().Err(err).Str("url", out.URL.String()).Int("status", status).Msg("no response")
		http.Error(w, http.StatusText(status), status)
		return
	}
	defer resp.Body.Close()

	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	removeHopHeaders(w.Header())
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.log.Debug().Err(err).Str("url", out.URL.String()).Msg("copy response body")
	}
}
