package netstate

import (
	"net/http"

	"github.com/pkg/errors"
)

// ErrOffline is returned for every request made while offline.
var ErrOffline = errors.New("network unreachable: offline")

type transport struct {
	status *Status
	base   http.RoundTripper
}

// Transport fails every request while status is offline and otherwise
// delegates to base.
func Transport(status *Status, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{status: status, base: base}
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.status.Online() {
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, errors.Wrap(ErrOffline, req.URL.String())
	}
	return t.base.RoundTrip(req)
}
