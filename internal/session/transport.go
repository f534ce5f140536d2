package session

import (
	"io"
	"net/http"

	"github.com/jobseekr/sessionkit/internal/token"
)

// Transport is an http.RoundTripper that attaches the cached access token as
// a bearer header and, on a 401 response, refreshes once and retries the
// request with the new token.
type Transport struct {
	base  http.RoundTripper
	cache *token.Cache
	coord *Coordinator
}

func NewTransport(base http.RoundTripper, cache *token.Cache, coord *Coordinator) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{base: base, cache: cache, coord: coord}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, ok := t.cache.Get()
	if !ok {
		// expired or never set; try to materialize one before the request
		if fresh, err := t.coord.Refresh(req.Context()); err == nil {
			tok = fresh
		}
	}

	resp, err := t.send(req, tok)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	fresh, rerr := t.coord.Refresh(req.Context())
	if rerr != nil {
		// refresh failed; the 401 stands and sessionExpired has been emitted
		return resp, nil
	}

	retry, rerr := cloneRequest(req)
	if rerr != nil {
		return resp, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	return t.send(retry, fresh)
}

func (t *Transport) send(req *http.Request, tok string) (*http.Response, error) {
	r := req.Clone(req.Context())
	if tok != "" {
		r.Header.Set("Authorization", "Bearer "+tok)
	}
	return t.base.RoundTrip(r)
}

// cloneRequest produces a re-sendable copy. Requests with a consumed body
// can only be retried when GetBody is available (true for all bodies set via
// http.NewRequest with common reader types).
func cloneRequest(req *http.Request) (*http.Request, error) {
	r := req.Clone(req.Context())
	if req.Body == nil || req.GetBody == nil {
		return r, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	r.Body = body
	return r, nil
}
