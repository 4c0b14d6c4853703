package testutil

import (
	"net/http"
	"time"

	"fundgate/pkg/domain"
	"fundgate/pkg/requestcontext"
)

// WithActor returns a copy of the request carrying the given actor,
// bypassing the JWT middleware in handler tests.
func WithActor(req *http.Request, actor domain.Actor) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// WithRequestTime pins the request clock so handlers observe a
// deterministic "now".
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
