package middleware

import (
	"github.com/sibylcommerce/sibyl/internal/observability"
)

// Trace injects trace, span and request IDs into every request and logs
// the request start. Implemented in the observability package so handlers
// and middleware share one set of context keys.
func Trace() Middleware {
	return observability.Trace()
}
