// Package idempotency remembers which resource a client-supplied Idempotency-Key created,
// so a retried POST returns the original resource instead of creating a second one.
package idempotency

import (
	"context"
	"net/http"
	"strings"
)

const Header = "Idempotency-Key"

// Store is keyed by scope (the route) and the client key.
type Store interface {
	// TryLock claims the key. It reports false when another request already holds it.
	TryLock(ctx context.Context, scope, key string) (bool, error)
	// Release drops a claim whose request failed, so the client may retry with the same key.
	Release(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

// Key returns the trimmed header value, or "" when the request carries none.
func Key(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(Header))
}
