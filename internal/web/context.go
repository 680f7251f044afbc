package web

import (
	"context"
	"net/http"

	"github.com/ordersleuth/ordersleuth/internal/core"
)

// WithRequestMetadata adds the client IP and User-Agent to the context
// so the service can stamp them onto activity entries. RemoteAddr is
// already resolved by the TrustedRealIP middleware.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, r.RemoteAddr)
	ctx = core.ContextWithUserAgent(ctx, r.Header.Get("User-Agent"))
	return ctx
}
