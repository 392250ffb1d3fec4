package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/caredata/internal/core"
	"github.com/JonMunkholm/caredata/internal/web/middleware"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx for the edit
// journal.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithRequestMeta(ctx, core.RequestMeta{
		IPAddress: middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
}
