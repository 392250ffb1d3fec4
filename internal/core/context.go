package core

import "context"

type contextKey string

const ctxKeyRequestMeta contextKey = "request_meta"

// RequestMeta identifies the client behind an edit for the edit journal.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// ContextWithRequestMeta attaches client metadata to ctx.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, ctxKeyRequestMeta, meta)
}

// RequestMetaFromContext returns the metadata attached to ctx, or the zero
// value.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(ctxKeyRequestMeta).(RequestMeta); ok {
		return v
	}
	return RequestMeta{}
}
