package core

import "context"

type contextKey string

const ctxKeyClient contextKey = "client"

// ClientInfo identifies the HTTP client that started a run.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// WithClientInfo stores the requesting client in ctx so Merge can record
// it on the run.
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, ctxKeyClient, info)
}

// ClientInfoFromContext returns the client stored by WithClientInfo, or the
// zero value for runs not started over HTTP.
func ClientInfoFromContext(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(ctxKeyClient).(ClientInfo)
	return info
}
