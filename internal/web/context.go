package web

import (
	"net"
	"net/http"

	"github.com/JonMunkholm/catalogmerge/internal/core"
)

// withClientInfo records the requesting client on r's context so merge runs
// started by r carry it.
func withClientInfo(r *http.Request) *http.Request {
	ctx := core.WithClientInfo(r.Context(), core.ClientInfo{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	})
	return r.WithContext(ctx)
}

// clientIP returns the host part of RemoteAddr, which TrustedRealIP has
// already rewritten for trusted proxies.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
