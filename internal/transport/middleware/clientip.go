package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/frahmantamala/inventory-management/internal"
)

// ClientIP records the caller's address in the request context for the
// session rows and the audit trail. Forwarded headers are only honoured
// when trustProxy is set.
func ClientIP(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := remoteHost(r.RemoteAddr)
			if trustProxy {
				if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
					ip = strings.TrimSpace(strings.Split(fwd, ",")[0])
				} else if real := r.Header.Get("X-Real-IP"); real != "" {
					ip = strings.TrimSpace(real)
				}
			}
			next.ServeHTTP(w, r.WithContext(internal.ContextWithClientIP(r.Context(), ip)))
		})
	}
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
