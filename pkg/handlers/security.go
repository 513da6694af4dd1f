// This file defines the security middleware on the inbound HTTP surface:
// defensive response headers and the static bearer-token gate in front of
// the MCP endpoint.
package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// SecurityHeaders wraps another http.Handler and sets defensive HTTP headers
// before delegating to it: MIME sniffing is disabled and responses cannot be
// embedded in a frame. No Content-Security-Policy is set; the surface serves
// only JSON-RPC and event streams, never documents. When served over HTTPS
// the function also enables Strict Transport Security.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "same-origin")
		if r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// BearerAuth rejects requests that do not carry the configured shared token
// in the Authorization header. The comparison is constant time so the token
// cannot be probed byte by byte. Handlers below this middleware never see an
// unauthenticated request.
func BearerAuth(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="mcp"`)
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
