package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// BearerAuthMiddleware guards a route group with static API keys compared in
// constant time. An empty key list disables it.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	var keys [][]byte
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, reason := bearerToken(r)
			if reason == "" && !anyKeyMatches(keys, token) {
				reason = "invalid api key"
			}
			if reason != "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="facetdex"`)
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, reason)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token, or a rejection reason when the header is
// absent or uses another scheme.
func bearerToken(r *http.Request) ([]byte, string) {
	h := r.Header.Get("Authorization")
	switch {
	case h == "":
		return nil, "missing authorization header"
	case !strings.HasPrefix(h, bearerPrefix):
		return nil, "authorization header must use Bearer scheme"
	}
	return []byte(h[len(bearerPrefix):]), ""
}

func anyKeyMatches(keys [][]byte, token []byte) bool {
	for _, k := range keys {
		if subtle.ConstantTimeCompare(token, k) == 1 {
			return true
		}
	}
	return false
}
