package middleware

import "net/http"

var roleRank = map[string]int{
	"readonly": 1,
	"user":     2,
	"admin":    3,
}

// RequireRole rejects callers whose role ranks below the minimum. Unknown
// roles rank below everything.
func RequireRole(minRole string) func(http.Handler) http.Handler {
	min := roleRank[minRole]
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if roleRank[GetRole(r.Context())] < min {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions", r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
