package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// InvalidateOnWrite calls invalidate with the value of the URL parameter
// param after every request that may have changed data.
func InvalidateOnWrite(param string, invalidate func(string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return
			}
			if value := strings.TrimSpace(chi.URLParam(r, param)); value != "" {
				invalidate(value)
			}
		})
	}
}
