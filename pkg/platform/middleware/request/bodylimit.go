package request

import (
	"fmt"
	"net/http"

	"socialkyc/pkg/platform/httputil"
)

// BodyLimit caps request bodies at maxBytes. A request whose declared
// Content-Length is already too large is refused with 413 before the handler
// runs; chunked bodies fail on read instead.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, httputil.ErrorResponse{
					Error:       httputil.PayloadTooLarge,
					Description: fmt.Sprintf("request body exceeds %d bytes", maxBytes),
				})
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
