// Package session extracts the caller's session id from the session header.
package session

import (
	"net/http"

	id "socialkyc/pkg/domain"
	dErrors "socialkyc/pkg/domain-errors"
	"socialkyc/pkg/platform/httputil"
	"socialkyc/pkg/requestcontext"
)

// Header carries the session id for stateless correlation between requests.
const Header = "X-Session-ID"

// RequireSessionID rejects requests without a well-formed session header.
// A missing or malformed header is answered exactly like an unknown session
// so clients cannot tell the two apart.
func RequireSessionID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := id.ParseSessionID(r.Header.Get(Header))
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "session not found"))
			return
		}
		next.ServeHTTP(w, r.WithContext(requestcontext.WithSessionID(r.Context(), sessionID)))
	})
}
