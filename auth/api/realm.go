package api

import (
	"context"
	"net/http"

	"github.com/quavera/orpheus/auth"
)

type (
	// Realm guards sensitive handlers behind a valid session. The
	// session that authenticated the request travels in the
	// request context.
	Realm struct {
		service *auth.Service
	}

	ctxKey byte
)

const (
	sessionKey = ctxKey(1)
)

func NewRealm(service *auth.Service) *Realm {
	return &Realm{service: service}
}

// Protect rejects requests without a live session before they reach
// the sensitive handler. Credentials come from the username and
// auth-token headers; a missing or malformed header is the client's
// fault (400), a well-formed token with no session behind it is 404.
func (r *Realm) Protect(sensitive http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		username := req.Header.Get("username")
		tokenText := req.Header.Get("auth-token")
		if username == "" || tokenText == "" {
			http.Error(w, "missing credentials", http.StatusBadRequest)
			return
		}
		token, err := auth.ParseToken(tokenText)
		if err != nil {
			http.Error(w, "malformed session token", http.StatusBadRequest)
			return
		}
		session := r.service.Authenticate(username, token)
		if session == nil {
			http.Error(w, "no session for these credentials", http.StatusNotFound)
			return
		}
		ctx := context.WithValue(req.Context(), sessionKey, session)
		sensitive.ServeHTTP(w, req.WithContext(ctx))
	})
}

// SessionFromRequest returns the session Protect attached to the
// request, or nil for unprotected routes.
func SessionFromRequest(req *http.Request) *auth.AccountSession {
	v := req.Context().Value(sessionKey)
	if v == nil {
		return nil
	}
	return v.(*auth.AccountSession)
}
