// Package api exposes the account and session operations over HTTP.
//
// Credentials travel in headers (username/password for login,
// username/auth-token elsewhere); the create-account body is json.
// The handlers only translate between the wire and the auth service,
// every decision is made below them.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/quavera/orpheus/accounts"
	"github.com/quavera/orpheus/auth"
	"github.com/quavera/orpheus/internal/logutil"
)

type (
	createAccountRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
		IsAdmin  bool   `json:"is_admin"`
	}

	sessionInfo struct {
		Username  string `json:"username"`
		IsAdmin   bool   `json:"is_admin"`
		StartedAt string `json:"started_at"`
		ExpiresAt string `json:"expires_at"`
	}
)

// AsHandler builds the full route table around the given service.
func AsHandler(service *auth.Service) http.Handler {
	realm := NewRealm(service)
	router := httprouter.New()
	router.HandlerFunc("GET", "/", banner)
	router.HandlerFunc("POST", "/login", login(service))
	router.Handler("POST", "/create-account", realm.Protect(http.HandlerFunc(createAccount(service))))
	router.Handler("GET", "/session", realm.Protect(http.HandlerFunc(currentSession)))
	return router
}

func banner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "orpheus is listening\n")
}

func login(service *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.Header.Get("username")
		password := r.Header.Get("password")
		if username == "" || password == "" {
			http.Error(w, "missing credentials", http.StatusBadRequest)
			return
		}
		session, code, err := service.Login(r.Context(), username, password)
		if err != nil {
			logger := logutil.GetOrDefault(r.Context())
			logger.Error().Err(err).Msg("Unable to open session")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		switch code {
		case auth.AuthInvalidPassword:
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
		case auth.AuthUnknownAccount:
			http.Error(w, "unknown account", http.StatusNotFound)
		default:
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			io.WriteString(w, session.Token.String())
		}
	}
}

func createAccount(service *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := SessionFromRequest(r)
		if !session.Record.Admin {
			http.Error(w, "admin session required", http.StatusUnauthorized)
			return
		}
		var req createAccountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed request body", http.StatusBadRequest)
			return
		}
		if req.Username == "" || req.Password == "" {
			http.Error(w, "missing username or password", http.StatusBadRequest)
			return
		}
		err := service.Register(req.Username, req.Password, req.IsAdmin)
		switch {
		case errors.Is(err, accounts.ErrAccountExists):
			http.Error(w, "account already exists", http.StatusConflict)
		case err != nil:
			logger := logutil.GetOrDefault(r.Context())
			logger.Error().Err(err).Msg("Unable to register account")
			http.Error(w, "internal error", http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}
}

func currentSession(w http.ResponseWriter, r *http.Request) {
	session := SessionFromRequest(r)
	info := sessionInfo{
		Username:  session.Record.Username,
		IsAdmin:   session.Record.Admin,
		StartedAt: session.Started.UTC().Format(time.RFC3339),
		ExpiresAt: session.Expires.UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(info)
}
