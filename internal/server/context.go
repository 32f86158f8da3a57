package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/lazypower/legacy/internal/auth"
	"github.com/lazypower/legacy/internal/engine"
	"github.com/lazypower/legacy/internal/store"
)

type ctxKey int

const principalKey ctxKey = iota

// claimsFrom returns the verified token claims set by authenticate.
func claimsFrom(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(principalKey).(*auth.Claims)
	return c
}

// principalFrom returns the authenticated principal id.
func principalFrom(ctx context.Context) string {
	if c := claimsFrom(ctx); c != nil {
		return c.Subject
	}
	return ""
}

// authenticate resolves the principal from the bearer token. Identity
// comes only from the verified subject claim.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "bearer token required"})
			return
		}
		claims, err := auth.Verify(s.opts.JWTSecret, s.opts.Issuer, tok)
		if err != nil {
			s.logger.Debug("rejected token", "err", err, "remote", r.RemoteAddr)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
		ctx := context.WithValue(r.Context(), principalKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recordActivity stamps every authenticated interaction before the
// handler runs. If the store cannot record it, the interaction fails.
func (s *Server) recordActivity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := principalFrom(r.Context())
		if err := s.engine.RecordActivity(id); err != nil {
			s.writeError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeError maps engine and store errors to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var cerr *engine.ConfigurationError
	switch {
	case errors.As(err, &cerr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": cerr.Error(), "field": cerr.Field})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "principal not registered"})
	case errors.Is(err, store.ErrExists):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "principal already registered"})
	default:
		s.logger.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
