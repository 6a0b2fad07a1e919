package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"gcghub.id/internal/auth"
	"gcghub.id/internal/obs"
	"gcghub.id/internal/store"
)

const bearerPrefix = "Bearer "

// extractToken pulls a candidate access token from the request, checking
// the Authorization header, then the token query parameter, then the
// accessToken cookie. First match wins.
func extractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(header, bearerPrefix) {
		if token := strings.TrimSpace(header[len(bearerPrefix):]); token != "" {
			return token
		}
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if cookie, err := r.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// Authenticate rejects the request with 401 unless a valid access token
// resolves to an active user. The identity and raw token are attached to
// the request context for downstream handlers; the user's last_login is
// updated on success.
func (a *API) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			obs.CountAuthFailure("missing_token")
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "Access token required")
			return
		}

		claims, err := a.tokens.VerifyAccessToken(token)
		if err != nil {
			obs.CountAuthFailure("invalid_token")
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "Invalid or expired token")
			return
		}

		identity, err := a.store.Users().FindActiveByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				obs.CountAuthFailure("user_inactive")
			} else {
				obs.CountAuthFailure("store_error")
				obs.Logger().Error().Err(err).Msg("identity lookup failed")
			}
			// The caller cannot tell a missing user, an inactive user and
			// a store failure apart.
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "User not found or inactive")
			return
		}

		if err := a.store.Users().TouchLastLogin(r.Context(), identity.ID); err != nil {
			obs.Logger().Warn().Err(err).Str("user_id", identity.ID).Msg("last_login update failed")
		}

		ctx := auth.ContextWithIdentity(r.Context(), *identity)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuthenticate attaches an identity when a valid token is present
// but never rejects the request. Unlike Authenticate, last_login is left
// untouched: optional-auth routes are anonymous-capable reads and should
// not write on every hit.
func (a *API) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := a.tokens.VerifyAccessToken(token)
		if err != nil {
			obs.Logger().Warn().Msg("invalid token on optional-auth route")
			next.ServeHTTP(w, r)
			return
		}

		identity, err := a.store.Users().FindActiveByID(r.Context(), claims.UserID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				obs.Logger().Warn().Err(err).Msg("identity lookup failed on optional-auth route")
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := auth.ContextWithIdentity(r.Context(), *identity)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
