package httpapi

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"gcghub.id/internal/audit"
	"gcghub.id/internal/auth"
	"gcghub.id/internal/obs"
	"gcghub.id/internal/store"
)

const minPasswordLength = 6

type registerRequest struct {
	Email           string    `json:"email"`
	Password        string    `json:"password"`
	Name            string    `json:"name"`
	Role            auth.Role `json:"role"`
	DirektoratID    string    `json:"direktoratId"`
	SubdirektoratID string    `json:"subdirektoratId"`
	DivisiID        string    `json:"divisiId"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type loginResponse struct {
	User         auth.Identity `json:"user"`
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
	ExpiresIn    int           `json:"expiresIn"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" || req.Role == "" {
		writeError(w, http.StatusBadRequest, codeValidation, "Email, password, name, and role are required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "Invalid email format")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, codeValidation, "Password must be at least 6 characters long")
		return
	}
	if !req.Role.Valid() {
		writeError(w, http.StatusBadRequest, codeValidation, "Invalid role. Must be one of: superadmin, admin, user")
		return
	}

	hash, err := a.hasher.Hash(req.Password)
	if err != nil {
		obs.Logger().Error().Err(err).Msg("password hash failed")
		writeError(w, http.StatusInternalServerError, codeInternalError, "Registration failed")
		return
	}

	user := &store.User{
		Identity: auth.Identity{
			Email:           strings.ToLower(strings.TrimSpace(req.Email)),
			Name:            req.Name,
			Role:            req.Role,
			DirektoratID:    req.DirektoratID,
			SubdirektoratID: req.SubdirektoratID,
			DivisiID:        req.DivisiID,
		},
		PasswordHash: hash,
	}
	if err := a.store.Users().Create(r.Context(), user); err != nil {
		switch store.Classify(err) {
		case store.KindUniqueViolation:
			writeError(w, http.StatusBadRequest, "DUPLICATE_EMAIL", "Email already registered")
		case store.KindForeignKeyViolation:
			writeError(w, http.StatusBadRequest, codeValidation, "Referenced record not found")
		case store.KindNotNullViolation:
			writeError(w, http.StatusBadRequest, codeValidation, "Required field missing")
		case store.KindInvalidFormat:
			writeError(w, http.StatusBadRequest, codeValidation, "Invalid data format")
		default:
			obs.Logger().Error().Err(err).Msg("user create failed")
			writeError(w, http.StatusInternalServerError, codeInternalError, "Registration failed")
		}
		return
	}

	pair, err := a.tokens.IssueTokenPair(auth.ClaimsFor(user.Identity))
	if err != nil {
		obs.Logger().Error().Err(err).Msg("token issue failed")
		writeError(w, http.StatusInternalServerError, codeInternalError, "Registration failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"user_id": user.ID,
		"role":    user.Role,
	})

	writeSuccess(w, http.StatusCreated, "User registered successfully", loginResponse{
		User:         user.Identity,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, codeValidation, "Email and password are required")
		return
	}

	user, err := a.store.Users().FindByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			obs.Logger().Error().Err(err).Msg("login lookup failed")
			writeError(w, http.StatusInternalServerError, codeInternalError, "Login failed")
			return
		}
		// Unknown email and bad password share one message.
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "Invalid email or password")
		return
	}
	if !user.IsActive {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "Account is deactivated")
		return
	}
	if !a.hasher.Verify(user.PasswordHash, req.Password) {
		obs.CountAuthFailure("bad_credentials")
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "Invalid email or password")
		return
	}

	if err := a.store.Users().TouchLastLogin(r.Context(), user.ID); err != nil {
		obs.Logger().Warn().Err(err).Str("user_id", user.ID).Msg("last_login update failed")
	}

	pair, err := a.tokens.IssueTokenPair(auth.ClaimsFor(user.Identity))
	if err != nil {
		obs.Logger().Error().Err(err).Msg("token issue failed")
		writeError(w, http.StatusInternalServerError, codeInternalError, "Login failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{"user_id": user.ID})

	writeSuccess(w, http.StatusOK, "Login successful", loginResponse{
		User:         user.Identity,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, codeValidation, "Refresh token is required")
		return
	}

	claims, err := a.tokens.VerifyRefreshToken(req.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "Invalid or expired refresh token")
		return
	}

	identity, err := a.store.Users().FindActiveByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "User not found or inactive")
			return
		}
		obs.Logger().Error().Err(err).Msg("refresh lookup failed")
		writeError(w, http.StatusInternalServerError, codeInternalError, "Token refresh failed")
		return
	}

	pair, err := a.tokens.IssueTokenPair(auth.ClaimsFor(*identity))
	if err != nil {
		obs.Logger().Error().Err(err).Msg("token issue failed")
		writeError(w, http.StatusInternalServerError, codeInternalError, "Token refresh failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.refresh", map[string]any{"user_id": identity.ID})

	writeSuccess(w, http.StatusOK, "Token refreshed successfully", loginResponse{
		User:         *identity,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

type sessionResponse struct {
	Authenticated bool           `json:"authenticated"`
	User          *auth.Identity `json:"user,omitempty"`
}

// handleSession reports whether the request carries a usable session. It
// sits behind the optional authenticator so clients can check their state
// without risking a 401.
func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		writeSuccess(w, http.StatusOK, "Session active", sessionResponse{
			Authenticated: true,
			User:          &identity,
		})
		return
	}
	writeSuccess(w, http.StatusOK, "No active session", sessionResponse{Authenticated: false})
}

// handleLogout is a stateless acknowledgement: tokens carry no server-side
// state and invalidate only by expiry.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		_ = audit.LogEvent(r.Context(), "auth.logout", map[string]any{"user_id": identity.ID})
	}
	writeSuccess(w, http.StatusOK, "Logged out successfully", nil)
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "Authentication required")
		return
	}
	writeSuccess(w, http.StatusOK, "Profile retrieved successfully", identity)
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "Authentication required")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, codeValidation, "Current password and new password are required")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		writeError(w, http.StatusBadRequest, codeValidation, "New password must be at least 6 characters long")
		return
	}

	user, err := a.store.Users().FindByEmail(r.Context(), identity.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeNotFound, "User not found")
			return
		}
		obs.Logger().Error().Err(err).Msg("change-password lookup failed")
		writeError(w, http.StatusInternalServerError, codeInternalError, "Failed to change password")
		return
	}
	if !a.hasher.Verify(user.PasswordHash, req.CurrentPassword) {
		writeError(w, http.StatusBadRequest, codeValidation, "Current password is incorrect")
		return
	}

	hash, err := a.hasher.Hash(req.NewPassword)
	if err != nil {
		obs.Logger().Error().Err(err).Msg("password hash failed")
		writeError(w, http.StatusInternalServerError, codeInternalError, "Failed to change password")
		return
	}
	if err := a.store.Users().UpdatePassword(r.Context(), identity.ID, hash); err != nil {
		obs.Logger().Error().Err(err).Msg("password update failed")
		writeError(w, http.StatusInternalServerError, codeInternalError, "Failed to change password")
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.password_changed", map[string]any{"user_id": identity.ID})

	writeSuccess(w, http.StatusOK, "Password changed successfully", nil)
}
