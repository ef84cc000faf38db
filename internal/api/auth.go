package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/guyr22/web-dev-final-project/internal/auth"
	"github.com/guyr22/web-dev-final-project/internal/google"
	"github.com/guyr22/web-dev-final-project/internal/models"
	"github.com/guyr22/web-dev-final-project/internal/store"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type googleLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type tokenPairResponse struct {
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
	User         models.PublicUser `json:"user"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// AuthHandler implements the credential lifecycle: register, login,
// Google sign-in, refresh and logout. Access tokens are verified by
// signature alone; refresh tokens must additionally still be on the
// user's record, so removing one is how a session gets revoked.
type AuthHandler struct {
	users    UserStore
	tokens   *auth.TokenService
	verifier google.Verifier
}

func NewAuthHandler(users UserStore, tokens *auth.TokenService, verifier google.Verifier) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, verifier: verifier}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	existing, err := h.users.FindByEmailOrUsername(r.Context(), req.Email, req.Username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		internalError(w)
		return
	}
	if existing != nil {
		badRequest(w, "User already exists")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		internalError(w)
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			badRequest(w, "User already exists")
			return
		}
		internalError(w)
		return
	}

	h.issueSession(w, r, user, http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Same response as a wrong password; the client cannot
			// probe which accounts exist.
			unauthorized(w, "Invalid credentials")
			return
		}
		internalError(w)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		unauthorized(w, "Invalid credentials")
		return
	}

	h.issueSession(w, r, user, http.StatusOK)
}

func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	profile, err := h.verifier.Verify(r.Context(), req.IDToken)
	if err != nil {
		unauthorized(w, "Invalid Google credential")
		return
	}
	if profile.Email == "" {
		badRequest(w, "Google account has no email")
		return
	}

	user, err := h.users.FindByEmail(r.Context(), profile.Email)
	if errors.Is(err, store.ErrNotFound) {
		user, err = h.createGoogleUser(r, profile)
	}
	if err != nil {
		internalError(w)
		return
	}

	h.issueSession(w, r, user, http.StatusOK)
}

// createGoogleUser provisions an account on first Google sign-in. The
// password is random and never shown; such accounts authenticate via
// Google only.
func (h *AuthHandler) createGoogleUser(r *http.Request, profile *google.Profile) (*models.User, error) {
	password, err := auth.RandomPassword()
	if err != nil {
		return nil, err
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     googleUsername(profile),
		Email:        profile.Email,
		PasswordHash: passwordHash,
		AvatarURL:    profile.Picture,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		return nil, err
	}
	return user, nil
}

// googleUsername prefers the profile's display name, falling back to
// the part of the email before the @.
func googleUsername(profile *google.Profile) string {
	if name := strings.TrimSpace(profile.Name); name != "" {
		return name
	}
	username, _, _ := strings.Cut(profile.Email, "@")
	return username
}

// Refresh exchanges a valid, still-registered refresh token for a new
// access token. The refresh token itself is not rotated: it stays on
// the user's record and keeps working until logout or expiry.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	claims, err := h.tokens.VerifyRefreshToken(req.RefreshToken)
	if err != nil {
		unauthorized(w, "Invalid or expired refresh token")
		return
	}

	user, err := h.users.FindByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			unauthorized(w, "Invalid or expired refresh token")
			return
		}
		internalError(w)
		return
	}

	// Signature validity is not enough; a token removed by logout is
	// revoked even though it would still verify.
	if !user.HasRefreshToken(req.RefreshToken) {
		unauthorized(w, "Invalid or expired refresh token")
		return
	}

	accessToken, err := h.tokens.IssueAccessToken(user)
	if err != nil {
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: accessToken})
}

// Logout removes the presented refresh token from the user's record.
// Removing an absent token is a no-op, so repeated logouts succeed and
// other devices' tokens are untouched.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeAndValidate(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	claims, err := h.tokens.VerifyRefreshToken(req.RefreshToken)
	if err != nil {
		unauthorized(w, "Invalid or expired refresh token")
		return
	}

	user, err := h.users.FindByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			unauthorized(w, "Invalid or expired refresh token")
			return
		}
		internalError(w)
		return
	}

	if err := h.users.RemoveRefreshToken(r.Context(), user.ID, req.RefreshToken); err != nil {
		internalError(w)
		return
	}

	writeMessage(w, http.StatusOK, "Logged out successfully")
}

// issueSession mints both tokens and records the refresh token on the
// user before replying. A login that cannot persist its refresh token
// fails outright rather than hand out a token refresh will later
// reject.
func (h *AuthHandler) issueSession(w http.ResponseWriter, r *http.Request, user *models.User, status int) {
	accessToken, err := h.tokens.IssueAccessToken(user)
	if err != nil {
		internalError(w)
		return
	}

	refreshToken, err := h.tokens.IssueRefreshToken(user.ID.Hex())
	if err != nil {
		internalError(w)
		return
	}

	if err := h.users.AddRefreshToken(r.Context(), user.ID, refreshToken); err != nil {
		slog.Error("failed to persist refresh token", "error", err, "user_id", user.ID.Hex())
		internalError(w)
		return
	}

	writeJSON(w, status, tokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.Public(),
	})
}
