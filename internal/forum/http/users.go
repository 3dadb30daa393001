package http

import (
	"net/http"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
	"github.com/aussiebroadwan/forum/internal/forum/service"
	"github.com/aussiebroadwan/forum/pkg/forumsdk"
	"github.com/aussiebroadwan/forum/pkg/httpx"
)

func userResponse(u domain.User) forumsdk.UserResponse {
	return forumsdk.UserResponse{
		UID:      u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}

type RegisterHandler struct {
	AccountService *service.AccountService
}

// ServeHTTP creates an account. It answers 201 with the new identity and
// issues no tokens.
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req forumsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	fe := fieldErrors{}
	fe.username("username", req.Username)
	fe.email(req.Email)
	fe.password("password", req.Password)
	if len(fe) > 0 {
		forumsdk.NewValidationError(fe).WriteError(w)
		return
	}

	user, err := h.AccountService.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, userResponse(user))
}

type LoginHandler struct {
	AccountService *service.AccountService
}

// ServeHTTP exchanges a username, password and reCAPTCHA token for an
// access and a refresh token.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req forumsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	fe := fieldErrors{}
	fe.check(req.Username != "", "username", "is required")
	fe.check(req.Password != "", "password", "is required")
	if len(fe) > 0 {
		forumsdk.NewValidationError(fe).WriteError(w)
		return
	}

	res, err := h.AccountService.Login(r.Context(), service.LoginInput{
		Username:       req.Username,
		Password:       req.Password,
		RecaptchaToken: req.RecaptchaToken,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, forumsdk.LoginResponse{
		UserResponse: userResponse(res.User),
		AccessToken:  res.AccessToken.Raw,
		RefreshToken: res.RefreshToken.Raw,
	})
}

type RefreshHandler struct {
	AccountService *service.AccountService
}

// ServeHTTP mints a new access token from the refresh token presented as
// the bearer.
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, ok := httpx.BearerToken(r)
	if !ok {
		httpx.SetBearerChallenge(w, "missing bearer token")
		forumsdk.NewAPIError(http.StatusUnauthorized, "Missing Authorization Header").WriteError(w)
		return
	}

	tok, err := h.AccountService.Refresh(r.Context(), raw)
	if err != nil {
		writeTokenError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, forumsdk.RefreshResponse{AccessToken: tok.Raw})
}

type MeHandler struct{}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		forumsdk.NewAPIError(http.StatusUnauthorized, "Not authenticated").WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResponse(p.User))
}

type PasswordHandler struct {
	AccountService *service.AccountService
}

// ServeHTTP changes the caller's password. Only a fresh token may do this.
func (h *PasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		forumsdk.NewAPIError(http.StatusUnauthorized, "Not authenticated").WriteError(w)
		return
	}

	var req forumsdk.ChangePasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	fe := fieldErrors{}
	fe.check(req.CurrentPassword != "", "current_password", "is required")
	fe.password("new_password", req.NewPassword)
	if len(fe) > 0 {
		forumsdk.NewValidationError(fe).WriteError(w)
		return
	}

	if err := h.AccountService.ChangePassword(r.Context(), p.Token, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
