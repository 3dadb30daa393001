package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
	"github.com/aussiebroadwan/forum/internal/forum/service"
	"github.com/aussiebroadwan/forum/pkg/forumsdk"
	"github.com/aussiebroadwan/forum/pkg/httpx"
	"github.com/aussiebroadwan/forum/pkg/jwtx"
	"github.com/aussiebroadwan/forum/pkg/slogx"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	User  domain.User
	Token domain.SessionToken
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller set by Authn.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Authn rejects requests without a valid bearer token for an existing
// user. Access and refresh tokens are both accepted.
func Authn(accounts *service.AccountService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := httpx.BearerToken(r)
			if !ok {
				httpx.SetBearerChallenge(w, "missing bearer token")
				forumsdk.NewAPIError(http.StatusUnauthorized, "Missing Authorization Header").WriteError(w)
				return
			}

			user, tok, err := accounts.Authenticate(r.Context(), raw)
			if err != nil {
				writeTokenError(w, r, err)
				return
			}

			ctx := withPrincipal(r.Context(), Principal{User: user, Token: tok})
			ctx = slogx.WithUser(ctx, user.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeTokenError answers a failed token check with a bearer challenge.
func writeTokenError(w http.ResponseWriter, r *http.Request, err error) {
	if !errors.Is(err, service.ErrUnauthorized) {
		writeError(w, r, err)
		return
	}

	desc := "token is invalid"
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		desc = "token has expired"
	case errors.Is(err, jwtx.ErrInvalidSig):
		desc = "token signature is invalid"
	}
	slogx.FromContext(r.Context()).Info("bearer token rejected", slog.Any("error", err))

	httpx.SetBearerChallenge(w, desc)
	writeError(w, r, err)
}
