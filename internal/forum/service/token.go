package service

import (
	"fmt"
	"time"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
	"github.com/aussiebroadwan/forum/pkg/jwtx"
)

// TokenService mints and checks session tokens. Tokens are stateless;
// nothing is persisted and there is no revocation.
type TokenService struct {
	Signer     jwtx.Signer
	Verifier   *jwtx.Verifier
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now overrides the issuing clock. Nil means time.Now.
	Now func() time.Time
}

// IssueAccess signs a short-lived, non-fresh access token for subject.
func (s *TokenService) IssueAccess(subject string) (domain.SessionToken, error) {
	ttl := s.AccessTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultAccessTokenTTL
	}
	return s.issue(subject, jwtx.TypeAccess, false, ttl)
}

// IssueRefresh signs a long-lived refresh token for subject. Refresh tokens
// are only minted by a password login, so they are always fresh.
func (s *TokenService) IssueRefresh(subject string) (domain.SessionToken, error) {
	ttl := s.RefreshTTL
	if ttl <= 0 {
		ttl = jwtx.DefaultRefreshTokenTTL
	}
	return s.issue(subject, jwtx.TypeRefresh, true, ttl)
}

func (s *TokenService) issue(subject, typ string, fresh bool, ttl time.Duration) (domain.SessionToken, error) {
	now := s.now().Truncate(time.Second)
	claims := jwtx.NewClaims(subject, typ, fresh, ttl, s.Issuer, now)

	raw, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.SessionToken{}, fmt.Errorf("sign %s token: %w", typ, err)
	}

	return domain.SessionToken{
		Raw:       raw,
		Subject:   subject,
		Kind:      domain.TokenKind(typ),
		Fresh:     fresh,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// Verify checks raw and returns the token it carries. Failures are
// Unauthorized and keep the jwtx classification as their cause.
func (s *TokenService) Verify(raw string) (domain.SessionToken, error) {
	claims, err := s.Verifier.Verify(raw)
	if err != nil {
		return domain.SessionToken{}, unauthorized("Invalid token", err)
	}

	if claims.Subject == "" {
		return domain.SessionToken{}, unauthorized("Invalid token", fmt.Errorf("%w: missing subject", jwtx.ErrMalformed))
	}
	if claims.Type != jwtx.TypeAccess && claims.Type != jwtx.TypeRefresh {
		return domain.SessionToken{}, unauthorized("Invalid token", fmt.Errorf("%w: unknown token type %q", jwtx.ErrMalformed, claims.Type))
	}

	tok := domain.SessionToken{
		Raw:     raw,
		Subject: claims.Subject,
		Kind:    domain.TokenKind(claims.Type),
		Fresh:   claims.Fresh,
	}
	if claims.IssuedAt != nil {
		tok.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		tok.ExpiresAt = claims.ExpiresAt.Time
	}
	return tok, nil
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
