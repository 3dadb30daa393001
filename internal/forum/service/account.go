package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
	"github.com/aussiebroadwan/forum/internal/forum/store"
	"github.com/aussiebroadwan/forum/pkg/captcha"
	"github.com/aussiebroadwan/forum/pkg/cryptox"
	"github.com/aussiebroadwan/forum/pkg/idx"
	"github.com/aussiebroadwan/forum/pkg/slogx"
)

// DefaultRehashTimeout bounds a background hash upgrade.
const DefaultRehashTimeout = 10 * time.Second

// BotGate decides whether a login attempt comes from a human. Anything
// other than captcha.Human is treated as a rejection.
type BotGate interface {
	Verify(ctx context.Context, token string) (captcha.Verdict, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(encodedHash, password string) cryptox.VerifyResult
	NeedsRehash(encodedHash string) bool
}

// AccountService owns registration, login and everything that hangs off a
// session token.
type AccountService struct {
	Store   store.Store
	Hasher  PasswordHasher
	BotGate BotGate
	Tokens  *TokenService

	// RehashTimeout bounds background hash upgrades. Zero means
	// DefaultRehashTimeout.
	RehashTimeout time.Duration

	wg sync.WaitGroup
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Username       string
	Password       string
	RecaptchaToken string
}

type LoginResult struct {
	User         domain.User
	AccessToken  domain.SessionToken
	RefreshToken domain.SessionToken
}

// Register creates a new identity. No token is issued; the caller logs in
// separately.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (u domain.User, err error) {
	ctx, span := tracer.Start(ctx, "AccountService.Register",
		trace.WithAttributes(attribute.String("forum.username", in.Username)))
	defer func() { endSpan(span, err) }()

	l := slogx.FromContext(ctx)

	// Friendly pre-checks. The unique constraints are what actually
	// guarantee uniqueness under concurrent registration.
	if _, err := s.Store.Users().GetUserByEmail(ctx, in.Email); err == nil {
		return domain.User{}, conflict("email", "Email already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, fmt.Errorf("lookup email: %w", err)
	}
	if _, err := s.Store.Users().GetUserByUsername(ctx, in.Username); err == nil {
		return domain.User{}, conflict("username", "Username already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, fmt.Errorf("lookup username: %w", err)
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u = domain.User{
		ID:           idx.New().String(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		var ce *store.ConflictError
		if errors.As(err, &ce) {
			if ce.Field == "email" {
				return domain.User{}, conflict("email", "Email already exists")
			}
			return domain.User{}, conflict("username", "Username already exists")
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	l.Info("user registered", slog.String("user_id", u.ID), slog.String("username", u.Username))
	return u, nil
}

// Login runs bot check, lookup and password verification, then issues an
// access and a refresh token. A hash made with weaker parameters is
// upgraded in the background after a successful verify.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (res LoginResult, err error) {
	ctx, span := tracer.Start(ctx, "AccountService.Login",
		trace.WithAttributes(attribute.String("forum.username", in.Username)))
	defer func() { endSpan(span, err) }()

	l := slogx.FromContext(ctx).With(slog.String("username", in.Username))

	verdict, gateErr := s.BotGate.Verify(ctx, in.RecaptchaToken)
	if gateErr != nil {
		l.Warn("bot check failed", slog.Any("error", gateErr))
	}
	if verdict != captcha.Human {
		l.Info("login rejected by bot check", slog.String("verdict", verdict.String()))
		return LoginResult{}, unauthorized("reCAPTCHA verification failed", gateErr)
	}

	user, err := s.Store.Users().GetUserByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, notFound("User not found")
		}
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	switch s.Hasher.Verify(user.PasswordHash, in.Password) {
	case cryptox.Match:
	case cryptox.MalformedHash:
		l.Error("stored password hash is malformed", slog.String("user_id", user.ID))
		return LoginResult{}, unauthorized("Incorrect password", nil)
	default:
		l.Info("login failed: incorrect password")
		return LoginResult{}, unauthorized("Incorrect password", nil)
	}

	if s.Hasher.NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user, in.Password)
	}

	access, err := s.Tokens.IssueAccess(user.Username)
	if err != nil {
		return LoginResult{}, err
	}
	refresh, err := s.Tokens.IssueRefresh(user.Username)
	if err != nil {
		return LoginResult{}, err
	}

	l.Info("user logged in", slog.String("user_id", user.ID))
	return LoginResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// upgradeHash rehashes password with the current parameters off the request
// path. The write only lands if the stored hash is still the one that was
// verified, so a concurrent password change is never overwritten.
func (s *AccountService) upgradeHash(ctx context.Context, user domain.User, password string) {
	timeout := s.RehashTimeout
	if timeout <= 0 {
		timeout = DefaultRehashTimeout
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		l := slogx.FromContext(ctx).With(slog.String("user_id", user.ID))

		hash, err := s.Hasher.Hash(password)
		if err != nil {
			l.Warn("password rehash failed", slog.Any("error", err))
			return
		}

		ok, err := s.Store.Users().ReplacePasswordHash(ctx, user.Username, user.PasswordHash, hash)
		switch {
		case err != nil:
			l.Warn("password rehash not persisted", slog.Any("error", err))
		case !ok:
			l.Info("password rehash skipped, hash changed concurrently")
		default:
			l.Info("password hash upgraded")
		}
	}()
}

// Wait blocks until pending background hash upgrades have finished.
func (s *AccountService) Wait() {
	s.wg.Wait()
}

// Authenticate verifies a bearer token and resolves its subject. A token
// whose user no longer exists is rejected.
func (s *AccountService) Authenticate(ctx context.Context, raw string) (domain.User, domain.SessionToken, error) {
	tok, err := s.Tokens.Verify(raw)
	if err != nil {
		return domain.User{}, domain.SessionToken{}, err
	}

	user, err := s.Store.Users().GetUserByUsername(ctx, tok.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, domain.SessionToken{}, unauthorized("User no longer exists", nil)
		}
		return domain.User{}, domain.SessionToken{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, tok, nil
}

// Refresh exchanges a refresh token for a new, non-fresh access token.
func (s *AccountService) Refresh(ctx context.Context, raw string) (tok domain.SessionToken, err error) {
	ctx, span := tracer.Start(ctx, "AccountService.Refresh")
	defer func() { endSpan(span, err) }()

	user, presented, err := s.Authenticate(ctx, raw)
	if err != nil {
		return domain.SessionToken{}, err
	}
	if presented.Kind != domain.TokenRefresh {
		return domain.SessionToken{}, unauthorized("Refresh token required", nil)
	}

	access, err := s.Tokens.IssueAccess(user.Username)
	if err != nil {
		return domain.SessionToken{}, err
	}

	slogx.FromContext(ctx).Debug("access token refreshed", slog.String("user_id", user.ID))
	return access, nil
}

// ChangePassword replaces the caller's password. It needs a fresh token
// and the current password.
func (s *AccountService) ChangePassword(ctx context.Context, tok domain.SessionToken, current, next string) (err error) {
	ctx, span := tracer.Start(ctx, "AccountService.ChangePassword",
		trace.WithAttributes(attribute.String("forum.username", tok.Subject)))
	defer func() { endSpan(span, err) }()

	if !tok.Fresh {
		return forbidden("A fresh token is required to change the password")
	}

	user, err := s.Store.Users().GetUserByUsername(ctx, tok.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return unauthorized("User no longer exists", nil)
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if s.Hasher.Verify(user.PasswordHash, current) != cryptox.Match {
		return unauthorized("Incorrect password", nil)
	}

	hash, err := s.Hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, user.Username, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	slogx.FromContext(ctx).Info("password changed", slog.String("user_id", user.ID))
	return nil
}
