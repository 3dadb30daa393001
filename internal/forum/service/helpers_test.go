package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/forum/internal/forum/store/drivers/sqlite"
	"github.com/aussiebroadwan/forum/pkg/captcha"
	"github.com/aussiebroadwan/forum/pkg/cryptox"
	"github.com/aussiebroadwan/forum/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var (
	cheapParams  = cryptox.Params{Memory: 1024, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16}
	legacyParams = cryptox.Params{Memory: 512, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16}
)

// stubGate returns a fixed verdict and records the tokens it saw.
type stubGate struct {
	verdict captcha.Verdict
	err     error
	seen    []string
}

func (g *stubGate) Verify(_ context.Context, token string) (captcha.Verdict, error) {
	g.seen = append(g.seen, token)
	return g.verdict, g.err
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestHasher(t *testing.T, p cryptox.Params) *cryptox.Hasher {
	t.Helper()
	h, err := cryptox.NewHasher(p, "")
	require.NoError(t, err)
	return h
}

func newTestTokens(t *testing.T) *TokenService {
	t.Helper()
	signer, err := jwtx.NewSignerHS256("test", []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))

	return &TokenService{
		Signer:     signer,
		Verifier:   jwtx.NewVerifier(keys, "forum-test", 0),
		Issuer:     "forum-test",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}
}

type accountFixture struct {
	svc   *AccountService
	gate  *stubGate
	store *sqlite.Store
}

func newAccountFixture(t *testing.T) accountFixture {
	t.Helper()
	st := newTestStore(t)
	gate := &stubGate{verdict: captcha.Human}
	svc := &AccountService{
		Store:   st,
		Hasher:  newTestHasher(t, cheapParams),
		BotGate: gate,
		Tokens:  newTestTokens(t),
	}
	t.Cleanup(svc.Wait)
	return accountFixture{svc: svc, gate: gate, store: st}
}

func (f accountFixture) register(t *testing.T, username, email, password string) {
	t.Helper()
	_, err := f.svc.Register(context.Background(), RegisterInput{Username: username, Email: email, Password: password})
	require.NoError(t, err)
}
