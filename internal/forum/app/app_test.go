package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/forum/pkg/forumsdk"
	"github.com/aussiebroadwan/forum/pkg/otelx"
	"github.com/aussiebroadwan/forum/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func newSiteVerify(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.PostFormValue("response") == "human" {
			_, _ = io.WriteString(w, `{"success":true}`)
			return
		}
		_, _ = io.WriteString(w, `{"success":false}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, verifyURL string) Config {
	t.Helper()
	dir := t.TempDir()
	return Config{
		Env:                 "test",
		LogLevel:            "error",
		LogFormat:           "text",
		Port:                0,
		ShutdownGracePeriod: time.Second,
		DatabaseDriver:      "sqlite",
		DatabaseFile:        filepath.Join(dir, "forum.db"),
		PepperFile:          filepath.Join(dir, "pepper"),
		Argon2MemoryKiB:     1024,
		Argon2Iterations:    1,
		Argon2Parallelism:   1,
		Issuer:              "forum-test",
		JWTAlgorithm:        "EdDSA",
		SigningKeyFile:      filepath.Join(dir, "signing.pem"),
		SigningKeyID:        "test-key",
		AccessTokenTTL:      time.Minute,
		RefreshTokenTTL:     time.Hour,
		RecaptchaSecretKey:  "test-secret",
		RecaptchaVerifyURL:  verifyURL,
		RecaptchaTimeout:    time.Second,
	}
}

func TestApplication_EndToEnd(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, newSiteVerify(t).URL)

	app, err := New(cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)
	t.Cleanup(func() { _ = app.Shutdown() })

	client := forumsdk.NewClient(srv.URL)

	ready, err := client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)

	jwks, err := client.GetJWKS(ctx)
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "test-key", jwks.Keys[0].Kid)
	require.Equal(t, "OKP", jwks.Keys[0].Kty)

	_, err = client.Register(ctx, forumsdk.RegisterRequest{Username: "alice", Email: "a@x.com", Password: "longenough1"})
	require.NoError(t, err)

	_, _, err = client.Login(ctx, forumsdk.LoginRequest{Username: "alice", Password: "longenough1", RecaptchaToken: "robot"})
	require.Error(t, err)

	sess, _, err := client.Login(ctx, forumsdk.LoginRequest{Username: "alice", Password: "longenough1", RecaptchaToken: "human"})
	require.NoError(t, err)

	post, err := sess.CreatePost(ctx, forumsdk.CreatePostRequest{ForumID: 7, Username: "alice", Text: "first"})
	require.NoError(t, err)
	require.Equal(t, int64(7), post.ForumID)

	resp, err := http.Get(srv.URL + "/livez")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NotEmpty(t, resp.Header.Get(slogx.RequestIDHeader))
}

func TestApplication_PersistsSigningKey(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:0")

	first, err := New(cfg)
	require.NoError(t, err)
	firstJWKS := first.keys.PublicJWKS()
	require.NoError(t, first.Shutdown())

	second, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Shutdown() })

	require.Equal(t, firstJWKS, second.keys.PublicJWKS())
}

func TestNew_ReleasesTracingOnFailure(t *testing.T) {
	var setups, shutdowns int
	setupTracing = func(ctx context.Context, endpoint, service, version string) (func(context.Context) error, error) {
		setups++
		shutdown, err := otelx.Setup(ctx, endpoint, service, version)
		return func(ctx context.Context) error {
			shutdowns++
			return shutdown(ctx)
		}, err
	}
	t.Cleanup(func() { setupTracing = otelx.Setup })

	verifyURL := newSiteVerify(t).URL

	tests := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"database cannot open", func(cfg *Config) {
			cfg.DatabaseFile = filepath.Join(t.TempDir(), "missing", "forum.db")
		}},
		{"signing key rejected", func(cfg *Config) {
			cfg.JWTAlgorithm = "HS256"
			cfg.JWTSecret = "too-short"
		}},
		{"unknown algorithm", func(cfg *Config) {
			cfg.JWTAlgorithm = "none"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setups, shutdowns = 0, 0
			cfg := testConfig(t, verifyURL)
			tt.mutate(&cfg)

			app, err := New(cfg)
			require.Error(t, err)
			require.Nil(t, app)
			require.Equal(t, 1, setups)
			require.Equal(t, 1, shutdowns)
		})
	}

	t.Run("success keeps tracing until shutdown", func(t *testing.T) {
		setups, shutdowns = 0, 0
		app, err := New(testConfig(t, verifyURL))
		require.NoError(t, err)
		require.Zero(t, shutdowns)

		require.NoError(t, app.Shutdown())
		require.Equal(t, 1, shutdowns)
	})
}
