package captcha_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/forum/pkg/captcha"
	"github.com/stretchr/testify/require"
)

func newClient(url string) *captcha.Client {
	c := captcha.NewClient("shh")
	c.VerifyURL = url
	return c
}

func TestVerify_Verdicts(t *testing.T) {
	tests := []struct {
		name string
		body string
		want captcha.Verdict
	}{
		{"success", `{"success": true}`, captcha.Human},
		{"failure", `{"success": false, "error-codes": ["invalid-input-response"]}`, captcha.Bot},
		{"missing success", `{}`, captcha.Bot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, http.MethodPost, r.Method)
				require.NoError(t, r.ParseForm())
				require.Equal(t, "shh", r.PostForm.Get("secret"))
				require.Equal(t, "tok", r.PostForm.Get("response"))
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := newClient(srv.URL).Verify(context.Background(), "tok")
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestVerify_EmptyTokenSkipsCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	got, err := newClient(srv.URL).Verify(context.Background(), "  ")
	require.NoError(t, err)
	require.Equal(t, captcha.Bot, got)
	require.Zero(t, calls.Load())
}

func TestVerify_FailsClosed(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		got, err := newClient(srv.URL).Verify(context.Background(), "tok")
		require.ErrorIs(t, err, captcha.ErrUnavailable)
		require.Equal(t, captcha.Indeterminate, got)
	})

	t.Run("undecodable body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>nope</html>`))
		}))
		defer srv.Close()

		got, err := newClient(srv.URL).Verify(context.Background(), "tok")
		require.ErrorIs(t, err, captcha.ErrUnavailable)
		require.Equal(t, captcha.Indeterminate, got)
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		got, err := newClient(url).Verify(context.Background(), "tok")
		require.ErrorIs(t, err, captcha.ErrUnavailable)
		require.Equal(t, captcha.Indeterminate, got)
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		c := newClient(srv.URL)
		c.Timeout = 50 * time.Millisecond

		start := time.Now()
		got, err := c.Verify(context.Background(), "tok")
		require.ErrorIs(t, err, captcha.ErrUnavailable)
		require.Equal(t, captcha.Indeterminate, got)
		require.Less(t, time.Since(start), 2*time.Second)
	})
}

func TestVerdict_String(t *testing.T) {
	require.Equal(t, "human", captcha.Human.String())
	require.Equal(t, "bot", captcha.Bot.String())
	require.Equal(t, "indeterminate", captcha.Indeterminate.String())
}
