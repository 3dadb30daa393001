package forumsdk

import (
	"context"
	"net/http"
	"sync"
)

// Session performs authenticated requests with a bearer access token.
// It is safe for concurrent use.
type Session struct {
	client *Client

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

// AccessToken returns the current access token.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the refresh token the session was created with.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Refresh trades the refresh token for a new access token and stores it.
func (s *Session) Refresh(ctx context.Context) error {
	resp, err := s.client.do(ctx, http.MethodPost, "/api/user/refresh", s.RefreshToken(), nil)
	if err != nil {
		return err
	}

	var out RefreshResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return err
	}

	s.mu.Lock()
	s.accessToken = out.AccessToken
	s.mu.Unlock()
	return nil
}

// Me returns the account behind the access token.
func (s *Session) Me(ctx context.Context) (*UserResponse, error) {
	resp, err := s.client.do(ctx, http.MethodGet, "/api/user/me", s.AccessToken(), nil)
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword needs a fresh token, which only the refresh token from a
// password login is. It is sent instead of the access token.
func (s *Session) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	resp, err := s.client.do(ctx, http.MethodPut, "/api/user/password", s.RefreshToken(), req)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// ListPosts returns every post, newest first.
func (s *Session) ListPosts(ctx context.Context) ([]PostResponse, error) {
	resp, err := s.client.do(ctx, http.MethodGet, "/api/post", s.AccessToken(), nil)
	if err != nil {
		return nil, err
	}

	var posts []PostResponse
	if err := decodeJSON(resp, &posts, http.StatusOK); err != nil {
		return nil, err
	}
	return posts, nil
}

// CreatePost publishes a post. Username must be the session's own.
func (s *Session) CreatePost(ctx context.Context, req CreatePostRequest) (*PostResponse, error) {
	resp, err := s.client.do(ctx, http.MethodPost, "/api/post", s.AccessToken(), req)
	if err != nil {
		return nil, err
	}

	var post PostResponse
	if err := decodeJSON(resp, &post, http.StatusCreated); err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost replaces the text of one of the session user's posts.
func (s *Session) UpdatePost(ctx context.Context, req UpdatePostRequest) error {
	resp, err := s.client.do(ctx, http.MethodPut, "/api/post", s.AccessToken(), req)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// DeletePost removes one of the session user's posts.
func (s *Session) DeletePost(ctx context.Context, req DeletePostRequest) error {
	resp, err := s.client.do(ctx, http.MethodDelete, "/api/post", s.AccessToken(), req)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
