/*
Package forumsdk provides a Go client for the forum service and the request
and response types the server encodes.

# Client vs Session

  - Client: public endpoints (register, login, health, JWKS)
  - Session: endpoints that need a bearer token (posts, profile, password)

Logging in returns a Session bound to the issued tokens:

	client := forumsdk.NewClient("http://localhost:8080")

	_, err := client.Register(ctx, forumsdk.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "longenough1",
	})

	session, login, err := client.Login(ctx, forumsdk.LoginRequest{
		Username:       "alice",
		Password:       "longenough1",
		RecaptchaToken: token,
	})

	posts, err := session.ListPosts(ctx)

Access tokens are short-lived. Session.Refresh trades the refresh token for
a new access token; the SDK does not refresh automatically.

# Errors

Every non-2xx response is returned as *APIError:

	var apiErr *forumsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden {
		// not your post
	}
*/
package forumsdk
