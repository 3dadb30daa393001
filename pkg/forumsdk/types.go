package forumsdk

import (
	"time"

	"github.com/aussiebroadwan/forum/pkg/jwtx"
)

// TimeLayout is the wire format of post timestamps.
const TimeLayout = time.DateTime

// ============================================================================
// User Types
// ============================================================================

// RegisterRequest is the body of POST /api/user/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /api/user/login.
type LoginRequest struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	RecaptchaToken string `json:"recaptcha_token"`
}

// UserResponse is the public view of an account. The password hash is
// never serialised.
type UserResponse struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// LoginResponse is the identity summary plus both session tokens.
type LoginResponse struct {
	UserResponse

	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshResponse carries a new access token minted from a refresh token.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// ChangePasswordRequest is the body of PUT /api/user/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ============================================================================
// Post Types
// ============================================================================

// PostResponse is a post as listed by GET /api/post.
type PostResponse struct {
	PostID   int64  `json:"post_id"`
	ForumID  int64  `json:"forum_id"`
	Username string `json:"username"`
	Time     string `json:"time"`
	Text     string `json:"text"`

	// Email of the author, only present in listings.
	Email string `json:"email,omitempty"`
}

// CreatePostRequest is the body of POST /api/post. Time uses TimeLayout
// and defaults to the server's clock when empty.
type CreatePostRequest struct {
	ForumID  int64  `json:"forum_id"`
	Username string `json:"username"`
	Time     string `json:"time,omitempty"`
	Text     string `json:"text"`
}

// UpdatePostRequest is the body of PUT /api/post.
type UpdatePostRequest struct {
	ForumID  int64  `json:"forum_id"`
	PostID   int64  `json:"post_id"`
	Username string `json:"username,omitempty"`
	Text     string `json:"text"`
}

// DeletePostRequest is the body of DELETE /api/post.
type DeletePostRequest struct {
	ForumID  int64  `json:"forum_id"`
	PostID   int64  `json:"post_id"`
	Username string `json:"username,omitempty"`
}

// ============================================================================
// System Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

// JWKSResponse contains the JSON Web Key Set published at
// /.well-known/jwks.json.
type JWKSResponse jwtx.JWKS
