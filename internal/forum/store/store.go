package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// ConflictError reports a unique constraint violation on Field
// ("username" or "email"). It matches ErrAlreadyExists with errors.Is.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("store: %s already exists", e.Field)
}

func (e *ConflictError) Unwrap() error { return ErrAlreadyExists }

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. Sub-repositories hang off it so a Tx can hand
// out the same repos bound to the transaction.
type Store interface {
	Users() Users
	Posts() Posts

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Users is the credential record store. Username and email are unique;
// the driver enforces that with constraints and reports violations as
// *ConflictError.
type Users interface {
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash replaces the stored hash and bumps updated_at.
	// Returns ErrNotFound when no such user exists.
	UpdatePasswordHash(ctx context.Context, username, newHash string) error

	// ReplacePasswordHash swaps oldHash for newHash only if oldHash is still
	// the stored value, and reports whether it did.
	ReplacePasswordHash(ctx context.Context, username, oldHash, newHash string) (bool, error)
}

type Posts interface {
	// ListPosts returns every post joined with its author's email, newest first.
	ListPosts(ctx context.Context) ([]domain.PostView, error)

	GetPost(ctx context.Context, forumID, postID int64) (domain.Post, error)

	// CreatePost inserts p and returns it with its assigned PostID.
	CreatePost(ctx context.Context, p domain.Post) (domain.Post, error)

	// UpdatePostText and DeletePost only touch a row whose author matches
	// and return the number of rows affected.
	UpdatePostText(ctx context.Context, forumID, postID int64, author, text string) (int64, error)
	DeletePost(ctx context.Context, forumID, postID int64, author string) (int64, error)
}
