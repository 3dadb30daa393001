package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
	"github.com/aussiebroadwan/forum/internal/forum/store"
	"github.com/aussiebroadwan/forum/internal/forum/store/drivers/sqlite"
	"github.com/aussiebroadwan/forum/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func createUser(t *testing.T, st store.Store, username, email string) domain.User {
	t.Helper()
	u := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=1024,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		Role:         domain.RoleUser,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	st := newStore(t)
	require.NoError(t, st.ApplyMigrations())
	require.NoError(t, st.Ping(context.Background()))
}

func TestUsers_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	u := createUser(t, st, "alice", "a@x.com")

	byName, err := st.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, u.ID, byName.ID)
	require.Equal(t, "a@x.com", byName.Email)
	require.Equal(t, domain.RoleUser, byName.Role)
	require.Equal(t, u.PasswordHash, byName.PasswordHash)
	require.False(t, byName.CreatedAt.IsZero())

	byEmail, err := st.Users().GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	_, err = st.Users().GetUserByUsername(ctx, "Alice")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Users().GetUserByEmail(ctx, "nobody@x.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUsers_UniqueConstraints(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	createUser(t, st, "alice", "a@x.com")

	tests := []struct {
		name     string
		username string
		email    string
		field    string
	}{
		{"duplicate email", "alice2", "a@x.com", "email"},
		{"duplicate username", "alice", "other@x.com", "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := st.Users().CreateUser(ctx, domain.User{
				ID:           idx.New().String(),
				Username:     tt.username,
				Email:        tt.email,
				PasswordHash: "x",
			})
			require.ErrorIs(t, err, store.ErrAlreadyExists)

			var conflict *store.ConflictError
			require.True(t, errors.As(err, &conflict))
			require.Equal(t, tt.field, conflict.Field)
		})
	}
}

func TestUsers_UpdatePasswordHash(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	createUser(t, st, "alice", "a@x.com")

	require.NoError(t, st.Users().UpdatePasswordHash(ctx, "alice", "new-hash"))
	u, err := st.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "new-hash", u.PasswordHash)

	require.ErrorIs(t, st.Users().UpdatePasswordHash(ctx, "ghost", "x"), store.ErrNotFound)
}

func TestUsers_ReplacePasswordHash(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	u := createUser(t, st, "alice", "a@x.com")

	ok, err := st.Users().ReplacePasswordHash(ctx, "alice", "stale", "upgraded")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = st.Users().ReplacePasswordHash(ctx, "alice", u.PasswordHash, "upgraded")
	require.NoError(t, err)
	require.True(t, ok)

	got, err := st.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "upgraded", got.PasswordHash)
}

func TestPosts_CRUD(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	createUser(t, st, "alice", "a@x.com")
	createUser(t, st, "bob", "b@x.com")

	older := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	p1, err := st.Posts().CreatePost(ctx, domain.Post{ForumID: 1, Author: "alice", PostTime: older, Text: "first"})
	require.NoError(t, err)
	require.NotZero(t, p1.PostID)

	p2, err := st.Posts().CreatePost(ctx, domain.Post{ForumID: 1, Author: "bob", PostTime: newer, Text: "second"})
	require.NoError(t, err)
	require.Greater(t, p2.PostID, p1.PostID)

	// Newest first, joined with the author's email.
	list, err := st.Posts().ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, p2.PostID, list[0].PostID)
	require.Equal(t, "b@x.com", list[0].AuthorEmail)
	require.Equal(t, "a@x.com", list[1].AuthorEmail)
	require.True(t, older.Equal(list[1].PostTime))

	got, err := st.Posts().GetPost(ctx, 1, p1.PostID)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Author)
	require.Equal(t, "first", got.Text)

	_, err = st.Posts().GetPost(ctx, 2, p1.PostID)
	require.ErrorIs(t, err, store.ErrNotFound)

	// Mutations are scoped to the author.
	n, err := st.Posts().UpdatePostText(ctx, 1, p1.PostID, "bob", "hijacked")
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = st.Posts().UpdatePostText(ctx, 1, p1.PostID, "alice", "edited")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, err = st.Posts().GetPost(ctx, 1, p1.PostID)
	require.NoError(t, err)
	require.Equal(t, "edited", got.Text)

	n, err = st.Posts().DeletePost(ctx, 1, p1.PostID, "bob")
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = st.Posts().DeletePost(ctx, 1, p1.PostID, "alice")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = st.Posts().GetPost(ctx, 1, p1.PostID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestPosts_AuthorMustExist(t *testing.T) {
	st := newStore(t)
	_, err := st.Posts().CreatePost(context.Background(), domain.Post{
		ForumID: 1, Author: "ghost", PostTime: time.Now(), Text: "boo",
	})
	require.Error(t, err)
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := st.WithTx(ctx, func(tx store.Tx) error {
			require.NoError(t, tx.Users().CreateUser(ctx, domain.User{
				ID: idx.New().String(), Username: "carol", Email: "c@x.com", PasswordHash: "x",
			}))
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = st.Users().GetUserByUsername(ctx, "carol")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("commits on success", func(t *testing.T) {
		err := st.WithTx(ctx, func(tx store.Tx) error {
			return tx.Users().CreateUser(ctx, domain.User{
				ID: idx.New().String(), Username: "dave", Email: "d@x.com", PasswordHash: "x",
			})
		})
		require.NoError(t, err)

		_, err = st.Users().GetUserByUsername(ctx, "dave")
		require.NoError(t, err)
	})

	t.Run("nested transactions are refused", func(t *testing.T) {
		err := st.WithTx(ctx, func(tx store.Tx) error {
			return tx.WithTx(ctx, func(store.Tx) error { return nil })
		})
		require.Error(t, err)
	})
}
