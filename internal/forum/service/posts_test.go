package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
	"github.com/aussiebroadwan/forum/internal/forum/store/drivers/sqlite"
	"github.com/aussiebroadwan/forum/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newPostFixture(t *testing.T) (*PostService, accountFixture) {
	t.Helper()
	f := newAccountFixture(t)
	f.register(t, "alice", "a@x.com", "longenough1")
	f.register(t, "bob", "b@x.com", "longenough1")

	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &PostService{Store: f.store, Now: func() time.Time { return fixed }}, f
}

func TestPostService_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newPostFixture(t)

	p, err := svc.Create(ctx, "alice", CreatePostInput{ForumID: 1, Author: "alice", Text: "hello"})
	require.NoError(t, err)
	require.NotZero(t, p.PostID)
	require.Equal(t, "alice", p.Author)
	require.True(t, p.PostTime.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))

	_, err = svc.Create(ctx, "alice", CreatePostInput{ForumID: 1, Author: "bob", Text: "spoof"})
	require.ErrorIs(t, err, ErrForbidden)

	posts, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "a@x.com", posts[0].AuthorEmail)
}

func TestPostService_UpdateOwnership(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newPostFixture(t)

	bobs, err := svc.Create(ctx, "bob", CreatePostInput{ForumID: 1, Author: "bob", Text: "bob's post"})
	require.NoError(t, err)

	t.Run("other user's post is forbidden and untouched", func(t *testing.T) {
		n, err := svc.Update(ctx, "alice", UpdatePostInput{ForumID: 1, PostID: bobs.PostID, Text: "hijacked"})
		require.ErrorIs(t, err, ErrForbidden)
		require.Zero(t, n)

		stored, err := svc.Store.Posts().GetPost(ctx, 1, bobs.PostID)
		require.NoError(t, err)
		require.Equal(t, "bob's post", stored.Text)
	})

	t.Run("claiming the owner's name does not help", func(t *testing.T) {
		n, err := svc.Update(ctx, "alice", UpdatePostInput{ForumID: 1, PostID: bobs.PostID, Author: "bob", Text: "hijacked"})
		require.ErrorIs(t, err, ErrForbidden)
		require.Zero(t, n)
	})

	t.Run("owner may update", func(t *testing.T) {
		n, err := svc.Update(ctx, "bob", UpdatePostInput{ForumID: 1, PostID: bobs.PostID, Author: "bob", Text: "edited"})
		require.NoError(t, err)
		require.Equal(t, int64(1), n)

		stored, err := svc.Store.Posts().GetPost(ctx, 1, bobs.PostID)
		require.NoError(t, err)
		require.Equal(t, "edited", stored.Text)
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := svc.Update(ctx, "bob", UpdatePostInput{ForumID: 1, PostID: 9999, Text: "x"})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("wrong forum", func(t *testing.T) {
		_, err := svc.Update(ctx, "bob", UpdatePostInput{ForumID: 2, PostID: bobs.PostID, Text: "x"})
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostService_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newPostFixture(t)

	bobs, err := svc.Create(ctx, "bob", CreatePostInput{ForumID: 3, Author: "bob", Text: "bye"})
	require.NoError(t, err)

	n, err := svc.Delete(ctx, "alice", DeletePostInput{ForumID: 3, PostID: bobs.PostID})
	require.ErrorIs(t, err, ErrForbidden)
	require.Zero(t, n)

	n, err = svc.Delete(ctx, "bob", DeletePostInput{ForumID: 3, PostID: bobs.PostID})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = svc.Store.Posts().GetPost(ctx, 3, bobs.PostID)
	require.Error(t, err)

	_, err = svc.Delete(ctx, "bob", DeletePostInput{ForumID: 3, PostID: bobs.PostID})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPostService_ExplicitTime(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _ := newPostFixture(t)

	at := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	p, err := svc.Create(ctx, "alice", CreatePostInput{ForumID: 1, Author: "alice", PostTime: at, Text: "old"})
	require.NoError(t, err)

	stored, err := svc.Store.Posts().GetPost(ctx, 1, p.PostID)
	require.NoError(t, err)
	require.True(t, stored.PostTime.Equal(at))
	require.Equal(t, domain.Permit, domain.AuthorizeOwner("alice", stored.Author))
}

func TestPostService_ConcurrentUpdates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st, err := sqlite.NewStore(sqlite.FileDSN(filepath.Join(t.TempDir(), "forum.db")))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	now := time.Now().UTC()
	require.NoError(t, st.Users().CreateUser(ctx, domain.User{
		ID:           idx.New().String(),
		Username:     "alice",
		Email:        "a@x.com",
		PasswordHash: "unused",
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}))

	svc := &PostService{Store: st}
	ids := make([]int64, 20)
	for i := range ids {
		p, err := svc.Create(ctx, "alice", CreatePostInput{ForumID: 1, Author: "alice", Text: "draft"})
		require.NoError(t, err)
		ids[i] = p.PostID
	}

	for round := range 10 {
		var wg sync.WaitGroup
		errs := make(chan error, len(ids))
		for _, id := range ids {
			wg.Add(1)
			go func() {
				defer wg.Done()
				n, err := svc.Update(ctx, "alice", UpdatePostInput{ForumID: 1, PostID: id, Text: fmt.Sprintf("round %d", round)})
				if err == nil && n != 1 {
					err = fmt.Errorf("post %d: %d rows affected", id, n)
				}
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err, "round %d", round)
		}
	}

	for _, id := range ids {
		p, err := st.Posts().GetPost(ctx, 1, id)
		require.NoError(t, err)
		require.Equal(t, "round 9", p.Text)
	}
}
