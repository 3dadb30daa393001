package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
	"github.com/aussiebroadwan/forum/internal/forum/store"
	"github.com/aussiebroadwan/forum/pkg/slogx"
)

type PostService struct {
	Store store.Store

	// Now overrides the clock used for a missing post time. Nil means time.Now.
	Now func() time.Time
}

type CreatePostInput struct {
	ForumID  int64
	Author   string
	PostTime time.Time // zero means now
	Text     string
}

// UpdatePostInput and DeletePostInput may carry the author the client
// believes owns the post. It is only checked against the caller; the stored
// author is what decides.
type UpdatePostInput struct {
	ForumID int64
	PostID  int64
	Author  string
	Text    string
}

type DeletePostInput struct {
	ForumID int64
	PostID  int64
	Author  string
}

// List returns every post with its author's email, newest first.
func (s *PostService) List(ctx context.Context) ([]domain.PostView, error) {
	posts, err := s.Store.Posts().ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// Create stores a new post authored by actor.
func (s *PostService) Create(ctx context.Context, actor string, in CreatePostInput) (p domain.Post, err error) {
	ctx, span := tracer.Start(ctx, "PostService.Create", trace.WithAttributes(
		attribute.String("forum.actor", actor),
		attribute.Int64("forum.forum_id", in.ForumID),
	))
	defer func() { endSpan(span, err) }()

	if in.Author != actor {
		return domain.Post{}, forbidden("You can only create posts with your own username")
	}

	postTime := in.PostTime
	if postTime.IsZero() {
		postTime = s.now()
	}

	p, err = s.Store.Posts().CreatePost(ctx, domain.Post{
		ForumID:  in.ForumID,
		Author:   actor,
		PostTime: postTime.UTC().Truncate(time.Second),
		Text:     in.Text,
	})
	if err != nil {
		return domain.Post{}, fmt.Errorf("create post: %w", err)
	}

	slogx.FromContext(ctx).Info("post created",
		slog.Int64("forum_id", p.ForumID),
		slog.Int64("post_id", p.PostID),
	)
	return p, nil
}

// Update replaces a post's text. It returns the number of rows changed,
// which is 0 whenever the caller does not own the post.
func (s *PostService) Update(ctx context.Context, actor string, in UpdatePostInput) (n int64, err error) {
	ctx, span := tracer.Start(ctx, "PostService.Update", trace.WithAttributes(
		attribute.String("forum.actor", actor),
		attribute.Int64("forum.forum_id", in.ForumID),
		attribute.Int64("forum.post_id", in.PostID),
	))
	defer func() { endSpan(span, err) }()

	if in.Author != "" && in.Author != actor {
		return 0, forbidden("You can only update posts with your own username")
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := s.authorize(ctx, tx, actor, in.ForumID, in.PostID, "update"); err != nil {
			return err
		}
		var err error
		n, err = tx.Posts().UpdatePostText(ctx, in.ForumID, in.PostID, actor, in.Text)
		return err
	})
	if err != nil {
		return 0, err
	}

	slogx.FromContext(ctx).Info("post updated",
		slog.Int64("forum_id", in.ForumID),
		slog.Int64("post_id", in.PostID),
	)
	return n, nil
}

// Delete removes a post. Same ownership rules as Update.
func (s *PostService) Delete(ctx context.Context, actor string, in DeletePostInput) (n int64, err error) {
	ctx, span := tracer.Start(ctx, "PostService.Delete", trace.WithAttributes(
		attribute.String("forum.actor", actor),
		attribute.Int64("forum.forum_id", in.ForumID),
		attribute.Int64("forum.post_id", in.PostID),
	))
	defer func() { endSpan(span, err) }()

	if in.Author != "" && in.Author != actor {
		return 0, forbidden("You can only delete posts with your own username")
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := s.authorize(ctx, tx, actor, in.ForumID, in.PostID, "delete"); err != nil {
			return err
		}
		var err error
		n, err = tx.Posts().DeletePost(ctx, in.ForumID, in.PostID, actor)
		return err
	})
	if err != nil {
		return 0, err
	}

	slogx.FromContext(ctx).Info("post deleted",
		slog.Int64("forum_id", in.ForumID),
		slog.Int64("post_id", in.PostID),
	)
	return n, nil
}

// authorize re-reads the stored owner inside tx and checks it against actor.
func (s *PostService) authorize(ctx context.Context, tx store.Tx, actor string, forumID, postID int64, action string) error {
	post, err := tx.Posts().GetPost(ctx, forumID, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("Post not found")
		}
		return fmt.Errorf("load post: %w", err)
	}

	if domain.AuthorizeOwner(actor, post.Author) != domain.Permit {
		slogx.FromContext(ctx).Info("post "+action+" denied",
			slog.String("actor", actor),
			slog.Int64("forum_id", forumID),
			slog.Int64("post_id", postID),
		)
		return forbidden("You can only " + action + " your own posts")
	}
	return nil
}

func (s *PostService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
