package sqlite

import (
	"context"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
)

type postsRepo struct {
	q *queries
}

func (r *postsRepo) ListPosts(ctx context.Context) ([]domain.PostView, error) {
	rows, err := r.q.ListPosts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.PostView, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.PostView{Post: mapPost(row.postRow), AuthorEmail: row.Email})
	}
	return out, nil
}

func (r *postsRepo) GetPost(ctx context.Context, forumID, postID int64) (domain.Post, error) {
	row, err := r.q.GetPost(ctx, forumID, postID)
	if err != nil {
		return domain.Post{}, mapNotFound(err)
	}
	return mapPost(row), nil
}

func (r *postsRepo) CreatePost(ctx context.Context, p domain.Post) (domain.Post, error) {
	p.PostTime = p.PostTime.UTC()
	id, err := r.q.CreatePost(ctx, postRow{
		ForumID:  p.ForumID,
		Author:   p.Author,
		PostTime: p.PostTime,
		Text:     p.Text,
	})
	if err != nil {
		return domain.Post{}, err
	}
	p.PostID = id
	return p, nil
}

func (r *postsRepo) UpdatePostText(ctx context.Context, forumID, postID int64, author, text string) (int64, error) {
	return r.q.UpdatePostText(ctx, forumID, postID, author, text)
}

func (r *postsRepo) DeletePost(ctx context.Context, forumID, postID int64, author string) (int64, error) {
	return r.q.DeletePost(ctx, forumID, postID, author)
}
