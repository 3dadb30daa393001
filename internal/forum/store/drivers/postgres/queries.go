package postgres

import (
	"context"
	"database/sql"
	"time"
)

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db dbtx
}

func newQueries(db dbtx) *queries { return &queries{db: db} }

type userRow struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type postRow struct {
	PostID   int64
	ForumID  int64
	Author   string
	PostTime time.Time
	Text     string
}

type postViewRow struct {
	postRow
	Email string
}

func scanUser(row *sql.Row) (userRow, error) {
	var u userRow
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getUserByUsername = `SELECT id, username, email, password_hash, role, created_at, updated_at
FROM users WHERE username = $1`

func (q *queries) GetUserByUsername(ctx context.Context, username string) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByUsername, username))
}

const getUserByEmail = `SELECT id, username, email, password_hash, role, created_at, updated_at
FROM users WHERE email = $1`

func (q *queries) GetUserByEmail(ctx context.Context, email string) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const createUser = `INSERT INTO users (id, username, email, password_hash, role)
VALUES ($1, $2, $3, $4, $5)`

func (q *queries) CreateUser(ctx context.Context, u userRow) error {
	_, err := q.db.ExecContext(ctx, createUser, u.ID, u.Username, u.Email, u.PasswordHash, u.Role)
	return err
}

const updateUserPasswordHash = `UPDATE users SET password_hash = $1, updated_at = now() WHERE username = $2`

func (q *queries) UpdateUserPasswordHash(ctx context.Context, username, hash string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateUserPasswordHash, hash, username)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const replaceUserPasswordHash = `UPDATE users SET password_hash = $1, updated_at = now()
WHERE username = $2 AND password_hash = $3`

func (q *queries) ReplaceUserPasswordHash(ctx context.Context, username, oldHash, newHash string) (int64, error) {
	res, err := q.db.ExecContext(ctx, replaceUserPasswordHash, newHash, username, oldHash)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listPosts = `SELECT p.post_id, p.forum_id, p.author, p.post_time, p.text, u.email
FROM posts p
INNER JOIN users u ON p.author = u.username
ORDER BY p.post_time DESC, p.post_id DESC`

func (q *queries) ListPosts(ctx context.Context) ([]postViewRow, error) {
	rows, err := q.db.QueryContext(ctx, listPosts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []postViewRow
	for rows.Next() {
		var r postViewRow
		if err := rows.Scan(&r.PostID, &r.ForumID, &r.Author, &r.PostTime, &r.Text, &r.Email); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const getPost = `SELECT post_id, forum_id, author, post_time, text
FROM posts WHERE forum_id = $1 AND post_id = $2`

func (q *queries) GetPost(ctx context.Context, forumID, postID int64) (postRow, error) {
	var p postRow
	err := q.db.QueryRowContext(ctx, getPost, forumID, postID).
		Scan(&p.PostID, &p.ForumID, &p.Author, &p.PostTime, &p.Text)
	return p, err
}

const createPost = `INSERT INTO posts (forum_id, author, post_time, text)
VALUES ($1, $2, $3, $4)
RETURNING post_id`

func (q *queries) CreatePost(ctx context.Context, p postRow) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createPost, p.ForumID, p.Author, p.PostTime, p.Text).Scan(&id)
	return id, err
}

const updatePostText = `UPDATE posts SET text = $1 WHERE forum_id = $2 AND post_id = $3 AND author = $4`

func (q *queries) UpdatePostText(ctx context.Context, forumID, postID int64, author, text string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updatePostText, text, forumID, postID, author)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deletePost = `DELETE FROM posts WHERE forum_id = $1 AND post_id = $2 AND author = $3`

func (q *queries) DeletePost(ctx context.Context, forumID, postID int64, author string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deletePost, forumID, postID, author)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
