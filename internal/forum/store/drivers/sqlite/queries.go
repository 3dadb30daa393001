package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so the same queries run
// inside and outside a transaction.
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

const userColumns = `id, username, email, password_hash, role, created_at, updated_at`

func scanUser(row *sql.Row) (userRow, error) {
	var u userRow
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

const getUserByUsername = `SELECT ` + userColumns + ` FROM users WHERE username = ?`

func (q *queries) GetUserByUsername(ctx context.Context, username string) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByUsername, username))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

func (q *queries) GetUserByEmail(ctx context.Context, email string) (userRow, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const createUser = `INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *queries) CreateUser(ctx context.Context, u userRow) error {
	_, err := q.db.ExecContext(ctx, createUser,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt)
	return err
}

const updateUserPasswordHash = `UPDATE users SET password_hash = ?, updated_at = ? WHERE username = ?`

func (q *queries) UpdateUserPasswordHash(ctx context.Context, username, hash string, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateUserPasswordHash, hash, now, username)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const replaceUserPasswordHash = `UPDATE users SET password_hash = ?, updated_at = ?
WHERE username = ? AND password_hash = ?`

func (q *queries) ReplaceUserPasswordHash(ctx context.Context, username, oldHash, newHash string, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, replaceUserPasswordHash, newHash, now, username, oldHash)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listPosts = `SELECT p.post_id, p.forum_id, p.author, p.post_time, p.text, u.email
FROM posts p
INNER JOIN users u ON p.author = u.username
ORDER BY p.post_time DESC, p.post_id DESC`

type postViewRow struct {
	postRow
	Email string
}

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
FROM posts WHERE forum_id = ? AND post_id = ?`

func (q *queries) GetPost(ctx context.Context, forumID, postID int64) (postRow, error) {
	var p postRow
	err := q.db.QueryRowContext(ctx, getPost, forumID, postID).
		Scan(&p.PostID, &p.ForumID, &p.Author, &p.PostTime, &p.Text)
	return p, err
}

const createPost = `INSERT INTO posts (forum_id, author, post_time, text) VALUES (?, ?, ?, ?)`

func (q *queries) CreatePost(ctx context.Context, p postRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, createPost, p.ForumID, p.Author, p.PostTime, p.Text)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const updatePostText = `UPDATE posts SET text = ? WHERE forum_id = ? AND post_id = ? AND author = ?`

func (q *queries) UpdatePostText(ctx context.Context, forumID, postID int64, author, text string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updatePostText, text, forumID, postID, author)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deletePost = `DELETE FROM posts WHERE forum_id = ? AND post_id = ? AND author = ?`

func (q *queries) DeletePost(ctx context.Context, forumID, postID int64, author string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deletePost, forumID, postID, author)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
