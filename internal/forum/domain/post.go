package domain

import "time"

// Post is a message in a forum. Author is the owning username and is the
// only identity allowed to change it.
type Post struct {
	PostID   int64
	ForumID  int64
	Author   string
	PostTime time.Time
	Text     string
}

// PostView is a Post as listed, joined with its author's email.
type PostView struct {
	Post

	AuthorEmail string
}
