package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
	"github.com/aussiebroadwan/forum/internal/forum/service"
	"github.com/aussiebroadwan/forum/pkg/forumsdk"
	"github.com/aussiebroadwan/forum/pkg/httpx"
)

// PostsHandler serves /api/post. Every method runs behind Authn and acts
// as the authenticated caller.
type PostsHandler struct {
	PostService *service.PostService
}

func postResponse(p domain.Post) forumsdk.PostResponse {
	return forumsdk.PostResponse{
		PostID:   p.PostID,
		ForumID:  p.ForumID,
		Username: p.Author,
		Time:     p.PostTime.UTC().Format(forumsdk.TimeLayout),
		Text:     p.Text,
	}
}

func (h *PostsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.PostService.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]forumsdk.PostResponse, 0, len(posts))
	for _, p := range posts {
		resp := postResponse(p.Post)
		resp.Email = p.AuthorEmail
		out = append(out, resp)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *PostsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		forumsdk.NewAPIError(http.StatusUnauthorized, "Not authenticated").WriteError(w)
		return
	}

	var req forumsdk.CreatePostRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	fe := fieldErrors{}
	fe.id("forum_id", req.ForumID)
	fe.username("username", req.Username)
	fe.text(req.Text)

	var postTime time.Time
	if req.Time != "" {
		t, err := time.ParseInLocation(forumsdk.TimeLayout, req.Time, time.UTC)
		fe.check(err == nil, "time", "must use the format YYYY-MM-DD HH:MM:SS")
		postTime = t
	}
	if len(fe) > 0 {
		forumsdk.NewValidationError(fe).WriteError(w)
		return
	}

	post, err := h.PostService.Create(r.Context(), p.User.Username, service.CreatePostInput{
		ForumID:  req.ForumID,
		Author:   req.Username,
		PostTime: postTime,
		Text:     req.Text,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, postResponse(post))
}

func (h *PostsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		forumsdk.NewAPIError(http.StatusUnauthorized, "Not authenticated").WriteError(w)
		return
	}

	var req forumsdk.UpdatePostRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	fe := fieldErrors{}
	fe.id("forum_id", req.ForumID)
	fe.id("post_id", req.PostID)
	fe.text(req.Text)
	if len(fe) > 0 {
		forumsdk.NewValidationError(fe).WriteError(w)
		return
	}

	n, err := h.PostService.Update(r.Context(), p.User.Username, service.UpdatePostInput{
		ForumID: req.ForumID,
		PostID:  req.PostID,
		Author:  req.Username,
		Text:    req.Text,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAffected(w, n)
}

func (h *PostsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFrom(r.Context())
	if !ok {
		forumsdk.NewAPIError(http.StatusUnauthorized, "Not authenticated").WriteError(w)
		return
	}

	var req forumsdk.DeletePostRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	fe := fieldErrors{}
	fe.id("forum_id", req.ForumID)
	fe.id("post_id", req.PostID)
	if len(fe) > 0 {
		forumsdk.NewValidationError(fe).WriteError(w)
		return
	}

	n, err := h.PostService.Delete(r.Context(), p.User.Username, service.DeletePostInput{
		ForumID: req.ForumID,
		PostID:  req.PostID,
		Author:  req.Username,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAffected(w, n)
}

func writeAffected(w http.ResponseWriter, n int64) {
	if n == 0 {
		forumsdk.NewAPIError(http.StatusNotFound, "Post not found").WriteError(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
