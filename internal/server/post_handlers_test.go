package server

import (
	"net/http"
	"testing"

	"pinkbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postsResponse struct {
	Posts []models.Post `json:"posts"`
	Count int           `json:"count"`
}

func TestGetPosts_Empty(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/api/posts", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body postsResponse
	decodeBody(t, resp, &body)
	assert.Zero(t, body.Count)
	assert.Empty(t, body.Posts)
}

func TestCreatePost_RequiresAuth(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodPost, "/api/posts",
		map[string]any{"title": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestCreatePost_AndFeedOrdering(t *testing.T) {
	s, app := newTestServer(t)
	token := authToken(t, s)

	resp := doJSON(t, app, http.MethodPost, "/api/posts",
		map[string]any{"title": "first", "summary": "one"}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/posts",
		map[string]any{"title": "second", "summary": "two"}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/posts", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body postsResponse
	decodeBody(t, resp, &body)
	require.Equal(t, 2, body.Count)
	assert.Equal(t, "second", body.Posts[0].Title, "newest post first")
	assert.Equal(t, "first", body.Posts[1].Title)
}

func TestCreatePost_DefaultsTitle(t *testing.T) {
	s, app := newTestServer(t)
	token := authToken(t, s)

	resp := doJSON(t, app, http.MethodPost, "/api/posts",
		map[string]any{"summary": "untitled"}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var post models.Post
	decodeBody(t, resp, &post)
	assert.Equal(t, "New post", post.Title)
	assert.NotZero(t, post.ID)
}

func TestGetPosts_Search(t *testing.T) {
	s, app := newTestServer(t)
	token := authToken(t, s)

	for _, p := range []map[string]any{
		{"title": "Hiking the ridge", "summary": "steep but worth it"},
		{"title": "Soup night", "summary": "tomato basil"},
	} {
		resp := doJSON(t, app, http.MethodPost, "/api/posts", p, token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		_ = resp.Body.Close()
	}

	resp := doJSON(t, app, http.MethodGet, "/api/posts?q=TOMATO", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body postsResponse
	decodeBody(t, resp, &body)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "Soup night", body.Posts[0].Title)
}

func TestGetPost(t *testing.T) {
	s, app := newTestServer(t)
	token := authToken(t, s)

	resp := doJSON(t, app, http.MethodPost, "/api/posts",
		map[string]any{"title": "findable"}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Post
	decodeBody(t, resp, &created)

	resp = doJSON(t, app, http.MethodGet, "/api/posts/"+itoa(created.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got models.Post
	decodeBody(t, resp, &got)
	assert.Equal(t, "findable", got.Title)

	resp = doJSON(t, app, http.MethodGet, "/api/posts/999999", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/posts/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}
