package server

import (
	"net/http"
	"testing"

	"pinkbook/internal/models"
	"pinkbook/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProfile_Defaults(t *testing.T) {
	s, app := newTestServer(t)
	token := authToken(t, s)

	resp := doJSON(t, app, http.MethodGet, "/api/profile", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var profile models.UserProfile
	decodeBody(t, resp, &profile)
	assert.Equal(t, repository.DefaultNickname, profile.Nickname)
	assert.Equal(t, repository.DefaultBio, profile.Bio)
}

func TestProfile_RequiresAuth(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/api/profile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodPut, "/api/profile",
		map[string]string{"nickname": "x"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestUpdateProfile(t *testing.T) {
	s, app := newTestServer(t)
	token := authToken(t, s)

	resp := doJSON(t, app, http.MethodPut, "/api/profile",
		map[string]string{"nickname": "Ada", "bio": "likes engines"}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile models.UserProfile
	decodeBody(t, resp, &profile)
	assert.Equal(t, "Ada", profile.Nickname)

	// A partial update keeps the other fields.
	resp = doJSON(t, app, http.MethodPut, "/api/profile",
		map[string]string{"bio": "ships engines"}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &profile)
	assert.Equal(t, "Ada", profile.Nickname)
	assert.Equal(t, "ships engines", profile.Bio)
}

func TestGetProfilePosts(t *testing.T) {
	s, app := newTestServer(t)
	token := authToken(t, s)

	resp := doJSON(t, app, http.MethodPost, "/api/posts",
		map[string]any{"title": "mine"}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/profile/posts", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body postsResponse
	decodeBody(t, resp, &body)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "mine", body.Posts[0].Title)
}
