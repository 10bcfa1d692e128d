package service

import (
	"context"
	"strings"
	"testing"

	"pinkbook/internal/kvstore"
	"pinkbook/internal/models"
	"pinkbook/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProfileService(kv kvstore.Store) *ProfileService {
	images := repository.NewImageRepository(kv, repository.ImageConfig{Encoded: true})
	posts := repository.NewPostRepository(kv)
	profile := repository.NewProfileStore(kv, images, posts)
	return NewProfileService(profile, images)
}

func TestProfileService_GetDefaults(t *testing.T) {
	t.Parallel()
	svc := newProfileService(kvstore.NewMemoryStore())

	profile := svc.Get(context.Background())
	assert.Equal(t, repository.DefaultNickname, profile.Nickname)
	assert.Equal(t, repository.DefaultBio, profile.Bio)
}

func TestProfileService_UpdateMergesBlankFields(t *testing.T) {
	t.Parallel()
	svc := newProfileService(kvstore.NewMemoryStore())
	ctx := context.Background()

	_, err := svc.Update(ctx, UpdateProfileInput{Nickname: "Ada", Bio: "likes engines"})
	require.NoError(t, err)

	// Updating only the bio keeps the nickname.
	got, err := svc.Update(ctx, UpdateProfileInput{Bio: "ships engines"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Nickname)
	assert.Equal(t, "ships engines", got.Bio)
}

func TestProfileService_UpdateValidation(t *testing.T) {
	t.Parallel()
	svc := newProfileService(kvstore.NewMemoryStore())
	ctx := context.Background()

	_, err := svc.Update(ctx, UpdateProfileInput{Nickname: strings.Repeat("n", 31)})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)

	_, err = svc.Update(ctx, UpdateProfileInput{Bio: strings.Repeat("b", 501)})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestProfileService_UpdatePersistsAvatar(t *testing.T) {
	t.Parallel()
	kv := kvstore.NewMemoryStore()
	svc := newProfileService(kv)
	ctx := context.Background()

	// A data URI is already durable on the encoded path; it is stored as-is
	// and resolved back on read.
	got, err := svc.Update(ctx, UpdateProfileInput{Avatar: "data:image/jpeg;base64,QUJD"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got.Avatar, "data:image/"), "got %q", got.Avatar)
}

func TestProfileService_OwnedPosts(t *testing.T) {
	t.Parallel()
	kv := kvstore.NewMemoryStore()
	svc := newProfileService(kv)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "local_img_cover", "data:image/jpeg;base64,QUJD"))
	posts := repository.NewPostRepository(kv)
	require.NoError(t, posts.Add(ctx, models.Post{ID: 1, Title: "mine", Images: []string{"local_img_cover"}}))

	owned := svc.OwnedPosts(ctx)
	require.Len(t, owned, 1)
	require.Len(t, owned[0].Images, 1)
	assert.True(t, strings.HasPrefix(owned[0].Images[0], "data:image/"))
}
