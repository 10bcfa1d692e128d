package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"pinkbook/internal/kvstore"
	"pinkbook/internal/models"
	"pinkbook/internal/observability"
)

// profileKey is the stable key the singleton profile lives under.
const profileKey = "user_profile"

// Default profile values, materialized lazily on the first read.
const (
	DefaultNickname = "Pinkbook user"
	DefaultBio      = "This user is lazy and hasn't written a bio"
)

// ProfileStore holds the single per-install display profile. There is one
// record regardless of how many users are registered; that conflation is a
// documented simplification, not a bug to fix here.
type ProfileStore interface {
	Get(ctx context.Context) models.UserProfile
	Save(ctx context.Context, profile models.UserProfile) error
	ListOwnedPosts(ctx context.Context) []models.Post
}

type profileStore struct {
	kv     kvstore.Store
	images ImageRepository
	posts  PostRepository
	logger *slog.Logger

	mu sync.Mutex
}

// NewProfileStore returns a ProfileStore backed by the given store. Avatar
// references are resolved through images on every read so a stale reference
// is upgraded to a renderable one.
func NewProfileStore(kv kvstore.Store, images ImageRepository, posts PostRepository) ProfileStore {
	return &profileStore{kv: kv, images: images, posts: posts, logger: observability.Logger}
}

func (s *profileStore) Get(ctx context.Context) models.UserProfile {
	raw, err := s.kv.Get(ctx, profileKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			s.logger.Error("reading profile failed", "error", err)
		}
		return defaultProfile()
	}

	var profile models.UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		s.logger.Warn("discarding malformed profile", "error", err)
		return defaultProfile()
	}

	if profile.Avatar != "" {
		profile.Avatar = s.images.Resolve(ctx, profile.Avatar)
	}
	return profile
}

// Save overwrites the profile wholesale. The caller is responsible for having
// persisted a new avatar through ImageRepository.Persist beforehand; this
// store does not persist image references itself.
func (s *profileStore) Save(ctx context.Context, profile models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, profileKey, string(raw))
}

// ListOwnedPosts returns the posts owned by the local profile. With the
// single-profile model this is the whole collection; there is no per-author
// filter to apply.
func (s *profileStore) ListOwnedPosts(ctx context.Context) []models.Post {
	return s.posts.ListAll(ctx)
}

func defaultProfile() models.UserProfile {
	return models.UserProfile{
		Nickname: DefaultNickname,
		Bio:      DefaultBio,
	}
}
