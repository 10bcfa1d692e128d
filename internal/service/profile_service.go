package service

import (
	"context"
	"strings"

	"pinkbook/internal/models"
	"pinkbook/internal/repository"
)

const (
	maxNicknameLen = 30
	maxBioLen      = 500
)

// ProfileService fronts the singleton profile record and keeps its avatar
// reference durable.
type ProfileService struct {
	profile repository.ProfileStore
	images  repository.ImageRepository
}

type UpdateProfileInput struct {
	Avatar   string
	Nickname string
	Bio      string
}

func NewProfileService(profile repository.ProfileStore, images repository.ImageRepository) *ProfileService {
	return &ProfileService{profile: profile, images: images}
}

func (s *ProfileService) Get(ctx context.Context) models.UserProfile {
	return s.profile.Get(ctx)
}

// Update merges the input over the stored record. Blank fields keep their
// current value; a new avatar is persisted before the record is written.
func (s *ProfileService) Update(ctx context.Context, in UpdateProfileInput) (models.UserProfile, error) {
	if len(in.Nickname) > maxNicknameLen {
		return models.UserProfile{}, models.NewValidationError("Nickname too long (max 30 characters)")
	}
	if len(in.Bio) > maxBioLen {
		return models.UserProfile{}, models.NewValidationError("Bio too long (max 500 characters)")
	}

	current := s.profile.Get(ctx)
	if in.Nickname != "" {
		current.Nickname = in.Nickname
	}
	if in.Bio != "" {
		current.Bio = in.Bio
	}
	if strings.TrimSpace(in.Avatar) != "" {
		current.Avatar = s.images.Persist(ctx, in.Avatar)
	}

	if err := s.profile.Save(ctx, current); err != nil {
		return models.UserProfile{}, err
	}
	return s.profile.Get(ctx), nil
}

// OwnedPosts lists the profile's posts with renderable image references.
func (s *ProfileService) OwnedPosts(ctx context.Context) []models.Post {
	posts := s.profile.ListOwnedPosts(ctx)
	for i := range posts {
		resolved := make([]string, 0, len(posts[i].Images))
		for _, ref := range posts[i].Images {
			if r := s.images.Resolve(ctx, ref); r != "" {
				resolved = append(resolved, r)
			}
		}
		posts[i].Images = resolved
	}
	return posts
}
