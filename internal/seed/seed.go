// Package seed provides store seeding utilities for development and testing.
package seed

import (
	"context"
	"fmt"
	"log"

	"pinkbook/internal/kvstore"
	"pinkbook/internal/models"
	"pinkbook/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
)

// Options configuration for the seeder.
type Options struct {
	NumUsers int
	NumPosts int
	// WithProfile also writes a generated display profile.
	WithProfile bool
}

// Seeder populates the store through the same repositories the API uses, so
// seeded data obeys the collection formats and ordering.
type Seeder struct {
	users   repository.UserDirectory
	posts   repository.PostRepository
	profile repository.ProfileStore
}

// NewSeeder builds a Seeder over the given store.
func NewSeeder(kv kvstore.Store) *Seeder {
	images := repository.NewImageRepository(kv, repository.ImageConfig{Encoded: true})
	posts := repository.NewPostRepository(kv)
	return &Seeder{
		users:   repository.NewUserDirectory(kv),
		posts:   posts,
		profile: repository.NewProfileStore(kv, images, posts),
	}
}

// Run seeds users and posts, returning how many of each were created.
func (s *Seeder) Run(ctx context.Context, opts Options) (int, int, error) {
	usersCreated := 0
	for i := 0; i < opts.NumUsers; i++ {
		result := s.users.Register(ctx, models.User{
			Email:    gofakeit.Email(),
			Phone:    gofakeit.Phone(),
			Password: gofakeit.Password(true, true, true, false, false, 12),
		})
		if result.Accepted {
			usersCreated++
			continue
		}
		// Generated collisions are harmless; anything else is a real failure.
		if result.Reason != repository.ReasonDuplicateAccount {
			return usersCreated, 0, fmt.Errorf("seeding user %d: %s", i, result.Reason)
		}
	}

	postsCreated := 0
	for i := 0; i < opts.NumPosts; i++ {
		post := models.Post{
			ID:      int64(gofakeit.Number(1_600_000_000_000, 1_700_000_000_000)) + int64(i),
			Title:   gofakeit.Sentence(4),
			Summary: gofakeit.Paragraph(1, 3, 12, " "),
		}
		if err := s.posts.Add(ctx, post); err != nil {
			return usersCreated, postsCreated, fmt.Errorf("seeding post %d: %w", i, err)
		}
		postsCreated++
	}

	if opts.WithProfile {
		if err := s.profile.Save(ctx, models.UserProfile{
			Nickname: gofakeit.Username(),
			Bio:      gofakeit.Quote(),
		}); err != nil {
			return usersCreated, postsCreated, fmt.Errorf("seeding profile: %w", err)
		}
	}

	log.Printf("Seeded %d users and %d posts", usersCreated, postsCreated)
	return usersCreated, postsCreated, nil
}
