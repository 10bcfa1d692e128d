package service

import (
	"context"
	"strings"
	"time"

	"pinkbook/internal/models"
	"pinkbook/internal/repository"
)

// DefaultPostTitle is substituted when a post is published without one.
const DefaultPostTitle = "New post"

const (
	maxTitleLen   = 120
	maxSummaryLen = 2000
	maxPostImages = 9
)

// FeedService composes the post collection with image resolution: posts go
// out with renderable image references and come in with durable ones.
type FeedService struct {
	posts  repository.PostRepository
	images repository.ImageRepository
}

type PublishInput struct {
	Title   string
	Summary string
	Images  []string
}

func NewFeedService(posts repository.PostRepository, images repository.ImageRepository) *FeedService {
	return &FeedService{posts: posts, images: images}
}

// List returns the feed newest-first. A non-empty query keeps only posts
// whose title or summary contains it, case-insensitively.
func (s *FeedService) List(ctx context.Context, query string) []models.Post {
	posts := s.posts.ListAll(ctx)

	query = strings.ToLower(strings.TrimSpace(query))
	if query != "" {
		filtered := make([]models.Post, 0, len(posts))
		for _, p := range posts {
			if strings.Contains(strings.ToLower(p.Title), query) ||
				strings.Contains(strings.ToLower(p.Summary), query) {
				filtered = append(filtered, p)
			}
		}
		posts = filtered
	}

	for i := range posts {
		posts[i].Images = s.resolveAll(ctx, posts[i].Images)
	}
	return posts
}

func (s *FeedService) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	for _, p := range s.posts.ListAll(ctx) {
		if p.ID == id {
			p.Images = s.resolveAll(ctx, p.Images)
			return &p, nil
		}
	}
	return nil, models.NewNotFoundError("Post", id)
}

// Publish persists the attachments first, then prepends the post so the feed
// never references an image that only exists in picker cache.
func (s *FeedService) Publish(ctx context.Context, in PublishInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = DefaultPostTitle
	}
	if len(title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 120 characters)")
	}
	if len(in.Summary) > maxSummaryLen {
		return nil, models.NewValidationError("Summary too long (max 2000 characters)")
	}
	if len(in.Images) > maxPostImages {
		return nil, models.NewValidationError("Too many images (max 9)")
	}

	post := models.Post{
		ID:      time.Now().UnixMilli(),
		Title:   title,
		Summary: in.Summary,
		Images:  s.images.PersistAll(ctx, in.Images),
	}
	if err := s.posts.Add(ctx, post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *FeedService) resolveAll(ctx context.Context, refs []string) []string {
	if len(refs) == 0 {
		return refs
	}
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if resolved := s.images.Resolve(ctx, ref); resolved != "" {
			out = append(out, resolved)
		}
	}
	return out
}
