package repository

import (
	"context"
	"log/slog"
	"sync"

	"pinkbook/internal/kvstore"
	"pinkbook/internal/models"
	"pinkbook/internal/observability"
)

// postsKey is the stable key the post collection lives under. It must not
// change: existing installs address their data by it.
const postsKey = "posts"

// PostRepository stores the global ordered post collection, newest first.
// The newest-first ordering is persisted, not applied at read time.
type PostRepository interface {
	ListAll(ctx context.Context) []models.Post
	SaveAll(ctx context.Context, posts []models.Post) error
	Add(ctx context.Context, post models.Post) error
}

type postRepository struct {
	kv     kvstore.Store
	logger *slog.Logger

	// mu serializes read-modify-write cycles on the posts blob. Without it,
	// two concurrent Adds race and the later whole-collection write silently
	// discards the earlier one.
	mu sync.Mutex
}

// NewPostRepository returns a PostRepository backed by the given store.
func NewPostRepository(kv kvstore.Store) PostRepository {
	return &postRepository{kv: kv, logger: observability.Logger}
}

func (r *postRepository) ListAll(ctx context.Context) []models.Post {
	return loadCollection[models.Post](ctx, r.kv, r.logger, postsKey)
}

func (r *postRepository) SaveAll(ctx context.Context, posts []models.Post) error {
	return storeCollection(ctx, r.kv, postsKey, posts)
}

func (r *postRepository) Add(ctx context.Context, post models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	posts := r.ListAll(ctx)
	posts = append([]models.Post{post}, posts...)
	if err := r.SaveAll(ctx, posts); err != nil {
		return err
	}
	observability.PostsPublished.Inc()
	return nil
}
