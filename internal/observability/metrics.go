package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// KVStoreErrors counts key-value store errors by backend and operation.
	KVStoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pinkbook_kvstore_errors_total",
		Help: "Total number of key-value store errors by backend and operation",
	}, []string{"backend", "operation"})

	// ImagePersistFailures counts image persistence attempts that degraded to
	// returning the original transient reference.
	ImagePersistFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pinkbook_image_persist_failures_total",
		Help: "Total number of image persist operations that fell back to the transient reference",
	}, []string{"mode"})

	// PostsPublished counts posts accepted through the publish flow.
	PostsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pinkbook_posts_published_total",
		Help: "Total number of posts published",
	})
)
