package repository

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"pinkbook/internal/kvstore"
	"pinkbook/internal/observability"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// mappingKey is the stable key of the transient-to-permanent translation
	// table on filesystem hosts.
	mappingKey = "image_mapping"

	// encodedKeyPrefix marks opaque keys whose value is a data-URI blob
	// stored directly in the key-value store.
	encodedKeyPrefix = "local_img_"

	dataURIPrefix = "data:image/"

	jpegQuality = 82
	webpQuality = 70
)

// permanentNamePattern matches filenames produced by the filesystem persist
// path. A reference whose base name matches is already durable and must be
// returned unchanged.
var permanentNamePattern = regexp.MustCompile(`^image_\d+_\d+\.jpg$`)

// ImageRepository converts ephemeral picker-supplied image references into
// references that survive a restart, and resolves stored references back into
// something the rendering layer can load.
//
// No method returns an error. Every failure degrades to "best-known
// reference" and is logged; the feed staying renderable matters more here
// than any individual image. Callers that need to distinguish a dangling
// reference must do so at render time.
type ImageRepository interface {
	Persist(ctx context.Context, ref string) string
	PersistAll(ctx context.Context, refs []string) []string
	Resolve(ctx context.Context, ref string) string
}

// ImageConfig carries the explicit platform capability and layout settings an
// image repository is constructed with.
type ImageConfig struct {
	// Encoded selects the data-URI path for hosts without an addressable
	// filesystem. When false, attachments are copied under Dir.
	Encoded bool
	// Dir is the permanent image directory for the filesystem path.
	Dir string
	// MaxDim bounds the longer edge of re-encoded images on the encoded
	// path; zero disables downscaling.
	MaxDim int
	// FetchTimeout bounds remote source reads. The zero value means 10s.
	FetchTimeout time.Duration
}

type imageRepository struct {
	kv     kvstore.Store
	cfg    ImageConfig
	logger *slog.Logger
	client *http.Client

	// mu serializes read-modify-write cycles on the mapping table.
	mu sync.Mutex
}

// NewImageRepository returns an ImageRepository backed by the given store.
func NewImageRepository(kv kvstore.Store, cfg ImageConfig) ImageRepository {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &imageRepository{
		kv:     kv,
		cfg:    cfg,
		logger: observability.Logger,
		client: &http.Client{Timeout: timeout},
	}
}

func (r *imageRepository) Persist(ctx context.Context, ref string) string {
	if strings.TrimSpace(ref) == "" {
		return ref
	}
	if r.cfg.Encoded {
		return r.persistEncoded(ctx, ref)
	}
	return r.persistFilesystem(ctx, ref)
}

// PersistAll persists each reference concurrently. References that fail
// pre-validation are skipped and persist results that come back empty are
// dropped, so the output may be shorter than the input.
func (r *imageRepository) PersistAll(ctx context.Context, refs []string) []string {
	candidates := make([]string, 0, len(refs))
	for _, ref := range refs {
		if strings.TrimSpace(ref) != "" {
			candidates = append(candidates, ref)
		}
	}

	results := make([]string, len(candidates))
	var wg sync.WaitGroup
	for i, ref := range candidates {
		wg.Add(1)
		go func(i int, ref string) {
			defer wg.Done()
			results[i] = r.Persist(ctx, ref)
		}(i, ref)
	}
	wg.Wait()

	out := make([]string, 0, len(results))
	for _, ref := range results {
		if ref != "" {
			out = append(out, ref)
		}
	}
	return out
}

func (r *imageRepository) Resolve(ctx context.Context, ref string) string {
	if ref == "" {
		return ref
	}

	if r.cfg.Encoded {
		if !strings.HasPrefix(ref, encodedKeyPrefix) {
			return ref
		}
		blob, err := r.kv.Get(ctx, ref)
		if err != nil {
			r.logger.Error("encoded image blob missing", "key", ref, "error", err)
			return ""
		}
		return blob
	}

	if isPermanentRef(ref) {
		return ref
	}
	if mapped, ok := r.lookupMapping(ctx, ref); ok {
		return mapped
	}
	// Best-effort fallback: the caller may end up with a dangling transient
	// reference, which renders as a broken image rather than failing the read.
	return ref
}

// ---- filesystem path ----

func (r *imageRepository) persistFilesystem(ctx context.Context, ref string) string {
	if isPermanentRef(ref) {
		return ref
	}
	// An earlier persist of this transient reference already produced a
	// durable copy; reuse it instead of copying again.
	if mapped, ok := r.lookupMapping(ctx, ref); ok && isPermanentRef(mapped) {
		return mapped
	}

	if err := os.MkdirAll(r.cfg.Dir, 0o750); err != nil {
		r.logger.Error("creating image directory failed", "dir", r.cfg.Dir, "error", err)
		observability.ImagePersistFailures.WithLabelValues("filesystem").Inc()
		return ref
	}

	src, err := r.readSource(ctx, ref)
	if err != nil {
		r.logger.Error("reading image source failed", "ref", ref, "error", err)
		observability.ImagePersistFailures.WithLabelValues("filesystem").Inc()
		return ref
	}

	name := permanentFileName()
	dest := filepath.Join(r.cfg.Dir, name)
	if err := os.WriteFile(dest, src, 0o600); err != nil {
		r.logger.Error("copying image failed", "ref", ref, "dest", dest, "error", err)
		observability.ImagePersistFailures.WithLabelValues("filesystem").Inc()
		return ref
	}

	// Record the translation so later resolves of the same transient
	// reference find the durable copy. A mapping write failure is logged but
	// does not undo the copy; the permanent reference is still returned.
	r.recordMapping(ctx, ref, dest)
	return dest
}

func permanentFileName() string {
	return fmt.Sprintf("image_%d_%d.jpg", time.Now().UnixMilli(), rand.Intn(10000))
}

func isPermanentRef(ref string) bool {
	return permanentNamePattern.MatchString(filepath.Base(ref))
}

func (r *imageRepository) lookupMapping(ctx context.Context, ref string) (string, bool) {
	raw, err := r.kv.Get(ctx, mappingKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			r.logger.Error("reading image mapping failed", "error", err)
		}
		return "", false
	}
	var mapping map[string]string
	if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
		r.logger.Warn("discarding malformed image mapping", "error", err)
		return "", false
	}
	mapped, ok := mapping[ref]
	return mapped, ok
}

func (r *imageRepository) recordMapping(ctx context.Context, transient, permanent string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	mapping := map[string]string{}
	if raw, err := r.kv.Get(ctx, mappingKey); err == nil {
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			r.logger.Warn("discarding malformed image mapping", "error", err)
			mapping = map[string]string{}
		}
	}
	mapping[transient] = permanent

	raw, err := json.Marshal(mapping)
	if err != nil {
		r.logger.Error("encoding image mapping failed", "error", err)
		return
	}
	if err := r.kv.Set(ctx, mappingKey, string(raw)); err != nil {
		r.logger.Error("writing image mapping failed", "error", err)
	}
}

// ---- encoded path ----

func (r *imageRepository) persistEncoded(ctx context.Context, ref string) string {
	// Already durable: either a previously generated opaque key or an inline
	// data URI.
	if strings.HasPrefix(ref, encodedKeyPrefix) || strings.HasPrefix(ref, dataURIPrefix) {
		return ref
	}

	src, err := r.readSource(ctx, ref)
	if err != nil {
		r.logger.Error("reading image source failed", "ref", ref, "error", err)
		observability.ImagePersistFailures.WithLabelValues("encoded").Inc()
		return ref
	}

	dataURI, err := r.encodeToDataURI(src)
	if err != nil {
		r.logger.Error("re-encoding image failed", "ref", ref, "error", err)
		observability.ImagePersistFailures.WithLabelValues("encoded").Inc()
		return ref
	}

	key := encodedKeyPrefix + uuid.NewString()
	if err := r.kv.Set(ctx, key, dataURI); err != nil {
		r.logger.Error("storing encoded image failed", "key", key, "error", err)
		observability.ImagePersistFailures.WithLabelValues("encoded").Inc()
		return ref
	}
	return key
}

// encodeToDataURI decodes the source bytes, optionally downscales them, and
// re-encodes to a data URI. WebP sources stay WebP; everything else becomes
// JPEG.
func (r *imageRepository) encodeToDataURI(src []byte) (string, error) {
	decoded, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return "", err
	}
	decoded = resizeToFit(decoded, r.cfg.MaxDim)

	var buf bytes.Buffer
	mime := "image/jpeg"
	if format == "webp" {
		mime = "image/webp"
		if err := webp.Encode(&buf, decoded, &webp.Options{Quality: webpQuality}); err != nil {
			return "", err
		}
	} else {
		if err := jpeg.Encode(&buf, decoded, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}

// resizeToFit scales src down so neither edge exceeds maxDim, preserving
// aspect ratio. Images already within bounds pass through untouched.
func resizeToFit(src image.Image, maxDim int) image.Image {
	if maxDim <= 0 {
		return src
	}
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return src
	}

	scale := float64(maxDim) / float64(w)
	if s := float64(maxDim) / float64(h); s < scale {
		scale = s
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

// readSource loads the bytes behind a transient reference: a local file path
// (optionally file://-prefixed) or an http(s) URL.
func (r *imageRepository) readSource(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return nil, err
		}
		resp, err := r.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetching %s: status %d", ref, resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}

	path := strings.TrimPrefix(ref, "file://")
	return os.ReadFile(path)
}
