package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"

	"cadence/internal/middleware"
	"cadence/internal/observability"

	"github.com/google/uuid"
)

// Stage groups the blob side of one database unit of work. Puts happen
// before the transaction and are purged by Abort; DeleteLater keys are only
// removed by Commit, after the transaction succeeded.
type Stage struct {
	store BlobStore

	mu      sync.Mutex
	puts    []string
	deletes []string
	done    bool
}

// NewStage starts an empty stage on store.
func NewStage(store BlobStore) *Stage {
	return &Stage{store: store}
}

// Put stores u under prefix with a fresh key. Image dimensions are probed
// best effort.
func (s *Stage) Put(ctx context.Context, prefix string, u Upload) (Object, error) {
	if u.Open == nil {
		return Object{}, fmt.Errorf("upload %q has no content", u.Filename)
	}
	rc, err := u.Open()
	if err != nil {
		return Object{}, fmt.Errorf("open upload %q: %w", u.Filename, err)
	}
	defer rc.Close()

	var (
		body          io.Reader = rc
		size                    = u.Size
		width, height int
	)
	if strings.HasPrefix(strings.ToLower(u.ContentType), "image/") {
		data, err := io.ReadAll(rc)
		if err != nil {
			return Object{}, fmt.Errorf("read upload %q: %w", u.Filename, err)
		}
		width, height, _ = ProbeImage(bytes.NewReader(data))
		body = bytes.NewReader(data)
		size = int64(len(data))
	}

	key := newKey(prefix, u.Filename)
	obj, err := s.store.Put(ctx, key, body, size, u.ContentType)
	observability.BlobOperations.WithLabelValues("put", observability.BlobResult(err)).Inc()
	if err != nil {
		return Object{}, err
	}
	obj.Width, obj.Height = width, height

	s.mu.Lock()
	s.puts = append(s.puts, obj.Key)
	s.mu.Unlock()
	return obj, nil
}

// DeleteLater schedules keys for removal on Commit. Empty keys are ignored.
func (s *Stage) DeleteLater(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		if k != "" {
			s.deletes = append(s.deletes, k)
		}
	}
}

// Commit runs the deferred deletes. Failures are logged and counted; the
// database state they belong to is already committed.
func (s *Stage) Commit(ctx context.Context) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	deletes := s.deletes
	s.mu.Unlock()

	for _, key := range deletes {
		s.remove(ctx, key, "deferred blob delete failed")
	}
}

// Abort purges every blob written through Put. Calling Abort after Commit is a no-op,
// so it can be deferred unconditionally.
func (s *Stage) Abort(ctx context.Context) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	puts := s.puts
	s.mu.Unlock()

	for _, key := range puts {
		s.remove(ctx, key, "staged blob purge failed")
	}
}

func (s *Stage) remove(ctx context.Context, key, msg string) {
	err := s.store.Delete(ctx, key)
	observability.BlobOperations.WithLabelValues("delete", observability.BlobResult(err)).Inc()
	if err != nil {
		middleware.Logger.WarnContext(ctx, msg, slog.String("key", key), slog.String("error", err.Error()))
	}
}

func newKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(filename, "\\", "/")))
	if len(ext) > 10 || strings.ContainsAny(ext, " /") {
		ext = ""
	}
	name := uuid.NewString() + ext
	if prefix == "" {
		return name
	}
	return strings.Trim(prefix, "/") + "/" + name
}
