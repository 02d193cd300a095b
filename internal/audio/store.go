package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gtm9/remi-ai-v1/internal/model"
	"github.com/gtm9/remi-ai-v1/internal/storage"
)

// Remote is the object storage the store mirrors.
type Remote interface {
	List(ctx context.Context, prefix string) ([]storage.Object, error)
	Upload(ctx context.Context, in storage.UploadRequest) (storage.UploadResult, error)
	Delete(ctx context.Context, key string) error
}

// UploadInput describes a recorded or picked file to upload.
type UploadInput struct {
	Name     string
	FileName string
	Type     model.AudioType
	Duration int64
	Body     io.Reader
}

// Store holds the voice source assets available to reminders.
type Store struct {
	remote        Remote
	prefix        string
	publicBaseURL string
	log           *slog.Logger

	mu       sync.RWMutex
	files    []model.AudioAsset
	loading  int
	deleting map[string]struct{}
}

// NewStore creates an empty store. Call Refresh to load the remote listing.
func NewStore(remote Remote, prefix, publicBaseURL string, log *slog.Logger) *Store {
	return &Store{
		remote:        remote,
		prefix:        prefix,
		publicBaseURL: publicBaseURL,
		log:           log.With("component", "audio_store"),
		deleting:      make(map[string]struct{}),
	}
}

// Refresh replaces the collection with the remote listing.
// On failure the collection is cleared and the error returned.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.loading++
	s.mu.Unlock()

	objects, err := s.remote.List(ctx, s.prefix)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--

	if err != nil {
		s.files = nil
		s.log.ErrorContext(ctx, "refresh audio files", slog.String("error", err.Error()))
		return fmt.Errorf("refresh audio files: %w", err)
	}

	files := make([]model.AudioAsset, 0, len(objects))
	for _, obj := range objects {
		if obj.Key == "" || strings.HasSuffix(obj.Key, "/") {
			continue
		}
		files = append(files, model.AudioAsset{
			ID:   obj.Key,
			Name: obj.Key,
			URI:  storage.PublicURL(s.publicBaseURL, obj.Key),
			Type: model.AudioRemote,
		})
	}
	s.files = files

	s.log.InfoContext(ctx, "audio files refreshed", slog.Int("count", len(files)))
	return nil
}

// Add appends an asset. An asset with the same id is replaced in place.
func (s *Store) Add(asset model.AudioAsset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(asset.ID); i >= 0 {
		s.files[i] = asset
		return
	}
	s.files = append(s.files, asset)
}

// Upload stores a recorded or uploaded file remotely and adds it.
func (s *Store) Upload(ctx context.Context, in UploadInput) (model.AudioAsset, error) {
	if in.Type != model.AudioRecorded && in.Type != model.AudioUploaded {
		return model.AudioAsset{}, model.NewValidationError("type", "must be recorded or uploaded")
	}
	if strings.TrimSpace(in.FileName) == "" {
		return model.AudioAsset{}, model.NewValidationError("file", "is required")
	}
	if in.Name == "" {
		in.Name = path.Base(in.FileName)
	}

	res, err := s.remote.Upload(ctx, storage.UploadRequest{
		FilePath:    s.prefix,
		FileName:    in.Name,
		ID:          string(in.Type) + "_" + uuid.NewString(),
		ContentType: in.Type.ContentType(),
		Body:        in.Body,
	})
	if err != nil {
		return model.AudioAsset{}, fmt.Errorf("upload audio %q: %w", in.Name, err)
	}

	key := res.FileKey
	if key == "" {
		key = strings.TrimRight(s.prefix, "/") + "/" + in.Name
	}
	name := res.Name
	if name == "" {
		name = in.Name
	}
	asset := model.AudioAsset{
		ID:       key,
		Name:     name,
		URI:      storage.PublicURL(s.publicBaseURL, key),
		Type:     in.Type,
		Duration: in.Duration,
	}
	s.Add(asset)

	s.log.InfoContext(ctx, "audio uploaded", slog.String("audio_id", asset.ID), slog.String("type", string(asset.Type)))
	return asset, nil
}

// Remove deletes the asset remotely and, on success, locally.
// A second call for an id whose delete is still running fails with
// model.ErrDeleteInFlight without contacting the remote.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, busy := s.deleting[id]; busy {
		s.mu.Unlock()
		return fmt.Errorf("remove audio %s: %w", id, model.ErrDeleteInFlight)
	}
	if s.indexOf(id) < 0 {
		s.mu.Unlock()
		return fmt.Errorf("audio %s: %w", id, model.ErrNotFound)
	}
	s.deleting[id] = struct{}{}
	s.mu.Unlock()

	err := s.remote.Delete(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deleting, id)

	if err != nil {
		s.log.ErrorContext(ctx, "delete audio", slog.String("audio_id", id), slog.String("error", err.Error()))
		return fmt.Errorf("remove audio %s: %w", id, err)
	}
	if i := s.indexOf(id); i >= 0 {
		s.files = slices.Delete(s.files, i, i+1)
	}

	s.log.InfoContext(ctx, "audio deleted", slog.String("audio_id", id))
	return nil
}

// List returns a copy of the collection.
func (s *Store) List() []model.AudioAsset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.files)
}

// Get returns model.ErrNotFound when no asset has the id.
func (s *Store) Get(id string) (model.AudioAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.files[i], nil
	}
	return model.AudioAsset{}, fmt.Errorf("audio %s: %w", id, model.ErrNotFound)
}

// IsLoading reports whether a refresh is running.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}

// Deleting returns the ids with a delete in flight, sorted.
func (s *Store) Deleting() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.deleting))
	for id := range s.deleting {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.files, func(a model.AudioAsset) bool { return a.ID == id })
}
