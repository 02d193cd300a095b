package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gtm9/remi-ai-v1/internal/audio"
	"github.com/gtm9/remi-ai-v1/internal/model"
)

const maxUploadBytes = 25 << 20

type audioStore interface {
	List() []model.AudioAsset
	IsLoading() bool
	Deleting() []string
	Refresh(ctx context.Context) error
	Upload(ctx context.Context, in audio.UploadInput) (model.AudioAsset, error)
	Remove(ctx context.Context, id string) error
}

// AudioHandler serves /audio.
type AudioHandler struct {
	Store audioStore
	Log   *slog.Logger
}

type audioListResp struct {
	Files    []model.AudioAsset `json:"files"`
	Loading  bool               `json:"loading"`
	Deleting []string           `json:"deleting"`
}

func (h *AudioHandler) List(w http.ResponseWriter, r *http.Request) {
	h.writeList(w)
}

func (h *AudioHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Refresh(r.Context()); err != nil {
		writeError(w, r, h.Log, "Could Not Load Audio Files", err)
		return
	}
	h.writeList(w)
}

// Upload accepts multipart form data with a "file" part and optional
// "name", "type" (recorded or uploaded) and "duration" (ms) fields.
func (h *AudioHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		badRequest(w, "Upload Failed", "Expected multipart form data with a file under 25 MB.")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "Upload Failed", "The file field is missing.")
		return
	}
	defer file.Close()

	typ := model.AudioType(r.FormValue("type"))
	if typ == "" {
		typ = model.AudioUploaded
	}
	var duration int64
	if v := r.FormValue("duration"); v != "" {
		duration, err = strconv.ParseInt(v, 10, 64)
		if err != nil || duration < 0 {
			badRequest(w, "Upload Failed", "duration must be a non-negative number of milliseconds.")
			return
		}
	}

	asset, err := h.Store.Upload(r.Context(), audio.UploadInput{
		Name:     r.FormValue("name"),
		FileName: header.Filename,
		Type:     typ,
		Duration: duration,
		Body:     file,
	})
	if err != nil {
		writeError(w, r, h.Log, "Upload Failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

func (h *AudioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Remove(r.Context(), chi.URLParam(r, "*")); err != nil {
		writeError(w, r, h.Log, "Delete Failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AudioHandler) writeList(w http.ResponseWriter) {
	files := h.Store.List()
	if files == nil {
		files = []model.AudioAsset{}
	}
	writeJSON(w, http.StatusOK, audioListResp{
		Files:    files,
		Loading:  h.Store.IsLoading(),
		Deleting: h.Store.Deleting(),
	})
}
