package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gtm9/remi-ai-v1/internal/flow"
	"github.com/gtm9/remi-ai-v1/internal/model"
)

type reminderFlow interface {
	AddReminder(ctx context.Context, in flow.AddReminderInput) (flow.Result, error)
	UpdateReminder(ctx context.Context, id string, in flow.UpdateReminderInput) (flow.Result, error)
	RemoveReminder(ctx context.Context, id string) error
}

type reminderReader interface {
	List(ctx context.Context) ([]model.Reminder, error)
	GetByID(ctx context.Context, id string) (model.Reminder, error)
}

// ReminderHandler serves /reminders.
type ReminderHandler struct {
	Flow  reminderFlow
	Store reminderReader
	Log   *slog.Logger
}

type createReminderReq struct {
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Date                time.Time `json:"date"`
	RemindWithCall      bool      `json:"remindWithCall"`
	SelectedAudioFileID *string   `json:"selectedAudioFileId"`
}

type updateReminderReq struct {
	Title               *string    `json:"title"`
	Description         *string    `json:"description"`
	Date                *time.Time `json:"date"`
	RemindWithCall      *bool      `json:"remindWithCall"`
	SelectedAudioFileID *string    `json:"selectedAudioFileId"`
}

func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	reminders, err := h.Store.List(r.Context())
	if err != nil {
		writeError(w, r, h.Log, "Could Not Load Reminders", err)
		return
	}
	if reminders == nil {
		reminders = []model.Reminder{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reminders": reminders})
}

func (h *ReminderHandler) Get(w http.ResponseWriter, r *http.Request) {
	rem, err := h.Store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, "Reminder Not Available", err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReminderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Add Reminder Failed", "The request body is not valid JSON.")
		return
	}

	in := flow.AddReminderInput{
		Title:          req.Title,
		Description:    req.Description,
		Date:           req.Date,
		RemindWithCall: req.RemindWithCall,
	}
	if req.SelectedAudioFileID != nil {
		in.SelectedAudioFileID = *req.SelectedAudioFileID
	}

	res, err := h.Flow.AddReminder(r.Context(), in)
	if err != nil {
		writeError(w, r, h.Log, "Add Reminder Failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, withAlerts(res))
}

func (h *ReminderHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateReminderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "Update Failed", "The request body is not valid JSON.")
		return
	}

	res, err := h.Flow.UpdateReminder(r.Context(), chi.URLParam(r, "id"), flow.UpdateReminderInput{
		Title:               req.Title,
		Description:         req.Description,
		Date:                req.Date,
		RemindWithCall:      req.RemindWithCall,
		SelectedAudioFileID: req.SelectedAudioFileID,
	})
	if err != nil {
		writeError(w, r, h.Log, "Update Failed", err)
		return
	}
	writeJSON(w, http.StatusOK, withAlerts(res))
}

func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Flow.RemoveReminder(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.Log, "Delete Failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// withAlerts keeps "alerts" an array in the JSON output.
func withAlerts(res flow.Result) flow.Result {
	if res.Alerts == nil {
		res.Alerts = []model.Alert{}
	}
	return res
}
