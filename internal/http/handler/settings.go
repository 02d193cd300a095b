package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type phoneStore interface {
	PhoneNumber() string
	SetPhoneNumber(number string) (string, error)
	ClearPhoneNumber()
}

// SettingsHandler serves /settings.
type SettingsHandler struct {
	Store phoneStore
	Log   *slog.Logger
}

type phoneBody struct {
	PhoneNumber *string `json:"phoneNumber"`
}

func (h *SettingsHandler) GetPhone(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, phoneResponse(h.Store.PhoneNumber()))
}

func (h *SettingsHandler) PutPhone(w http.ResponseWriter, r *http.Request) {
	var req phoneBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PhoneNumber == nil {
		badRequest(w, "Phone Number Not Saved", "Send a JSON body with phoneNumber.")
		return
	}
	number, err := h.Store.SetPhoneNumber(*req.PhoneNumber)
	if err != nil {
		writeError(w, r, h.Log, "Phone Number Not Saved", err)
		return
	}
	writeJSON(w, http.StatusOK, phoneResponse(number))
}

func (h *SettingsHandler) DeletePhone(w http.ResponseWriter, r *http.Request) {
	h.Store.ClearPhoneNumber()
	w.WriteHeader(http.StatusNoContent)
}

func phoneResponse(number string) phoneBody {
	if number == "" {
		return phoneBody{}
	}
	return phoneBody{PhoneNumber: &number}
}
