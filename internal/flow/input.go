package flow

import (
	"strings"
	"time"

	"github.com/gtm9/remi-ai-v1/internal/model"
)

// AddReminderInput holds the fields of the add reminder form.
type AddReminderInput struct {
	Title               string
	Description         string
	Date                time.Time
	RemindWithCall      bool
	SelectedAudioFileID string
}

// Validate checks the input before anything is stored.
func (i AddReminderInput) Validate() error {
	var errs []model.FieldError

	if strings.TrimSpace(i.Title) == "" {
		errs = append(errs, model.FieldError{Field: "title", Message: "required"})
	}
	if i.Date.IsZero() {
		errs = append(errs, model.FieldError{Field: "date", Message: "required"})
	}
	if i.RemindWithCall && strings.TrimSpace(i.SelectedAudioFileID) == "" {
		errs = append(errs, model.FieldError{Field: "selected_audio_file_id", Message: "required when remind with call is on"})
	}

	if len(errs) > 0 {
		return &model.ValidationError{Errors: errs}
	}
	return nil
}

// UpdateReminderInput holds a detail-edit change. Nil fields are kept.
type UpdateReminderInput struct {
	Title               *string
	Description         *string
	Date                *time.Time
	RemindWithCall      *bool
	SelectedAudioFileID *string
}

// Validate checks the change against the current reminder.
func (i UpdateReminderInput) Validate(current model.Reminder) error {
	var errs []model.FieldError

	if i.Title != nil && strings.TrimSpace(*i.Title) == "" {
		errs = append(errs, model.FieldError{Field: "title", Message: "required"})
	}
	if i.Date != nil && i.Date.IsZero() {
		errs = append(errs, model.FieldError{Field: "date", Message: "required"})
	}

	withCall := current.RemindWithCall
	if i.RemindWithCall != nil {
		withCall = *i.RemindWithCall
	}
	selected := current.SelectedAudio()
	if i.SelectedAudioFileID != nil {
		selected = strings.TrimSpace(*i.SelectedAudioFileID)
	}
	if withCall && selected == "" {
		errs = append(errs, model.FieldError{Field: "selected_audio_file_id", Message: "required when remind with call is on"})
	}

	if len(errs) > 0 {
		return &model.ValidationError{Errors: errs}
	}
	return nil
}

func (i UpdateReminderInput) patch() model.ReminderPatch {
	p := model.ReminderPatch{
		Title:          i.Title,
		Description:    i.Description,
		Date:           i.Date,
		RemindWithCall: i.RemindWithCall,
	}
	if i.Title != nil {
		title := strings.TrimSpace(*i.Title)
		p.Title = &title
	}
	if i.SelectedAudioFileID != nil {
		if id := strings.TrimSpace(*i.SelectedAudioFileID); id == "" {
			p.ClearSelectedAudio = true
		} else {
			p.SelectedAudioFileID = &id
		}
	}
	return p
}
