package model

import "time"

// EnrichmentStatus tracks the optional voice generation for a reminder.
type EnrichmentStatus string

const (
	// EnrichmentNone means no voice generation was requested.
	EnrichmentNone EnrichmentStatus = "none"
	// EnrichmentGenerating means the voice backend call is in progress.
	EnrichmentGenerating EnrichmentStatus = "generating"
	// EnrichmentAttached means generated audio is attached to the reminder.
	EnrichmentAttached EnrichmentStatus = "attached"
	// EnrichmentFailed means the voice backend call failed; see EnrichmentError.
	EnrichmentFailed EnrichmentStatus = "failed"
)

func (s EnrichmentStatus) IsValid() bool {
	switch s {
	case EnrichmentNone, EnrichmentGenerating, EnrichmentAttached, EnrichmentFailed:
		return true
	}
	return false
}

// Reminder is a user-created reminder with an optional voice call.
// Seq only exists to keep insertion order stable across databases.
type Reminder struct {
	Seq                 uint             `gorm:"primaryKey" json:"-"`
	ID                  string           `gorm:"uniqueIndex;size:36;not null" json:"id"`
	Title               string           `gorm:"type:text;not null" json:"title"`
	Description         string           `gorm:"type:text" json:"description"`
	Date                time.Time        `gorm:"index;not null" json:"date"`
	RemindWithCall      bool             `gorm:"not null" json:"remindWithCall"`
	SelectedAudioFileID *string          `gorm:"type:text" json:"selectedAudioFileId"`
	GeneratedAudio      *AudioAsset      `gorm:"serializer:json;type:text" json:"generatedAudio,omitempty"`
	EnrichmentStatus    EnrichmentStatus `gorm:"size:16;not null" json:"enrichmentStatus"`
	EnrichmentError     string           `gorm:"type:text" json:"enrichmentError,omitempty"`
	CreatedAt           time.Time        `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt           time.Time        `gorm:"autoUpdateTime" json:"updatedAt"`
}

// ReminderPatch holds a partial update. Nil fields are left untouched.
// ClearSelectedAudio and ClearGeneratedAudio remove a reference, which a
// nil pointer field cannot express.
type ReminderPatch struct {
	Title               *string
	Description         *string
	Date                *time.Time
	RemindWithCall      *bool
	SelectedAudioFileID *string
	ClearSelectedAudio  bool
	GeneratedAudio      *AudioAsset
	ClearGeneratedAudio bool
	EnrichmentStatus    *EnrichmentStatus
	EnrichmentError     *string
}

// Apply merges the patch into r.
func (p ReminderPatch) Apply(r *Reminder) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.RemindWithCall != nil {
		r.RemindWithCall = *p.RemindWithCall
	}
	if p.ClearSelectedAudio {
		r.SelectedAudioFileID = nil
	} else if p.SelectedAudioFileID != nil {
		id := *p.SelectedAudioFileID
		r.SelectedAudioFileID = &id
	}
	if p.ClearGeneratedAudio {
		r.GeneratedAudio = nil
	} else if p.GeneratedAudio != nil {
		audio := *p.GeneratedAudio
		r.GeneratedAudio = &audio
	}
	if p.EnrichmentStatus != nil {
		r.EnrichmentStatus = *p.EnrichmentStatus
	}
	if p.EnrichmentError != nil {
		r.EnrichmentError = *p.EnrichmentError
	}
}

// Clone returns a deep copy so callers cannot mutate stored pointers.
func (r Reminder) Clone() Reminder {
	out := r
	if r.SelectedAudioFileID != nil {
		id := *r.SelectedAudioFileID
		out.SelectedAudioFileID = &id
	}
	if r.GeneratedAudio != nil {
		audio := *r.GeneratedAudio
		out.GeneratedAudio = &audio
	}
	return out
}

// SelectedAudio returns the selected audio id or "".
func (r Reminder) SelectedAudio() string {
	if r.SelectedAudioFileID == nil {
		return ""
	}
	return *r.SelectedAudioFileID
}
