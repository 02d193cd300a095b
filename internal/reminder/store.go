package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gtm9/remi-ai-v1/internal/model"
	"gorm.io/gorm"
)

// Store keeps reminders in insertion order.
type Store struct {
	db  *gorm.DB
	log *slog.Logger
}

// NewStore creates a reminder store on an already migrated database.
func NewStore(db *gorm.DB, log *slog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With("component", "reminder_store"),
	}
}

// Add assigns an identifier if absent, appends the reminder and returns the stored record.
func (s *Store) Add(ctx context.Context, r model.Reminder) (model.Reminder, error) {
	r = r.Clone()
	r.Seq = 0
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.EnrichmentStatus == "" {
		r.EnrichmentStatus = model.EnrichmentNone
	}
	r.Date = r.Date.UTC()

	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return model.Reminder{}, fmt.Errorf("add reminder: %w", err)
	}

	s.log.DebugContext(ctx, "reminder added", slog.String("reminder_id", r.ID))
	return r.Clone(), nil
}

// GetByID returns model.ErrNotFound when no reminder has the id.
func (s *Store) GetByID(ctx context.Context, id string) (model.Reminder, error) {
	r, err := getByID(s.db.WithContext(ctx), id)
	if err != nil {
		return model.Reminder{}, err
	}
	return r, nil
}

// Update merges patch into the matching reminder and returns the result.
func (s *Store) Update(ctx context.Context, id string, patch model.ReminderPatch) (model.Reminder, error) {
	var updated model.Reminder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := getByID(tx, id)
		if err != nil {
			return err
		}
		patch.Apply(&r)
		r.Date = r.Date.UTC()
		if err := tx.Save(&r).Error; err != nil {
			return fmt.Errorf("update reminder %s: %w", id, err)
		}
		updated = r
		return nil
	})
	if err != nil {
		return model.Reminder{}, err
	}

	s.log.DebugContext(ctx, "reminder updated", slog.String("reminder_id", id))
	return updated.Clone(), nil
}

// Remove deletes the reminder. Removing an unknown id is a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Reminder{})
	if res.Error != nil {
		return fmt.Errorf("remove reminder %s: %w", id, res.Error)
	}
	if res.RowsAffected > 0 {
		s.log.DebugContext(ctx, "reminder removed", slog.String("reminder_id", id))
	}
	return nil
}

// List returns a snapshot of all reminders in insertion order.
func (s *Store) List(ctx context.Context) ([]model.Reminder, error) {
	var reminders []model.Reminder
	if err := s.db.WithContext(ctx).Order("seq ASC").Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	return reminders, nil
}

// ListUpcoming returns reminders due after the given instant, in insertion order.
func (s *Store) ListUpcoming(ctx context.Context, after time.Time) ([]model.Reminder, error) {
	var reminders []model.Reminder
	if err := s.db.WithContext(ctx).
		Where("date > ?", after.UTC()).
		Order("seq ASC").
		Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("list upcoming reminders: %w", err)
	}
	return reminders, nil
}

func getByID(db *gorm.DB, id string) (model.Reminder, error) {
	var r model.Reminder
	if err := db.Where("id = ?", id).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Reminder{}, fmt.Errorf("reminder %s: %w", id, model.ErrNotFound)
		}
		return model.Reminder{}, fmt.Errorf("get reminder %s: %w", id, err)
	}
	return r, nil
}
