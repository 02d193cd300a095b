package database

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/gtm9/remi-ai-v1/internal/model"
)

func TestNewSQLite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reminders.db")
	db, err := New("", path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if !db.Migrator().HasTable(&model.Reminder{}) {
		t.Fatalf("expected reminders table to exist")
	}
	if err := (Pinger{DB: db}).Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	sqlDB, _ := db.DB()
	_ = sqlDB.Close()
}
