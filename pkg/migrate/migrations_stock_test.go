package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStockEntriesMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_stock_entries.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no stock entries migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS stock_entries",
		"CHECK (available_qty >= 0)",
		"CHECK (reserved_qty >= 0)",
		"UNIQUE (product_id, location_id)",
		"DROP TABLE IF EXISTS stock_entries",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestNotificationsMigrationContainsState(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_notifications.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no notifications migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS notifications",
		"state TEXT NOT NULL DEFAULT 'active'",
		"idx_notifications_receiver",
		"DROP TABLE IF EXISTS notifications",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
