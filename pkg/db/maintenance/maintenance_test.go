package maintenance

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ficonsole/pkg/db"
)

func TestMaintenance(t *testing.T) {
	// Setup DB
	tempDir := t.TempDir()
	d, err := db.Init(filepath.Join(tempDir, "maint_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	ctx := context.Background()

	// 40 days old and fresh
	if err := d.BeginSession(ctx, "old", time.Now().Add(-40*24*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := d.BeginSession(ctx, "fresh", time.Now()); err != nil {
		t.Fatal(err)
	}

	// Zero retention is a no-op
	if err := Run(ctx, d, 0); err != nil {
		t.Fatal(err)
	}
	if got := count(t, d); got != 2 {
		t.Fatalf("Expected 2 sessions after no-op run, got %d", got)
	}

	if err := Run(ctx, d, 30*24*time.Hour); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := count(t, d); got != 1 {
		t.Errorf("Expected 1 session after pruning, got %d", got)
	}
}

func count(t *testing.T, d *db.DB) int {
	t.Helper()
	var n int
	if err := d.QueryRow("SELECT count(*) FROM sessions").Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}
