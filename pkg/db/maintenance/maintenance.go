package maintenance

import (
	"context"
	"log/slog"
	"time"

	"ficonsole/pkg/db"
)

// Run executes startup maintenance on the session database.
// A zero retention keeps everything. Failures are logged, never fatal.
func Run(ctx context.Context, d *db.DB, retention time.Duration) error {
	if retention <= 0 {
		return nil
	}
	slog.Info("Starting database maintenance...", "retention", retention)

	n, err := d.PruneSessions(ctx, retention)
	if err != nil {
		slog.Error("Session pruning failed", "error", err)
		return nil
	}
	slog.Info("Session pruning completed", "removed", n)
	return nil
}
