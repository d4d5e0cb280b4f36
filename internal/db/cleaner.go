package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartAbandonedCartCleaner removes cart items untouched for longer than
// the retention window, on the given interval.
func StartAbandonedCartCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-retention)
				res, err := db.ExecContext(ctx, `
                    DELETE FROM cart_items
                     WHERE updated_at < $1
                `, cutoff)
				if err != nil {
					log.Error("failed to clean abandoned cart items", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("cleaned abandoned cart items", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
