package logging

import (
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/goodie-backend/internal/models"
	"gorm.io/gorm"
)

const logRetention = 30 * 24 * time.Hour

// StartCleanup runs a daily goroutine that deletes system_logs past retention.
func StartCleanup(db *gorm.DB, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := PurgeBefore(db, time.Now().Add(-logRetention)); err != nil {
					slog.Error("log cleanup failed", "error", err)
				} else if n > 0 {
					slog.Info("log cleanup completed", "deleted", n)
				}
			case <-done:
				return
			}
		}
	}()
}

// PurgeBefore deletes log rows older than cutoff.
func PurgeBefore(db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}
