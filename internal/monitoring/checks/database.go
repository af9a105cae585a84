package checks

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/openmakers/badgegate/internal/models"
	"github.com/openmakers/badgegate/internal/monitoring"
)

const defaultDatabaseTimeout = 2 * time.Second

// Database returns a readiness probe that pings the database and confirms the decision tables
// exist. Details report the pool usage.
func Database(db *gorm.DB, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if db == nil {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDown,
				Details:  "database not configured",
				Duration: time.Since(start),
			}
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultDatabaseTimeout))
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(probeCtx)
		}
		if err != nil {
			return monitoring.ResultFromError("database", err, time.Since(start))
		}

		migrator := db.WithContext(probeCtx).Migrator()
		for _, table := range []interface{}{&models.Member{}, &models.Badge{}, &models.AccessLog{}} {
			if !migrator.HasTable(table) {
				return monitoring.ProbeResult{
					Status:   monitoring.StatusDown,
					Details:  fmt.Sprintf("schema not migrated: missing %T", table),
					Duration: time.Since(start),
				}
			}
		}

		stats := sqlDB.Stats()
		return monitoring.ProbeResult{
			Status:   monitoring.StatusUp,
			Details:  fmt.Sprintf("open=%d in_use=%d", stats.OpenConnections, stats.InUse),
			Duration: time.Since(start),
		}
	})
}

func chooseTimeout(provided, fallback time.Duration) time.Duration {
	if provided <= 0 {
		return fallback
	}
	return provided
}
