// Package health answers liveness probes for the catalog service.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"gorm.io/gorm"
)

const pingTimeout = 5 * time.Second

// Report is the body of GET /healthz.
type Report struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  Database  `json:"database"`
}

// Database describes the catalog connection pool.
type Database struct {
	Status  string `json:"status"`
	Dialect string `json:"dialect"`
	Open    int    `json:"open_connections"`
	InUse   int    `json:"in_use"`
	Idle    int    `json:"idle"`
	Message string `json:"message,omitempty"`
}

// Check pings the catalog database. It answers 200 when the ping succeeds
// and 503 otherwise; pool statistics are included either way.
func Check(gormDB *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := Report{
			Status:    "ok",
			Timestamp: time.Now().UTC(),
			Database:  probe(r.Context(), gormDB),
		}

		status := http.StatusOK
		if report.Database.Status != "ok" {
			report.Status = "degraded"
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(report); err != nil {
			slog.ErrorContext(r.Context(), "Failed to encode health report", slog.Any("error", err))
		}
	}
}

func probe(ctx context.Context, gormDB *gorm.DB) Database {
	d := Database{Status: "ok", Dialect: gormDB.Dialector.Name()}

	sqlDB, err := gormDB.DB()
	if err != nil {
		d.Status, d.Message = "error", "no database handle"
		return d
	}

	stats := sqlDB.Stats()
	d.Open, d.InUse, d.Idle = stats.OpenConnections, stats.InUse, stats.Idle

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		slog.WarnContext(ctx, "Catalog database ping failed", slog.Any("error", err))
		d.Status, d.Message = "error", "database unreachable"
	}
	return d
}
