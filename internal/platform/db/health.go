package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats is the connection pool portion of the health report.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
	Healthy         bool   `json:"healthy"`
}

// HealthReport is the payload served on /health/db. It separates liveness
// (can the database be pinged) from saturation (pool numbers), so a down
// database and an exhausted pool are distinguishable from the outside.
type HealthReport struct {
	Status string     `json:"status"`
	Error  string     `json:"error,omitempty"`
	PingMS int64      `json:"ping_ms"`
	Pool   *PoolStats `json:"pool"`
}

// GetPoolStats snapshots the pool counters.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
		Healthy:         stat.TotalConns() > 0,
	}
}

// buildHealthReport assembles the report from a stats snapshot and the ping
// outcome. Pure so it is testable without a live pool.
func buildHealthReport(stats *PoolStats, pingErr error, latency time.Duration) HealthReport {
	report := HealthReport{
		Status: "healthy",
		PingMS: latency.Milliseconds(),
		Pool:   stats,
	}
	if pingErr != nil {
		stats.Healthy = false
		report.Status = "unhealthy"
		report.Error = pingErr.Error()
	}
	return report
}

// HealthHandler serves the database health endpoint.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		start := time.Now()
		pingErr := pool.Ping(ctx)
		report := buildHealthReport(GetPoolStats(pool), pingErr, time.Since(start))

		if pingErr != nil {
			return c.JSON(http.StatusServiceUnavailable, report)
		}
		return c.JSON(http.StatusOK, report)
	}
}
