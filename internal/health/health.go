package health

import (
	"context"
	"time"

	"shift-backend/internal/cache"

	"github.com/jackc/pgx/v5/pgxpool"
)

type HealthChecker struct {
	db *pgxpool.Pool
}

type HealthStatus struct {
	Status   string         `json:"status"`
	Database DatabaseHealth `json:"database"`
	Redis    RedisHealth    `json:"redis"`
}

type DatabaseHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

type RedisHealth struct {
	Status string `json:"status"`
}

func NewHealthChecker(db *pgxpool.Pool) *HealthChecker {
	return &HealthChecker{db: db}
}

// CheckBasic reports database and redis health. Redis being down degrades
// the mirror and auth cache but not the engine, so it never flips the
// overall status to unhealthy.
func (h *HealthChecker) CheckBasic() HealthStatus {
	dbHealth := h.checkDatabase()

	redisHealth := RedisHealth{Status: "healthy"}
	if !cache.IsHealthy() {
		redisHealth.Status = "unavailable"
	}

	status := "healthy"
	if dbHealth.Status != "healthy" {
		status = "unhealthy"
	}

	return HealthStatus{
		Status:   status,
		Database: dbHealth,
		Redis:    redisHealth,
	}
}

func (h *HealthChecker) checkDatabase() DatabaseHealth {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return DatabaseHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
		}
	}

	return DatabaseHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}
