package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opencanteen/opencanteen/internal/analytics"
)

// AnalyticsWarmupJob pre-populates dashboard caches for every school
// with recorded sales.
type AnalyticsWarmupJob struct {
	Analytics *analytics.Service
	Pool      *pgxpool.Pool
	Logger    *slog.Logger
	clock     func() time.Time
}

// NewAnalyticsWarmupJob wires dependencies for the warmup handler.
func NewAnalyticsWarmupJob(analyticsSvc *analytics.Service, pool *pgxpool.Pool, logger *slog.Logger) *AnalyticsWarmupJob {
	return &AnalyticsWarmupJob{
		Analytics: analyticsSvc,
		Pool:      pool,
		Logger:    logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes analytics warmup tasks.
func (j *AnalyticsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("analytics warmup: handler not configured")
	}
	var payload AnalyticsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Months <= 0 {
		payload.Months = 12
	}

	logger := j.logger()
	logger.Info("starting analytics warmup", slog.Int("months", payload.Months))

	schoolIDs, err := j.fetchSchools(ctx)
	if err != nil {
		logger.Error("load warmup schools", slog.Any("error", err))
		return err
	}

	started := j.now()
	if _, err := j.Analytics.Overview(ctx); err != nil {
		logger.Error("warm overview", slog.Any("error", err))
		return err
	}
	for _, schoolID := range schoolIDs {
		// Bound each school so one slow query cannot stall the run.
		schoolCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		_, err := j.Analytics.SchoolTrend(schoolCtx, schoolID, payload.Months)
		cancel()
		if err != nil {
			logger.Error("warm school trend", slog.Int64("school_id", schoolID), slog.Any("error", err))
			return err
		}
	}

	logger.Info("completed analytics warmup",
		slog.Int("schools", len(schoolIDs)),
		slog.Duration("duration", time.Since(started)))
	return nil
}

func (j *AnalyticsWarmupJob) fetchSchools(ctx context.Context) ([]int64, error) {
	if j.Pool == nil {
		return nil, errors.New("analytics warmup: pool not configured")
	}
	rows, err := j.Pool.Query(ctx, `SELECT DISTINCT school_id FROM daily_sales ORDER BY school_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (j *AnalyticsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAnalyticsWarmup))
	}
	return slog.Default().With(slog.String("job", TaskAnalyticsWarmup))
}

func (j *AnalyticsWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
