package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aescanero/autogent/pkg/domain"
	"github.com/aescanero/autogent/pkg/ports"
)

const keyPrefix = "autogent:run:"

// ReportStore implements ports.ReportStore using Redis
type ReportStore struct {
	client redis.UniversalClient
	logger *zap.Logger
	ttl    time.Duration
}

// NewReportStore creates a new Redis report store. Reports expire after
// ttl; zero keeps them forever.
func NewReportStore(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *ReportStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportStore{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// Save persists a run report as JSON
func (s *ReportStore) Save(ctx context.Context, report *domain.RunReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := s.client.Set(ctx, reportKey(report.RunID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	s.logger.Debug("run report saved",
		zap.String("run_id", report.RunID),
		zap.Bool("success", report.Success))

	return nil
}

// Get loads a run report
func (s *ReportStore) Get(ctx context.Context, runID string) (*domain.RunReport, error) {
	data, err := s.client.Get(ctx, reportKey(runID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ports.ErrReportNotFound, runID)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report domain.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}

	return &report, nil
}

// Delete removes a run report
func (s *ReportStore) Delete(ctx context.Context, runID string) error {
	if err := s.client.Del(ctx, reportKey(runID)).Err(); err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}

	s.logger.Debug("run report deleted", zap.String("run_id", runID))
	return nil
}

// List returns the ids of all stored reports
func (s *ReportStore) List(ctx context.Context) ([]string, error) {
	var cursor uint64
	var runIDs []string

	for {
		keys, next, err := s.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}

		for _, key := range keys {
			runIDs = append(runIDs, strings.TrimPrefix(key, keyPrefix))
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return runIDs, nil
}

// reportKey returns the Redis key for a run report
func reportKey(runID string) string {
	return keyPrefix + runID
}
