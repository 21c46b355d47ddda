package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aescanero/autogent/pkg/domain"
	"github.com/aescanero/autogent/pkg/ports"
)

// ReportStore implements ports.ReportStore using an in-memory map.
// Reports are stored as JSON so callers never share mutable state with the
// store.
type ReportStore struct {
	reports map[string][]byte
	mu      sync.RWMutex
}

// NewReportStore creates a new in-memory report store
func NewReportStore() *ReportStore {
	return &ReportStore{
		reports: make(map[string][]byte),
	}
}

// Save stores a copy of report
func (s *ReportStore) Save(ctx context.Context, report *domain.RunReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports[report.RunID] = data
	return nil
}

// Get returns a copy of the report for runID
func (s *ReportStore) Get(ctx context.Context, runID string) (*domain.RunReport, error) {
	s.mu.RLock()
	data, ok := s.reports[runID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrReportNotFound, runID)
	}

	var report domain.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// Delete removes the report for runID
func (s *ReportStore) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.reports, runID)
	return nil
}

// List returns all stored run ids, sorted
func (s *ReportStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runIDs := make([]string, 0, len(s.reports))
	for id := range s.reports {
		runIDs = append(runIDs, id)
	}
	sort.Strings(runIDs)

	return runIDs, nil
}
