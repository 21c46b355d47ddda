package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aescanero/autogent/internal/application/workers"
	"github.com/aescanero/autogent/pkg/domain"
	"github.com/aescanero/autogent/pkg/engine"
	"github.com/aescanero/autogent/pkg/ports"
)

var (
	// ErrRunNotFound is returned for run ids that are neither in flight nor stored
	ErrRunNotFound = errors.New("run not found")
	// ErrRunFinished is returned when cancelling a run that already ended
	ErrRunFinished = errors.New("run already finished")
	// ErrRunExists is returned when a requested run id is already in flight
	ErrRunExists = errors.New("run already in flight")
	// ErrAsyncDisabled is returned by Submit when the manager has no worker pool
	ErrAsyncDisabled = errors.New("asynchronous runs are not enabled")
)

// RunStatus is the service-level status of a run
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// IsTerminal reports whether the run has ended
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed || s == RunStatusCancelled
}

// RunInfo describes a run as seen by API clients
type RunInfo struct {
	RunID       string            `json:"run_id"`
	Status      RunStatus         `json:"status"`
	SubmittedAt time.Time         `json:"submitted_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Error       string            `json:"error,omitempty"`
	Report      *domain.RunReport `json:"report,omitempty"`
}

// execution holds state for a single in-flight run
type execution struct {
	mu     sync.RWMutex
	info   RunInfo
	cancel context.CancelFunc
}

func (e *execution) snapshot() *RunInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()
	info := e.info
	return &info
}

func (e *execution) setStatus(s RunStatus) {
	e.mu.Lock()
	e.info.Status = s
	e.mu.Unlock()
}

func (e *execution) finish(s RunStatus, report *domain.RunReport, errMsg string) {
	now := time.Now()
	e.mu.Lock()
	e.info.Status = s
	e.info.Report = report
	e.info.Error = errMsg
	e.info.CompletedAt = &now
	e.mu.Unlock()
}

// Manager coordinates workflow runs
type Manager struct {
	engine    *engine.Engine
	store     ports.ReportStore
	pool      *workers.Pool
	metrics   ports.MetricsCollector
	validator *Validator
	logger    *zap.Logger

	// Track in-flight runs
	executions sync.Map // map[string]*execution
	active     atomic.Int64

	runTimeout time.Duration
	defaults   domain.Options
}

// NewManager creates a new orchestrator manager. pool may be nil, which
// disables Submit. runTimeout bounds whole runs; zero disables it.
func NewManager(
	eng *engine.Engine,
	store ports.ReportStore,
	pool *workers.Pool,
	metrics ports.MetricsCollector,
	validator *Validator,
	logger *zap.Logger,
	runTimeout time.Duration,
	defaults domain.Options,
) *Manager {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if validator == nil {
		validator = NewValidator(0, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		engine:     eng,
		store:      store,
		pool:       pool,
		metrics:    metrics,
		validator:  validator,
		logger:     logger,
		runTimeout: runTimeout,
		defaults:   defaults,
	}
}

// Defaults returns the run options applied when a request sets none
func (m *Manager) Defaults() domain.Options {
	return m.defaults
}

// Kinds returns the registered node kinds
func (m *Manager) Kinds() []string {
	return m.engine.Kinds()
}

// Aliases returns the editor label alias table
func (m *Manager) Aliases() map[string]string {
	return m.engine.Aliases()
}

// Validate checks service limits and loads desc
func (m *Manager) Validate(desc *domain.Description) (*domain.Graph, error) {
	if err := m.validator.Validate(desc); err != nil {
		return nil, err
	}
	return m.engine.Load(desc)
}

// Run executes a workflow and waits for its report
func (m *Manager) Run(ctx context.Context, desc *domain.Description, inputs domain.Values, opts domain.Options) (*domain.RunReport, error) {
	g, err := m.Validate(desc)
	if err != nil {
		m.logger.Info("workflow rejected", zap.Error(err))
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	exec, err := m.track(runIDOf(opts), RunStatusRunning, cancel)
	if err != nil {
		cancel()
		return nil, err
	}

	return m.execute(runCtx, exec, g, inputs, opts)
}

// Submit validates a workflow and queues it on the worker pool
func (m *Manager) Submit(ctx context.Context, desc *domain.Description, inputs domain.Values, opts domain.Options) (string, error) {
	if m.pool == nil {
		return "", ErrAsyncDisabled
	}

	g, err := m.Validate(desc)
	if err != nil {
		m.logger.Info("workflow rejected", zap.Error(err))
		return "", err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	exec, err := m.track(runIDOf(opts), RunStatusQueued, cancel)
	if err != nil {
		cancel()
		return "", err
	}
	runID := exec.info.RunID

	job := workers.Job{
		ID: runID,
		Run: func(workerCtx context.Context) {
			stop := context.AfterFunc(workerCtx, cancel)
			defer stop()

			if _, err := m.execute(runCtx, exec, g, inputs, opts); err != nil {
				m.logger.Error("queued run failed", zap.String("run_id", runID), zap.Error(err))
			}
		},
	}

	if err := m.pool.Submit(job); err != nil {
		m.executions.Delete(runID)
		cancel()
		return "", fmt.Errorf("failed to queue run: %w", err)
	}

	m.logger.Info("run queued", zap.String("run_id", runID))
	return runID, nil
}

// GetStatus returns an in-flight run's status or a stored run's report
func (m *Manager) GetStatus(ctx context.Context, runID string) (*RunInfo, error) {
	if val, ok := m.executions.Load(runID); ok {
		return val.(*execution).snapshot(), nil
	}

	report, err := m.store.Get(ctx, runID)
	if err != nil {
		if errors.Is(err, ports.ErrReportNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	completed := report.StartedAt.Add(time.Duration(report.DurationSeconds * float64(time.Second)))
	return &RunInfo{
		RunID:       report.RunID,
		Status:      statusOf(report),
		SubmittedAt: report.StartedAt,
		CompletedAt: &completed,
		Report:      report,
	}, nil
}

// List returns the ids of in-flight and stored runs
func (m *Manager) List(ctx context.Context) ([]string, error) {
	stored, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	seen := make(map[string]bool, len(stored))
	ids := make([]string, 0, len(stored))
	for _, id := range stored {
		seen[id] = true
		ids = append(ids, id)
	}
	m.executions.Range(func(key, _ interface{}) bool {
		if id := key.(string); !seen[id] {
			ids = append(ids, id)
		}
		return true
	})

	sort.Strings(ids)
	return ids, nil
}

// Cancel cancels a queued or running run
func (m *Manager) Cancel(ctx context.Context, runID string) error {
	val, ok := m.executions.Load(runID)
	if !ok {
		if _, err := m.store.Get(ctx, runID); err == nil {
			return fmt.Errorf("%w: %s", ErrRunFinished, runID)
		}
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	exec := val.(*execution)
	if exec.snapshot().Status.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrRunFinished, runID)
	}

	exec.cancel()
	m.logger.Info("run cancellation requested", zap.String("run_id", runID))
	return nil
}

// Shutdown cancels every in-flight run
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("shutting down orchestrator manager")

	m.executions.Range(func(_, value interface{}) bool {
		value.(*execution).cancel()
		return true
	})

	m.logger.Info("orchestrator manager shut down complete")
	return nil
}

func (m *Manager) track(runID string, status RunStatus, cancel context.CancelFunc) (*execution, error) {
	exec := &execution{
		info: RunInfo{
			RunID:       runID,
			Status:      status,
			SubmittedAt: time.Now(),
		},
		cancel: cancel,
	}
	if _, loaded := m.executions.LoadOrStore(runID, exec); loaded {
		return nil, fmt.Errorf("%w: %s", ErrRunExists, runID)
	}
	return exec, nil
}

func (m *Manager) execute(ctx context.Context, exec *execution, g *domain.Graph, inputs domain.Values, opts domain.Options) (*domain.RunReport, error) {
	defer exec.cancel()
	runID := exec.info.RunID

	if m.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.runTimeout)
		defer cancel()
	}

	exec.setStatus(RunStatusRunning)
	m.metrics.SetActiveRuns(int(m.active.Add(1)))
	defer func() { m.metrics.SetActiveRuns(int(m.active.Add(-1))) }()

	opts.RunID = runID
	report, err := m.engine.Execute(ctx, g, inputs, opts)
	if err != nil {
		exec.finish(RunStatusFailed, nil, err.Error())
		m.executions.Delete(runID)
		return nil, err
	}

	status := statusOf(report)
	errMsg := ""
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		status = RunStatusFailed
		errMsg = "run timed out"
	}
	exec.finish(status, report, errMsg)

	if err := m.store.Save(context.WithoutCancel(ctx), report); err != nil {
		// Keep the run tracked so its report stays reachable.
		m.logger.Error("failed to save run report",
			zap.String("run_id", runID),
			zap.Error(err))
		return report, nil
	}
	m.executions.Delete(runID)

	m.logger.Info("run finished",
		zap.String("run_id", runID),
		zap.String("status", string(status)),
		zap.Float64("duration_seconds", report.DurationSeconds))

	return report, nil
}

// statusOf derives a run status from its report
func statusOf(report *domain.RunReport) RunStatus {
	switch {
	case report.Success:
		return RunStatusCompleted
	case len(report.NodesIn(domain.NodeStateFailed)) == 0 && len(report.NodesIn(domain.NodeStateCancelled)) > 0:
		return RunStatusCancelled
	default:
		return RunStatusFailed
	}
}

func runIDOf(opts domain.Options) string {
	if opts.RunID != "" {
		return opts.RunID
	}
	return uuid.New().String()
}
