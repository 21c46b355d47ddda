package ports

import (
	"context"
	"errors"
	"time"

	"github.com/aescanero/autogent/pkg/domain"
)

// EventHandler processes an event delivered by the bus.
type EventHandler func(ctx context.Context, event domain.Event) error

// EventBus publishes run and node events to subscribers.
type EventBus interface {
	Publish(ctx context.Context, topic string, event domain.Event) error
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Unsubscribe(ctx context.Context, topic string) error
	Close() error
}

// ErrReportNotFound is returned by ReportStore.Get for unknown run ids.
var ErrReportNotFound = errors.New("run report not found")

// ReportStore persists finished run reports.
type ReportStore interface {
	Save(ctx context.Context, report *domain.RunReport) error
	Get(ctx context.Context, runID string) (*domain.RunReport, error)
	Delete(ctx context.Context, runID string) error
	List(ctx context.Context) ([]string, error)
}

// MetricsCollector records orchestrator metrics.
type MetricsCollector interface {
	RecordRunCompleted(success bool, duration time.Duration)
	RecordNodeExecuted(kind string, state string, duration time.Duration)
	RecordLLMCall(provider, model string, duration time.Duration, inputTokens, outputTokens int, err error)
	SetActiveRuns(count int)
	SetQueueDepth(queue string, depth int)
	RecordWorkerPoolStatus(idle, busy, stopped int)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordRunCompleted(bool, time.Duration) {}
func (NopMetrics) RecordNodeExecuted(string, string, time.Duration) {}
func (NopMetrics) RecordLLMCall(string, string, time.Duration, int, int, error) {}
func (NopMetrics) SetActiveRuns(int) {}
func (NopMetrics) SetQueueDepth(string, int) {}
func (NopMetrics) RecordWorkerPoolStatus(int, int, int) {}
