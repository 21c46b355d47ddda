package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_RecordsRunsAndNodes(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordRunCompleted(true, time.Second)
	c.RecordRunCompleted(false, time.Second)
	c.RecordRunCompleted(true, time.Second)
	c.RecordNodeExecuted("output", "completed", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.runsCompleted.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runsCompleted.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.nodesExecuted.WithLabelValues("output", "completed")))
}

func TestCollector_LLMTokensOnlyOnSuccess(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordLLMCall("openai", "gpt-4o-mini", time.Second, 10, 5, nil)
	c.RecordLLMCall("openai", "gpt-4o-mini", time.Second, 10, 5, errors.New("rate limited"))

	assert.Equal(t, 10.0, testutil.ToFloat64(c.llmTokens.WithLabelValues("openai", "gpt-4o-mini", "input")))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.llmTokens.WithLabelValues("openai", "gpt-4o-mini", "output")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.llmCalls.WithLabelValues("openai", "gpt-4o-mini", "true")))
}

func TestCollector_Gauges(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.SetActiveRuns(3)
	c.SetQueueDepth("runs", 7)
	c.RecordWorkerPoolStatus(1, 2, 0)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.activeRuns))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.queueDepth.WithLabelValues("runs")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.workerPoolBusy))
}
