package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aescanero/autogent/internal/application/orchestrator"
	"github.com/aescanero/autogent/internal/application/scheduler"
	"github.com/aescanero/autogent/internal/application/workers"
	"github.com/aescanero/autogent/pkg/domain"
)

// WorkflowRequest carries a workflow description
type WorkflowRequest struct {
	Workflow json.RawMessage `json:"workflow" binding:"required"`
}

// RunRequest represents a run request
type RunRequest struct {
	Workflow json.RawMessage        `json:"workflow" binding:"required"`
	Inputs   map[string]interface{} `json:"inputs"`
	Async    bool                   `json:"async"`
	Options  RunOptions             `json:"options"`
}

// RunOptions overrides the service's run defaults. Unset fields keep them.
type RunOptions struct {
	PerNodeTimeout string `json:"per_node_timeout"`
	FailurePolicy  string `json:"failure_policy"`
	Parallel       *bool  `json:"parallel"`
	MaxParallel    *int   `json:"max_parallel"`
	RunID          string `json:"run_id"`
}

// RunAcceptedResponse represents a queued run
type RunAcceptedResponse struct {
	RunID       string    `json:"run_id"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"checks":    gin.H{"orchestrator": "ok"},
	}
	if s.health == nil {
		c.JSON(http.StatusOK, body)
		return
	}

	status := s.health.GetStatus()
	body["workers"] = status
	if !status.Healthy {
		body["status"] = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

// handleListKinds lists node kinds and editor label aliases
func (s *Server) handleListKinds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"kinds":   s.orchestrator.Kinds(),
		"aliases": s.orchestrator.Aliases(),
	})
}

// handleValidateWorkflow loads a workflow without running it
func (s *Server) handleValidateWorkflow(c *gin.Context) {
	var req WorkflowRequest
	if !s.bind(c, &req) {
		return
	}

	desc, err := domain.ParseDescription(req.Workflow)
	if err != nil {
		s.writeError(c, err)
		return
	}

	g, err := s.orchestrator.Validate(desc)
	if err != nil {
		s.writeError(c, err)
		return
	}

	order, err := scheduler.Schedule(g)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":           true,
		"nodes":           g.Len(),
		"execution_order": order,
	})
}

// handleCreateRun runs a workflow, or queues it when async is set
func (s *Server) handleCreateRun(c *gin.Context) {
	var req RunRequest
	if !s.bind(c, &req) {
		return
	}

	desc, err := domain.ParseDescription(req.Workflow)
	if err != nil {
		s.writeError(c, err)
		return
	}

	opts, err := s.runOptions(req.Options)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	if req.Async {
		runID, err := s.orchestrator.Submit(c.Request.Context(), desc, req.Inputs, opts)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, RunAcceptedResponse{
			RunID:       runID,
			Status:      string(orchestrator.RunStatusQueued),
			SubmittedAt: time.Now().UTC(),
		})
		return
	}

	report, err := s.orchestrator.Run(c.Request.Context(), desc, req.Inputs, opts)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleListRuns lists known run ids
func (s *Server) handleListRuns(c *gin.Context) {
	ids, err := s.orchestrator.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  ids,
		"total": len(ids),
	})
}

// handleGetRun returns a run's status and, once finished, its report
func (s *Server) handleGetRun(c *gin.Context) {
	info, err := s.orchestrator.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// handleCancelRun handles run cancellation
func (s *Server) handleCancelRun(c *gin.Context) {
	runID := c.Param("id")

	if err := s.orchestrator.Cancel(c.Request.Context(), runID); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"run_id":       runID,
		"status":       "cancelling",
		"requested_at": time.Now().UTC(),
	})
}

func (s *Server) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		s.logger.Debug("invalid request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return false
	}
	return true
}

func (s *Server) runOptions(req RunOptions) (domain.Options, error) {
	opts := s.orchestrator.Defaults()
	opts.RunID = req.RunID

	if req.FailurePolicy != "" {
		policy, err := domain.ParseFailurePolicy(req.FailurePolicy)
		if err != nil {
			return opts, err
		}
		opts.FailurePolicy = policy
	}
	if req.PerNodeTimeout != "" {
		d, err := time.ParseDuration(req.PerNodeTimeout)
		if err != nil {
			return opts, err
		}
		opts.PerNodeTimeout = d
	}
	if req.Parallel != nil {
		opts.Parallel = *req.Parallel
	}
	if req.MaxParallel != nil {
		opts.MaxParallel = *req.MaxParallel
	}

	return opts, nil
}

// writeError maps service and domain errors onto HTTP responses
func (s *Server) writeError(c *gin.Context, err error) {
	if e, ok := domain.AsError(err); ok {
		details := gin.H{}
		if e.NodeID != "" {
			details["node_id"] = e.NodeID
		}
		if e.Port != "" {
			details["port"] = e.Port
		}
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: ErrorDetail{
				Code:    string(e.Kind),
				Message: e.Error(),
				Details: details,
			},
		})
		return
	}

	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, orchestrator.ErrRunNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, orchestrator.ErrRunExists):
		status, code = http.StatusConflict, "RUN_EXISTS"
	case errors.Is(err, orchestrator.ErrRunFinished):
		status, code = http.StatusConflict, "RUN_FINISHED"
	case errors.Is(err, orchestrator.ErrAsyncDisabled):
		status, code = http.StatusNotImplemented, "ASYNC_DISABLED"
	case errors.Is(err, workers.ErrQueueFull):
		status, code = http.StatusServiceUnavailable, "QUEUE_FULL"
	case errors.Is(err, workers.ErrPoolStopped):
		status, code = http.StatusServiceUnavailable, "SHUTTING_DOWN"
	default:
		s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}

	c.JSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: err.Error(),
		},
	})
}
