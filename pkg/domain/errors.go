package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies loader and executor failures.
type ErrorKind string

const (
	KindUnknownKind         ErrorKind = "UnknownKind"
	KindInvalidConfig       ErrorKind = "InvalidConfig"
	KindInvalidPort         ErrorKind = "InvalidPort"
	KindDuplicateEdgeTarget ErrorKind = "DuplicateEdgeTarget"
	KindGraphHasCycle       ErrorKind = "GraphHasCycle"
	KindMissingInput        ErrorKind = "MissingInput"
	KindUpstreamFailed      ErrorKind = "UpstreamFailed"
	KindTimeout             ErrorKind = "Timeout"
	KindAdapterFailure      ErrorKind = "AdapterFailure"
	KindSafetyViolation     ErrorKind = "SafetyViolation"
	KindCancelled           ErrorKind = "Cancelled"

	KindInvalidDescription ErrorKind = "InvalidDescription"
	KindDuplicateNode      ErrorKind = "DuplicateNode"
	KindUnknownNode        ErrorKind = "UnknownNode"
	KindInternal           ErrorKind = "Internal"
)

// Sentinels for errors.Is. An *Error matches a sentinel when the kinds agree.
var (
	ErrUnknownKind         = &Error{Kind: KindUnknownKind}
	ErrInvalidConfig       = &Error{Kind: KindInvalidConfig}
	ErrInvalidPort         = &Error{Kind: KindInvalidPort}
	ErrDuplicateEdgeTarget = &Error{Kind: KindDuplicateEdgeTarget}
	ErrGraphHasCycle       = &Error{Kind: KindGraphHasCycle}
	ErrMissingInput        = &Error{Kind: KindMissingInput}
	ErrUpstreamFailed      = &Error{Kind: KindUpstreamFailed}
	ErrTimeout             = &Error{Kind: KindTimeout}
	ErrAdapterFailure      = &Error{Kind: KindAdapterFailure}
	ErrSafetyViolation     = &Error{Kind: KindSafetyViolation}
	ErrCancelled           = &Error{Kind: KindCancelled}
	ErrInvalidDescription  = &Error{Kind: KindInvalidDescription}
	ErrDuplicateNode       = &Error{Kind: KindDuplicateNode}
	ErrUnknownNode         = &Error{Kind: KindUnknownNode}
)

// Error is the structured failure used throughout the orchestrator. NodeID
// and Port locate the violation when known.
type Error struct {
	Kind    ErrorKind
	NodeID  string
	Port    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	msg := string(e.Kind)
	switch {
	case e.NodeID != "" && e.Port != "":
		msg = fmt.Sprintf("%s: node %s port %s", msg, e.NodeID, e.Port)
	case e.NodeID != "":
		msg = fmt.Sprintf("%s: node %s", msg, e.NodeID)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so callers can match against the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// AsError extracts the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of the first *Error in err's chain, or the empty
// kind if there is none.
func KindOf(err error) ErrorKind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return ""
}

// NewError builds an *Error for a node.
func NewError(kind ErrorKind, nodeID, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, NodeID: nodeID, Message: fmt.Sprintf(format, args...)}
}

// NodeError is the failure record attached to a node in the run report.
type NodeError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	// Upstream names the ancestor responsible for an UpstreamFailed skip.
	Upstream string `json:"upstream,omitempty"`
}

// NodeErrorFrom converts any error into a report record. Errors without a
// kind are treated as adapter failures.
func NodeErrorFrom(err error) *NodeError {
	if err == nil {
		return nil
	}
	kind := KindOf(err)
	if kind == "" {
		kind = KindAdapterFailure
	}
	return &NodeError{Kind: kind, Message: err.Error()}
}
