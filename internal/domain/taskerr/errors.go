// Package taskerr classifies failures of a tripsync run.
//
// Adapters return *Error values so the runner, the logs and the process exit
// status all agree on what went wrong and in which phase.
package taskerr

import (
	"errors"
	"fmt"
)

// Kind is the failure class reported to the scheduler.
type Kind string

// Failure kinds.
const (
	KindConfig     Kind = "config"
	KindConnection Kind = "connection"
	KindQuery      Kind = "query"
	KindDataShape  Kind = "data_shape"
	KindWrite      Kind = "write"
)

// Phase is the step of the run in which the failure happened.
type Phase string

// Run phases.
const (
	PhaseStartup Phase = "startup"
	PhaseConnect Phase = "connect"
	PhaseFetch   Phase = "fetch"
	PhaseWrite   Phase = "write"
	PhaseRelease Phase = "release"
)

// Sentinel kinds. errors.Is(err, ErrWrite) matches any *Error of KindWrite.
var (
	ErrConfig     = errors.New("config error")
	ErrConnection = errors.New("connection error")
	ErrQuery      = errors.New("query error")
	ErrDataShape  = errors.New("data shape error")
	ErrWrite      = errors.New("write error")
)

var sentinels = map[Kind]error{
	KindConfig:     ErrConfig,
	KindConnection: ErrConnection,
	KindQuery:      ErrQuery,
	KindDataShape:  ErrDataShape,
	KindWrite:      ErrWrite,
}

// Error is a classified run failure.
type Error struct {
	Kind      Kind
	Phase     Phase
	Component string // "source" or "sink"
	Err       error
}

// New builds a classified error.
func New(kind Kind, phase Phase, component string, err error) *Error {
	return &Error{Kind: kind, Phase: phase, Component: component, Err: err}
}

// Connection wraps err as a connection failure of component.
func Connection(component string, err error) *Error {
	return New(KindConnection, PhaseConnect, component, err)
}

// Query wraps err as a failed source query.
func Query(err error) *Error {
	return New(KindQuery, PhaseFetch, "source", err)
}

// DataShape wraps err as an unexpected result shape.
func DataShape(err error) *Error {
	return New(KindDataShape, PhaseFetch, "source", err)
}

// Write wraps err as a failed (and rolled back) sink write.
func Write(err error) *Error {
	return New(KindWrite, PhaseWrite, "sink", err)
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s failed during %s", e.Kind, e.Phase)
	if e.Component != "" {
		msg = fmt.Sprintf("%s %s failed during %s", e.Component, e.Kind, e.Phase)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// Retryable reports whether rerunning the whole task may succeed without a code
// or schema change. Writes are all-or-nothing, so a failed write leaves nothing
// behind to clean up.
func (e *Error) Retryable() bool {
	return e.Kind == KindConnection || e.Kind == KindWrite
}

// Classify returns err as an *Error. Errors that are already classified are
// returned unchanged; anything else is wrapped with the given fallback.
func Classify(err error, kind Kind, phase Phase, component string) *Error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	return New(kind, phase, component, err)
}

// KindOf returns the kind of a classified error, or "" for anything else.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}
