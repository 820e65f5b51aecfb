package stylegen

import (
	"context"
	"errors"
	"fmt"
)

// Policy says what a failing stage does to the run.
type Policy int

const (
	// PolicyFatal stops the run and reports the failure.
	PolicyFatal Policy = iota
	// PolicyAbsorb records the failure and continues with the stage fallback.
	PolicyAbsorb
)

func (p Policy) String() string {
	switch p {
	case PolicyFatal:
		return "fatal"
	case PolicyAbsorb:
		return "absorb"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Stage is one step of a generation run.
type Stage[T any] struct {
	Name     string
	Policy   Policy
	Fallback T
	// Kind is the taxonomy error reported when the stage fails. Classify, when
	// set, picks the kind from the underlying error instead.
	Kind     error
	Classify func(error) error
	Run      func(ctx context.Context) (T, error)
}

// StageError carries the failing stage, its taxonomy kind and the cause.
// errors.Is matches both the kind and the cause.
type StageError struct {
	Stage  string
	Policy Policy
	Kind   error
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stylegen: stage %s: %v: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Observer is told about every stage outcome.
type Observer interface {
	StageSucceeded(ctx context.Context, stage string)
	StageDegraded(ctx context.Context, err *StageError)
	StageFailed(ctx context.Context, err *StageError)
}

// RunStage executes s and applies its policy. Absorbed failures return the
// fallback and a nil error.
func RunStage[T any](ctx context.Context, s Stage[T], obs Observer) (T, error) {
	out, err := s.Run(ctx)
	if err == nil {
		obs.StageSucceeded(ctx, s.Name)
		return out, nil
	}
	kind := s.Kind
	if s.Classify != nil {
		if k := s.Classify(err); k != nil {
			kind = k
		}
	}
	se := &StageError{Stage: s.Name, Policy: s.Policy, Kind: kind, Err: err}
	if s.Policy == PolicyAbsorb {
		obs.StageDegraded(ctx, se)
		return s.Fallback, nil
	}
	obs.StageFailed(ctx, se)
	var zero T
	return zero, se
}

// AsStageError extracts a *StageError from err.
func AsStageError(err error) (*StageError, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
