package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport marks a failed fetch: network error or non-2xx status.
	ErrTransport = errors.New("transport error")
	// ErrFormatDrift marks a source whose layout no longer matches the parser.
	ErrFormatDrift = errors.New("format drift")
	// ErrValidation marks an observation or table rejected before any write.
	ErrValidation = errors.New("validation failed")
)

// Stage names the step of a run that failed.
type Stage string

const (
	StageExtract  Stage = "extract"
	StageValidate Stage = "validate"
	StageLoad     Stage = "load"
	StagePublish  Stage = "publish"
)

// StageError attributes a failure to a source and a stage.
type StageError struct {
	Source string
	Stage  Stage
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError wraps err unless it is nil or already a StageError.
func NewStageError(source string, stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Source: source, Stage: stage, Err: err}
}

// FormatDrift builds an ErrFormatDrift error with a description of what was
// expected.
func FormatDrift(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormatDrift, fmt.Sprintf(format, args...))
}
