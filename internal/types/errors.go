package types

import "fmt"

// StageError ties a pipeline failure to the stage that produced it. The
// wrapped error carries the user-facing message.
type StageError struct {
	Stage BuildStage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func NewStageError(stage BuildStage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}
