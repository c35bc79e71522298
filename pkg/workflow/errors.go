package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// SchemaError reports model output that does not parse into the stage's
// declared structured type.
type SchemaError struct {
	Stage  string
	Detail string
	Err    error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("workflow: %s output does not match schema: %s: %v", e.Stage, e.Detail, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ToolError reports a failed search, image or video call.
type ToolError struct {
	Tool  string
	Query string
	Err   error
}

func (e *ToolError) Error() string {
	if e.Query != "" {
		return fmt.Sprintf("workflow: tool %s failed for %q: %v", e.Tool, e.Query, e.Err)
	}
	return fmt.Sprintf("workflow: tool %s failed: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// StageFailure aborts the pipeline: the named stage could not produce its
// artifact.
type StageFailure struct {
	Stage string
	Err   error
}

func (e *StageFailure) Error() string {
	return fmt.Sprintf("workflow: stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageFailure) Unwrap() error {
	return e.Err
}

// failStage wraps err in a StageFailure unless it already is one.
func failStage(stage string, err error) error {
	var sf *StageFailure
	if errors.As(err, &sf) {
		return err
	}
	return &StageFailure{Stage: stage, Err: err}
}

// IncompleteCampaignError reports that packaging could not find an expected
// upstream artifact in the history.
type IncompleteCampaignError struct {
	Missing []string
}

func (e *IncompleteCampaignError) Error() string {
	return fmt.Sprintf("workflow: campaign incomplete, missing artifacts: %s", strings.Join(e.Missing, ", "))
}

// ConfigurationError reports missing credentials or endpoints for enabled
// stages. It is raised at startup, before any stage runs.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("workflow: missing configuration: %s", strings.Join(e.Missing, ", "))
}
