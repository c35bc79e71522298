package workflow

import (
	"fmt"
	"time"
)

// EventType identifies one pipeline observation.
type EventType int

const (
	EventStageStart EventType = iota + 1
	EventStageDone
	EventStageError
	EventToolCall
	EventToolResult
	EventSearchQuery
	EventCheckpoint
	EventPipelineDone
)

func (t EventType) String() string {
	switch t {
	case EventStageStart:
		return "stage_start"
	case EventStageDone:
		return "stage_done"
	case EventStageError:
		return "stage_error"
	case EventToolCall:
		return "tool_call"
	case EventToolResult:
		return "tool_result"
	case EventSearchQuery:
		return "search_query"
	case EventCheckpoint:
		return "checkpoint"
	case EventPipelineDone:
		return "pipeline_done"
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// Event is one pipeline observation, relayed live during a run.
type Event struct {
	Type    EventType `json:"type"`
	Stage   string    `json:"stage,omitempty"`
	Message string    `json:"message,omitempty"`
	Err     error     `json:"-"`
	At      time.Time `json:"at"`
}

// EventFunc receives pipeline events. Implementations must be fast; they run
// inline with the pipeline.
type EventFunc func(Event)

// emitter wraps an optional EventFunc with nil-safety and timestamps.
type emitter struct {
	fn  EventFunc
	now func() time.Time
}

func (e *emitter) emit(evt Event) {
	if e.fn == nil {
		return
	}
	if evt.At.IsZero() {
		evt.At = e.now()
	}
	e.fn(evt)
}

func (e *emitter) stage(typ EventType, stage string, err error) {
	evt := Event{Type: typ, Stage: stage, Err: err}
	if err != nil {
		evt.Message = err.Error()
	}
	e.emit(evt)
}
