package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// DefaultMaxTurns bounds the tool-call loop when the caller does not.
const DefaultMaxTurns = 12

// ErrMaxTurns is returned when the model keeps requesting tools past the
// turn limit.
var ErrMaxTurns = errors.New("chat: max agent turns exceeded")

// AgentEventType identifies one step in an agent run.
type AgentEventType int

const (
	EventModelCall AgentEventType = iota + 1
	EventModelReply
	EventToolStart
	EventToolDone
	EventToolError
)

func (t AgentEventType) String() string {
	switch t {
	case EventModelCall:
		return "model_call"
	case EventModelReply:
		return "model_reply"
	case EventToolStart:
		return "tool_start"
	case EventToolDone:
		return "tool_done"
	case EventToolError:
		return "tool_error"
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// AgentEvent is one observation from an agent run, for debug streams.
type AgentEvent struct {
	Type     AgentEventType
	Turn     int
	Text     string
	ToolCall *ToolCall
	Err      error
}

// Agent runs a synchronous think-act loop against a Client:
// complete, execute any requested tools, feed results back, repeat until
// the model answers in plain text.
type Agent struct {
	Client Client
	System string
	Tools  []*FuncTool
	Params *Params

	// MaxTurns bounds model calls per Run. Zero means DefaultMaxTurns.
	MaxTurns int

	// OnEvent, when set, receives every step of the run.
	OnEvent func(AgentEvent)

	Logger *slog.Logger
}

func (a *Agent) emit(evt AgentEvent) {
	if a.OnEvent != nil {
		a.OnEvent(evt)
	}
}

func (a *Agent) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// Run drives the loop for one user input and returns the model's final text
// reply. Tool failures are reported back to the model as error results
// rather than aborting the run.
func (a *Agent) Run(ctx context.Context, input string) (string, Usage, error) {
	maxTurns := a.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	msgs := []Message{}
	if a.System != "" {
		msgs = append(msgs, SystemMessage(a.System))
	}
	msgs = append(msgs, UserMessage(input))

	var usage Usage
	for turn := 1; turn <= maxTurns; turn++ {
		a.emit(AgentEvent{Type: EventModelCall, Turn: turn})
		resp, err := a.Client.Complete(ctx, &Request{
			Messages: msgs,
			Tools:    a.Tools,
			Params:   a.Params,
		})
		if err != nil {
			return "", usage, err
		}
		usage.add(resp.Usage)

		if len(resp.Message.ToolCalls) == 0 {
			if resp.FinishReason == FinishBlocked {
				return "", usage, fmt.Errorf("chat: blocked: %s", resp.Message.Content)
			}
			a.emit(AgentEvent{Type: EventModelReply, Turn: turn, Text: resp.Message.Content})
			return resp.Message.Content, usage, nil
		}

		msgs = append(msgs, resp.Message)
		for _, call := range resp.Message.ToolCalls {
			msgs = append(msgs, a.execute(ctx, turn, call))
		}
	}
	return "", usage, ErrMaxTurns
}

func (a *Agent) execute(ctx context.Context, turn int, call ToolCall) Message {
	a.emit(AgentEvent{Type: EventToolStart, Turn: turn, ToolCall: &call})
	tool := findTool(a.Tools, call.Name)
	if tool == nil {
		err := fmt.Errorf("tool not found: %s", call.Name)
		a.emit(AgentEvent{Type: EventToolError, Turn: turn, ToolCall: &call, Err: err})
		return ToolMessage(call.ID, "tool error: "+err.Error())
	}
	result, err := tool.Invoke(ctx, call.Arguments)
	if err != nil {
		a.logger().Warn("tool invocation failed", "tool", call.Name, "error", err)
		a.emit(AgentEvent{Type: EventToolError, Turn: turn, ToolCall: &call, Err: err})
		return ToolMessage(call.ID, "invoke error: "+err.Error())
	}
	a.emit(AgentEvent{Type: EventToolDone, Turn: turn, ToolCall: &call})
	return ToolMessage(call.ID, formatResult(result))
}

func formatResult(result any) string {
	switch v := result.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("[marshal error: %v]", err)
		}
		return string(data)
	}
}
