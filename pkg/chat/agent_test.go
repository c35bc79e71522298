package chat

import (
	"context"
	"errors"
	"testing"
)

// scriptClient replays a fixed sequence of responses.
type scriptClient struct {
	responses []*Response
	requests  []*Request
}

func (c *scriptClient) Complete(_ context.Context, req *Request) (*Response, error) {
	c.requests = append(c.requests, req)
	if len(c.responses) == 0 {
		return nil, errors.New("script exhausted")
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

func toolCallResponse(calls ...ToolCall) *Response {
	return &Response{
		Message:      Message{Role: RoleModel, ToolCalls: calls},
		FinishReason: FinishToolCalls,
	}
}

func textResponse(text string) *Response {
	return &Response{
		Message:      Message{Role: RoleModel, Content: text},
		FinishReason: FinishStop,
	}
}

func TestAgentRunsToolLoop(t *testing.T) {
	var invoked []string
	lookup := MustNewFuncTool("lookup", "looks things up",
		func(_ context.Context, arg struct {
			Query string `json:"query"`
		}) (any, error) {
			invoked = append(invoked, arg.Query)
			return map[string]string{"answer": "42"}, nil
		})

	client := &scriptClient{responses: []*Response{
		toolCallResponse(ToolCall{ID: "c1", Name: "lookup", Arguments: `{"query":"meaning"}`}),
		textResponse("the answer is 42"),
	}}
	agent := &Agent{Client: client, System: "be brief", Tools: []*FuncTool{lookup}}

	out, _, err := agent.Run(context.Background(), "what is the meaning?")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "the answer is 42" {
		t.Errorf("out = %q", out)
	}
	if len(invoked) != 1 || invoked[0] != "meaning" {
		t.Errorf("invoked = %v", invoked)
	}

	// Second request must carry the tool call and its result.
	last := client.requests[len(client.requests)-1]
	var sawResult bool
	for _, m := range last.Messages {
		if m.Role == RoleTool && m.ToolCallID == "c1" {
			sawResult = true
			if m.Content != `{"answer":"42"}` {
				t.Errorf("tool result = %q", m.Content)
			}
		}
	}
	if !sawResult {
		t.Error("tool result not fed back to model")
	}
}

func TestAgentToolErrorFedBack(t *testing.T) {
	failing := MustNewFuncTool("boom", "always fails",
		func(_ context.Context, arg struct{}) (any, error) {
			return nil, errors.New("no service")
		})
	client := &scriptClient{responses: []*Response{
		toolCallResponse(ToolCall{ID: "c1", Name: "boom", Arguments: `{}`}),
		textResponse("could not complete"),
	}}
	agent := &Agent{Client: client, Tools: []*FuncTool{failing}}

	out, _, err := agent.Run(context.Background(), "try it")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "could not complete" {
		t.Errorf("out = %q", out)
	}
	last := client.requests[len(client.requests)-1]
	var sawError bool
	for _, m := range last.Messages {
		if m.Role == RoleTool && m.Content == "invoke error: no service" {
			sawError = true
		}
	}
	if !sawError {
		t.Error("tool error not reported to model")
	}
}

func TestAgentMaxTurns(t *testing.T) {
	noop := MustNewFuncTool("noop", "does nothing",
		func(_ context.Context, arg struct{}) (any, error) { return "ok", nil })
	client := &scriptClient{responses: []*Response{
		toolCallResponse(ToolCall{ID: "c1", Name: "noop", Arguments: `{}`}),
		toolCallResponse(ToolCall{ID: "c2", Name: "noop", Arguments: `{}`}),
		toolCallResponse(ToolCall{ID: "c3", Name: "noop", Arguments: `{}`}),
	}}
	agent := &Agent{Client: client, Tools: []*FuncTool{noop}, MaxTurns: 3}

	_, _, err := agent.Run(context.Background(), "loop forever")
	if !errors.Is(err, ErrMaxTurns) {
		t.Fatalf("err = %v, want ErrMaxTurns", err)
	}
}

func TestAgentEventOrder(t *testing.T) {
	noop := MustNewFuncTool("noop", "does nothing",
		func(_ context.Context, arg struct{}) (any, error) { return "ok", nil })
	client := &scriptClient{responses: []*Response{
		toolCallResponse(ToolCall{ID: "c1", Name: "noop", Arguments: `{}`}),
		textResponse("done"),
	}}
	var types []AgentEventType
	agent := &Agent{
		Client:  client,
		Tools:   []*FuncTool{noop},
		OnEvent: func(evt AgentEvent) { types = append(types, evt.Type) },
	}
	if _, _, err := agent.Run(context.Background(), "go"); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []AgentEventType{EventModelCall, EventToolStart, EventToolDone, EventModelCall, EventModelReply}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, types[i], want[i])
		}
	}
}
