// Package chat abstracts over chat-completion model providers. It carries a
// flat message representation, a generic typed function-tool helper, and a
// small tool-call loop, so the content stages stay provider-agnostic.
package chat

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
)

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleTool   Role = "tool"
)

type Role string

func (r Role) String() string {
	return string(r)
}

// ToolCall is a model-requested function invocation.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one turn of a conversation. A tool-role message answers the
// tool call identified by ToolCallID.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

func ToolMessage(callID, result string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Content: result}
}

// Params tunes a completion request. Zero values mean provider defaults.
type Params struct {
	MaxTokens   int     `json:"max_tokens,omitzero"`
	Temperature float32 `json:"temperature,omitzero"`
	TopP        float32 `json:"top_p,omitzero"`
}

// Request is one chat-completion call.
type Request struct {
	Messages []Message
	Tools    []*FuncTool
	Params   *Params

	// ResponseSchema, when set, asks the provider for structured JSON output
	// conforming to the schema. Tools are ignored for such requests.
	ResponseSchema     *jsonschema.Schema
	ResponseSchemaName string
}

const (
	FinishStop      FinishReason = "stop"
	FinishToolCalls FinishReason = "tool_calls"
	FinishLength    FinishReason = "length"
	FinishBlocked   FinishReason = "blocked"
)

type FinishReason string

type Usage struct {
	PromptTokenCount    int64
	GeneratedTokenCount int64
}

func (u *Usage) add(other Usage) {
	u.PromptTokenCount += other.PromptTokenCount
	u.GeneratedTokenCount += other.GeneratedTokenCount
}

// Response is the model's reply to one Request.
type Response struct {
	Message      Message
	FinishReason FinishReason
	Usage        Usage
}

// Client is a chat-completion backend.
type Client interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}
