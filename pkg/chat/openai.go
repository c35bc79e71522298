package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
)

var _ Client = (*OpenAIClient)(nil)

const (
	oaiFinishReasonStop          = "stop"
	oaiFinishReasonToolCalls     = "tool_calls"
	oaiFinishReasonLength        = "length"
	oaiFinishReasonContentFilter = "content_filter"
)

// OpenAIClient implements Client on the OpenAI chat completions API. It also
// works against OpenAI-compatible endpoints via a custom base URL.
type OpenAIClient struct {
	Client *openai.Client
	Model  string
}

// NewOpenAIClient builds a client for model using apiKey. baseURL may be
// empty for the default endpoint.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIClient{Client: &client, Model: model}
}

func (c *OpenAIClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	params, err := c.chatCompletion(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.Client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices")
	}
	choice := resp.Choices[0]
	out := &Response{
		Message: Message{Role: RoleModel, Content: choice.Message.Content},
		Usage: Usage{
			PromptTokenCount:    resp.Usage.PromptTokens,
			GeneratedTokenCount: resp.Usage.CompletionTokens,
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		out.Message.ToolCalls = append(out.Message.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	switch choice.FinishReason {
	case oaiFinishReasonStop:
		out.FinishReason = FinishStop
	case oaiFinishReasonToolCalls:
		out.FinishReason = FinishToolCalls
	case oaiFinishReasonLength:
		out.FinishReason = FinishLength
	case oaiFinishReasonContentFilter:
		out.FinishReason = FinishBlocked
	default:
		return nil, fmt.Errorf("unexpected finish reason: %s", choice.FinishReason)
	}
	if choice.Message.Refusal != "" {
		out.FinishReason = FinishBlocked
		out.Message.Content = choice.Message.Refusal
	}
	return out, nil
}

func (c *OpenAIClient) chatCompletion(req *Request) (openai.ChatCompletionNewParams, error) {
	msgs, err := convOpenAIMessages(req.Messages)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}
	params := openai.ChatCompletionNewParams{
		Messages: msgs,
		Model:    c.Model,
	}
	if mp := req.Params; mp != nil {
		if mp.MaxTokens > 0 {
			params.MaxCompletionTokens = param.NewOpt(int64(mp.MaxTokens))
		}
		if mp.Temperature > 0 {
			params.Temperature = param.NewOpt(float64(mp.Temperature))
		}
		if mp.TopP > 0 {
			params.TopP = param.NewOpt(float64(mp.TopP))
		}
	}
	if req.ResponseSchema != nil {
		// Tools must not be sent alongside a json_schema response format,
		// they conflict and cause validation errors.
		name := req.ResponseSchemaName
		if name == "" {
			name = "response"
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   name,
					Schema: any(FormatStrictSchema(req.ResponseSchema.CloneSchemas())),
					Strict: param.NewOpt(true),
				},
			},
		}
		return params, nil
	}
	for _, tool := range req.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: param.NewOpt(tool.Description),
				Parameters:  convOpenAISchema(tool.Argument),
			},
		})
	}
	return params, nil
}

func convOpenAIMessages(msgs []Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case RoleModel:
			mp := &openai.ChatCompletionAssistantMessageParam{}
			if msg.Content != "" {
				mp.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: param.NewOpt(msg.Content),
				}
			}
			for _, tc := range msg.ToolCalls {
				mp.ToolCalls = append(mp.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: mp})
		case RoleTool:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			return nil, fmt.Errorf("unexpected message role: %s", msg.Role)
		}
	}
	return out, nil
}

func convOpenAISchema(s *jsonschema.Schema) openai.FunctionParameters {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil
	}
	var m openai.FunctionParameters
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}

// FormatStrictSchema patches a schema for OpenAI structured outputs.
//
// Strict mode requires:
//   - All objects must have additionalProperties: false
//   - All properties must be listed in required
//
// See https://platform.openai.com/docs/guides/structured-outputs
func FormatStrictSchema(m *jsonschema.Schema) *jsonschema.Schema {
	if m == nil {
		return nil
	}
	if m.Type != "" && len(m.Types) > 0 {
		m.Types = append(m.Types, m.Type)
		m.Type = ""
	}
	typ := m.Type
	if typ == "" {
		for _, t := range m.Types {
			if t != "null" && t != "" {
				typ = t
				break
			}
		}
	}
	switch typ {
	case "array":
		m.Items = FormatStrictSchema(m.Items)
	case "object":
		m.AdditionalProperties = &jsonschema.Schema{Not: &jsonschema.Schema{}} // false schema
		requires := make(map[string]struct{})
		for _, v := range m.Required {
			requires[v] = struct{}{}
		}
		for k, v := range m.Properties {
			if _, ok := requires[k]; !ok {
				requires[k] = struct{}{}
				if !slices.Contains(v.Types, "null") {
					v.Types = append(v.Types, "null")
				}
			}
			m.Properties[k] = FormatStrictSchema(v)
		}
		m.Required = slices.Collect(maps.Keys(requires))
	}
	return m
}
