package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"
)

var _ Client = (*GeminiClient)(nil)

// GeminiClient implements Client on the Google Gemini API.
type GeminiClient struct {
	Client *genai.Client

	// Model should not start with "models/".
	Model string
}

// NewGeminiClient builds a Gemini-backed client.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{Client: client, Model: model}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, req *Request) (*Response, error) {
	cfg, contents, err := c.convRequest(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.Client.Models.GenerateContent(ctx, c.Model, contents, cfg)
	if err != nil {
		if e, ok := err.(*apierror.APIError); ok {
			err = e.Unwrap()
		}
		return nil, err
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates")
	}
	cand := resp.Candidates[0]
	out := &Response{Message: Message{Role: RoleModel}}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = Usage{
			PromptTokenCount:    int64(u.PromptTokenCount),
			GeneratedTokenCount: int64(u.CandidatesTokenCount),
		}
	}
	var sb strings.Builder
	for _, p := range cand.Content.Parts {
		switch {
		case p.Text != "":
			sb.WriteString(p.Text)
		case p.FunctionCall != nil:
			args, _ := json.Marshal(p.FunctionCall.Args)
			out.Message.ToolCalls = append(out.Message.ToolCalls, ToolCall{
				ID:        p.FunctionCall.Name,
				Name:      p.FunctionCall.Name,
				Arguments: string(args),
			})
		}
	}
	out.Message.Content = sb.String()
	switch cand.FinishReason {
	case genai.FinishReasonStop, genai.FinishReasonUnspecified:
		out.FinishReason = FinishStop
		if len(out.Message.ToolCalls) > 0 {
			out.FinishReason = FinishToolCalls
		}
	case genai.FinishReasonMaxTokens:
		out.FinishReason = FinishLength
	case genai.FinishReasonSafety:
		out.FinishReason = FinishBlocked
	default:
		return nil, fmt.Errorf("unexpected finish reason: %s", cand.FinishReason)
	}
	return out, nil
}

func (c *GeminiClient) convRequest(req *Request) (*genai.GenerateContentConfig, []*genai.Content, error) {
	cfg := &genai.GenerateContentConfig{}
	if mp := req.Params; mp != nil {
		cfg.MaxOutputTokens = int32(mp.MaxTokens)
		if mp.Temperature > 0 {
			t := mp.Temperature
			cfg.Temperature = &t
		}
		if mp.TopP > 0 {
			p := mp.TopP
			cfg.TopP = &p
		}
	}
	if req.ResponseSchema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = geminiConvSchema(req.ResponseSchema)
	} else {
		for _, t := range req.Tools {
			cfg.Tools = append(cfg.Tools, &genai.Tool{
				FunctionDeclarations: []*genai.FunctionDeclaration{
					{
						Name:        t.Name,
						Description: t.Description,
						Parameters:  geminiConvSchema(t.Argument),
					},
				},
			})
		}
	}

	var (
		contents []*genai.Content
		system   []*genai.Part
		last     *genai.Content
	)
	appendParts := func(role string, parts ...*genai.Part) {
		if last != nil && last.Role == role {
			last.Parts = append(last.Parts, parts...)
			return
		}
		last = &genai.Content{Role: role, Parts: parts}
		contents = append(contents, last)
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			system = append(system, genai.NewPartFromText(msg.Content))
		case RoleUser:
			appendParts("user", genai.NewPartFromText(msg.Content))
		case RoleModel:
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.NewPartFromText(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var args map[string]any
				if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
					args = map[string]any{"text": tc.Arguments}
				}
				parts = append(parts, genai.NewPartFromFunctionCall(tc.Name, args))
			}
			appendParts("model", parts...)
		case RoleTool:
			var result map[string]any
			if err := json.Unmarshal([]byte(msg.Content), &result); err != nil {
				result = map[string]any{"text": msg.Content}
			}
			appendParts("user", genai.NewPartFromFunctionResponse(msg.ToolCallID, result))
		default:
			return nil, nil, fmt.Errorf("unexpected message role: %s", msg.Role)
		}
	}
	if len(system) > 0 {
		cfg.SystemInstruction = &genai.Content{Parts: system}
	}
	if len(contents) == 0 {
		return nil, nil, fmt.Errorf("no contents")
	}
	return cfg, contents, nil
}

func geminiConvSchema(schema *jsonschema.Schema) *genai.Schema {
	if schema == nil {
		return nil
	}
	enums := make([]string, 0, len(schema.Enum))
	for _, v := range schema.Enum {
		enums = append(enums, fmt.Sprintf("%v", v))
	}
	gs := genai.Schema{
		Format:      schema.Format,
		Description: schema.Description,
		Enum:        enums,
		Items:       geminiConvSchema(schema.Items),
		Required:    schema.Required,
	}
	if n := len(schema.Properties); n > 0 {
		gs.Properties = make(map[string]*genai.Schema, n)
		for k, prop := range schema.Properties {
			gs.Properties[k] = geminiConvSchema(prop)
		}
	}
	switch schema.Type {
	case "object":
		gs.Type = genai.TypeObject
	case "array":
		gs.Type = genai.TypeArray
	case "string":
		gs.Type = genai.TypeString
	case "number":
		gs.Type = genai.TypeNumber
	case "integer":
		gs.Type = genai.TypeInteger
	case "boolean":
		gs.Type = genai.TypeBoolean
	}
	return &gs
}
