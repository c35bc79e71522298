package chat

import (
	"context"
	"testing"
)

type echoArgs struct {
	Text  string `json:"text"`
	Count int    `json:"count,omitempty"`
}

func TestFuncToolInvoke(t *testing.T) {
	tool := MustNewFuncTool("echo", "echoes text",
		func(_ context.Context, arg echoArgs) (any, error) {
			return arg.Text, nil
		})
	if tool.Argument == nil {
		t.Fatal("Argument schema not generated")
	}
	got, err := tool.Invoke(context.Background(), `{"text": "hi"}`)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got != "hi" {
		t.Errorf("result = %v, want hi", got)
	}
}

func TestFuncToolInvokeRepairsArguments(t *testing.T) {
	tool := MustNewFuncTool("echo", "echoes text",
		func(_ context.Context, arg echoArgs) (any, error) {
			return arg.Text, nil
		})
	got, err := tool.Invoke(context.Background(), `{text: "hi",}`)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got != "hi" {
		t.Errorf("result = %v, want hi", got)
	}
}

func TestFuncToolInvokeBadArguments(t *testing.T) {
	tool := MustNewFuncTool("echo", "echoes text",
		func(_ context.Context, arg echoArgs) (any, error) {
			return arg.Text, nil
		})
	if _, err := tool.Invoke(context.Background(), `{"count": "not a number"}`); err == nil {
		t.Fatal("expected error for mistyped argument")
	}
}
