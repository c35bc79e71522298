package chat

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// InvokeFunc is the typed implementation behind a FuncTool. The argument is
// decoded from the model's JSON before the call.
type InvokeFunc[T any] func(ctx context.Context, arg T) (any, error)

// FuncTool describes one function a model may call. Argument is derived from
// the Go argument type at construction.
type FuncTool struct {
	Name        string
	Description string
	Argument    *jsonschema.Schema

	invoke func(ctx context.Context, args string) (any, error)
}

// Invoke decodes args and runs the tool's implementation.
func (t *FuncTool) Invoke(ctx context.Context, args string) (any, error) {
	if t.invoke == nil {
		return nil, fmt.Errorf("tool %s has no implementation", t.Name)
	}
	return t.invoke(ctx, args)
}

// NewFuncTool builds a FuncTool whose argument schema is generated from
// ArgType via reflection.
func NewFuncTool[ArgType any](name, description string, fn InvokeFunc[ArgType]) (*FuncTool, error) {
	arg, err := jsonschema.For[ArgType](nil)
	if err != nil {
		return nil, fmt.Errorf("schema for tool %s: %w", name, err)
	}
	return &FuncTool{
		Name:        name,
		Description: description,
		Argument:    arg,
		invoke: func(ctx context.Context, args string) (any, error) {
			var v ArgType
			if err := Unmarshal([]byte(args), &v); err != nil {
				return nil, fmt.Errorf("unmarshal %q error: %w", args, err)
			}
			return fn(ctx, v)
		},
	}, nil
}

// MustNewFuncTool is NewFuncTool that panics on error. Tool argument types
// are fixed at compile time, so a failure here is a programming error.
func MustNewFuncTool[ArgType any](name, description string, fn InvokeFunc[ArgType]) *FuncTool {
	tool, err := NewFuncTool(name, description, fn)
	if err != nil {
		panic(err)
	}
	return tool
}

// SchemaFor generates a JSON schema for T, for structured-output requests.
func SchemaFor[T any]() (*jsonschema.Schema, error) {
	return jsonschema.For[T](nil)
}

// MustSchemaFor is SchemaFor that panics on error.
func MustSchemaFor[T any]() *jsonschema.Schema {
	s, err := SchemaFor[T]()
	if err != nil {
		panic(err)
	}
	return s
}

func findTool(tools []*FuncTool, name string) *FuncTool {
	for _, t := range tools {
		if t.Name == name {
			return t
		}
	}
	return nil
}
