package cli

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// ApplyFilter runs a jq expression over the result and returns the filter
// output. A filter yielding a single value returns that value; multiple
// values come back as a slice.
func ApplyFilter(result any, expr string) (any, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse filter %q: %w", expr, err)
	}

	// gojq operates on plain JSON values, so round-trip typed structs first.
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result for filtering: %w", err)
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("decode result for filtering: %w", err)
	}

	var outputs []any
	iter := query.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("filter %q: %w", expr, err)
		}
		outputs = append(outputs, v)
	}

	switch len(outputs) {
	case 0:
		return nil, nil
	case 1:
		return outputs[0], nil
	default:
		return outputs, nil
	}
}
