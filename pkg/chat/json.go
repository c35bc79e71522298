package chat

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Unmarshal unmarshals JSON data into v, attempting to repair malformed JSON.
// If the initial unmarshal fails with a syntax error, it tries to repair the
// JSON using jsonrepair before retrying.
func Unmarshal(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	switch err.(type) {
	case *json.SyntaxError, *json.UnmarshalTypeError:
		fixed, rerr := jsonrepair.JSONRepair(string(data))
		if rerr != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}

// ExtractJSON strips markdown code fences and surrounding prose from a model
// reply, returning the innermost JSON document. Models asked for JSON still
// wrap it in ```json fences or chatter around it often enough to matter.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			// Drop the language tag line.
			if lang := strings.TrimSpace(rest[:nl]); lang == "" || isIdent(lang) {
				rest = rest[nl+1:]
			}
		}
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		s = strings.TrimSpace(rest)
	}
	// Cut leading prose before the first brace or bracket.
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	var end int
	if s[start] == '{' {
		end = strings.LastIndexByte(s, '}')
	} else {
		end = strings.LastIndexByte(s, ']')
	}
	if end <= start {
		return s[start:]
	}
	return s[start : end+1]
}

func isIdent(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
