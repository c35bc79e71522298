package chat

import "testing"

func TestUnmarshalRepairsMalformedJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	// Trailing comma and single quotes, typical model output defects.
	if err := Unmarshal([]byte(`{'name': 'ok',}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Name != "ok" {
		t.Errorf("Name = %q, want ok", v.Name)
	}
}

func TestUnmarshalValidJSON(t *testing.T) {
	var v map[string]int
	if err := Unmarshal([]byte(`{"a": 1}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v["a"] != 1 {
		t.Errorf("a = %d, want 1", v["a"])
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced no lang", "```\n[1,2]\n```", `[1,2]`},
		{"prose around", "Here is the plan:\n{\"a\":1}\nHope that helps!", `{"a":1}`},
		{"array", "result: [1, 2, 3] done", `[1, 2, 3]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.in); got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
