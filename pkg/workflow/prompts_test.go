package workflow

import (
	"strings"
	"testing"
)

func TestSchemaPromptListsFields(t *testing.T) {
	out := schemaPrompt(strategySchema)
	for _, field := range []string{"topic", "target_audience", "pain_points", "tone_of_voice", "keywords"} {
		if !strings.Contains(out, "- "+field+" (") {
			t.Errorf("schema prompt missing field %q:\n%s", field, out)
		}
	}
	if !strings.Contains(out, "array of strings") {
		t.Errorf("array typing not rendered:\n%s", out)
	}
}

func TestSchemaPromptDescribesNestedObjects(t *testing.T) {
	out := schemaPrompt(copywritingSchema)
	if !strings.Contains(out, "Nested object definitions") {
		t.Fatalf("no nested definitions for social posts:\n%s", out)
	}
	for _, field := range []string{"platform", "hook", "cta"} {
		if !strings.Contains(out, field) {
			t.Errorf("nested field %q not rendered", field)
		}
	}
}

func TestInstructionsToggleToolAddenda(t *testing.T) {
	if strings.Contains(imageInstructions(false), "generate_image tool!") {
		t.Error("tool addendum present without renderer")
	}
	if !strings.Contains(imageInstructions(true), "generate_image") {
		t.Error("tool addendum missing with renderer")
	}
	if !strings.Contains(videoInstructions(true), "sequentially") {
		t.Error("video concurrency guidance missing")
	}
	if !strings.Contains(strategyInstructions(true), "web_search") {
		t.Error("search guidance missing")
	}
	if strings.Contains(strategyInstructions(false), "web_search") {
		t.Error("search guidance present without searcher")
	}
}
