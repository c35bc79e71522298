package config

import (
	"os"
	"path/filepath"
	"testing"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	return cfg
}

func TestContextLifecycle(t *testing.T) {
	cfg := testConfig(t)

	if err := cfg.AddContext("dev"); err != nil {
		t.Fatalf("AddContext: %v", err)
	}
	if err := cfg.AddContext("dev"); err == nil {
		t.Fatal("AddContext should reject duplicate")
	}
	if err := cfg.UseContext("dev"); err != nil {
		t.Fatalf("UseContext: %v", err)
	}
	if cfg.CurrentContext != "dev" {
		t.Errorf("CurrentContext = %q, want dev", cfg.CurrentContext)
	}

	// Current context survives a reload.
	reloaded, err := LoadFrom(cfg.Dir)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if reloaded.CurrentContext != "dev" {
		t.Errorf("reloaded CurrentContext = %q, want dev", reloaded.CurrentContext)
	}

	if err := cfg.DeleteContext("dev"); err != nil {
		t.Fatalf("DeleteContext: %v", err)
	}
	if cfg.CurrentContext != "" {
		t.Errorf("CurrentContext = %q after deleting active context", cfg.CurrentContext)
	}
}

func TestUseContextRequiresExisting(t *testing.T) {
	cfg := testConfig(t)

	if err := cfg.UseContext("ghost"); err == nil {
		t.Fatal("UseContext should fail for unknown context")
	}
}

func TestValidateContextName(t *testing.T) {
	for _, name := range []string{"", "a/b", `a\b`, ".hidden"} {
		if err := ValidateContextName(name); err == nil {
			t.Errorf("ValidateContextName(%q) should fail", name)
		}
	}
	if err := ValidateContextName("prod-eu"); err != nil {
		t.Errorf("ValidateContextName(prod-eu) = %v", err)
	}
}

func TestResolveContext(t *testing.T) {
	cfg := testConfig(t)
	if err := cfg.AddContext("dev"); err != nil {
		t.Fatalf("AddContext: %v", err)
	}

	// Explicit name wins.
	dir, err := cfg.ResolveContext("dev")
	if err != nil {
		t.Fatalf("ResolveContext: %v", err)
	}
	if dir != cfg.ContextDir("dev") {
		t.Errorf("dir = %q", dir)
	}

	// Empty name falls back to current context, which is unset.
	if _, err := cfg.ResolveContext(""); err == nil {
		t.Fatal("ResolveContext should fail with no current context")
	}

	if _, err := cfg.ResolveContext("ghost"); err == nil {
		t.Fatal("ResolveContext should fail for unknown context")
	}
}

func TestServiceRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	if err := cfg.AddContext("dev"); err != nil {
		t.Fatalf("AddContext: %v", err)
	}
	dir := cfg.ContextDir("dev")

	in := &ChatConfig{Provider: "openai", Model: "gpt-4o", APIKey: "sk-test"}
	if err := SaveService(dir, ServiceChat, in); err != nil {
		t.Fatalf("SaveService: %v", err)
	}

	out, err := LoadService[ChatConfig](dir, ServiceChat)
	if err != nil {
		t.Fatalf("LoadService: %v", err)
	}
	if out.Provider != "openai" || out.Model != "gpt-4o" || out.APIKey != "sk-test" {
		t.Errorf("round trip = %+v", out)
	}
}

func TestLoadServiceMissing(t *testing.T) {
	cfg := testConfig(t)
	if _, err := LoadService[ChatConfig](cfg.ContextDir("dev"), ServiceChat); err == nil {
		t.Fatal("LoadService should fail for missing file")
	}
}

func TestListServices(t *testing.T) {
	cfg := testConfig(t)
	if err := cfg.AddContext("dev"); err != nil {
		t.Fatalf("AddContext: %v", err)
	}
	dir := cfg.ContextDir("dev")

	for _, svc := range []string{ServiceChat, ServiceTavily} {
		if err := SaveService(dir, svc, &map[string]string{"api_key": "x"}); err != nil {
			t.Fatalf("SaveService(%s): %v", svc, err)
		}
	}
	// Non-YAML files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	services, err := ListServices(dir)
	if err != nil {
		t.Fatalf("ListServices: %v", err)
	}
	if len(services) != 2 {
		t.Errorf("services = %v, want 2 entries", services)
	}
}
