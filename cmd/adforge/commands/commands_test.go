package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/brightwell/adforge/pkg/checkpoint"
)

// setupTestEnv redirects the config root to a temp dir for one test.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ADFORGE_CONFIG_DIR", dir)
	globalConfig = nil
	configLoadErr = nil
	return dir
}

func runCLI(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	verbose = false

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	wOut.Close()
	wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	var outBuf, errBuf bytes.Buffer
	outBuf.ReadFrom(rOut)
	errBuf.ReadFrom(rErr)

	stdout = outBuf.String()
	stderr = errBuf.String()
	if err != nil {
		exitCode = 1
		if stderr == "" {
			stderr = err.Error()
		}
	}

	resetFlags(rootCmd)
	return
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		f.Changed = false
		f.Value.Set(f.DefValue)
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestVersion(t *testing.T) {
	setupTestEnv(t)

	stdout, _, code := runCLI(t, "version")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "adforge") {
		t.Fatalf("expected 'adforge', got: %s", stdout)
	}
}

func TestConfigAddContext(t *testing.T) {
	setupTestEnv(t)

	stdout, _, code := runCLI(t, "config", "add-context", "dev")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "created") {
		t.Fatalf("expected 'created', got: %s", stdout)
	}

	_, stderr, code := runCLI(t, "config", "add-context", "dev")
	if code == 0 {
		t.Fatal("expected non-zero exit for duplicate")
	}
	if !strings.Contains(stderr, "already exists") {
		t.Fatalf("expected 'already exists', got: %s", stderr)
	}
}

func TestConfigUseAndCurrentContext(t *testing.T) {
	setupTestEnv(t)

	runCLI(t, "config", "add-context", "dev")
	_, _, code := runCLI(t, "config", "use-context", "dev")
	if code != 0 {
		t.Fatalf("use-context exit %d", code)
	}

	stdout, _, code := runCLI(t, "config", "current-context")
	if code != 0 {
		t.Fatalf("current-context exit %d", code)
	}
	if strings.TrimSpace(stdout) != "dev" {
		t.Fatalf("current-context = %q, want dev", strings.TrimSpace(stdout))
	}
}

func TestConfigUseUnknownContext(t *testing.T) {
	setupTestEnv(t)

	_, stderr, code := runCLI(t, "config", "use-context", "ghost")
	if code == 0 {
		t.Fatal("expected non-zero exit")
	}
	if !strings.Contains(stderr, "not found") {
		t.Fatalf("expected 'not found', got: %s", stderr)
	}
}

func TestConfigSetGet(t *testing.T) {
	setupTestEnv(t)

	runCLI(t, "config", "add-context", "dev")

	_, _, code := runCLI(t, "config", "set", "dev", "chat", "api_key", "sk-test")
	if code != 0 {
		t.Fatalf("set exit %d", code)
	}

	stdout, _, code := runCLI(t, "config", "get", "dev", "chat", "api_key")
	if code != 0 {
		t.Fatalf("get exit %d", code)
	}
	if strings.TrimSpace(stdout) != "sk-test" {
		t.Fatalf("get = %q, want sk-test", strings.TrimSpace(stdout))
	}

	// Second set on the same file keeps existing keys.
	runCLI(t, "config", "set", "dev", "chat", "model", "gpt-4o")
	stdout, _, _ = runCLI(t, "config", "get", "dev", "chat", "api_key")
	if strings.TrimSpace(stdout) != "sk-test" {
		t.Fatalf("api_key lost after second set: %q", stdout)
	}
}

func TestConfigSetRejectsBadServiceName(t *testing.T) {
	setupTestEnv(t)

	runCLI(t, "config", "add-context", "dev")
	_, _, code := runCLI(t, "config", "set", "dev", "../evil", "k", "v")
	if code == 0 {
		t.Fatal("expected non-zero exit for bad service name")
	}
}

func TestConfigListContexts(t *testing.T) {
	setupTestEnv(t)

	runCLI(t, "config", "add-context", "dev")
	runCLI(t, "config", "add-context", "prod")
	runCLI(t, "config", "use-context", "prod")

	stdout, _, code := runCLI(t, "config", "list-contexts")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "dev") || !strings.Contains(stdout, "prod") {
		t.Fatalf("missing contexts in: %s", stdout)
	}
}

func TestRunRequiresCredentials(t *testing.T) {
	setupTestEnv(t)
	t.Setenv("OPENAI_API_KEY", "")

	_, stderr, code := runCLI(t, "run", "smart kettle")
	if code == 0 {
		t.Fatal("expected non-zero exit with no credentials")
	}
	if !strings.Contains(stderr, "api key") {
		t.Fatalf("expected missing api key error, got: %s", stderr)
	}
}

func TestRunRejectsEmptyTopic(t *testing.T) {
	setupTestEnv(t)

	_, _, code := runCLI(t, "run", "   ")
	if code == 0 {
		t.Fatal("expected non-zero exit for blank topic")
	}
}

func TestResolveRunRequestFromFile(t *testing.T) {
	setupTestEnv(t)

	path := filepath.Join(t.TempDir(), "campaign.yaml")
	body := "topic: smart kettle\ndeep_research: true\nenable_image_gen: true\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	runFlags.file = path
	defer func() { runFlags = runFlagsType{} }()

	topic, err := resolveRunRequest(nil)
	if err != nil {
		t.Fatalf("resolveRunRequest: %v", err)
	}
	if topic != "smart kettle" {
		t.Errorf("topic = %q", topic)
	}
	if !runFlags.deepResearch || !runFlags.imageGen {
		t.Errorf("file toggles not applied: %+v", runFlags)
	}

	// An explicit argument overrides the file topic.
	runFlags.file = path
	topic, err = resolveRunRequest([]string{"espresso machine"})
	if err != nil {
		t.Fatalf("resolveRunRequest: %v", err)
	}
	if topic != "espresso machine" {
		t.Errorf("topic = %q, want argument to win", topic)
	}
}

func TestCheckpointsListShowsRunSummary(t *testing.T) {
	setupTestEnv(t)
	dir := t.TempDir()

	store, err := checkpoint.NewBadger(checkpoint.BadgerOptions{Dir: dir})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	rec := &checkpoint.Record{
		RunID:   "run-1",
		Stage:   "strategy",
		Topic:   "espresso machines",
		Payload: []byte(`{"topic":"espresso machines"}`),
		SavedAt: time.Now(),
	}
	if err := store.Save(context.Background(), rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	store.Close()

	stdout, _, code := runCLI(t, "checkpoints", "list", "--dir", dir)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stdout)
	}
	for _, want := range []string{"run-1", "espresso machines", "B"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("listing missing %q: %s", want, stdout)
		}
	}
}

func TestCheckpointsListEmptyDir(t *testing.T) {
	setupTestEnv(t)

	stdout, _, code := runCLI(t, "checkpoints", "list", "--dir", t.TempDir())
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "No checkpoints") {
		t.Fatalf("expected empty listing, got: %s", stdout)
	}
}
