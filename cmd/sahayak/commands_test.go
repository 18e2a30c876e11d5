package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestLanguagesCommand(t *testing.T) {
	t.Setenv("SAHAYAK_CONFIG", "")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"languages", "--env-file", filepath.Join(t.TempDir(), "none.env")})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 8 {
		t.Fatalf("got %d languages:\n%s", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], "bn") || !strings.Contains(out.String(), "hi-IN-SwaraNeural") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestServeRequiresAPIKey(t *testing.T) {
	t.Setenv("SAHAYAK_CONFIG", "")
	t.Setenv("GROQ_API_KEY", "")

	root := newRootCmd()
	root.SetArgs([]string{"serve", "--env-file", filepath.Join(t.TempDir(), "none.env")})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "GROQ_API_KEY") {
		t.Errorf("error = %v", err)
	}
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "cli", "languages"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("missing command %q", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing --config flag")
	}
}
