package main

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const domainFile = `
actions:
  - name: Boil
    post: {hot: true}
  - name: Brew
    cost: 2
    pre: {hot: true}
    post: {tea: true}
start: {hot: false}
goal: {tea: true}
`

func runArgs(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GOAP_CONFIG", filepath.Join(dir, "config"))
	t.Setenv("GOAP_LOG_LEVEL", "error")

	domain := filepath.Join(dir, "tea.yaml")
	if err := os.WriteFile(domain, []byte(domainFile), 0644); err != nil {
		t.Fatalf("writing domain: %v", err)
	}

	t.Run("no command shows help", func(t *testing.T) {
		out, _, err := runArgs(t)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if !strings.Contains(out, "Available commands:") {
			t.Errorf("Expected help, got %q", out)
		}
	})

	t.Run("help flag", func(t *testing.T) {
		for _, arg := range []string{"-h", "--help"} {
			if _, _, err := runArgs(t, arg); err != nil {
				t.Errorf("Expected no error for %s, got: %v", arg, err)
			}
		}
	})

	t.Run("version command", func(t *testing.T) {
		out, _, err := runArgs(t, "version")
		if err != nil || out != "goap version "+version+"\n" {
			t.Errorf("unexpected %q, %v", out, err)
		}
	})

	t.Run("unknown command", func(t *testing.T) {
		_, stderr, err := runArgs(t, "nonexistent")
		if err == nil {
			t.Error("Expected error for unknown command")
		}
		if !strings.Contains(stderr, "Use 'goap help'") {
			t.Errorf("unexpected stderr %q", stderr)
		}
	})

	t.Run("command flag help", func(t *testing.T) {
		_, stderr, err := runArgs(t, "plan", "-h")
		if err != flag.ErrHelp {
			t.Fatalf("Expected flag.ErrHelp, got %v", err)
		}
		if !strings.Contains(stderr, "Usage: plan [options] <domain.yaml>") {
			t.Errorf("unexpected stderr %q", stderr)
		}
	})

	t.Run("plan", func(t *testing.T) {
		out, _, err := runArgs(t, "plan", domain)
		if err != nil {
			t.Fatalf("plan: %v", err)
		}
		if out != "Boil\nBrew\ntotal cost: 3\n" {
			t.Errorf("unexpected plan %q", out)
		}
	})

	t.Run("run", func(t *testing.T) {
		out, _, err := runArgs(t, "run", domain)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if !strings.HasPrefix(out, "Boil\nBrew\ngoal reached: 2 action(s), 1 plan(s)") {
			t.Errorf("unexpected run output %q", out)
		}
	})

	t.Run("config round trip", func(t *testing.T) {
		if _, _, err := runArgs(t, "config", "planner.heuristic", "zero"); err != nil {
			t.Fatalf("config set: %v", err)
		}
		out, _, err := runArgs(t, "config", "planner.heuristic")
		if err != nil || out != "planner.heuristic: zero\n" {
			t.Errorf("unexpected %q, %v", out, err)
		}
	})
}
