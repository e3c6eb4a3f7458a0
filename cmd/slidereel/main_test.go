package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"slidereel/internal/api"
)

func TestSubmitWaitCompletes(t *testing.T) {
	env := setupCLITestEnv(t)
	archive := writeArchive(t, env.baseDir, "Lesson 1.zip", 3)

	out, _, err := runCLI(t, []string{
		"submit", archive,
		"--to", "author@example.com",
		"--skip-upload", "--no-email",
		"--wait", "--interval", "20ms",
	}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("submit: %v\n%s", err, out)
	}
	requireContains(t, out, "Queued ")
	requireContains(t, out, "Complete.")

	out, _, err = runCLI(t, []string{"status-all"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("status-all: %v", err)
	}
	requireContains(t, out, "Lesson 1")
	requireContains(t, out, "Complete.")
}

func TestSubmitRequiresRecipient(t *testing.T) {
	env := setupCLITestEnv(t)
	archive := writeArchive(t, env.baseDir, "course.zip", 1)
	_, _, err := runCLI(t, []string{"submit", archive}, env.apiAddr, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--to is required") {
		t.Fatalf("expected missing recipient error, got %v", err)
	}
}

func TestSubmitInvalidArchiveReportsDaemonMessage(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.baseDir, "broken.zip")
	if err := os.WriteFile(path, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := runCLI(t, []string{"submit", path, "--to", "a@example.com"}, env.apiAddr, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "daemon returned 400") {
		t.Fatalf("expected 400 from daemon, got %v", err)
	}
}

func TestStatusAndBusyCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status", "missing"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Not found")

	out, _, err = runCLI(t, []string{"busy"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("busy: %v", err)
	}
	if strings.TrimSpace(out) != "no" {
		t.Fatalf("expected idle daemon, got %q", out)
	}

	out, _, err = runCLI(t, []string{"status-all"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("status-all: %v", err)
	}
	requireContains(t, out, "No jobs")
}

func TestStatusAllJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	archive := writeArchive(t, env.baseDir, "json.zip", 2)
	if _, _, err := runCLI(t, []string{"submit", archive, "--to", "a@example.com", "--no-email"}, env.apiAddr, env.configPath); err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitFor(t, 5*time.Second, func() bool {
		out, _, err := runCLI(t, []string{"status-all", "--json"}, env.apiAddr, env.configPath)
		return err == nil && strings.Contains(out, `"status": "Complete."`)
	})
}

func TestHealthCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"health"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	requireContains(t, out, "== Daemon ==")
	requireContains(t, out, "FFmpeg:")
	requireContains(t, out, "Work directory:")
}

func TestTestNotifyWithoutToken(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"test-notify", "--to", "a@example.com"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "postmark token not configured")
}

func TestUnreachableDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"busy"}, "127.0.0.1:1", env.configPath)
	if err == nil {
		t.Fatal("expected connection error")
	}
	requireContains(t, err.Error(), "connect to daemon")
}

func TestRenderStatusTable(t *testing.T) {
	table := renderStatusTable([]api.JobStatus{
		{ID: "aaaa1111", Name: "One", Status: "Generation progress: 40%"},
		{ID: "bbbb2222", Name: "Two", Status: "Waiting..."},
	}, false)
	requireContains(t, table, "aaaa1111")
	requireContains(t, table, "Waiting...")
	if strings.Contains(table, ansiReset) {
		t.Fatal("uncolored table must not contain escape codes")
	}
	colored := renderStatusTable([]api.JobStatus{{ID: "x", Status: "Error: boom"}}, true)
	requireContains(t, colored, ansiRed)
}
