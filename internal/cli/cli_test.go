package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/me/schedsim/internal/config"
	"github.com/me/schedsim/internal/driver"
	"github.com/me/schedsim/internal/server"
	"github.com/me/schedsim/internal/store"
)

// startTestServer starts a server with an in-memory SQLite store and returns the URL.
func startTestServer(t *testing.T) string {
	t.Helper()
	srvLogger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
	st, err := store.NewSQLiteStore(":memory:", srvLogger)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	drivers := driver.NewManager(st, driver.Config{Interval: 10 * time.Millisecond}, srvLogger)
	t.Cleanup(drivers.Shutdown)

	srv := server.New(config.DefaultServerConfig(), st, drivers, srvLogger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

const testScenarioYAML = `name: cli-test
policy: fcfs
quantum: 2
processes:
  - id: p1
    name: P1
    arrival: 0
    burst: 8
    priority: 3
  - id: p2
    name: P2
    arrival: 1
    burst: 4
    priority: 1
  - id: p3
    name: P3
    arrival: 2
    burst: 9
    priority: 4
  - id: p4
    name: P4
    arrival: 3
    burst: 5
    priority: 2
`

// writeScenarioFile writes the test scenario YAML to a temp dir and returns the path.
func writeScenarioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(testScenarioYAML), 0o644); err != nil {
		t.Fatalf("write scenario file: %v", err)
	}
	return path
}

// registerTestScenario registers the test scenario via HTTP and returns its ID.
func registerTestScenario(t *testing.T, serverURL string) string {
	t.Helper()
	srvLogger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
	c := NewClient(serverURL, srvLogger)

	resp, err := c.Post("/api/v1/scenarios/", map[string]any{
		"name":           "cli-test",
		"default_policy": "FCFS",
		"quantum":        2,
		"processes": []map[string]any{
			{"id": "p1", "name": "P1", "arrival_time": 0, "burst_time": 8, "priority": 3},
			{"id": "p2", "name": "P2", "arrival_time": 1, "burst_time": 4, "priority": 1},
			{"id": "p3", "name": "P3", "arrival_time": 2, "burst_time": 9, "priority": 4},
			{"id": "p4", "name": "P4", "arrival_time": 3, "burst_time": 5, "priority": 2},
		},
	})
	if err != nil {
		t.Fatalf("register scenario: %v", err)
	}
	var data map[string]any
	json.Unmarshal(resp.Data, &data)
	return data["id"].(string)
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	var errBuf bytes.Buffer
	root.SetOut(&errBuf)
	root.SetErr(&errBuf)
	root.SetArgs(args)

	err := root.Execute()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String(), err
}

func TestSimulateCommand_Default(t *testing.T) {
	output, err := runCLI(t, "simulate")
	if err != nil {
		t.Fatalf("simulate error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "Scenario: classic-four") {
		t.Errorf("expected scenario name in output, got: %s", output)
	}
	if !strings.Contains(output, "Finished in 26 ticks") {
		t.Errorf("expected 'Finished in 26 ticks' in output, got: %s", output)
	}
	if !strings.Contains(output, "Average turnaround: 15.25") {
		t.Errorf("expected FCFS average turnaround 15.25, got: %s", output)
	}
	if !strings.Contains(output, "Average waiting:    8.75") {
		t.Errorf("expected FCFS average waiting 8.75, got: %s", output)
	}
}

func TestSimulateCommand_PolicyOverride(t *testing.T) {
	output, err := runCLI(t, "simulate", "--policy", "sjf")
	if err != nil {
		t.Fatalf("simulate error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "Policy:   SJF") {
		t.Errorf("expected SJF policy in output, got: %s", output)
	}
	if !strings.Contains(output, "Average turnaround: 13.00") {
		t.Errorf("expected SJF average turnaround 13.00, got: %s", output)
	}
	if !strings.Contains(output, "Average waiting:    6.50") {
		t.Errorf("expected SJF average waiting 6.50, got: %s", output)
	}
}

func TestSimulateCommand_FromFile(t *testing.T) {
	path := writeScenarioFile(t)
	output, err := runCLI(t, "simulate", path)
	if err != nil {
		t.Fatalf("simulate error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "Scenario: cli-test") {
		t.Errorf("expected scenario name in output, got: %s", output)
	}
}

func TestSimulateCommand_MissingFile(t *testing.T) {
	_, err := runCLI(t, "simulate", "nonexistent.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSimulateCommand_BadPolicy(t *testing.T) {
	_, err := runCLI(t, "simulate", "--policy", "LOTTERY")
	if err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestScenariosRegisterAndList(t *testing.T) {
	url := startTestServer(t)
	path := writeScenarioFile(t)

	output, err := runCLI(t, "--server", url, "scenarios", "register", path)
	if err != nil {
		t.Fatalf("register error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "Scenario registered: scn_") {
		t.Errorf("expected 'Scenario registered: scn_' in output, got: %s", output)
	}

	output, err = runCLI(t, "--server", url, "scenarios", "list")
	if err != nil {
		t.Fatalf("list error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "cli-test") {
		t.Errorf("expected scenario name in list output, got: %s", output)
	}
}

func TestRunCommand_Watch(t *testing.T) {
	url := startTestServer(t)
	scnID := registerTestScenario(t, url)

	output, err := runCLI(t, "--server", url, "run", scnID, "--interval", "2", "--watch")
	if err != nil {
		t.Fatalf("run error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "Run created: run_") {
		t.Errorf("expected 'Run created: run_' in output, got: %s", output)
	}
	if !strings.Contains(output, "COMPLETED") {
		t.Errorf("expected COMPLETED in output, got: %s", output)
	}
	if !strings.Contains(output, "Average turnaround: 15.25") {
		t.Errorf("expected final metrics in output, got: %s", output)
	}
}

func TestRunCommand_UnknownScenario(t *testing.T) {
	url := startTestServer(t)
	_, err := runCLI(t, "--server", url, "run", "scn_missing")
	if err == nil {
		t.Fatal("expected error for unknown scenario")
	}
}

func TestStatusCommand(t *testing.T) {
	url := startTestServer(t)
	scnID := registerTestScenario(t, url)

	output, err := runCLI(t, "--server", url, "run", scnID, "--interval", "60000")
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	runID := strings.Fields(output)[2]

	output, err = runCLI(t, "--server", url, "status", runID)
	if err != nil {
		t.Fatalf("status error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, runID) {
		t.Errorf("expected run ID in output, got: %s", output)
	}
	if !strings.Contains(output, "cli-test") {
		t.Errorf("expected scenario name in output, got: %s", output)
	}
}

func TestCancelCommand(t *testing.T) {
	url := startTestServer(t)
	scnID := registerTestScenario(t, url)

	output, err := runCLI(t, "--server", url, "run", scnID, "--interval", "60000")
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	runID := strings.Fields(output)[2]

	output, err = runCLI(t, "--server", url, "cancel", runID)
	if err != nil {
		t.Fatalf("cancel error: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "CANCELLED") {
		t.Errorf("expected CANCELLED in output, got: %s", output)
	}
}

func TestListCommand(t *testing.T) {
	url := startTestServer(t)
	scnID := registerTestScenario(t, url)

	if _, err := runCLI(t, "--server", url, "run", scnID, "--interval", "60000"); err != nil {
		t.Fatalf("run error: %v", err)
	}

	output, err := runCLI(t, "--server", url, "list")
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if !strings.Contains(output, "ID") {
		t.Errorf("expected table header in output, got: %s", output)
	}
	if !strings.Contains(output, "run_") {
		t.Errorf("expected run ID in output, got: %s", output)
	}
}
