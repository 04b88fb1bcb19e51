package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func prepareTestEnv(t *testing.T) {
	t.Helper()
	tmp := t.TempDir()

	cfg := []byte(`
server:
  port: 18080
log:
  log_level: error
  log_dir: ` + filepath.Join(tmp, "logs") + `
database:
  dsn: ` + filepath.Join(tmp, "test.db") + `
auth:
  access_secret: smoke-access
  refresh_secret: smoke-refresh
  store:
    type: memory
`)
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, cfg, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("QUILL_CONFIG", path)
}

func TestInitGraphOrder(t *testing.T) {
	steps := InitGraph()
	want := []string{
		"config:load",
		"logging:init",
		"storage:init-database",
		"storage:seed-admin",
		"events:init-bus",
		"session:init-store",
		"session:init-manager",
	}
	if len(steps) != len(want) {
		t.Fatalf("unexpected step count: got %d want %d", len(steps), len(want))
	}
	for i, step := range steps {
		if step.ID != want[i] {
			t.Fatalf("step %d mismatch: got %s want %s", i, step.ID, want[i])
		}
	}
}

func TestInitGraphDependenciesDeclaredInOrder(t *testing.T) {
	seen := map[string]bool{}
	for _, step := range InitGraph() {
		for _, dep := range step.DependsOn {
			if !seen[dep] {
				t.Errorf("step %s depends on %s which is not declared earlier", step.ID, dep)
			}
		}
		seen[step.ID] = true
	}
}

func TestExecuteInitGraph(t *testing.T) {
	prepareTestEnv(t)

	state := &appState{}
	if err := executeInitSteps(context.Background(), InitGraph(), state); err != nil {
		t.Fatalf("executeInitSteps failed: %v", err)
	}
	defer state.logger.Close()
	defer state.manager.Close()

	if state.config == nil {
		t.Fatal("config is nil after init")
	}
	if state.config.Server.Port != 18080 {
		t.Errorf("config file not applied, port = %d", state.config.Server.Port)
	}
	if state.db == nil {
		t.Fatal("database is nil after init")
	}
	if state.bus == nil {
		t.Fatal("event bus is nil after init")
	}
	if state.manager == nil {
		t.Fatal("session manager is nil after init")
	}

	// The seeded admin must be able to log in straight away.
	result, err := state.manager.Login(context.Background(),
		state.config.Auth.AdminEmail, state.config.Auth.AdminPassword, "smoke test")
	if err != nil {
		t.Fatalf("admin login after bootstrap failed: %v", err)
	}
	if result.Identity.Role != "admin" {
		t.Errorf("seeded account role = %q, want admin", result.Identity.Role)
	}
}

func TestExecuteInitStepsRejectsUnmetDependency(t *testing.T) {
	steps := []initStep{
		{
			ID:        "b",
			Title:     "needs a",
			DependsOn: []string{"a"},
			Execute:   func(context.Context, *appState) error { return nil },
		},
	}
	if err := executeInitSteps(context.Background(), steps, &appState{}); err == nil {
		t.Fatal("expected dependency error")
	}
}
