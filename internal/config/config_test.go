package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFromYAML(t *testing.T) {
	path := writeTemp(t, "mprocs.yaml", `
procs:
  web:
    shell: "npm start"
    autorestart: true
    stop: SIGTERM
  worker:
    command: ["go", "run", "./cmd/worker"]
    deps: ["web"]
`)
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.ProcList) != 2 {
		t.Fatalf("expected 2 procs, got %d", len(cfg.ProcList))
	}
	web := cfg.ProcList["web"]
	if web.Name != "web" || web.Shell != "npm start" || !web.Autorestart {
		t.Fatalf("unexpected web config: %#v", web)
	}
	if web.Stop.Kind != StopSIGTERM {
		t.Fatalf("expected SIGTERM, got %v", web.Stop.Kind)
	}
	if !web.AutostartDefault() {
		t.Fatal("expected autostart to default true")
	}
}

func TestLoadFromJSON(t *testing.T) {
	path := writeTemp(t, "mprocs.json", `{"procs": {"t": {"command": ["true"]}}}`)
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.ProcList) != 1 {
		t.Fatalf("expected 1 proc, got %d", len(cfg.ProcList))
	}
}

func TestValidateRejectsUnknownDep(t *testing.T) {
	path := writeTemp(t, "mprocs.yaml", `
procs:
  a:
    shell: "true"
    deps: ["nonexistent"]
`)
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected validation error for unknown dep")
	}
}

func TestStopSignalSendKeys(t *testing.T) {
	path := writeTemp(t, "mprocs.yaml", `
procs:
  a:
    shell: "true"
    stop:
      send-keys: ["<C-c>", "<Enter>"]
`)
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	stop := cfg.ProcList["a"].Stop
	if stop.Kind != StopSendKeys {
		t.Fatalf("expected StopSendKeys, got %v", stop.Kind)
	}
	if len(stop.SendKeys) != 2 {
		t.Fatalf("expected 2 keys, got %v", stop.SendKeys)
	}
}

func TestArgvFromShellString(t *testing.T) {
	p := &ProcessConfig{Name: "x", Shell: "echo 'hello world'"}
	argv, err := p.Argv()
	if err != nil {
		t.Fatal(err)
	}
	if len(argv) != 2 || argv[0] != "echo" || argv[1] != "hello world" {
		t.Fatalf("unexpected argv: %#v", argv)
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	if _, ok := Find(dir); ok {
		t.Fatal("expected no config file found in empty dir")
	}
	if err := os.WriteFile(filepath.Join(dir, "mprocs.yaml"), []byte("procs: {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	path, ok := Find(dir)
	if !ok || filepath.Base(path) != "mprocs.yaml" {
		t.Fatalf("expected to find mprocs.yaml, got %q ok=%v", path, ok)
	}
}

func TestFromArgs(t *testing.T) {
	cfg := FromArgs([]string{"echo hi", "sleep 1"}, []string{"greeter"})
	if len(cfg.ProcList) != 2 {
		t.Fatalf("expected 2 procs, got %d", len(cfg.ProcList))
	}
	if cfg.ProcList["greeter"] == nil {
		t.Fatal("expected named proc 'greeter'")
	}
}
