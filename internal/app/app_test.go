package app

import (
	"context"
	"testing"
	"time"

	"github.com/dcosson/mprocs-go/internal/config"
	"github.com/dcosson/mprocs-go/internal/kernel"
	"github.com/dcosson/mprocs-go/internal/keys"
)

type captureRenderer struct{ calls int }

func (c *captureRenderer) Render(*AppState) { c.calls++ }

// startApp wires a fresh kernel + App together the way main.go eventually
// will, registering the app as a kernel process and returning once the
// app's own sink is live.
func startApp(t *testing.T, cfg *config.Config) (*App, *kernel.Kernel, context.CancelFunc) {
	t.Helper()
	k := kernel.New()
	ctx, cancel := context.WithCancel(context.Background())
	go k.Run(ctx)

	a, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	appID := kernel.NextID()
	init, err := a.Factory()(kernel.ProcContext{ID: appID, KernelSink: k.Inbox})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	k.Inbox <- kernel.Message{
		From:    appID,
		Command: kernel.CmdAddProc{ID: appID, Factory: func(kernel.ProcContext) (kernel.ProcInit, error) { return init, nil }},
	}
	// Let the kernel process AddProc before this proc tries to route anything.
	time.Sleep(20 * time.Millisecond)

	a.AddProcesses()
	go a.Run(ctx)

	return a, k, cancel
}

func yesPtr() *bool { v := true; return &v }

func twoProcConfig() *config.Config {
	return &config.Config{ProcList: map[string]*config.ProcessConfig{
		"cat1": {Name: "cat1", Shell: "cat", Autostart: yesPtr()},
		"cat2": {Name: "cat2", Shell: "cat", Autostart: yesPtr()},
	}}
}

func TestSelectNextWraps(t *testing.T) {
	a, _, cancel := startApp(t, twoProcConfig())
	defer cancel()

	a.DispatchKey(k(t, "<Down>"))
	time.Sleep(10 * time.Millisecond)
	first := a.State().Selected

	a.DispatchKey(k(t, "<Down>"))
	time.Sleep(10 * time.Millisecond)
	second := a.State().Selected

	if first == second {
		t.Fatalf("expected selection to move, stayed at %d", first)
	}
	if second != (first+1)%2 {
		t.Fatalf("expected wraparound selection, got %d after %d", second, first)
	}
}

func TestToggleFocusSwitchesScope(t *testing.T) {
	a, _, cancel := startApp(t, twoProcConfig())
	defer cancel()

	before := a.State().Scope
	a.DispatchKey(k(t, "<C-a>"))
	time.Sleep(10 * time.Millisecond)
	after := a.State().Scope

	if before != ScopeProcs {
		t.Fatalf("expected to start in Procs scope, got %v", before)
	}
	if after != ScopeTerm {
		t.Fatalf("expected Term scope after toggle, got %v", after)
	}
}

func TestOpenAndSubmitAddProcModal(t *testing.T) {
	a, _, cancel := startApp(t, twoProcConfig())
	defer cancel()

	a.DispatchKey(k(t, "<C-x>"))
	time.Sleep(10 * time.Millisecond)
	if _, ok := a.State().Modal.(ModalAddProc); !ok {
		t.Fatalf("expected ModalAddProc open, got %#v", a.State().Modal)
	}

	for _, r := range "echo" {
		a.DispatchKey(keys.Key{Code: keys.CodeRune, Rune: r})
	}
	a.DispatchKey(k(t, "<Enter>"))
	time.Sleep(20 * time.Millisecond)

	st := a.State()
	if st.Modal != nil {
		t.Fatalf("expected modal to close after submit, got %#v", st.Modal)
	}
	if len(st.Procs) != 3 {
		t.Fatalf("expected a third process after add, got %d", len(st.Procs))
	}
}

func TestQuitStopsAllProcessesAndEndsLoop(t *testing.T) {
	a, _, cancel := startApp(t, twoProcConfig())
	defer cancel()

	time.Sleep(30 * time.Millisecond) // let cat children spawn
	a.DispatchKey(k(t, "<C-c>"))

	deadline := time.After(2 * time.Second)
	for {
		if a.State().Quitting && allDownSnapshot(a.State()) {
			return
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for quit to settle")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func allDownSnapshot(s AppState) bool {
	for _, v := range s.Procs {
		if v.IsUp {
			return false
		}
	}
	return true
}

func TestRendererInvokedWhenStateChanges(t *testing.T) {
	r := &captureRenderer{}
	cfg := twoProcConfig()
	a, err := New(cfg, r, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	k := kernel.New()
	go k.Run(ctx)

	appID := kernel.NextID()
	init, err := a.Factory()(kernel.ProcContext{ID: appID, KernelSink: k.Inbox})
	if err != nil {
		t.Fatal(err)
	}
	k.Inbox <- kernel.Message{Command: kernel.CmdAddProc{ID: appID, Factory: func(kernel.ProcContext) (kernel.ProcInit, error) { return init, nil }}}
	time.Sleep(20 * time.Millisecond)

	a.AddProcesses()
	go a.Run(ctx)

	time.Sleep(50 * time.Millisecond)
	if r.calls == 0 {
		t.Fatal("expected renderer to be invoked at least once")
	}
}

func k(t *testing.T, lit string) keys.Key {
	t.Helper()
	key, ok := keys.ParseLiteral(lit)
	if !ok {
		t.Fatalf("bad literal %q", lit)
	}
	return key
}
