package procinst

import (
	"testing"
	"time"

	"github.com/dcosson/mprocs-go/internal/config"
	"github.com/dcosson/mprocs-go/internal/keys"
	"github.com/dcosson/mprocs-go/internal/kernel"
	"github.com/dcosson/mprocs-go/internal/vt"
)

func startInstance(t *testing.T, cfg *config.ProcessConfig) (kernel.CmdSink, chan kernel.Message) {
	t.Helper()
	inbox := make(chan kernel.Message, 64)
	factory := New(cfg, vt.ColorHints{})
	init, err := factory(kernel.ProcContext{ID: 1, KernelSink: inbox})
	if err != nil {
		t.Fatal(err)
	}
	return init.Sink, inbox
}

func waitForStopped(t *testing.T, inbox chan kernel.Message) kernel.CmdProcStopped {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-inbox:
			if stopped, ok := msg.Command.(kernel.CmdProcStopped); ok {
				return stopped
			}
		case <-deadline:
			t.Fatal("timed out waiting for CmdProcStopped")
		}
	}
}

func waitForStarted(t *testing.T, inbox chan kernel.Message) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-inbox:
			if _, ok := msg.Command.(kernel.CmdProcStarted); ok {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for CmdProcStarted")
		}
	}
}

func TestStartAndExit(t *testing.T) {
	yes := true
	cfg := &config.ProcessConfig{Name: "t", Shell: "true", Autostart: &yes}
	_, inbox := startInstance(t, cfg)

	waitForStarted(t, inbox)
	stopped := waitForStopped(t, inbox)
	if stopped.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", stopped.ExitCode)
	}
}

func TestRestartOnCrash(t *testing.T) {
	yes := true
	cfg := &config.ProcessConfig{
		Name:        "crasher",
		Shell:       "exit 1",
		Autostart:   &yes,
		Autorestart: true,
	}
	_, inbox := startInstance(t, cfg)

	waitForStarted(t, inbox)
	stopped := waitForStopped(t, inbox)
	if stopped.ExitCode != 1 {
		t.Fatalf("expected exit code 1, got %d", stopped.ExitCode)
	}

	// Uptime was well under 1.0s, so autorestart must not retrigger.
	select {
	case msg := <-inbox:
		t.Fatalf("expected no further messages after a fast crash, got %#v", msg.Command)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestRestartAllowedNowWithNoSchedule(t *testing.T) {
	inst := &Instance{cfg: &config.ProcessConfig{Name: "t"}}
	if !inst.restartAllowedNow() {
		t.Fatal("expected no restart_schedule to always allow a restart")
	}
}

func TestRestartAllowedNowBeforeFirstRestart(t *testing.T) {
	inst := &Instance{cfg: &config.ProcessConfig{Name: "t", RestartSchedule: "FREQ=HOURLY;INTERVAL=1"}}
	if !inst.restartAllowedNow() {
		t.Fatal("expected the first autorestart to be allowed regardless of schedule")
	}
}

func TestRestartAllowedNowSuppressesWithinWindow(t *testing.T) {
	inst := &Instance{
		cfg:             &config.ProcessConfig{Name: "t", RestartSchedule: "FREQ=HOURLY;INTERVAL=1"},
		lastAutoRestart: time.Now(),
	}
	if inst.restartAllowedNow() {
		t.Fatal("expected an hourly restart_schedule to suppress a restart moments after the last one")
	}
}

func TestRestartAllowedNowInvalidScheduleAllows(t *testing.T) {
	inst := &Instance{
		cfg:             &config.ProcessConfig{Name: "t", RestartSchedule: "not-an-rrule"},
		lastAutoRestart: time.Now(),
	}
	if !inst.restartAllowedNow() {
		t.Fatal("expected an invalid restart_schedule to never block a restart")
	}
}

func TestKeystrokeReachesChild(t *testing.T) {
	yes := true
	cfg := &config.ProcessConfig{Name: "cat", Shell: "cat", Autostart: &yes}
	sink, inbox := startInstance(t, cfg)
	waitForStarted(t, inbox)

	sink <- kernel.CmdResize{Rows: 24, Cols: 80}
	sink <- kernel.CmdSendKey{Key: keys.Key{Code: keys.CodeRune, Rune: 'a'}}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-inbox:
			if _, ok := msg.Command.(kernel.CmdProcUpdatedScreen); ok {
				sink <- kernel.CmdKill{}
				waitForStopped(t, inbox)
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for the echoed keystroke to update the screen")
		}
	}
}
