package kernel

import (
	"context"
	"testing"
	"time"
)

func runKernel(t *testing.T) (*Kernel, context.CancelFunc) {
	t.Helper()
	k := New()
	ctx, cancel := context.WithCancel(context.Background())
	go k.Run(ctx)
	return k, cancel
}

func addEchoProc(t *testing.T, k *Kernel, id ProcessId, stopOnQuit bool) CmdSink {
	t.Helper()
	sink := make(CmdSink, cmdSinkBuffer)
	k.Inbox <- Message{Command: CmdAddProc{
		ID: id,
		Factory: func(ctx ProcContext) (ProcInit, error) {
			return ProcInit{Sink: sink, StopOnQuit: stopOnQuit, InitialStatus: StatusDown}, nil
		},
	}}
	return sink
}

func TestNextIDNeverRepeats(t *testing.T) {
	seen := map[ProcessId]bool{}
	for i := 0; i < 100; i++ {
		id := NextID()
		if seen[id] {
			t.Fatalf("NextID produced a repeat: %d", id)
		}
		seen[id] = true
	}
}

func TestRouteDeliversToTargetSink(t *testing.T) {
	k, cancel := runKernel(t)
	defer cancel()

	id := NextID()
	sink := addEchoProc(t, k, id, false)

	k.Inbox <- Message{Command: CmdRoute{Target: id, Cmd: CmdStart{}}}

	select {
	case cmd := <-sink:
		if _, ok := cmd.(CmdStart); !ok {
			t.Fatalf("expected CmdStart, got %T", cmd)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for routed command")
	}
}

func TestRouteToUnknownProcIsDroppedNotFatal(t *testing.T) {
	k, cancel := runKernel(t)
	defer cancel()

	k.Inbox <- Message{Command: CmdRoute{Target: ProcessId(99999), Cmd: CmdStart{}}}

	// Kernel must still be alive and able to service subsequent messages.
	id := NextID()
	sink := addEchoProc(t, k, id, false)
	k.Inbox <- Message{Command: CmdRoute{Target: id, Cmd: CmdStop{}}}
	select {
	case <-sink:
	case <-time.After(time.Second):
		t.Fatal("kernel stopped servicing messages after a bad route")
	}
}

func TestFanOutToListeners(t *testing.T) {
	k, cancel := runKernel(t)
	defer cancel()

	source := NextID()
	addEchoProc(t, k, source, false)

	listener := NextID()
	listenerSink := addEchoProc(t, k, listener, false)
	k.Inbox <- Message{Command: CmdListenProcUpdates{Listener: listener}}

	k.Inbox <- Message{From: source, Command: CmdProcStarted{}}

	select {
	case cmd := <-listenerSink:
		upd, ok := cmd.(CmdOnProcUpdate)
		if !ok {
			t.Fatalf("expected CmdOnProcUpdate, got %T", cmd)
		}
		if upd.Source != source {
			t.Fatalf("expected source %d, got %d", source, upd.Source)
		}
		if _, ok := upd.Update.(UpdateStarted); !ok {
			t.Fatalf("expected UpdateStarted, got %T", upd.Update)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for fan-out")
	}
}

func TestUnlistenStopsFanOut(t *testing.T) {
	k, cancel := runKernel(t)
	defer cancel()

	source := NextID()
	addEchoProc(t, k, source, false)

	listener := NextID()
	listenerSink := addEchoProc(t, k, listener, false)
	k.Inbox <- Message{Command: CmdListenProcUpdates{Listener: listener}}
	k.Inbox <- Message{Command: CmdUnlistenProcUpdates{Listener: listener}}

	k.Inbox <- Message{From: source, Command: CmdProcStarted{}}

	// Give the loop a moment to process, then assert nothing arrived.
	select {
	case cmd := <-listenerSink:
		t.Fatalf("expected no fan-out after Unlisten, got %T", cmd)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestQuitWaitsForStopOnQuitProcesses(t *testing.T) {
	k := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		k.Run(ctx)
		close(done)
	}()

	id := NextID()
	sink := addEchoProc(t, k, id, true)
	k.Inbox <- Message{From: id, Command: CmdProcStarted{}}

	k.Inbox <- Message{Command: CmdQuit{}}

	select {
	case <-sink:
	case <-time.After(time.Second):
		t.Fatal("expected CmdStop to be routed to the stop-on-quit process")
	}

	select {
	case <-done:
		t.Fatal("kernel exited before the process reported Down")
	case <-time.After(50 * time.Millisecond):
	}

	k.Inbox <- Message{From: id, Command: CmdProcStopped{ExitCode: 0}}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("kernel did not exit after all stop-on-quit processes reported Down")
	}
}

func TestQuitWithNoStopOnQuitProcessesExitsImmediately(t *testing.T) {
	k := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		k.Run(ctx)
		close(done)
	}()

	addEchoProc(t, k, NextID(), false)
	k.Inbox <- Message{Command: CmdQuit{}}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("kernel did not exit on Quit with nothing to wait on")
	}
}
