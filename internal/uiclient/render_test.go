package uiclient

import (
	"testing"

	"github.com/dcosson/mprocs-go/internal/app"
	"github.com/dcosson/mprocs-go/internal/config"
	"github.com/dcosson/mprocs-go/internal/wire"
)

func drainMessages(t *testing.T, link *wire.Link) []wire.AppMessage {
	t.Helper()
	var got []wire.AppMessage
	for {
		select {
		case msg := <-link.ToClient:
			got = append(got, msg)
		default:
			return got
		}
	}
}

func TestRenderFirstFrameClearsAndFlushes(t *testing.T) {
	link := wire.NewLink()
	r := New(link)
	r.SetSize(10, 40)

	state := &app.AppState{}
	r.Render(state)

	msgs := drainMessages(t, link)
	if len(msgs) == 0 {
		t.Fatal("expected render to emit wire messages")
	}
	if _, ok := msgs[0].(wire.MsgClear); !ok {
		t.Fatalf("first message = %T, want MsgClear on first frame", msgs[0])
	}
	last := msgs[len(msgs)-1]
	if _, ok := last.(wire.MsgFlush); !ok {
		t.Fatalf("last message = %T, want MsgFlush every frame", last)
	}
}

func TestRenderSendsQuitOnceAllProcessesAreDown(t *testing.T) {
	link := wire.NewLink()
	r := New(link)
	r.SetSize(10, 40)

	state := &app.AppState{
		Quitting: true,
		Procs:    []*app.ProcessView{{Config: &config.ProcessConfig{Name: "one"}, IsUp: false}},
	}
	r.Render(state)

	msgs := drainMessages(t, link)
	sawQuit := false
	for _, m := range msgs {
		if _, ok := m.(wire.MsgQuit); ok {
			sawQuit = true
		}
	}
	if !sawQuit {
		t.Fatal("expected MsgQuit once Quitting is set and every process is down")
	}
}

func TestRenderOmitsQuitWhileAProcessIsStillUp(t *testing.T) {
	link := wire.NewLink()
	r := New(link)
	r.SetSize(10, 40)

	state := &app.AppState{
		Quitting: true,
		Procs:    []*app.ProcessView{{Config: &config.ProcessConfig{Name: "one"}, IsUp: true}},
	}
	r.Render(state)

	for _, m := range drainMessages(t, link) {
		if _, ok := m.(wire.MsgQuit); ok {
			t.Fatal("did not expect MsgQuit while a process is still up")
		}
	}
}

func TestCommandsMenuLinesMarksSelectedItem(t *testing.T) {
	m := app.ModalCommandsMenu{
		Items: []app.CommandMenuItem{
			{Name: "quit", Desc: "quit, stopping all processes"},
			{Name: "next-proc", Desc: "select the next process"},
		},
		Selected: 1,
	}

	lines := commandsMenuLines(m)
	if len(lines) != 3 {
		t.Fatalf("commandsMenuLines() = %d lines, want 3 (title + 2 items)", len(lines))
	}
	if lines[1] != "  quit - quit, stopping all processes" {
		t.Fatalf("unselected item line = %q", lines[1])
	}
	if lines[2] != "> next-proc - select the next process" {
		t.Fatalf("selected item line = %q, want it marked with '> '", lines[2])
	}
}

func TestSecondRenderSkipsClear(t *testing.T) {
	link := wire.NewLink()
	r := New(link)
	r.SetSize(10, 40)

	r.Render(&app.AppState{})
	drainMessages(t, link)

	r.Render(&app.AppState{})
	for _, m := range drainMessages(t, link) {
		if _, ok := m.(wire.MsgClear); ok {
			t.Fatal("did not expect a second MsgClear once the renderer has a previous frame")
		}
	}
}
