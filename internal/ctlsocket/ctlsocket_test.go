package ctlsocket

import (
	"testing"
	"time"

	"github.com/dcosson/mprocs-go/internal/kernel"
)

func TestListenAndSendRoundTrip(t *testing.T) {
	inbox := make(chan kernel.Message, 4)
	appID := kernel.NextID()

	s, err := Listen("127.0.0.1:0", inbox, appID)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer s.Close()
	go s.Serve()

	body := []byte("restart: {proc_id: {name: one}}\n")
	if err := Send(s.Addr().String(), body); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case msg := <-inbox:
		route, ok := msg.Command.(kernel.CmdRoute)
		if !ok {
			t.Fatalf("kernel message Command = %T, want CmdRoute", msg.Command)
		}
		if route.Target != appID {
			t.Fatalf("routed target = %v, want %v", route.Target, appID)
		}
		server, ok := route.Cmd.(kernel.CmdServerMessage)
		if !ok {
			t.Fatalf("routed Cmd = %T, want CmdServerMessage", route.Cmd)
		}
		if string(server.Body) != string(body) {
			t.Fatalf("routed body = %q, want %q", server.Body, body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for routed event")
	}
}

func TestSecondListenOnSameAddrFailsWhileFirstIsOpen(t *testing.T) {
	inbox := make(chan kernel.Message, 1)
	appID := kernel.NextID()

	s, err := Listen("127.0.0.1:0", inbox, appID)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer s.Close()

	// Re-listening at the same bound address should fail: the port is
	// already taken, independent of the lock.
	if _, err := Listen(s.Addr().String(), inbox, appID); err == nil {
		t.Fatal("expected second Listen on the same address to fail")
	}
}

func TestCloseReleasesAddrForReuse(t *testing.T) {
	inbox := make(chan kernel.Message, 1)
	appID := kernel.NextID()

	s, err := Listen("127.0.0.1:0", inbox, appID)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	addr := s.Addr().String()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Listen(addr, inbox, appID)
	if err != nil {
		t.Fatalf("Listen after Close should succeed, got: %v", err)
	}
	s2.Close()
}

func TestOversizedEventIsDroppedNotRouted(t *testing.T) {
	inbox := make(chan kernel.Message, 1)
	appID := kernel.NextID()

	s, err := Listen("127.0.0.1:0", inbox, appID)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer s.Close()
	go s.Serve()

	oversized := make([]byte, maxEventSize+100)
	if err := Send(s.Addr().String(), oversized); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case msg := <-inbox:
		t.Fatalf("expected oversized event to be dropped, got routed message %+v", msg)
	case <-time.After(200 * time.Millisecond):
	}
}
