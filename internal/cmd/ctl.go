package cmd

import (
	"fmt"

	"github.com/dcosson/mprocs-go/internal/ctlsocket"
	"github.com/dcosson/mprocs-go/internal/procerr"
)

// runCtl sends one YAML-encoded AppEvent to a running instance's control
// socket and returns, the way the original CLI's --ctl flag works:
// connect, write the event, exit without waiting for a reply.
func runCtl(serverAddr, event string) error {
	if serverAddr == "" {
		return &procerr.ConfigError{Msg: "--ctl requires --server ADDR to know where to send the event"}
	}
	if err := ctlsocket.Send(serverAddr, []byte(event)); err != nil {
		return fmt.Errorf("send control event: %w", err)
	}
	return nil
}
