package cmd

import (
	"context"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/dcosson/mprocs-go/internal/app"
	"github.com/dcosson/mprocs-go/internal/client"
	"github.com/dcosson/mprocs-go/internal/config"
	"github.com/dcosson/mprocs-go/internal/ctlsocket"
	"github.com/dcosson/mprocs-go/internal/kernel"
	"github.com/dcosson/mprocs-go/internal/procerr"
	"github.com/dcosson/mprocs-go/internal/uiclient"
	"github.com/dcosson/mprocs-go/internal/wire"
)

// resolveConfig picks a Config the way mprocs' own CLI does: an explicit
// --config path wins, then positional COMMANDS..., then whatever
// config.Find locates in the current directory.
func resolveConfig(path string, commands, names []string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	if len(commands) > 0 {
		return config.FromArgs(commands, names), nil
	}
	if found, ok := config.Find("."); ok {
		return config.LoadFrom(found)
	}
	return nil, &procerr.ConfigError{Msg: "no config file found and no commands given (pass --config, COMMANDS..., or add an mprocs.yaml)"}
}

// runApp wires up the kernel, app, renderer, client, and optional control
// socket, then blocks until the client loop exits. Grounded on h2's
// Daemon.Run: it assembles the same pieces (VT/overlay/socket/delivery)
// in the same order — socket and delivery first, UI loop last, blocking
// the calling goroutine — generalized from one child process to N.
func runApp(cfg *config.Config, serverAddr string) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return &procerr.ConfigError{Msg: "mprocs requires a terminal on stdout; use --ctl to control a running instance instead"}
	}

	k := kernel.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go k.Run(ctx)

	link := wire.NewLink()
	renderer := uiclient.New(link)

	a, err := app.New(cfg, renderer, client.OSC52Clipboard(os.Stdout))
	if err != nil {
		return err
	}
	a.SetColorHints(client.DetectColorHints())

	appID := kernel.NextID()
	init, err := a.Factory()(kernel.ProcContext{ID: appID, KernelSink: k.Inbox})
	if err != nil {
		return err
	}
	k.Inbox <- kernel.Message{
		From:    appID,
		Command: kernel.CmdAddProc{ID: appID, Factory: func(kernel.ProcContext) (kernel.ProcInit, error) { return init, nil }},
	}
	a.AddProcesses()
	go a.Run(ctx)

	if serverAddr != "" {
		srv, err := ctlsocket.Listen(serverAddr, k.Inbox, appID)
		if err != nil {
			return err
		}
		defer srv.Close()
		go srv.Serve()
	}

	cl := client.New(renderer, link)
	go client.RunAppBridge(ctx, a, link)

	return cl.Run(ctx)
}
