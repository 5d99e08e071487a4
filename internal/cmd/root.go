// Package cmd builds the mprocs-go command line, the way h2's
// internal/cmd/root.go builds one cobra root command and hangs every
// subcommand off it. mprocs-go's CLI surface is a single command with
// flags rather than h2's verb-per-subcommand tree (run/attach/send/...),
// since the original mprocs CLI is itself flag-shaped, but h2's
// PersistentPreRunE-for-startup-setup idiom and its version subcommand
// carry over unchanged.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dcosson/mprocs-go/internal/applog"
	"github.com/dcosson/mprocs-go/internal/procerr"
)

// Flags holds every persistent flag on the root command, resolved once in
// RunE. A struct instead of loose closures over RunE locals because
// runApp/runCtl/resolveConfig all need the same bag of values.
type Flags struct {
	Config           string
	Names            []string
	Npm              bool
	Just             bool
	Server           string
	Ctl              string
	OnAllFinished    string
	LogDir           string
	ProcListTitle    string
	HideKeymapWindow bool
}

// NewRootCmd builds the root command implementing the full CLI surface:
// --config, positional COMMANDS..., --names, --npm, --just, --server,
// --ctl, --on-all-finished, --log-dir, --proc-list-title,
// --hide-keymap-window.
func NewRootCmd() *cobra.Command {
	var f Flags

	root := &cobra.Command{
		Use:   "mprocs [flags] [commands...]",
		Short: "Run multiple commands in parallel in one terminal, each with its own pane",
		Long: `mprocs runs several processes in parallel and shows their output in
separate panes within one terminal, with keybindings to switch between,
restart, and stop each one.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return applog.Init(f.LogDir)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.Ctl != "" {
				return runCtl(f.Server, f.Ctl)
			}
			if f.Npm || f.Just {
				return unsupportedIngestionError(f.Npm, f.Just)
			}
			cfg, err := resolveConfig(f.Config, args, f.Names)
			if err != nil {
				return err
			}
			if f.OnAllFinished != "" {
				cfg.OnAllFinished = f.OnAllFinished
			}
			if f.ProcListTitle != "" {
				cfg.ProcListTitle = f.ProcListTitle
			}
			if f.HideKeymapWindow {
				cfg.HideKeymapWindow = true
			}
			return runApp(cfg, f.Server)
		},
	}

	root.Flags().StringVar(&f.Config, "config", "", "path to mprocs.yaml/mprocs.json (default: search the current directory)")
	root.Flags().StringSliceVar(&f.Names, "names", nil, "comma-separated names for the positional COMMANDS, in order")
	root.Flags().BoolVar(&f.Npm, "npm", false, "ingest package.json scripts as processes")
	root.Flags().BoolVar(&f.Just, "just", false, "ingest justfile recipes as processes")
	root.Flags().StringVar(&f.Server, "server", "", "ADDR to listen on for control-socket events (host:port)")
	root.Flags().StringVar(&f.Ctl, "ctl", "", "send one YAML-encoded event to the running instance at --server and exit")
	root.Flags().StringVar(&f.OnAllFinished, "on-all-finished", "", "event tag to dispatch once every process has exited (e.g. quit)")
	root.Flags().StringVar(&f.LogDir, "log-dir", "", "directory to write mprocs.log into (default: no logging)")
	root.Flags().StringVar(&f.ProcListTitle, "proc-list-title", "", "title shown above the process list sidebar")
	root.Flags().BoolVar(&f.HideKeymapWindow, "hide-keymap-window", false, "hide the keymap legend window")

	root.AddCommand(newVersionCmd())

	return root
}

func unsupportedIngestionError(npm, just bool) error {
	var flags []string
	if npm {
		flags = append(flags, "--npm")
	}
	if just {
		flags = append(flags, "--just")
	}
	return &procerr.ConfigError{Msg: strings.Join(flags, "/") + " ingestion is not supported in this build"}
}
