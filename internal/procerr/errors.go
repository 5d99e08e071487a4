// Package procerr names the error taxonomy used across the multiplexer:
// config errors abort startup, spawn/PTY/parser errors degrade a single
// process without affecting the others.
package procerr

import "fmt"

// ConfigError wraps a malformed or missing configuration value. Surfaced on
// stderr before the UI starts; never shown inside the running app.
type ConfigError struct {
	Path string // config file path, or "" for flag-derived config
	Msg  string
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// SpawnError records why a process failed to start. procinst logs it
// rather than returning it up the call stack, and the process stays Down.
// The error is not stored on the ProcessView and its text is not shown in
// the terminal pane.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %q: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// HungError marks a process whose PTY write did not complete before its
// deadline — the child has stopped reading stdin.
type HungError struct {
	Timeout string
}

func (e *HungError) Error() string {
	return fmt.Sprintf("process not responding (write timed out after %s)", e.Timeout)
}
