// Package config loads the process list and keymap that drive the app.
// Search order, unmarshaling, and validation follow h2's
// internal/config.Load/LoadFrom shape;
// Lua is named in the original CLI's search order but no Lua runtime
// appears anywhere in the retrieval pack, so only YAML and JSON are
// implemented here (see SPEC_FULL.md §1.3).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"gopkg.in/yaml.v3"

	"github.com/dcosson/mprocs-go/internal/procerr"
)

// StopSignal identifies how a process should be asked to stop.
type StopSignal struct {
	Kind     StopKind `yaml:"-" json:"-"`
	SendKeys []string `yaml:"-" json:"-"`
}

type StopKind int

const (
	StopSIGTERM StopKind = iota
	StopSIGINT
	StopSIGKILL
	StopSendKeys
	StopHardKill
)

// rawStopSignal names the two shapes a stop value takes, a bare string
// (`SIGINT`) or a one-key mapping (`{send-keys: [...]}`). The decoders
// below do not use it: UnmarshalYAML and UnmarshalJSON fill StopSignal
// directly.
type rawStopSignal struct {
	scalar   string
	sendKeys []string
}

func (s *StopSignal) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return s.fromScalar(node.Value)
	}
	var m map[string][]string
	if err := node.Decode(&m); err != nil {
		return err
	}
	keys, ok := m["send-keys"]
	if !ok {
		return fmt.Errorf("stop: expected scalar or {send-keys: [...]}")
	}
	s.Kind = StopSendKeys
	s.SendKeys = keys
	return nil
}

func (s *StopSignal) UnmarshalJSON(data []byte) error {
	var scalar string
	if err := json.Unmarshal(data, &scalar); err == nil {
		return s.fromScalar(scalar)
	}
	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	keys, ok := m["send-keys"]
	if !ok {
		return fmt.Errorf("stop: expected string or {\"send-keys\": [...]}")
	}
	s.Kind = StopSendKeys
	s.SendKeys = keys
	return nil
}

func (s *StopSignal) fromScalar(v string) error {
	switch strings.ToUpper(v) {
	case "SIGTERM":
		s.Kind = StopSIGTERM
	case "SIGINT":
		s.Kind = StopSIGINT
	case "SIGKILL":
		s.Kind = StopSIGKILL
	case "HARD-KILL", "HARDKILL":
		s.Kind = StopHardKill
	default:
		return fmt.Errorf("stop: unknown signal %q", v)
	}
	return nil
}

// ProcessConfig is one externally supplied process definition.
type ProcessConfig struct {
	Name             string            `yaml:"-" json:"-"`
	Command          []string          `yaml:"command,omitempty" json:"command,omitempty"`
	Shell            string            `yaml:"shell,omitempty" json:"shell,omitempty"`
	Cwd              string            `yaml:"cwd,omitempty" json:"cwd,omitempty"`
	Env              map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	Autostart        *bool             `yaml:"autostart,omitempty" json:"autostart,omitempty"`
	Autorestart      bool              `yaml:"autorestart,omitempty" json:"autorestart,omitempty"`
	Stop             StopSignal        `yaml:"stop,omitempty" json:"stop,omitempty"`
	MouseScrollSpeed int               `yaml:"mouse_scroll_speed,omitempty" json:"mouse_scroll_speed,omitempty"`
	ScrollbackLen    int               `yaml:"scrollback_len,omitempty" json:"scrollback_len,omitempty"`
	Deps             []string          `yaml:"deps,omitempty" json:"deps,omitempty"`
	// RestartSchedule is an RRULE string bounding how often autorestart may
	// retrigger, beyond the flat 1.0s uptime threshold.
	RestartSchedule string `yaml:"restart_schedule,omitempty" json:"restart_schedule,omitempty"`
}

// AutostartDefault reports the effective autostart value: true unless the
// config explicitly sets it false.
func (p *ProcessConfig) AutostartDefault() bool {
	return p.Autostart == nil || *p.Autostart
}

// Argv resolves the process's argv, splitting a shell string with
// POSIX-shell-like word semantics when Command is empty and Shell is set.
func (p *ProcessConfig) Argv() ([]string, error) {
	if len(p.Command) > 0 {
		return p.Command, nil
	}
	if p.Shell == "" {
		return nil, &procerr.ConfigError{Msg: fmt.Sprintf("process %q has neither command nor shell", p.Name)}
	}
	argv, err := shlex.Split(p.Shell)
	if err != nil {
		return nil, &procerr.ConfigError{Msg: fmt.Sprintf("process %q: invalid shell string: %v", p.Name, err)}
	}
	return argv, nil
}

// Config is the top-level externally supplied document.
type Config struct {
	ProcList         map[string]*ProcessConfig `yaml:"procs" json:"procs"`
	Keymap           *KeymapConfig             `yaml:"keymap,omitempty" json:"keymap,omitempty"`
	OnAllFinished    string                    `yaml:"on_all_finished,omitempty" json:"on_all_finished,omitempty"`
	ProcListTitle    string                    `yaml:"proc_list_title,omitempty" json:"proc_list_title,omitempty"`
	HideKeymapWindow bool                      `yaml:"hide_keymap_window,omitempty" json:"hide_keymap_window,omitempty"`
}

// DefaultSearchNames is the config file search order, minus the unsupported `mprocs.lua` entry.
var DefaultSearchNames = []string{"mprocs.yaml", "mprocs.json"}

// Find locates the first existing config file in dir using the default
// search order.
func Find(dir string) (string, bool) {
	for _, name := range DefaultSearchNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// LoadFrom reads and validates a process/keymap document from path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &procerr.ConfigError{Path: path, Msg: err.Error()}
	}

	var cfg Config
	switch filepath.Ext(path) {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	default:
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, &procerr.ConfigError{Path: path, Msg: err.Error()}
	}
	for name, p := range cfg.ProcList {
		p.Name = name
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	names := make(map[string]bool, len(c.ProcList))
	for name := range c.ProcList {
		names[name] = true
	}
	for name, p := range c.ProcList {
		for _, dep := range p.Deps {
			if !names[dep] {
				return &procerr.ConfigError{Msg: fmt.Sprintf("process %q declares unknown dep %q", name, dep)}
			}
		}
	}
	return nil
}

// FromArgs builds a minimal Config from positional shell commands, the
// way `mprocs cmd1 cmd2` without a config file does.
func FromArgs(commands []string, names []string) *Config {
	cfg := &Config{ProcList: make(map[string]*ProcessConfig, len(commands))}
	for i, cmd := range commands {
		name := cmd
		if i < len(names) {
			name = names[i]
		}
		cfg.ProcList[name] = &ProcessConfig{Name: name, Shell: cmd}
	}
	return cfg
}
