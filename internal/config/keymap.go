package config

import "gopkg.in/yaml.v3"

// EventSpec is one keymap binding target: an AppEvent tag plus whatever
// scalar/mapping arguments it carries.
// internal/app resolves the tag into a concrete AppEvent value; config
// only parses the wire shape, keeping this package independent of app's
// event types.
type EventSpec struct {
	Tag  string
	Args yaml.Node
}

func (e *EventSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		e.Tag = node.Value
		return nil
	}
	if node.Kind == yaml.MappingNode && len(node.Content) >= 2 {
		e.Tag = node.Content[0].Value
		e.Args = *node.Content[1]
		return nil
	}
	return nil
}

// KeymapConfig is the three per-scope key→event mappings. A `reset: true` entry anywhere in a scope's mapping clears
// that scope's built-in defaults before applying the rest.
type KeymapConfig struct {
	Procs map[string]EventSpec `yaml:"procs,omitempty" json:"procs,omitempty"`
	Term  map[string]EventSpec `yaml:"term,omitempty" json:"term,omitempty"`
	Copy  map[string]EventSpec `yaml:"copy,omitempty" json:"copy,omitempty"`
}

// Reset reports whether scope requests its defaults cleared, via a
// literal `reset: true` pseudo-binding.
func Reset(scope map[string]EventSpec) bool {
	spec, ok := scope["reset"]
	return ok && spec.Tag == "true"
}
