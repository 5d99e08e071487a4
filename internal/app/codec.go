package app

import (
	"gopkg.in/yaml.v3"

	"github.com/dcosson/mprocs-go/internal/config"
)

// DecodeAppEvent parses one control-socket line — a YAML-encoded tagged
// union in the same shape as a keymap binding's target — into a concrete
// AppEvent.
func DecodeAppEvent(body []byte) (AppEvent, error) {
	var spec config.EventSpec
	if err := yaml.Unmarshal(body, &spec); err != nil {
		return nil, err
	}
	return eventFromSpec(spec)
}
