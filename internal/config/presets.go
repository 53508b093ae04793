package config

import (
	"sort"

	"github.com/san-kum/ctrlsim/internal/control"
)

// Presets holds named gain sets per system type.
var Presets = map[string]map[string]control.Gains{
	"dc_motor": {
		"proportional": {Kp: 1.0},
		"pi":           {Kp: 2.0, Ki: 2.0},
		"aggressive":   {Kp: 8.0, Ki: 4.0, Kd: 0.05},
	},
	"inverted_pendulum": {
		"soft": {Kp: 12.0, Kd: 3.0},
		"pd":   {Kp: 20.0, Kd: 5.0},
		"pid":  {Kp: 30.0, Ki: 5.0, Kd: 6.0},
	},
	"rlc_circuit": {
		"proportional": {Kp: 1.0},
		"pi":           {Kp: 2.0, Ki: 4.0},
		"damped":       {Kp: 3.0, Ki: 6.0, Kd: 0.3},
	},
}

func GetPreset(system, preset string) (control.Gains, bool) {
	systemPresets, ok := Presets[system]
	if !ok {
		return control.Gains{}, false
	}
	g, ok := systemPresets[preset]
	return g, ok
}

func ListPresets(system string) []string {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(systemPresets))
	for name := range systemPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
