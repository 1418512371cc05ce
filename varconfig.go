package formula

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// VariableKind selects how an interactive variable is presented.
type VariableKind string

const (
	// VariableSlider is a bounded slider control.
	VariableSlider VariableKind = "slider"

	// VariableScrubber is an unbounded drag-to-change scrubber.
	VariableScrubber VariableKind = "scrubber"

	// VariableFixed is a constant shown but not adjustable.
	VariableFixed VariableKind = "fixed"
)

// VariableConfig describes one interactive variable attached to a symbol
// in the formula: its control type, current value, allowed range, display
// precision and units. The interactivity layer consumes this; the core
// only carries and validates it.
type VariableConfig struct {
	Kind      VariableKind `yaml:"type"`
	Value     float64      `yaml:"value"`
	Min       float64      `yaml:"min"`
	Max       float64      `yaml:"max"`
	Precision int          `yaml:"precision"`
	Units     string       `yaml:"units"`
}

// ParseVariableConfig parses a symbol-to-configuration map from YAML.
func ParseVariableConfig(data []byte) (map[string]VariableConfig, error) {
	vars := make(map[string]VariableConfig)
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("variable config: %w", err)
	}
	for name, v := range vars {
		if err := v.validate(); err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
	}
	return vars, nil
}

func (v VariableConfig) validate() error {
	switch v.Kind {
	case VariableSlider:
		if v.Min >= v.Max {
			return fmt.Errorf("slider range [%v,%v] is empty", v.Min, v.Max)
		}
		if v.Value < v.Min || v.Value > v.Max {
			return fmt.Errorf("value %v outside range [%v,%v]", v.Value, v.Min, v.Max)
		}
	case VariableScrubber, VariableFixed:
		// No range constraints.
	case "":
		return fmt.Errorf("missing type")
	default:
		return fmt.Errorf("unknown type %q", v.Kind)
	}
	if v.Precision < 0 {
		return fmt.Errorf("negative precision %d", v.Precision)
	}
	return nil
}
