package input

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ButtonKind determines how a button's pressed/touched state derives from
// its value.
type ButtonKind string

const (
	// KindAnalog buttons carry a continuous value in [0,1]
	KindAnalog ButtonKind = "analog"

	// KindBinary buttons only ever hold exactly 0 or 1
	KindBinary ButtonKind = "binary"

	// KindManual buttons have pressed/touched driven by explicit flags
	// rather than derived from the value
	KindManual ButtonKind = "manual"
)

// AxisType declares which scalar component a positional axis slot reads.
type AxisType string

const (
	AxisX AxisType = "x-axis"
	AxisY AxisType = "y-axis"

	// AxisManual slots default to exposing the x component
	AxisManual AxisType = "manual"
)

// ButtonSpec describes one named button in a layout.
type ButtonSpec struct {
	ID           string     `json:"id" yaml:"id"`
	Kind         ButtonKind `json:"kind" yaml:"kind"`
	EventTrigger string     `json:"eventTrigger,omitempty" yaml:"eventTrigger,omitempty"`
}

// AxisSpec describes one named axis slot in a layout. Two specs sharing an
// id with different components merge into a single two-component axis.
type AxisSpec struct {
	ID   string   `json:"id" yaml:"id"`
	Type AxisType `json:"type" yaml:"type"`
}

// Layout is the static button/axis description a Gamepad is built from.
// Nil entries are intentional empty slots: consuming applications index
// buttons and axes by fixed position, so vacant positions must be kept.
type Layout struct {
	Mapping string        `json:"mapping" yaml:"mapping"`
	Buttons []*ButtonSpec `json:"buttons" yaml:"buttons"`
	Axes    []*AxisSpec   `json:"axes" yaml:"axes"`
}

// LoadLayout parses a YAML layout description and validates it.
func LoadLayout(data []byte) (*Layout, error) {
	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("input: parsing layout: %w", err)
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &layout, nil
}

// Validate checks the layout for configuration mistakes. These are fatal:
// a malformed layout cannot be safely ignored at construction time.
func (l *Layout) Validate() error {
	seenButtons := make(map[string]bool, len(l.Buttons))
	for slot, spec := range l.Buttons {
		if spec == nil {
			continue
		}
		if spec.ID == "" {
			return fmt.Errorf("input: button slot %d has an empty id", slot)
		}
		if seenButtons[spec.ID] {
			return fmt.Errorf("input: duplicate button id %q", spec.ID)
		}
		seenButtons[spec.ID] = true

		switch spec.Kind {
		case KindAnalog, KindBinary, KindManual:
		default:
			return fmt.Errorf("input: button %q has unknown kind %q", spec.ID, spec.Kind)
		}
	}

	seenComponents := make(map[string]map[AxisType]bool, len(l.Axes))
	for slot, spec := range l.Axes {
		if spec == nil {
			continue
		}
		if spec.ID == "" {
			return fmt.Errorf("input: axis slot %d has an empty id", slot)
		}
		switch spec.Type {
		case AxisX, AxisY, AxisManual:
		default:
			return fmt.Errorf("input: axis %q has unknown type %q", spec.ID, spec.Type)
		}
		if seenComponents[spec.ID] == nil {
			seenComponents[spec.ID] = make(map[AxisType]bool, 2)
		}
		if seenComponents[spec.ID][spec.Type] {
			return fmt.Errorf("input: axis %q declares component %q twice", spec.ID, spec.Type)
		}
		seenComponents[spec.ID][spec.Type] = true
	}

	return nil
}
