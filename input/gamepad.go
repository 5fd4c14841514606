package input

import (
	"go.uber.org/zap"
)

// ButtonState is the positional read model for one button slot. Empty
// slots read as the zero state so positional indexing never fails.
type ButtonState struct {
	Value   float64
	Pressed bool
	Touched bool
}

// axisState is one merged two-component axis record.
type axisState struct {
	x float64
	y float64
}

// Gamepad is the button/axis state container for a tracked input. It is
// built once from a static Layout and never resized afterwards; only its
// values mutate while connected.
//
// All mutation entry points follow the warn-and-ignore policy: invalid
// values and unknown ids are logged and dropped, never raised, because
// they typically originate from live UI shared across device profiles.
type Gamepad struct {
	layout *Layout

	buttonsBySlot []*Button // nil entries are intentional vacancies
	buttonsByID   map[string]*Button
	axesBySlot    []*AxisSpec
	axesByID      map[string]*axisState

	connected bool
	logger    *zap.Logger
}

// NewGamepad builds a gamepad from a layout. A nil logger disables
// warning output. The layout is validated; a malformed layout is a fatal
// configuration error.
func NewGamepad(layout *Layout, logger *zap.Logger) (*Gamepad, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Gamepad{
		layout:        layout,
		buttonsBySlot: make([]*Button, len(layout.Buttons)),
		buttonsByID:   make(map[string]*Button, len(layout.Buttons)),
		axesBySlot:    make([]*AxisSpec, len(layout.Axes)),
		axesByID:      make(map[string]*axisState, len(layout.Axes)),
		logger:        logger,
	}

	for slot, spec := range layout.Buttons {
		if spec == nil {
			continue
		}
		button := newButton(spec)
		g.buttonsBySlot[slot] = button
		g.buttonsByID[spec.ID] = button
	}

	for slot, spec := range layout.Axes {
		if spec == nil {
			continue
		}
		g.axesBySlot[slot] = spec
		if g.axesByID[spec.ID] == nil {
			g.axesByID[spec.ID] = &axisState{}
		}
	}

	return g, nil
}

// Layout returns the static layout the gamepad was built from.
func (g *Gamepad) Layout() *Layout {
	return g.layout
}

// Mapping returns the layout's mapping identifier.
func (g *Gamepad) Mapping() string {
	return g.layout.Mapping
}

// Connected reports whether the gamepad is live.
func (g *Gamepad) Connected() bool {
	return g.connected
}

// SetConnected toggles the gamepad's connection state.
func (g *Gamepad) SetConnected(connected bool) {
	g.connected = connected
}

// Button returns the named button, or nil if the layout has no such id.
func (g *Gamepad) Button(id string) *Button {
	return g.buttonsByID[id]
}

// Buttons reads the full positional button sequence. Vacant slots read as
// the zero state.
func (g *Gamepad) Buttons() []ButtonState {
	states := make([]ButtonState, len(g.buttonsBySlot))
	for slot, button := range g.buttonsBySlot {
		if button == nil {
			continue
		}
		states[slot] = ButtonState{
			Value:   button.Value(),
			Pressed: button.Pressed(),
			Touched: button.Touched(),
		}
	}
	return states
}

// Axes reads the full positional axis sequence, one scalar per slot,
// resolved through the id-to-component mapping. Vacant slots read zero.
func (g *Gamepad) Axes() []float64 {
	values := make([]float64, len(g.axesBySlot))
	for slot, spec := range g.axesBySlot {
		if spec == nil {
			continue
		}
		axis := g.axesByID[spec.ID]
		switch spec.Type {
		case AxisY:
			values[slot] = axis.y
		default:
			// x-axis, and manual slots default to x
			values[slot] = axis.x
		}
	}
	return values
}

// Axis returns the merged (x, y) pair for a named axis. Unknown ids read
// as zero.
func (g *Gamepad) Axis(id string) (x, y float64) {
	axis, ok := g.axesByID[id]
	if !ok {
		return 0, 0
	}
	return axis.x, axis.y
}

// UpdateButtonValue stages a button value for the next frame boundary.
// Out-of-range values, and non-binary values on binary buttons, warn and
// leave state unchanged.
func (g *Gamepad) UpdateButtonValue(id string, value float64) {
	button, ok := g.buttonsByID[id]
	if !ok {
		g.logger.Warn("unknown button id", zap.String("id", id))
		return
	}
	if value < 0 || value > 1 {
		g.logger.Warn("button value out of range",
			zap.String("id", id), zap.Float64("value", value))
		return
	}
	if button.kind == KindBinary && value != 0 && value != 1 {
		g.logger.Warn("non-binary value on binary button",
			zap.String("id", id), zap.Float64("value", value))
		return
	}

	button.stage(value)
}

// UpdateButtonTouch sets a button's touched flag. Presentation state only;
// it never participates in edge detection.
func (g *Gamepad) UpdateButtonTouch(id string, touched bool) {
	button, ok := g.buttonsByID[id]
	if !ok {
		g.logger.Warn("unknown button id", zap.String("id", id))
		return
	}
	button.touched = touched
}

// UpdateButtonPress sets the explicit pressed flag of a manual button.
func (g *Gamepad) UpdateButtonPress(id string, pressed bool) {
	button, ok := g.buttonsByID[id]
	if !ok {
		g.logger.Warn("unknown button id", zap.String("id", id))
		return
	}
	if button.kind != KindManual {
		g.logger.Warn("pressed flag is only writable on manual buttons",
			zap.String("id", id), zap.String("kind", string(button.kind)))
		return
	}
	button.pressed = pressed
}

// axisValueInRange is the single range check behind both axis entry
// points: a component outside [-1,1] warns and fails the call.
func (g *Gamepad) axisValueInRange(id string, value float64) bool {
	if value < -1 || value > 1 {
		g.logger.Warn("axis value out of range",
			zap.String("id", id), zap.Float64("value", value))
		return false
	}
	return true
}

// UpdateAxis sets a single component of a named axis. Components outside
// [-1,1] warn and leave state unchanged.
func (g *Gamepad) UpdateAxis(id string, component AxisType, value float64) {
	axis, ok := g.axesByID[id]
	if !ok {
		g.logger.Warn("unknown axis id", zap.String("id", id))
		return
	}
	if !g.axisValueInRange(id, value) {
		return
	}

	switch component {
	case AxisY:
		axis.y = value
	case AxisX, AxisManual:
		axis.x = value
	default:
		g.logger.Warn("unknown axis component",
			zap.String("id", id), zap.String("component", string(component)))
	}
}

// UpdateAxes sets both components of a named axis at once. Either
// component out of [-1,1] rejects the whole call.
func (g *Gamepad) UpdateAxes(id string, x, y float64) {
	axis, ok := g.axesByID[id]
	if !ok {
		g.logger.Warn("unknown axis id", zap.String("id", id))
		return
	}
	if !g.axisValueInRange(id, x) || !g.axisValueInRange(id, y) {
		return
	}

	axis.x = x
	axis.y = y
}

// CommitFrame advances every button one frame boundary: first all staged
// values commit, then each strict zero/non-zero crossing of a button that
// carries an event trigger is reported, in slot order. Two passes, so a
// listener always observes the full frame's committed state regardless of
// which slot fired. Called exactly once per frame by the owning tracked
// input.
func (g *Gamepad) CommitFrame(fire func(trigger string, pressed bool)) {
	type crossing struct {
		trigger string
		pressed bool
	}
	var crossings []crossing

	for _, button := range g.buttonsBySlot {
		if button == nil {
			continue
		}
		last, current := button.commit()

		if button.eventTrigger == "" {
			continue
		}
		switch {
		case last == 0 && current > 0:
			crossings = append(crossings, crossing{button.eventTrigger, true})
		case last > 0 && current == 0:
			crossings = append(crossings, crossing{button.eventTrigger, false})
		}
	}

	if fire == nil {
		return
	}
	for _, c := range crossings {
		fire(c.trigger, c.pressed)
	}
}
