package marionette

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akeido/marionette/spatial"
)

// DeviceConfig selects which tracked inputs an emulated device carries.
type DeviceConfig struct {
	Name string

	// Controllers maps handedness to a controller profile. Nil entries
	// are skipped.
	Controllers map[Handedness]ControllerConfig

	// Hands adds articulated left/right hands.
	Hands bool

	Logger *zap.Logger
}

// Device is the emulated headset: it owns the frame graph's root, the
// viewer pose, every tracked input, and the session event registry. It
// plays the role of the frame driver's single entry point: the host calls
// OnFrameStart once per tick before any pose query for that tick.
type Device struct {
	ID   uuid.UUID
	Name string

	// GlobalSpace is the frame graph's root; ViewerSpace tracks the
	// headset under it.
	GlobalSpace *spatial.Space
	ViewerSpace *spatial.Space

	Events *Events

	position    mgl64.Vec3
	orientation mgl64.Quat

	controllers map[Handedness]*Controller
	hands       map[Handedness]*Hand
	inputs      []*TrackedInput

	frame  uint64
	logger *zap.Logger
}

// Default headset rest pose: standing eye height at the origin.
var defaultViewerPosition = mgl64.Vec3{0, 1.6, 0}

// NewDevice builds a device and all of its tracked inputs. Configuration
// mistakes (unsupported handedness, malformed layouts) fail construction.
func NewDevice(cfg DeviceConfig) (*Device, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Device{
		ID:          uuid.New(),
		Name:        cfg.Name,
		GlobalSpace: spatial.NewSpace(nil),
		Events:      NewEvents(),
		position:    defaultViewerPosition,
		orientation: mgl64.QuatIdent(),
		controllers: make(map[Handedness]*Controller),
		hands:       make(map[Handedness]*Hand),
		logger:      logger,
	}
	d.ViewerSpace = spatial.NewSpace(d.GlobalSpace)
	d.ViewerSpace.SetOffset(d.position, d.orientation)

	for _, handedness := range []Handedness{HandednessLeft, HandednessRight, HandednessNone} {
		controllerCfg, ok := cfg.Controllers[handedness]
		if !ok {
			continue
		}
		controller, err := NewController(controllerCfg, handedness, d.GlobalSpace, d.Events, logger)
		if err != nil {
			return nil, err
		}
		d.controllers[handedness] = controller
		d.inputs = append(d.inputs, controller.TrackedInput)
	}

	if cfg.Hands {
		for _, handedness := range []Handedness{HandednessLeft, HandednessRight} {
			hand, err := NewHand(handedness, d.GlobalSpace, d.Events, logger)
			if err != nil {
				return nil, err
			}
			d.hands[handedness] = hand
			d.inputs = append(d.inputs, hand.TrackedInput)
		}
	}

	return d, nil
}

// Controller returns the controller for a handedness, or nil.
func (d *Device) Controller(handedness Handedness) *Controller {
	return d.controllers[handedness]
}

// Hand returns the articulated hand for a handedness, or nil.
func (d *Device) Hand(handedness Handedness) *Hand {
	return d.hands[handedness]
}

// Inputs returns every tracked input the device owns, connected or not.
func (d *Device) Inputs() []*TrackedInput {
	return d.inputs
}

// ActiveInputs returns the currently connected tracked inputs.
func (d *Device) ActiveInputs() []*TrackedInput {
	active := make([]*TrackedInput, 0, len(d.inputs))
	for _, ti := range d.inputs {
		if ti.Connected() {
			active = append(active, ti)
		}
	}
	return active
}

// Position returns the headset position in the global space.
func (d *Device) Position() mgl64.Vec3 {
	return d.position
}

// Orientation returns the headset orientation in the global space.
func (d *Device) Orientation() mgl64.Quat {
	return d.orientation
}

// SetPose moves the headset. The frame graph reflects it at the next
// OnFrameStart.
func (d *Device) SetPose(position mgl64.Vec3, orientation mgl64.Quat) {
	d.position = position
	d.orientation = orientation.Normalize()
}

// Frame returns the number of completed frame advances.
func (d *Device) Frame() uint64 {
	return d.frame
}

// OnFrameStart advances the whole device one frame: headset pose first,
// then every tracked input (events included), then the session-level
// input-sources-change notification if any input's connection state
// crossed an edge. Update order across inputs is unspecified; inputs do
// not interact.
func (d *Device) OnFrameStart() {
	d.ViewerSpace.SetOffset(d.position, d.orientation)

	changed := false
	for _, ti := range d.inputs {
		ti.OnFrameStart()
		if ti.InputSourceChanged() {
			changed = true
		}
	}

	if changed {
		d.Events.emit(Event{Name: EventInputSourcesChange})
	}

	d.frame++
}
