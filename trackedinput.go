package marionette

import (
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/akeido/marionette/input"
	"github.com/akeido/marionette/spatial"
)

// Handedness identifies which hand a tracked input belongs to.
type Handedness string

const (
	HandednessLeft  Handedness = "left"
	HandednessRight Handedness = "right"
	HandednessNone  Handedness = "none"
)

// TargetRayMode describes how a tracked input's pointing ray is produced.
type TargetRayMode string

const (
	TargetRayTrackedPointer TargetRayMode = "tracked-pointer"
	TargetRayGaze           TargetRayMode = "gaze"
	TargetRayScreen         TargetRayMode = "screen"
)

// Default rest poses per handedness, relative to the global space.
func defaultPosition(handedness Handedness) mgl64.Vec3 {
	if handedness == HandednessLeft {
		return mgl64.Vec3{-0.25, 1.5, -0.4}
	}
	return mgl64.Vec3{0.25, 1.5, -0.4}
}

// TrackedInput is one emulated hand or controller: a spatial pose plus a
// gamepad model, advanced once per frame by the owning device.
type TrackedInput struct {
	handedness    Handedness
	targetRayMode TargetRayMode
	profiles      []string

	gamepad *input.Gamepad

	position    mgl64.Vec3
	orientation mgl64.Quat

	targetRaySpace *spatial.Space
	gripSpace      *spatial.Space // nil when the profile has no grip

	connected          bool
	lastFrameConnected bool
	inputSourceChanged bool

	events *Events
	logger *zap.Logger
}

func newTrackedInput(
	handedness Handedness,
	targetRayMode TargetRayMode,
	profiles []string,
	gamepad *input.Gamepad,
	globalSpace *spatial.Space,
	events *Events,
	logger *zap.Logger,
) *TrackedInput {
	ti := &TrackedInput{
		handedness:     handedness,
		targetRayMode:  targetRayMode,
		profiles:       profiles,
		gamepad:        gamepad,
		position:       defaultPosition(handedness),
		orientation:    mgl64.QuatIdent(),
		targetRaySpace: spatial.NewSpace(globalSpace),
		events:         events,
		logger:         logger,
	}
	ti.targetRaySpace.SetOffset(ti.position, ti.orientation)
	return ti
}

// Handedness returns the input's handedness.
func (ti *TrackedInput) Handedness() Handedness {
	return ti.handedness
}

// TargetRayMode returns how the input's pointing ray is produced.
func (ti *TrackedInput) TargetRayMode() TargetRayMode {
	return ti.targetRayMode
}

// Profiles returns the input's profile identifiers, most specific first.
func (ti *TrackedInput) Profiles() []string {
	return ti.profiles
}

// Gamepad returns the input's button/axis state container.
func (ti *TrackedInput) Gamepad() *input.Gamepad {
	return ti.gamepad
}

// TargetRaySpace is the frame-graph node tracking the input's pointing ray.
func (ti *TrackedInput) TargetRaySpace() *spatial.Space {
	return ti.targetRaySpace
}

// GripSpace is the frame-graph node tracking the input's grip, or nil when
// the profile has none.
func (ti *TrackedInput) GripSpace() *spatial.Space {
	return ti.gripSpace
}

// Position returns the input's current position in the global space.
func (ti *TrackedInput) Position() mgl64.Vec3 {
	return ti.position
}

// Orientation returns the input's current orientation in the global space.
func (ti *TrackedInput) Orientation() mgl64.Quat {
	return ti.orientation
}

// SetPose moves the input. The frame graph only reflects the new pose
// after the next OnFrameStart.
func (ti *TrackedInput) SetPose(position mgl64.Vec3, orientation mgl64.Quat) {
	ti.position = position
	ti.orientation = orientation.Normalize()
}

// Connected reports the current connection level.
func (ti *TrackedInput) Connected() bool {
	return ti.connected
}

// SetConnected toggles the connection state. The edge becomes observable
// through InputSourceChanged after the next OnFrameStart.
func (ti *TrackedInput) SetConnected(connected bool) {
	ti.connected = connected
	ti.gamepad.SetConnected(connected)
}

// InputSourceChanged reports whether the connection state changed during
// the last frame. It is an edge flag, recomputed every OnFrameStart.
func (ti *TrackedInput) InputSourceChanged() bool {
	return ti.inputSourceChanged
}

// OnFrameStart advances the input one frame. Order matters:
//
//  1. the frame graph gets this frame's pose, so pose queries that follow
//     see a consistent snapshot;
//  2. staged button values commit and edge events fire;
//  3. the connection edge flag is recomputed.
//
// The owning device calls this exactly once per frame, before any pose
// query or recorder sample of the frame.
func (ti *TrackedInput) OnFrameStart() {
	ti.targetRaySpace.SetOffset(ti.position, ti.orientation)

	ti.gamepad.CommitFrame(ti.fireTriggerEdge)

	ti.inputSourceChanged = ti.connected != ti.lastFrameConnected
	ti.lastFrameConnected = ti.connected
}

// fireTriggerEdge converts a zero/non-zero crossing into the paired
// events: the bare trigger followed immediately by "<trigger>start" on
// press, "<trigger>end" on release.
func (ti *TrackedInput) fireTriggerEdge(trigger string, pressed bool) {
	if pressed {
		ti.events.emit(Event{Name: trigger, Source: ti})
		ti.events.emit(Event{Name: trigger + "start", Source: ti})
		return
	}
	ti.events.emit(Event{Name: trigger + "end", Source: ti})
}

// UpdateButtonValue stages a button value; see input.Gamepad.
func (ti *TrackedInput) UpdateButtonValue(id string, value float64) {
	ti.gamepad.UpdateButtonValue(id, value)
}

// UpdateButtonTouch sets a button's touched flag; see input.Gamepad.
func (ti *TrackedInput) UpdateButtonTouch(id string, touched bool) {
	ti.gamepad.UpdateButtonTouch(id, touched)
}

// UpdateAxis sets one axis component; see input.Gamepad.
func (ti *TrackedInput) UpdateAxis(id string, component input.AxisType, value float64) {
	ti.gamepad.UpdateAxis(id, component, value)
}

// UpdateAxes sets both axis components; see input.Gamepad.
func (ti *TrackedInput) UpdateAxes(id string, x, y float64) {
	ti.gamepad.UpdateAxes(id, x, y)
}
