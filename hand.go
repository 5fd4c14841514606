package marionette

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/akeido/marionette/input"
	"github.com/akeido/marionette/spatial"
)

// HandJoints is the fixed joint order of an articulated hand, wrist first,
// then each finger from metacarpal to tip.
var HandJoints = []string{
	"wrist",
	"thumb-metacarpal",
	"thumb-phalanx-proximal",
	"thumb-phalanx-distal",
	"thumb-tip",
	"index-finger-metacarpal",
	"index-finger-phalanx-proximal",
	"index-finger-phalanx-intermediate",
	"index-finger-phalanx-distal",
	"index-finger-tip",
	"middle-finger-metacarpal",
	"middle-finger-phalanx-proximal",
	"middle-finger-phalanx-intermediate",
	"middle-finger-phalanx-distal",
	"middle-finger-tip",
	"ring-finger-metacarpal",
	"ring-finger-phalanx-proximal",
	"ring-finger-phalanx-intermediate",
	"ring-finger-phalanx-distal",
	"ring-finger-tip",
	"pinky-finger-metacarpal",
	"pinky-finger-phalanx-proximal",
	"pinky-finger-phalanx-intermediate",
	"pinky-finger-phalanx-distal",
	"pinky-finger-tip",
}

// PinchButtonID is the hand gamepad's single analog button; its value is
// the pinch strength and it drives the "select" trigger through the same
// pending-value pipeline as a controller trigger.
const PinchButtonID = "pinch"

func handLayout() *input.Layout {
	return &input.Layout{
		Mapping: "none",
		Buttons: []*input.ButtonSpec{
			{ID: PinchButtonID, Kind: input.KindAnalog, EventTrigger: "select"},
		},
	}
}

// joint is one tracked hand joint: its frame-graph node, reported radius,
// and whether it has been tracked at all this session.
type joint struct {
	space   *spatial.Space
	radius  float64
	tracked bool
}

// Hand is a tracked input with articulated joints. Joint poses are
// expressed relative to the hand's target-ray space.
type Hand struct {
	*TrackedInput

	joints map[string]*joint
}

// NewHand builds an articulated hand. Only left and right handedness are
// valid; a hand without a side is a configuration error.
func NewHand(
	handedness Handedness,
	globalSpace *spatial.Space,
	events *Events,
	logger *zap.Logger,
) (*Hand, error) {
	if handedness != HandednessLeft && handedness != HandednessRight {
		return nil, fmt.Errorf("marionette: hands require left or right handedness, got %q", handedness)
	}

	gamepad, err := input.NewGamepad(handLayout(), logger)
	if err != nil {
		return nil, err
	}

	ti := newTrackedInput(
		handedness, TargetRayTrackedPointer,
		[]string{"generic-hand-select", "generic-hand"},
		gamepad, globalSpace, events, logger,
	)

	hand := &Hand{
		TrackedInput: ti,
		joints:       make(map[string]*joint, len(HandJoints)),
	}
	for _, name := range HandJoints {
		hand.joints[name] = &joint{
			space: spatial.NewSpace(ti.targetRaySpace),
		}
	}

	return hand, nil
}

// JointSpace returns the joint's frame-graph node, or nil while the joint
// has never been tracked — absence, not an error.
func (h *Hand) JointSpace(name string) *spatial.Space {
	j, ok := h.joints[name]
	if !ok || !j.tracked {
		return nil
	}
	return j.space
}

// JointRadius returns the joint's reported radius; zero while untracked.
func (h *Hand) JointRadius(name string) float64 {
	j, ok := h.joints[name]
	if !ok {
		return 0
	}
	return j.radius
}

// SetJointPose writes one joint's pose, relative to the target-ray space,
// plus its radius. Unknown joint names warn and no-op: generic UI code is
// shared across profiles and may reference joints this hand lacks.
func (h *Hand) SetJointPose(name string, position mgl64.Vec3, orientation mgl64.Quat, radius float64) {
	j, ok := h.joints[name]
	if !ok {
		h.logger.Warn("unknown hand joint", zap.String("joint", name))
		return
	}
	j.space.SetOffset(position, orientation)
	j.radius = radius
	j.tracked = true
}

// SetJointOffsetMatrix writes a joint's offset matrix directly. Used by
// playback to restore recorded joint poses.
func (h *Hand) SetJointOffsetMatrix(name string, m mgl64.Mat4, radius float64) {
	j, ok := h.joints[name]
	if !ok {
		h.logger.Warn("unknown hand joint", zap.String("joint", name))
		return
	}
	j.space.SetOffsetMatrix(m)
	j.radius = radius
	j.tracked = true
}

// SetPinch stages the pinch strength, in [0,1]. Crossing zero raises the
// select/selectstart/selectend events at the next frame boundary, exactly
// like a controller trigger.
func (h *Hand) SetPinch(value float64) {
	h.gamepad.UpdateButtonValue(PinchButtonID, value)
}
