package marionette

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/akeido/marionette/input"
	"github.com/akeido/marionette/spatial"
)

// ControllerConfig is the static profile description a controller is
// built from: identifiers, which hands it supports, its gamepad layout
// and the fixed grip offset relative to the target ray.
type ControllerConfig struct {
	Profiles            []string
	SupportedHandedness []Handedness
	Layout              *input.Layout
	GripOffset          *spatial.RigidTransform
}

// DefaultControllerConfig is a generic xr-standard controller: analog
// trigger and squeeze, a thumbstick, and two face buttons.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		Profiles:            []string{"generic-trigger-squeeze-thumbstick"},
		SupportedHandedness: []Handedness{HandednessLeft, HandednessRight, HandednessNone},
		Layout: &input.Layout{
			Mapping: "xr-standard",
			Buttons: []*input.ButtonSpec{
				{ID: "trigger", Kind: input.KindAnalog, EventTrigger: "select"},
				{ID: "squeeze", Kind: input.KindAnalog, EventTrigger: "squeeze"},
				nil, // touchpad position, vacant on this profile
				{ID: "thumbstick", Kind: input.KindBinary},
				{ID: "a-button", Kind: input.KindBinary},
				{ID: "b-button", Kind: input.KindBinary},
			},
			Axes: []*input.AxisSpec{
				nil, // touchpad x
				nil, // touchpad y
				{ID: "thumbstick", Type: input.AxisX},
				{ID: "thumbstick", Type: input.AxisY},
			},
		},
		GripOffset: spatial.IdentityTransform(),
	}
}

// Controller is a tracked input with a controller profile layout and a
// grip space fixed relative to its target ray.
type Controller struct {
	*TrackedInput
}

// NewController builds a controller for one hand. Unsupported handedness
// and malformed layouts are configuration errors, fatal at construction.
func NewController(
	cfg ControllerConfig,
	handedness Handedness,
	globalSpace *spatial.Space,
	events *Events,
	logger *zap.Logger,
) (*Controller, error) {
	if !slices.Contains(cfg.SupportedHandedness, handedness) {
		return nil, fmt.Errorf("marionette: profile %v does not support handedness %q",
			cfg.Profiles, handedness)
	}

	gamepad, err := input.NewGamepad(cfg.Layout, logger)
	if err != nil {
		return nil, err
	}

	ti := newTrackedInput(
		handedness, TargetRayTrackedPointer, cfg.Profiles,
		gamepad, globalSpace, events, logger,
	)

	gripOffset := cfg.GripOffset
	if gripOffset == nil {
		gripOffset = spatial.IdentityTransform()
	}
	ti.gripSpace = spatial.NewSpaceAt(ti.targetRaySpace, gripOffset)

	return &Controller{TrackedInput: ti}, nil
}

// SetGripOffset rewrites the grip's fixed offset relative to the target
// ray. Used by playback to restore a recorded grip pose.
func (c *Controller) SetGripOffset(m mgl64.Mat4) {
	c.gripSpace.SetOffsetMatrix(m)
}
