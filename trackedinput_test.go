package marionette

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"github.com/akeido/marionette/spatial"
)

// eventCapture collects dispatched events in order.
type eventCapture struct {
	names []string
}

func (ec *eventCapture) listen(event Event) {
	ec.names = append(ec.names, event.Name)
}

func (ec *eventCapture) reset() {
	ec.names = ec.names[:0]
}

func newTestController(t *testing.T, handedness Handedness) (*Controller, *Events, *spatial.Space) {
	t.Helper()
	global := spatial.NewSpace(nil)
	events := NewEvents()
	controller, err := NewController(DefaultControllerConfig(), handedness, global, events, nil)
	require.NoError(t, err)
	return controller, events, global
}

func TestTrackedInput_DefaultPositions(t *testing.T) {
	tests := []struct {
		handedness Handedness
		wantX      float64
	}{
		{HandednessLeft, -0.25},
		{HandednessRight, 0.25},
		{HandednessNone, 0.25},
	}

	for _, tt := range tests {
		t.Run(string(tt.handedness), func(t *testing.T) {
			controller, _, _ := newTestController(t, tt.handedness)
			pos := controller.Position()
			require.Equal(t, tt.wantX, pos.X())
			require.Equal(t, 1.5, pos.Y())
			require.Equal(t, -0.4, pos.Z())
		})
	}
}

func TestTrackedInput_EdgeTriggeredSelectEvents(t *testing.T) {
	controller, events, _ := newTestController(t, HandednessRight)

	var capture eventCapture
	for _, name := range []string{"select", "selectstart", "selectend"} {
		events.Subscribe(name, capture.listen)
	}

	// 0 -> 1 fires select then selectstart, in that order.
	controller.UpdateButtonValue("trigger", 1)
	controller.OnFrameStart()
	require.Equal(t, []string{"select", "selectstart"}, capture.names)

	// Sustained press fires nothing.
	capture.reset()
	controller.OnFrameStart()
	require.Empty(t, capture.names)

	// 1 -> 0 fires exactly selectend.
	controller.UpdateButtonValue("trigger", 0)
	controller.OnFrameStart()
	require.Equal(t, []string{"selectend"}, capture.names)

	// Sustained release fires nothing.
	capture.reset()
	controller.OnFrameStart()
	require.Empty(t, capture.names)
}

func TestTrackedInput_ListenerSeesWholeFrameCommitted(t *testing.T) {
	controller, events, _ := newTestController(t, HandednessRight)

	// trigger and squeeze are staged in the same frame; the select
	// listener must observe squeeze's committed value, not last frame's.
	observed := -1.0
	events.Subscribe("select", func(Event) {
		observed = controller.Gamepad().Buttons()[1].Value
	})

	controller.UpdateButtonValue("trigger", 1)
	controller.UpdateButtonValue("squeeze", 0.8)
	controller.OnFrameStart()

	require.Equal(t, 0.8, observed)
}

func TestTrackedInput_SqueezeTriggerIsIndependent(t *testing.T) {
	controller, events, _ := newTestController(t, HandednessLeft)

	var capture eventCapture
	for _, name := range []string{"squeeze", "squeezestart", "squeezeend", "select", "selectstart"} {
		events.Subscribe(name, capture.listen)
	}

	controller.UpdateButtonValue("squeeze", 0.4)
	controller.OnFrameStart()
	require.Equal(t, []string{"squeeze", "squeezestart"}, capture.names)
}

func TestTrackedInput_PoseVisibleAfterFrameStartOnly(t *testing.T) {
	controller, _, global := newTestController(t, HandednessRight)
	controller.OnFrameStart()

	controller.SetPose(mgl64.Vec3{1, 1, 1}, mgl64.QuatIdent())

	pose, err := spatial.ResolvePose(controller.TargetRaySpace(), global)
	require.NoError(t, err)
	require.Equal(t, 0.25, pose.Position().X(), "stale pose until the frame boundary")

	controller.OnFrameStart()
	pose, err = spatial.ResolvePose(controller.TargetRaySpace(), global)
	require.NoError(t, err)
	require.Equal(t, mgl64.Vec3{1, 1, 1}, pose.Position())
}

func TestTrackedInput_ConnectionEdgeFlag(t *testing.T) {
	controller, _, _ := newTestController(t, HandednessRight)

	controller.SetConnected(true)
	controller.OnFrameStart()
	require.True(t, controller.InputSourceChanged(), "edge on the frame after connecting")

	controller.OnFrameStart()
	require.False(t, controller.InputSourceChanged(), "level, not edge")

	controller.SetConnected(false)
	controller.OnFrameStart()
	require.True(t, controller.InputSourceChanged())
}

func TestTrackedInput_GripSpaceFollowsTargetRay(t *testing.T) {
	controller, _, global := newTestController(t, HandednessRight)

	controller.SetPose(mgl64.Vec3{0.5, 1.2, -0.3}, mgl64.QuatIdent())
	controller.OnFrameStart()

	gripPose, err := spatial.ResolvePose(controller.GripSpace(), global)
	require.NoError(t, err)
	require.Equal(t, mgl64.Vec3{0.5, 1.2, -0.3}, gripPose.Position(),
		"identity grip offset tracks the target ray")
}

func TestNewController_UnsupportedHandedness(t *testing.T) {
	cfg := DefaultControllerConfig()
	cfg.SupportedHandedness = []Handedness{HandednessLeft, HandednessRight}

	_, err := NewController(cfg, HandednessNone, spatial.NewSpace(nil), NewEvents(), nil)
	require.Error(t, err)
}
