package record

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/akeido/marionette"
	"github.com/akeido/marionette/input"
)

// Player drives a device's tracked inputs directly from a recorded
// artifact. Poses are written straight into the inputs' state; gamepad
// values go through the normal staged mutation entry points, so recorded
// button transitions re-fire the same edge events on replay as they did
// live. The player never resolves poses through the frame graph — it
// writes into the nodes the pose resolver will later read.
type Player struct {
	device  *marionette.Device
	frames  []CompressedFrame
	schemas map[int]Schema

	// bindings maps schema index to the live input that replays it
	bindings map[int]*marionette.TrackedInput

	cursor  int
	baseTS  float64
	started time.Time
	playing bool

	onComplete func()
	logger     *zap.Logger
}

// NewPlayer binds a recorded artifact to a target device. Every schema
// must match an input the device owns; a recording the device cannot
// represent is a configuration error.
func NewPlayer(device *marionette.Device, artifact *Artifact, logger *zap.Logger) (*Player, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Player{
		device:   device,
		frames:   artifact.Frames,
		schemas:  artifact.schemaTable(),
		bindings: make(map[int]*marionette.TrackedInput, len(artifact.Schema)),
		logger:   logger,
	}

	for _, entry := range artifact.Schema {
		handedness := marionette.Handedness(entry.Schema.Handedness)
		var bound *marionette.TrackedInput
		if entry.Schema.HasHand {
			if hand := device.Hand(handedness); hand != nil {
				bound = hand.TrackedInput
			}
		} else {
			if controller := device.Controller(handedness); controller != nil {
				bound = controller.TrackedInput
			}
		}
		if bound == nil {
			return nil, fmt.Errorf("record: device has no input matching schema %d (%s, hand=%v)",
				entry.Index, entry.Schema.Handedness, entry.Schema.HasHand)
		}
		p.bindings[entry.Index] = bound
	}

	return p, nil
}

// OnComplete registers a callback fired once, when the final recorded
// frame has been applied.
func (p *Player) OnComplete(fn func()) {
	p.onComplete = fn
}

// Start seeds the playback clock and connects every bound input. A
// recording whose first frame carries a malformed timestamp never starts.
func (p *Player) Start(now time.Time) {
	p.started = now
	p.cursor = 0
	p.playing = len(p.frames) > 0

	if p.playing {
		ts, ok := asFloat(p.frames[0][0])
		if !ok {
			p.logger.Error("malformed frame timestamp", zap.Int("frame", 0))
			p.playing = false
			return
		}
		p.baseTS = ts
	}

	for _, ti := range p.bindings {
		ti.SetConnected(true)
	}
}

// Stop halts playback before completion. The completion callback does
// not fire.
func (p *Player) Stop() {
	p.playing = false
}

// Done reports whether playback has applied the final frame or was
// stopped.
func (p *Player) Done() bool {
	return !p.playing
}

// Tick applies every frame whose recorded timestamp has elapsed since
// Start. Returns true when playback completed during this tick.
func (p *Player) Tick(now time.Time) bool {
	if !p.playing {
		return false
	}

	elapsed := float64(now.Sub(p.started)) / float64(time.Millisecond)
	for p.cursor < len(p.frames) {
		ts, ok := asFloat(p.frames[p.cursor][0])
		if !ok {
			p.logger.Error("malformed frame timestamp", zap.Int("frame", p.cursor))
			p.playing = false
			return false
		}
		if ts-p.baseTS > elapsed {
			return false
		}

		if err := p.applyFrame(p.frames[p.cursor]); err != nil {
			p.logger.Error("frame apply failed", zap.Int("frame", p.cursor), zap.Error(err))
		}
		p.cursor++
	}

	p.playing = false
	if p.onComplete != nil {
		p.onComplete()
	}
	return true
}

// Play runs the driving loop until the recording completes or the
// context is cancelled.
func (p *Player) Play(ctx context.Context, interval time.Duration) error {
	p.Start(time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.Stop()
			return ctx.Err()
		case now := <-ticker.C:
			if p.Tick(now); p.Done() {
				return nil
			}
		}
	}
}

func (p *Player) applyFrame(frame CompressedFrame) error {
	sample, err := Decompress(frame, p.schemas)
	if err != nil {
		return err
	}

	p.device.SetPose(poseVec(sample.Device), poseQuat(sample.Device))

	for _, in := range sample.Inputs {
		ti, ok := p.bindings[in.SchemaIndex]
		if !ok {
			return fmt.Errorf("record: no bound input for schema %d", in.SchemaIndex)
		}
		schema := p.schemas[in.SchemaIndex]

		ti.SetPose(poseVec(in.TargetRay), poseQuat(in.TargetRay))

		// Grip and joints were recorded in the reference frame; their
		// spaces hang off the target ray, so rebase them against it.
		rayInv := poseMatrix(in.TargetRay).Inv()

		if in.Grip != nil {
			if controller := p.controllerFor(ti); controller != nil {
				controller.SetGripOffset(rayInv.Mul4(poseMatrix(*in.Grip)))
			}
		}

		if in.Joints != nil {
			if hand := p.handFor(ti); hand != nil {
				for i, name := range schema.JointOrder {
					hand.SetJointOffsetMatrix(name,
						rayInv.Mul4(poseMatrix(in.Joints[i].Pose)),
						in.Joints[i].Radius)
				}
			}
		}

		if in.Gamepad != nil {
			applyGamepad(ti, schema.GamepadLayout, in.Gamepad)
		}
	}

	return nil
}

func (p *Player) controllerFor(ti *marionette.TrackedInput) *marionette.Controller {
	for _, h := range []marionette.Handedness{
		marionette.HandednessLeft, marionette.HandednessRight, marionette.HandednessNone,
	} {
		if c := p.device.Controller(h); c != nil && c.TrackedInput == ti {
			return c
		}
	}
	return nil
}

func (p *Player) handFor(ti *marionette.TrackedInput) *marionette.Hand {
	for _, h := range []marionette.Handedness{marionette.HandednessLeft, marionette.HandednessRight} {
		if hand := p.device.Hand(h); hand != nil && hand.TrackedInput == ti {
			return hand
		}
	}
	return nil
}

// applyGamepad stages recorded button/axis state through the normal
// mutation entry points, in layout slot order.
func applyGamepad(ti *marionette.TrackedInput, layout *input.Layout, sample *GamepadSample) {
	if layout == nil {
		return
	}

	i := 0
	for _, spec := range layout.Buttons {
		if spec == nil {
			continue
		}
		if i >= len(sample.ButtonValues) {
			return
		}
		ti.UpdateButtonValue(spec.ID, sample.ButtonValues[i])
		ti.UpdateButtonTouch(spec.ID, sample.ButtonTouches[i])
		i++
	}

	i = 0
	for _, spec := range layout.Axes {
		if spec == nil {
			continue
		}
		if i >= len(sample.Axes) {
			return
		}
		ti.UpdateAxis(spec.ID, spec.Type, sample.Axes[i])
		i++
	}
}

func poseVec(p Pose) mgl64.Vec3 {
	return mgl64.Vec3{p.Position[0], p.Position[1], p.Position[2]}
}

func poseQuat(p Pose) mgl64.Quat {
	return mgl64.Quat{
		W: p.Orientation[3],
		V: mgl64.Vec3{p.Orientation[0], p.Orientation[1], p.Orientation[2]},
	}
}

func poseMatrix(p Pose) mgl64.Mat4 {
	return mgl64.Translate3D(p.Position[0], p.Position[1], p.Position[2]).
		Mul4(poseQuat(p).Normalize().Mat4())
}
