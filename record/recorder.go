package record

import (
	"go.uber.org/zap"

	"github.com/akeido/marionette"
	"github.com/akeido/marionette/spatial"
)

// Recorder samples a device and its active tracked inputs once per frame
// into compressed frames. Schemas are assigned per input source on first
// sight and never recomputed: playback indexes frames by schema and
// assumes immutability.
type Recorder struct {
	device   *marionette.Device
	refSpace *spatial.Space

	schemas       []SchemaEntry
	indexByInput  map[*marionette.TrackedInput]int
	frames        []CompressedFrame
	lastFrameTick uint64
	hasRecorded   bool

	logger *zap.Logger
}

// NewRecorder builds a recorder sampling the device in its global
// reference frame. A nil logger disables diagnostics.
func NewRecorder(device *marionette.Device, logger *zap.Logger) *Recorder {
	return NewRecorderWithReference(device, device.GlobalSpace, logger)
}

// NewRecorderWithReference records poses relative to a caller-chosen
// reference space instead of the device's global root.
func NewRecorderWithReference(device *marionette.Device, refSpace *spatial.Space, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		device:       device,
		refSpace:     refSpace,
		indexByInput: make(map[*marionette.TrackedInput]int),
		logger:       logger,
	}
}

// FrameCount returns how many frames have been recorded so far.
func (r *Recorder) FrameCount() int {
	return len(r.frames)
}

// RecordFrame samples the current frame at the given timestamp
// (milliseconds). Call at most once per device frame tick; extra calls in
// the same tick warn and are dropped.
//
// A frame with no resolvable viewer pose is dropped whole — partial
// frames are never recorded. An input whose target-ray pose is
// unavailable is omitted from the frame; grip, hand and gamepad data are
// each omitted independently when unavailable.
func (r *Recorder) RecordFrame(timestamp float64) {
	tick := r.device.Frame()
	if r.hasRecorded && tick == r.lastFrameTick {
		r.logger.Warn("recordFrame called twice in one frame tick",
			zap.Uint64("frame", tick))
		return
	}

	devicePose := r.resolve(r.device.ViewerSpace)
	if devicePose == nil {
		r.logger.Debug("viewer pose unavailable, dropping frame",
			zap.Float64("timestamp", timestamp))
		return
	}

	frame := FrameSample{
		Timestamp: timestamp,
		Device:    *devicePose,
	}

	for _, ti := range r.device.ActiveInputs() {
		rayPose := r.resolve(ti.TargetRaySpace())
		if rayPose == nil {
			continue
		}

		index := r.schemaIndexFor(ti)
		schema := r.schemas[index].Schema

		in := InputSample{
			SchemaIndex: index,
			TargetRay:   *rayPose,
		}
		if schema.HasGrip {
			in.Grip = r.resolve(ti.GripSpace())
		}
		if schema.HasHand {
			in.Joints = r.sampleJoints(ti, schema.JointOrder)
		}
		if schema.HasGamepad {
			in.Gamepad = sampleGamepad(ti)
		}

		frame.Inputs = append(frame.Inputs, in)
	}

	compressed, err := Compress(frame, r.schemaTable())
	if err != nil {
		r.logger.Error("frame compression failed", zap.Error(err))
		return
	}

	r.frames = append(r.frames, compressed)
	r.lastFrameTick = tick
	r.hasRecorded = true
}

// Log assembles the recording's durable artifact.
func (r *Recorder) Log() *Artifact {
	return &Artifact{
		Schema: r.schemas,
		Frames: r.frames,
	}
}

func (r *Recorder) schemaTable() map[int]Schema {
	table := make(map[int]Schema, len(r.schemas))
	for _, entry := range r.schemas {
		table[entry.Index] = entry.Schema
	}
	return table
}

// schemaIndexFor returns the input's schema index, deriving and caching
// the schema on first sight.
func (r *Recorder) schemaIndexFor(ti *marionette.TrackedInput) int {
	if index, ok := r.indexByInput[ti]; ok {
		return index
	}

	schema := Schema{
		Handedness:    string(ti.Handedness()),
		TargetRayMode: string(ti.TargetRayMode()),
		Profiles:      ti.Profiles(),
		HasGrip:       ti.GripSpace() != nil,
		HasGamepad:    ti.Gamepad() != nil,
	}
	if r.handFor(ti) != nil {
		schema.HasHand = true
		schema.JointOrder = append([]string(nil), marionette.HandJoints...)
	}
	if schema.HasGamepad {
		schema.GamepadLayout = ti.Gamepad().Layout()
	}

	index := len(r.schemas)
	r.schemas = append(r.schemas, SchemaEntry{Index: index, Schema: schema})
	r.indexByInput[ti] = index

	r.logger.Debug("captured input schema",
		zap.Int("index", index),
		zap.String("handedness", schema.Handedness))

	return index
}

// handFor reports the articulated hand behind a tracked input, if any.
func (r *Recorder) handFor(ti *marionette.TrackedInput) *marionette.Hand {
	for _, handedness := range []marionette.Handedness{marionette.HandednessLeft, marionette.HandednessRight} {
		if hand := r.device.Hand(handedness); hand != nil && hand.TrackedInput == ti {
			return hand
		}
	}
	return nil
}

// resolve maps "no data this frame" and resolution errors alike to an
// absent pose; transient tracking loss is never a recording failure.
func (r *Recorder) resolve(space *spatial.Space) *Pose {
	transform, err := spatial.ResolvePose(space, r.refSpace)
	if err != nil {
		r.logger.Warn("pose resolution failed", zap.Error(err))
		return nil
	}
	if transform == nil {
		return nil
	}
	return poseFromTransform(transform)
}

// sampleJoints reads every joint pose in schema order, resolved in the
// reference frame. Any untracked joint makes the whole hand block
// unavailable for this frame.
func (r *Recorder) sampleJoints(ti *marionette.TrackedInput, order []string) []JointSample {
	hand := r.handFor(ti)
	if hand == nil {
		return nil
	}

	joints := make([]JointSample, 0, len(order))
	for _, name := range order {
		space := hand.JointSpace(name)
		pose := r.resolve(space)
		if pose == nil {
			return nil
		}
		joints = append(joints, JointSample{
			Pose:   *pose,
			Radius: hand.JointRadius(name),
		})
	}
	return joints
}

func sampleGamepad(ti *marionette.TrackedInput) *GamepadSample {
	gamepad := ti.Gamepad()
	layout := gamepad.Layout()

	sample := &GamepadSample{}
	buttons := gamepad.Buttons()
	for slot, spec := range layout.Buttons {
		if spec == nil {
			continue
		}
		sample.ButtonValues = append(sample.ButtonValues, buttons[slot].Value)
		sample.ButtonTouches = append(sample.ButtonTouches, buttons[slot].Touched)
	}
	axes := gamepad.Axes()
	for slot, spec := range layout.Axes {
		if spec == nil {
			continue
		}
		sample.Axes = append(sample.Axes, axes[slot])
	}
	return sample
}

func poseFromTransform(t *spatial.RigidTransform) *Pose {
	position := t.Position()
	orientation := t.Orientation()
	return &Pose{
		Position: [3]float64{position.X(), position.Y(), position.Z()},
		Orientation: [4]float64{
			orientation.V.X(), orientation.V.Y(), orientation.V.Z(), orientation.W,
		},
	}
}
