package record

import (
	"fmt"
	"math"
)

// Pose precision: 3 decimals for positions, orientations and radii,
// 1 decimal for timestamps (milliseconds).
const (
	poseScale      = 1000
	timestampScale = 10
)

func roundPose(v float64) float64 {
	return math.Round(v*poseScale) / poseScale
}

func roundTimestamp(v float64) float64 {
	return math.Round(v*timestampScale) / timestampScale
}

// Pose is a sampled position + orientation, orientation as x,y,z,w.
type Pose struct {
	Position    [3]float64
	Orientation [4]float64
}

// JointSample is one hand joint's pose plus its reported radius.
type JointSample struct {
	Pose   Pose
	Radius float64
}

// GamepadSample carries one frame of button/axis state, in layout slot
// order, vacant slots excluded.
type GamepadSample struct {
	ButtonValues  []float64
	ButtonTouches []bool
	Axes          []float64
}

// InputSample is one input source's contribution to a frame. Grip,
// Joints and Gamepad are nil when that data was unavailable this frame;
// whether a slot for them exists at all is the schema's call.
type InputSample struct {
	SchemaIndex int
	TargetRay   Pose
	Grip        *Pose
	Joints      []JointSample
	Gamepad     *GamepadSample
}

// FrameSample is one fully assembled tick of device + input state.
type FrameSample struct {
	Timestamp float64 // milliseconds
	Device    Pose
	Inputs    []InputSample
}

// CompressedFrame is the flat numeric encoding of a FrameSample:
//
//	[timestamp, devicePos(3), deviceOrient(4), block, block, ...]
//
// where each block is
//
//	[schemaIndex, rayPos(3), rayOrient(4), grip?, joints?, gamepad?]
//
// The optional tails are nested numeric arrays, present exactly when the
// block's schema declares the capability; an empty nested array means
// "no data this frame". The format trades self-description for density:
// decoding without the schema table is undefined.
type CompressedFrame []any

func appendPose(dst []float64, p Pose) []float64 {
	for _, v := range p.Position {
		dst = append(dst, roundPose(v))
	}
	for _, v := range p.Orientation {
		dst = append(dst, roundPose(v))
	}
	return dst
}

// Compress flattens a frame sample. The schema table must contain every
// schema index the sample references.
func Compress(frame FrameSample, schemas map[int]Schema) (CompressedFrame, error) {
	compressed := make(CompressedFrame, 0, 8+len(frame.Inputs))
	compressed = append(compressed, roundTimestamp(frame.Timestamp))
	for _, v := range appendPose(nil, frame.Device) {
		compressed = append(compressed, v)
	}

	for _, in := range frame.Inputs {
		schema, ok := schemas[in.SchemaIndex]
		if !ok {
			return nil, fmt.Errorf("record: no schema for index %d", in.SchemaIndex)
		}

		block := make([]any, 0, 8)
		block = append(block, float64(in.SchemaIndex))
		for _, v := range appendPose(nil, in.TargetRay) {
			block = append(block, v)
		}

		if schema.HasGrip {
			var grip []float64
			if in.Grip != nil {
				grip = appendPose(nil, *in.Grip)
			}
			block = append(block, grip)
		}

		if schema.HasHand {
			var joints []float64
			if in.Joints != nil {
				if len(in.Joints) != len(schema.JointOrder) {
					return nil, fmt.Errorf("record: schema %d expects %d joints, got %d",
						in.SchemaIndex, len(schema.JointOrder), len(in.Joints))
				}
				joints = make([]float64, 0, len(in.Joints)*8)
				for _, j := range in.Joints {
					joints = appendPose(joints, j.Pose)
					joints = append(joints, roundPose(j.Radius))
				}
			}
			block = append(block, joints)
		}

		if schema.HasGamepad {
			var pad []float64
			if in.Gamepad != nil {
				pad = make([]float64, 0, len(in.Gamepad.ButtonValues)*2+len(in.Gamepad.Axes))
				for i, v := range in.Gamepad.ButtonValues {
					pad = append(pad, roundPose(v))
					if in.Gamepad.ButtonTouches[i] {
						pad = append(pad, 1)
					} else {
						pad = append(pad, 0)
					}
				}
				for _, v := range in.Gamepad.Axes {
					pad = append(pad, roundPose(v))
				}
			}
			block = append(block, pad)
		}

		compressed = append(compressed, block)
	}

	return compressed, nil
}

// asFloat converts one scalar element, tolerating JSON round-trips.
func asFloat(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

// asFloats converts one nested numeric array, tolerating JSON round-trips
// (which decode nested arrays as []any).
func asFloats(v any) ([]float64, bool) {
	switch arr := v.(type) {
	case []float64:
		return arr, true
	case []any:
		out := make([]float64, len(arr))
		for i, e := range arr {
			f, ok := e.(float64)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	case nil:
		return nil, true
	}
	return nil, false
}

func asBlock(v any) ([]any, bool) {
	switch arr := v.(type) {
	case []any:
		return arr, true
	}
	return nil, false
}

type scalarReader struct {
	elems []any
	pos   int
}

func (r *scalarReader) next() (float64, error) {
	if r.pos >= len(r.elems) {
		return 0, fmt.Errorf("record: truncated frame at element %d", r.pos)
	}
	f, ok := asFloat(r.elems[r.pos])
	if !ok {
		return 0, fmt.Errorf("record: element %d is not a scalar", r.pos)
	}
	r.pos++
	return f, nil
}

func (r *scalarReader) nextArray() ([]float64, error) {
	if r.pos >= len(r.elems) {
		return nil, fmt.Errorf("record: truncated frame at element %d", r.pos)
	}
	arr, ok := asFloats(r.elems[r.pos])
	if !ok {
		return nil, fmt.Errorf("record: element %d is not a numeric array", r.pos)
	}
	r.pos++
	return arr, nil
}

func (r *scalarReader) pose() (Pose, error) {
	var p Pose
	for i := range p.Position {
		v, err := r.next()
		if err != nil {
			return p, err
		}
		p.Position[i] = v
	}
	for i := range p.Orientation {
		v, err := r.next()
		if err != nil {
			return p, err
		}
		p.Orientation[i] = v
	}
	return p, nil
}

func poseFromFloats(vals []float64) Pose {
	var p Pose
	copy(p.Position[:], vals[:3])
	copy(p.Orientation[:], vals[3:7])
	return p
}

// Decompress reconstructs a frame sample from its flat encoding using the
// matching schema table. Live playback consumes the result; the recorder
// itself never needs this path.
func Decompress(frame CompressedFrame, schemas map[int]Schema) (FrameSample, error) {
	reader := &scalarReader{elems: frame}

	var sample FrameSample
	ts, err := reader.next()
	if err != nil {
		return sample, err
	}
	sample.Timestamp = ts

	if sample.Device, err = reader.pose(); err != nil {
		return sample, err
	}

	for reader.pos < len(reader.elems) {
		raw, ok := asBlock(reader.elems[reader.pos])
		if !ok {
			return sample, fmt.Errorf("record: element %d is not an input block", reader.pos)
		}
		reader.pos++

		block := &scalarReader{elems: raw}
		idx, err := block.next()
		if err != nil {
			return sample, err
		}

		in := InputSample{SchemaIndex: int(idx)}
		schema, ok := schemas[in.SchemaIndex]
		if !ok {
			return sample, fmt.Errorf("record: no schema for index %d", in.SchemaIndex)
		}

		if in.TargetRay, err = block.pose(); err != nil {
			return sample, err
		}

		if schema.HasGrip {
			grip, err := block.nextArray()
			if err != nil {
				return sample, err
			}
			if len(grip) == 7 {
				p := poseFromFloats(grip)
				in.Grip = &p
			} else if len(grip) != 0 {
				return sample, fmt.Errorf("record: grip block has %d scalars, want 7", len(grip))
			}
		}

		if schema.HasHand {
			joints, err := block.nextArray()
			if err != nil {
				return sample, err
			}
			if want := len(schema.JointOrder) * 8; len(joints) == want && want > 0 {
				in.Joints = make([]JointSample, len(schema.JointOrder))
				for i := range in.Joints {
					chunk := joints[i*8 : i*8+8]
					in.Joints[i] = JointSample{
						Pose:   poseFromFloats(chunk[:7]),
						Radius: chunk[7],
					}
				}
			} else if len(joints) != 0 {
				return sample, fmt.Errorf("record: joint block has %d scalars, want %d", len(joints), want)
			}
		}

		if schema.HasGamepad {
			pad, err := block.nextArray()
			if err != nil {
				return sample, err
			}
			if len(pad) > 0 {
				layout := schema.GamepadLayout
				buttons := 0
				axes := 0
				if layout != nil {
					for _, b := range layout.Buttons {
						if b != nil {
							buttons++
						}
					}
					for _, a := range layout.Axes {
						if a != nil {
							axes++
						}
					}
				}
				if len(pad) != buttons*2+axes {
					return sample, fmt.Errorf("record: gamepad block has %d scalars, want %d",
						len(pad), buttons*2+axes)
				}
				gp := &GamepadSample{
					ButtonValues:  make([]float64, buttons),
					ButtonTouches: make([]bool, buttons),
					Axes:          make([]float64, axes),
				}
				for i := 0; i < buttons; i++ {
					gp.ButtonValues[i] = pad[i*2]
					gp.ButtonTouches[i] = pad[i*2+1] != 0
				}
				copy(gp.Axes, pad[buttons*2:])
				in.Gamepad = gp
			}
		}

		if block.pos != len(block.elems) {
			return sample, fmt.Errorf("record: input block has %d trailing elements",
				len(block.elems)-block.pos)
		}

		sample.Inputs = append(sample.Inputs, in)
	}

	return sample, nil
}
