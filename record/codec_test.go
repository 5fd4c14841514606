package record

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"

	"github.com/akeido/marionette/input"
)

func controllerSchema() Schema {
	return Schema{
		Handedness:    "right",
		TargetRayMode: "tracked-pointer",
		Profiles:      []string{"generic-trigger-squeeze-thumbstick"},
		HasGrip:       true,
		HasGamepad:    true,
		GamepadLayout: &input.Layout{
			Mapping: "xr-standard",
			Buttons: []*input.ButtonSpec{
				{ID: "trigger", Kind: input.KindAnalog, EventTrigger: "select"},
				nil,
				{ID: "a-button", Kind: input.KindBinary},
			},
			Axes: []*input.AxisSpec{
				{ID: "thumbstick", Type: input.AxisX},
				{ID: "thumbstick", Type: input.AxisY},
			},
		},
	}
}

func handSchema() Schema {
	return Schema{
		Handedness:    "left",
		TargetRayMode: "tracked-pointer",
		Profiles:      []string{"generic-hand-select"},
		HasHand:       true,
		JointOrder:    []string{"wrist", "thumb-tip", "index-finger-tip"},
		HasGamepad:    true,
		GamepadLayout: &input.Layout{
			Buttons: []*input.ButtonSpec{
				{ID: "pinch", Kind: input.KindAnalog, EventTrigger: "select"},
			},
		},
	}
}

func sampleFrame() FrameSample {
	grip := Pose{
		Position:    [3]float64{0.25, 1.45, -0.41},
		Orientation: [4]float64{0, 0, 0, 1},
	}
	return FrameSample{
		Timestamp: 16.68,
		Device: Pose{
			Position:    [3]float64{0.0001, 1.6, 0},
			Orientation: [4]float64{0, 0.7071, 0, 0.7071},
		},
		Inputs: []InputSample{
			{
				SchemaIndex: 0,
				TargetRay: Pose{
					Position:    [3]float64{0.25, 1.5, -0.4},
					Orientation: [4]float64{0, 0, 0, 1},
				},
				Grip: &grip,
				Gamepad: &GamepadSample{
					ButtonValues:  []float64{0.6, 1},
					ButtonTouches: []bool{true, false},
					Axes:          []float64{0.123, -0.456},
				},
			},
			{
				SchemaIndex: 1,
				TargetRay: Pose{
					Position:    [3]float64{-0.25, 1.5, -0.4},
					Orientation: [4]float64{0, 0, 0, 1},
				},
				Joints: []JointSample{
					{Pose: Pose{Position: [3]float64{0, 0, 0}, Orientation: [4]float64{0, 0, 0, 1}}, Radius: 0.0215},
					{Pose: Pose{Position: [3]float64{0.01, 0.02, 0.03}, Orientation: [4]float64{0, 0, 0, 1}}, Radius: 0.008},
					{Pose: Pose{Position: [3]float64{-0.01, 0.04, -0.02}, Orientation: [4]float64{0, 0, 0, 1}}, Radius: 0.007},
				},
				Gamepad: &GamepadSample{
					ButtonValues:  []float64{0.9},
					ButtonTouches: []bool{true},
					Axes:          nil,
				},
			},
		},
	}
}

func testSchemaTable() map[int]Schema {
	return map[int]Schema{0: controllerSchema(), 1: handSchema()}
}

func TestCodec_RoundTripWithinPrecision(t *testing.T) {
	schemas := testSchemaTable()
	original := sampleFrame()

	compressed, err := Compress(original, schemas)
	if err != nil {
		t.Fatalf("compress failed: %v", err)
	}

	decoded, err := Decompress(compressed, schemas)
	if err != nil {
		t.Fatalf("decompress failed: %v", err)
	}

	if math.Abs(decoded.Timestamp-original.Timestamp) > 0.05 {
		t.Errorf("timestamp %v drifted beyond one decimal from %v", decoded.Timestamp, original.Timestamp)
	}
	for i := range original.Device.Position {
		if math.Abs(decoded.Device.Position[i]-original.Device.Position[i]) > 0.0005 {
			t.Errorf("device position[%d] drifted beyond three decimals", i)
		}
	}

	if len(decoded.Inputs) != 2 {
		t.Fatalf("expected 2 input blocks, got %d", len(decoded.Inputs))
	}
	if decoded.Inputs[0].Grip == nil {
		t.Error("grip block lost")
	}
	if len(decoded.Inputs[1].Joints) != 3 {
		t.Errorf("expected 3 joints, got %d", len(decoded.Inputs[1].Joints))
	}
	if got := decoded.Inputs[0].Gamepad; got == nil || got.ButtonValues[0] != 0.6 || !got.ButtonTouches[0] {
		t.Errorf("gamepad block mismatch: %+v", got)
	}
}

// Recompressing a decompressed frame must be byte-stable: rounding is
// idempotent.
func TestCodec_RecompressionIsIdempotent(t *testing.T) {
	schemas := testSchemaTable()

	compressed, err := Compress(sampleFrame(), schemas)
	if err != nil {
		t.Fatalf("compress failed: %v", err)
	}

	decoded, err := Decompress(compressed, schemas)
	if err != nil {
		t.Fatalf("decompress failed: %v", err)
	}

	recompressed, err := Compress(decoded, schemas)
	if err != nil {
		t.Fatalf("recompress failed: %v", err)
	}

	if !reflect.DeepEqual(compressed, recompressed) {
		t.Errorf("recompression not idempotent:\n first: %v\nsecond: %v", compressed, recompressed)
	}
}

// The artifact travels as JSON; frames must still decode after a
// marshal/unmarshal cycle turns nested arrays into []any.
func TestCodec_SurvivesJSONRoundTrip(t *testing.T) {
	schemas := testSchemaTable()

	compressed, err := Compress(sampleFrame(), schemas)
	if err != nil {
		t.Fatalf("compress failed: %v", err)
	}

	data, err := json.Marshal(compressed)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var revived CompressedFrame
	if err := json.Unmarshal(data, &revived); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	decoded, err := Decompress(revived, schemas)
	if err != nil {
		t.Fatalf("decompress after JSON failed: %v", err)
	}
	if len(decoded.Inputs) != 2 {
		t.Errorf("expected 2 input blocks, got %d", len(decoded.Inputs))
	}
}

func TestCodec_EmptyNestedArrayMeansNoData(t *testing.T) {
	schemas := testSchemaTable()

	frame := sampleFrame()
	frame.Inputs[0].Grip = nil
	frame.Inputs[1].Joints = nil

	compressed, err := Compress(frame, schemas)
	if err != nil {
		t.Fatalf("compress failed: %v", err)
	}

	decoded, err := Decompress(compressed, schemas)
	if err != nil {
		t.Fatalf("decompress failed: %v", err)
	}
	if decoded.Inputs[0].Grip != nil {
		t.Error("absent grip decoded as present")
	}
	if decoded.Inputs[1].Joints != nil {
		t.Error("absent joints decoded as present")
	}
}

func TestCodec_UnknownSchemaIndexFails(t *testing.T) {
	frame := sampleFrame()
	frame.Inputs[0].SchemaIndex = 7

	if _, err := Compress(frame, testSchemaTable()); err == nil {
		t.Error("expected error for unknown schema index")
	}
}

func TestCodec_TimestampRounding(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{16.68, 16.7},
		{0, 0},
		{33.333, 33.3},
		{5.678, 5.7},
	}

	for _, tt := range tests {
		if got := roundTimestamp(tt.in); got != tt.want {
			t.Errorf("roundTimestamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
