// Package record captures live device state into a compact replayable
// format and drives a device back through recorded history.
package record

import (
	"encoding/json"
	"fmt"

	"github.com/akeido/marionette/input"
)

// Schema is the fixed capability description of one input source,
// captured the first time the source is observed and held for the
// recording's lifetime. The compressed frame format is only decodable
// against its schema table: the schema's flags decide how many scalars
// each per-input block carries.
type Schema struct {
	Handedness    string        `json:"handedness"`
	TargetRayMode string        `json:"targetRayMode"`
	Profiles      []string      `json:"profiles"`
	HasGrip       bool          `json:"hasGrip"`
	HasHand       bool          `json:"hasHand"`
	JointOrder    []string      `json:"jointOrder,omitempty"`
	HasGamepad    bool          `json:"hasGamepad"`
	GamepadLayout *input.Layout `json:"gamepadLayout,omitempty"`
}

// SchemaEntry pairs a schema with its stable integer index. It serializes
// as the two-element array [index, schema].
type SchemaEntry struct {
	Index  int
	Schema Schema
}

func (e SchemaEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.Index, e.Schema})
}

func (e *SchemaEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("record: schema entry must be [index, schema], got %d elements", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.Index); err != nil {
		return fmt.Errorf("record: schema entry index: %w", err)
	}
	if err := json.Unmarshal(raw[1], &e.Schema); err != nil {
		return fmt.Errorf("record: schema entry body: %w", err)
	}
	return nil
}

// Artifact is the recording's durable output and the sole format consumed
// by playback and tooling. It must stay stable across tool versions.
type Artifact struct {
	Schema []SchemaEntry     `json:"schema"`
	Frames []CompressedFrame `json:"frames"`
}

// schemaTable indexes an artifact's schemas for decoding.
func (a *Artifact) schemaTable() map[int]Schema {
	table := make(map[int]Schema, len(a.Schema))
	for _, entry := range a.Schema {
		table[entry.Index] = entry.Schema
	}
	return table
}
