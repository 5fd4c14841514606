package record

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Export wraps a recording artifact with tooling metadata: a stable id,
// a creation timestamp and an integrity digest over the frame stream.
// The inner artifact is byte-for-byte the stable interchange format;
// the envelope is additive.
type Export struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Digest    string    `json:"digest"`
	Recording *Artifact `json:"recording"`
}

// NewExport builds an envelope around an artifact.
func NewExport(artifact *Artifact) (*Export, error) {
	digest, err := digestFrames(artifact.Frames, 1)
	if err != nil {
		return nil, err
	}
	return &Export{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Digest:    digest,
		Recording: artifact,
	}, nil
}

// Verify re-encodes every frame (fanned out over workers) and checks the
// digest, then checks that each frame still decodes against the schema
// table. Returns the first mismatch found.
func (e *Export) Verify(workers int) error {
	digest, err := digestFrames(e.Recording.Frames, workers)
	if err != nil {
		return err
	}
	if digest != e.Digest {
		return fmt.Errorf("record: digest mismatch: artifact %s, computed %s", e.Digest, digest)
	}

	schemas := e.Recording.schemaTable()
	errs := make([]error, len(e.Recording.Frames))
	task(workers, e.Recording.Frames, func(i int, frame CompressedFrame) {
		if _, err := Decompress(frame, schemas); err != nil {
			errs[i] = fmt.Errorf("record: frame %d: %w", i, err)
		}
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// digestFrames hashes the frame stream: frames are JSON-encoded in
// parallel, then folded into the digest in frame order so the result is
// independent of worker count.
func digestFrames(frames []CompressedFrame, workers int) (string, error) {
	encoded := make([][]byte, len(frames))
	errs := make([]error, len(frames))
	task(workers, frames, func(i int, frame CompressedFrame) {
		encoded[i], errs[i] = json.Marshal(frame)
	})
	for _, err := range errs {
		if err != nil {
			return "", err
		}
	}

	hash := xxhash.New()
	for _, data := range encoded {
		_, _ = hash.Write(data)
	}
	return fmt.Sprintf("%016x", hash.Sum64()), nil
}

// task fans fn out over the slice in fixed-size chunks.
func task[T any](workersCount int, data []T, fn func(i int, data T)) {
	workersCount = max(1, workersCount)

	var wg sync.WaitGroup
	dataSize := len(data)
	chunkSize := (dataSize + workersCount - 1) / workersCount

	for workerID := 0; workerID < workersCount; workerID++ {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i, data[i])
			}
		}(workerID*chunkSize, min((workerID+1)*chunkSize, dataSize))
	}
	wg.Wait()
}
