package neat

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// Checkpoint is everything needed to resume a run between two generations.
type Checkpoint struct {
	Generation   int // Next generation to run.
	Config       *Config
	Population   map[int]*Genome
	SpeciesSet   *SpeciesSet
	Innovations  *InnovationTracker
	RNGState     []byte
	Reproduction *DefaultReproduction // Nil when a custom Reproducer is in use.
	BestGenome   *Genome
}

// checkpointData has the fields of Checkpoint but none of its methods, so gob
// encodes it field by field instead of calling MarshalBinary.
type checkpointData Checkpoint

// Encode writes the checkpoint as gzip-compressed gob.
func (cp *Checkpoint) Encode(w io.Writer) error {
	gzWriter := gzip.NewWriter(w)
	if err := gob.NewEncoder(gzWriter).Encode((*checkpointData)(cp)); err != nil {
		gzWriter.Close()
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush checkpoint: %w", err)
	}
	return nil
}

// MarshalBinary returns the encoded checkpoint. UnmarshalBinary and
// DecodeCheckpoint read it back.
func (cp *Checkpoint) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := cp.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary replaces cp with a checkpoint encoded by MarshalBinary.
func (cp *Checkpoint) UnmarshalBinary(data []byte) error {
	decoded, err := DecodeCheckpoint(bytes.NewReader(data))
	if err != nil {
		return err
	}
	*cp = *decoded
	return nil
}

// DecodeCheckpoint reads a checkpoint written by Encode.
func DecodeCheckpoint(r io.Reader) (*Checkpoint, error) {
	gzReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for checkpoint: %w", err)
	}
	defer gzReader.Close()

	var data checkpointData
	if err := gob.NewDecoder(gzReader).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	return (*Checkpoint)(&data), nil
}

// SaveCheckpointFile writes the checkpoint to filePath.
func SaveCheckpointFile(cp *Checkpoint, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file '%s': %w", filePath, err)
	}
	if err := cp.Encode(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// LoadCheckpointFile reads a checkpoint from filePath.
func LoadCheckpointFile(filePath string) (*Checkpoint, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file '%s': %w", filePath, err)
	}
	defer file.Close()
	return DecodeCheckpoint(file)
}

// CheckpointSink receives checkpoints produced during a run.
type CheckpointSink interface {
	SaveCheckpoint(cp *Checkpoint) error
}

// CheckpointSinkFunc adapts a function to CheckpointSink.
type CheckpointSinkFunc func(cp *Checkpoint) error

// SaveCheckpoint implements CheckpointSink.
func (f CheckpointSinkFunc) SaveCheckpoint(cp *Checkpoint) error { return f(cp) }

// FileSink writes each checkpoint to Prefix followed by the generation number.
type FileSink struct {
	Prefix string
}

// SaveCheckpoint implements CheckpointSink.
func (s FileSink) SaveCheckpoint(cp *Checkpoint) error {
	return SaveCheckpointFile(cp, fmt.Sprintf("%s%d", s.Prefix, cp.Generation-1))
}

// Checkpointer snapshots the population every Interval completed generations.
type Checkpointer struct {
	Interval int
	Sink     CheckpointSink
}

// NewCheckpointer creates a checkpointer. An interval below one saves every generation.
func NewCheckpointer(interval int, sink CheckpointSink) *Checkpointer {
	return &Checkpointer{Interval: max(interval, 1), Sink: sink}
}

// EndGeneration saves a checkpoint when the number of completed generations
// is a multiple of the interval.
func (c *Checkpointer) EndGeneration(p *Population) error {
	if c.Interval > 1 && p.Generation%c.Interval != 0 {
		return nil
	}
	cp, err := p.Snapshot()
	if err != nil {
		return err
	}
	if err := c.Sink.SaveCheckpoint(cp); err != nil {
		return fmt.Errorf("failed to save checkpoint for generation %d: %w", p.Generation-1, err)
	}
	return nil
}
