package burstsort

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/nkasiti/burstsort/internal/engine"
)

// Sorter is a burst trie being built up one key at a time. Construct one
// with New, call Insert for every key, then call Emit exactly once to
// produce the sorted sequence. A Sorter is not safe for concurrent use:
// Insert and Emit must not be called from more than one goroutine at a
// time.
type Sorter struct {
	eng    *engine.Engine
	opts   options
	logger *zap.Logger
}

// New returns a Sorter configured by opts. It fails if the configured
// burst threshold is out of range, or if the arena can't allocate its
// root node.
func New(opts ...Option) (*Sorter, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.threshold < MinThreshold || o.threshold > MaxThreshold {
		return nil, fmt.Errorf("%w: %d (want [%d, %d])", ErrThresholdRange, o.threshold, MinThreshold, MaxThreshold)
	}

	eng, err := engine.New(engine.Params{
		Threshold: o.threshold,
		Growth:    o.growth.toInternal(),
		PageCap:   o.pageCapacity,
		MaxPages:  o.maxPages,
		EmitLo:    o.emitLo,
		EmitHi:    o.emitHi,
		Logger:    o.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("burstsort: %w", err)
	}

	return &Sorter{eng: eng, opts: o, logger: o.logger}, nil
}

// Insert adds key to the sorter. Keys may be empty; a key whose suffix
// below its trie path is too long for the container length prefix is
// rejected with ErrEntryTooLong. Keys may contain any byte value except 0 (the container packed-region
// terminator). Duplicate keys are preserved and each emitted once per
// insertion.
func (s *Sorter) Insert(key []byte) error {
	if err := s.eng.Insert(key); err != nil {
		s.logger.Error("insert failed", zap.Error(err), zap.Int("key_len", len(key)))
		return fmt.Errorf("burstsort: insert: %w", err)
	}
	return nil
}

// Search always reports that key was not found. It exists only for
// interface parity with sibling data structures; this package does not
// implement lookup.
func (s *Sorter) Search(key []byte) (int, bool) { return s.eng.Search(key) }

// Inserted returns the number of keys successfully inserted so far.
func (s *Sorter) Inserted() uint64 { return s.eng.Inserted() }

// Stats summarizes a completed Emit: memory accounting and an xxhash
// fingerprint of the emitted key stream.
type Stats struct {
	Inserted       uint64
	Pages          int
	ArenaBytes     uint64
	ContainerBytes uint64
	Checksum       uint64
}

// EstimatedBytes returns the engine's own estimate of total memory used:
// arena pages plus every container's packed buffer, each with a fixed
// per-allocation overhead added in to approximate the allocator's real
// bookkeeping cost.
func (s Stats) EstimatedBytes() uint64 { return s.ArenaBytes + s.ContainerBytes }

// Emit performs the in-order traversal that produces the final sorted
// sequence, writing each key to w followed by a line feed, and returns
// accounting Stats. Emit consumes the Sorter: containers are freed as
// they're visited, and calling Insert or Emit again returns
// ErrAlreadyEmitted.
func (s *Sorter) Emit(w io.Writer) (Stats, error) {
	sum := xxhash.New()
	err := s.eng.Emit(func(key []byte) error {
		if _, err := sum.Write(key); err != nil {
			return err
		}
		if _, err := w.Write(key); err != nil {
			return err
		}
		_, err := w.Write([]byte{'\n'})
		return err
	})
	if err != nil {
		s.logger.Error("emit failed", zap.Error(err))
		return Stats{}, fmt.Errorf("burstsort: emit: %w", err)
	}

	mem := s.eng.Memory()
	stats := Stats{
		Inserted:       s.eng.Inserted(),
		Pages:          mem.Pages,
		ArenaBytes:     mem.ArenaBytes,
		ContainerBytes: mem.ContainerBytes,
		Checksum:       sum.Sum64(),
	}
	s.logger.Debug("emit complete",
		zap.Uint64("inserted", stats.Inserted),
		zap.Int("pages", stats.Pages),
		zap.Uint64("estimated_bytes", stats.EstimatedBytes()),
	)
	return stats, nil
}

// EmitFunc is like Emit but invokes sink once per emitted key instead of
// writing to an io.Writer; it does not append a line terminator or
// compute a checksum. Use it when the caller wants each sorted key as it
// is produced rather than a serialized byte stream.
func (s *Sorter) EmitFunc(sink func(key []byte) error) error {
	return s.eng.Emit(sink)
}
