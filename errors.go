package burstsort

import (
	"errors"

	"github.com/nkasiti/burstsort/internal/arena"
	"github.com/nkasiti/burstsort/internal/container"
	"github.com/nkasiti/burstsort/internal/engine"
)

// These errors can be returned by functions in this package. Errors are
// wrapped with fmt.Errorf where more context is available; use errors.Is
// to check for the underlying error type.
var (
	// ErrThresholdRange is returned by New when WithBurstThreshold is given
	// a value outside [MinThreshold, MaxThreshold].
	ErrThresholdRange = errors.New("burstsort: burst threshold out of range")

	// ErrPagesExhausted is returned by Insert once the arena has allocated
	// its configured hard cap of pack pages and needs one more. It is the
	// same sentinel internal/arena.NewNode returns, re-exported here so
	// callers never need to reach past this package's boundary.
	ErrPagesExhausted = arena.ErrPagesExhausted

	// ErrEntryTooLong is returned by Insert for a key whose length can't be
	// represented by the container's length-prefix encoding. It re-exports
	// internal/container.ErrEntryTooLong.
	ErrEntryTooLong = container.ErrEntryTooLong

	// ErrAlreadyEmitted is returned by Insert and Emit once Emit has
	// already consumed the Sorter; emission frees containers as it walks
	// them; there's nothing left to insert into or emit again. It
	// re-exports internal/engine.ErrAlreadyEmitted.
	ErrAlreadyEmitted = engine.ErrAlreadyEmitted

	// ErrOutOfMemory represents fatal allocation failure. Go's allocator
	// reports exhaustion by crashing the runtime rather than returning an
	// error, so this value is never actually produced today; it's kept so
	// that callers distinguishing fatal conditions by sentinel error have
	// a complete set to match against.
	ErrOutOfMemory = errors.New("burstsort: out of memory")
)
