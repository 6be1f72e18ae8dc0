package burstsort

import (
	"go.uber.org/zap"

	"github.com/nkasiti/burstsort/internal/container"
)

// GrowthPolicy selects how a container's backing buffer grows as entries
// are appended to it.
type GrowthPolicy int

const (
	// Paging grows containers in discrete size classes (32 bytes, then
	// multiples of 64 bytes), amortizing allocator traffic. This is the
	// default.
	Paging GrowthPolicy = iota
	// ExactFit grows each container to the exact byte count required,
	// minimizing memory at the cost of more allocator traffic.
	ExactFit
)

func (p GrowthPolicy) toInternal() container.Policy {
	if p == ExactFit {
		return container.ExactFit
	}
	return container.Paging
}

// String returns the policy's display name as it appears in diagnostic
// output ("Paging" or "Exact-fit").
func (p GrowthPolicy) String() string {
	if p == ExactFit {
		return "Exact-fit"
	}
	return "Paging"
}

const (
	// MinThreshold and MaxThreshold bound the burst threshold accepted by
	// WithBurstThreshold.
	MinThreshold = 64
	MaxThreshold = 512

	defaultThreshold = 128

	// defaultPageCapacity and defaultMaxPages bound the size and count of
	// arena pack pages: each page holds defaultPageCapacity trie nodes,
	// and the arena refuses to allocate beyond defaultMaxPages of them.
	defaultPageCapacity = 32768
	defaultMaxPages     = 128

	// defaultEmitLo and defaultEmitHi cover the full non-zero byte range.
	// Every byte value has a real branching slot (see DESIGN.md's note on
	// the exhaust counter living in its own Node field), so there is no
	// narrower "safe" window to default to.
	defaultEmitLo = 1
	defaultEmitHi = 256
)

// options collects the configuration built up by a chain of Option
// values.
type options struct {
	threshold    int
	growth       GrowthPolicy
	pageCapacity int
	maxPages     int
	emitLo       byte
	emitHi       int // exclusive; kept wider than a byte so 256 is representable
	logger       *zap.Logger
}

func defaultOptions() options {
	return options{
		threshold:    defaultThreshold,
		growth:       Paging,
		pageCapacity: defaultPageCapacity,
		maxPages:     defaultMaxPages,
		emitLo:       defaultEmitLo,
		emitHi:       defaultEmitHi,
		logger:       zap.NewNop(),
	}
}

// Option configures a Sorter at construction. See New.
type Option func(*options)

// WithBurstThreshold sets the number of packed entries a container may
// hold before it is burst into a deeper trie level. Must be in
// [MinThreshold, MaxThreshold]; New returns ErrThresholdRange otherwise.
func WithBurstThreshold(n int) Option {
	return func(o *options) { o.threshold = n }
}

// WithGrowthPolicy selects how container buffers grow. The default is
// Paging.
func WithGrowthPolicy(p GrowthPolicy) Option {
	return func(o *options) { o.growth = p }
}

// WithPageCapacity overrides the number of trie nodes per arena pack page.
func WithPageCapacity(n int) Option {
	return func(o *options) { o.pageCapacity = n }
}

// WithMaxPages overrides the hard cap on the number of arena pack pages;
// Insert returns ErrPagesExhausted if this cap is reached.
func WithMaxPages(n int) Option {
	return func(o *options) { o.maxPages = n }
}

// WithEmitRange overrides which byte values Emit considers when walking a
// trie node's slots, as an inclusive [lo, hi] range. The default, [1,
// 255], covers every non-zero byte; callers that only ever insert
// printable ASCII can narrow it, e.g. WithEmitRange(32, 126), to skip
// scanning slots that can never be populated.
func WithEmitRange(lo, hi byte) Option {
	return func(o *options) {
		o.emitLo = lo
		o.emitHi = int(hi) + 1
	}
}

// WithLogger sets the logger the Sorter and its engine use for
// diagnostic logging: arena page allocation and bursts at debug level,
// failed inserts, bursts and emits at error level.
// The default is a no-op logger; only cmd/burstsort constructs a real
// one.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
