// Package engine implements the insert/burst/emit protocol of a burst
// trie: a trie over raw byte values whose leaves are small, unsorted
// containers that get replaced by a deeper trie level once they outgrow
// a configurable threshold. The root burstsort package wraps an Engine
// behind a small validating API.
package engine

import (
	"errors"
	"unsafe"

	"go.uber.org/zap"

	"github.com/nkasiti/burstsort/internal/arena"
	"github.com/nkasiti/burstsort/internal/container"
	"github.com/nkasiti/burstsort/internal/qsort"
)

// allocOverhead is the per-heap-allocation bookkeeping cost added to
// every accounted allocation in the memory estimate returned by Memory.
const allocOverhead = 16

// ErrAlreadyEmitted is returned by Insert and Emit once Emit has already
// run once: emission drops containers as it visits them, so there is
// nothing left to insert into or emit again.
var ErrAlreadyEmitted = errors.New("engine: already emitted")

// ErrEmptyKey is not returned by Insert or any other function in this
// package: Insert accepts a nil or zero-length key as a legitimate key in
// its own right (it sorts before every other key).
var ErrEmptyKey = errors.New("engine: nil key")

// Params configures an Engine at construction. All fields except Logger
// are required (New replaces a nil Logger with a no-op one); the burstsort
// package's option functions are responsible for filling in
// sane defaults before calling New.
type Params struct {
	Threshold int
	Growth    container.Policy
	PageCap   int
	MaxPages  int
	EmitLo    byte
	EmitHi    int // exclusive upper bound; must be in (0, 256] to cover the full byte range
	Logger    *zap.Logger
}

// Engine is the mutable burst trie: an arena of trie nodes, a root node,
// and the accounting counters the driver reports as diagnostics.
type Engine struct {
	arena  *arena.Arena
	root   *arena.Node
	params Params

	inserted       uint64
	containerBytes uint64
	emitted        bool
}

// New constructs an Engine and allocates its root trie node.
func New(p Params) (*Engine, error) {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	a := arena.New(p.PageCap, p.MaxPages, p.Logger)
	root, err := a.NewNode()
	if err != nil {
		return nil, err
	}
	return &Engine{arena: a, root: root, params: p}, nil
}

// Inserted returns the number of keys successfully inserted so far.
func (e *Engine) Inserted() uint64 { return e.inserted }

// Insert walks the trie one byte at a time, installing containers and
// bursting them as they overflow the configured threshold.
func (e *Engine) Insert(key []byte) error {
	if e.emitted {
		return ErrAlreadyEmitted
	}

	node := e.root
	for i := 0; i < len(key); i++ {
		b := key[i]
		slot := node.Slot(b)

		switch {
		case slot == nil:
			return e.insertEmpty(node, b, key[i+1:])

		case e.arena.IsNode(slot):
			node = (*arena.Node)(slot)
			continue

		default:
			return e.insertIntoContainer(node, b, (*container.Container)(slot), key[i+1:])
		}
	}

	// The key was consumed entirely while still walking trie nodes: it
	// never reached a container.
	node.IncrExhaust()
	e.inserted++
	return nil
}

// insertEmpty handles an empty trie slot: allocate a fresh container (or,
// if the key ends exactly at b, just record the exhaust count without
// ever allocating packed storage for it).
func (e *Engine) insertEmpty(node *arena.Node, b byte, remainder []byte) error {
	c := container.New(e.params.Growth)
	node.SetSlot(b, unsafe.Pointer(c))

	if len(remainder) == 0 {
		c.IncrExhaust()
		e.inserted++
		return nil
	}
	if _, err := c.Append(remainder); err != nil {
		return err
	}
	e.inserted++
	return nil
}

// insertIntoContainer handles the case where byte b already leads to a
// container: either the key ends here (record exhaust), or it appends the
// remainder and bursts the container if it has grown past the threshold.
func (e *Engine) insertIntoContainer(parent *arena.Node, b byte, c *container.Container, remainder []byte) error {
	if len(remainder) == 0 {
		c.IncrExhaust()
		e.inserted++
		return nil
	}

	count, err := c.Append(remainder)
	if err != nil {
		return err
	}
	e.inserted++

	if count > e.params.Threshold {
		return e.burst(parent, b, c)
	}
	return nil
}

// burst replaces the container at parent's slot b with a freshly
// allocated trie node, redistributing every packed entry one byte deeper.
// Burst never recurses: a split container that ends up holding more than
// the threshold is burst by the next Insert that appends to it.
func (e *Engine) burst(parent *arena.Node, b byte, old *container.Container) error {
	entries := old.Entries()

	n, err := e.arena.NewNode()
	if err != nil {
		e.params.Logger.Error("burst failed to allocate a replacement node",
			zap.Binary("slot", []byte{b}),
			zap.Int("entries", len(entries)),
			zap.Error(err),
		)
		return err
	}
	e.params.Logger.Debug("container burst",
		zap.Binary("slot", []byte{b}),
		zap.Int("entries", len(entries)),
	)
	n.SetExhaust(old.Exhaust())
	old.SetExhaust(0) // defensive; old is about to be dropped

	parent.SetSlot(b, unsafe.Pointer(n))

	for _, entry := range entries {
		c := entry[0]
		if len(entry) == 1 {
			e.splitExhaust(n, c)
			continue
		}
		if err := e.splitAppend(n, c, entry[1:]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) splitExhaust(n *arena.Node, b byte) {
	slot := n.Slot(b)
	if slot == nil {
		c := container.New(e.params.Growth)
		n.SetSlot(b, unsafe.Pointer(c))
		c.IncrExhaust()
		return
	}
	// A freshly split node can only hold containers in its slots; it has
	// no children of its own yet.
	(*container.Container)(slot).IncrExhaust()
}

func (e *Engine) splitAppend(n *arena.Node, b byte, rest []byte) error {
	slot := n.Slot(b)
	var c *container.Container
	if slot == nil {
		c = container.New(e.params.Growth)
		n.SetSlot(b, unsafe.Pointer(c))
	} else {
		c = (*container.Container)(slot)
	}
	return c.AppendKnownLen(rest)
}

// Search always reports not found. It exists for interface parity with
// sibling data structures; this engine only ever performs batch
// insert-then-emit, never point lookup.
func (e *Engine) Search(key []byte) (int, bool) { return 0, false }

// Sink receives each emitted key in ascending order, including one call
// per physical occurrence of a duplicate. Returning an error aborts the
// traversal.
type Sink func(key []byte) error

// Emit performs the in-order traversal that produces the sorted key
// sequence: for each node and container, it emits the reconstructed path
// once per exhaust count, then (for containers) sorts and emits the
// packed entries. Every container is dropped once emitted so the arena's
// memory accounting and Go's garbage collector can reclaim it; Emit must
// only be called once per Engine.
func (e *Engine) Emit(sink Sink) error {
	if e.emitted {
		return ErrAlreadyEmitted
	}
	path := make([]byte, 0, 256)
	err := e.emitNode(e.root, 0, &path, sink)
	e.emitted = true
	return err
}

func (e *Engine) emitNode(n *arena.Node, depth int, path *[]byte, sink Sink) error {
	for k := uint32(0); k < n.Exhaust(); k++ {
		if err := sink((*path)[:depth]); err != nil {
			return err
		}
	}

	for b := int(e.params.EmitLo); b < int(e.params.EmitHi); b++ {
		slot := n.Slot(byte(b))
		if slot == nil {
			continue
		}
		growPath(path, depth+1)
		(*path)[depth] = byte(b)

		if e.arena.IsNode(slot) {
			if err := e.emitNode((*arena.Node)(slot), depth+1, path, sink); err != nil {
				return err
			}
			continue
		}
		if err := e.emitContainer((*container.Container)(slot), depth+1, path, sink); err != nil {
			return err
		}
		n.SetSlot(byte(b), nil)
	}
	return nil
}

func (e *Engine) emitContainer(c *container.Container, depth int, path *[]byte, sink Sink) error {
	for k := uint32(0); k < c.Exhaust(); k++ {
		if err := sink((*path)[:depth]); err != nil {
			return err
		}
	}

	if c.Consumed() {
		entries := c.Entries()
		qsort.Sort(entries)
		for _, entry := range entries {
			growPath(path, depth+len(entry))
			copy((*path)[depth:], entry)
			if err := sink((*path)[:depth+len(entry)]); err != nil {
				return err
			}
		}
	}

	e.containerBytes += uint64(len(c.Bytes())) + allocOverhead
	return nil
}

// growPath ensures *path has at least n bytes of length, preserving its
// existing contents, growing the backing array geometrically when it must.
func growPath(path *[]byte, n int) {
	if cap(*path) < n {
		grown := make([]byte, n, n*2)
		copy(grown, *path)
		*path = grown
		return
	}
	*path = (*path)[:n]
}

// MemoryStats summarizes the engine's own estimate of the memory it has
// used: arena pages plus every container byte seen during Emit. The
// container portion is only accurate after Emit has completed, since
// containers are accounted for as the traversal visits and drops them.
type MemoryStats struct {
	Pages          int
	ArenaBytes     uint64
	ContainerBytes uint64
}

// Memory returns the engine's current memory estimate.
func (e *Engine) Memory() MemoryStats {
	return MemoryStats{
		Pages:          e.arena.PageCount(),
		ArenaBytes:     e.arena.BytesAllocated(allocOverhead),
		ContainerBytes: e.containerBytes,
	}
}
