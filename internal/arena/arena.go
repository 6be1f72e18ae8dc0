// Package arena implements the bulk trie-node allocator that sits at the
// bottom of the burst trie: it hands out zeroed Node values from large
// contiguous pack pages, and lets the engine classify any slot value it
// reads as "points into a trie node" or "points somewhere else" purely by
// checking which page's address range the pointer falls in. No tag bits
// are stored anywhere; the arena's own page bookkeeping is the only source
// of truth for the classification.
package arena

import (
	"errors"
	"unsafe"

	"go.uber.org/zap"
)

// ErrPagesExhausted is returned by NewNode when the arena has already
// allocated its configured hard cap of pack pages.
var ErrPagesExhausted = errors.New("arena: pack page limit exhausted")

// Node is a single trie node: 256 branching slots, one per possible byte
// value, plus a dedicated exhaust counter.
//
// Classic copy-based burst sort implementations pack the exhaust counter
// into one branching slot of a 128-slot node, trading a byte of the
// branching space for the counter to keep the node at a fixed size. That
// trick doesn't translate to Go: a pointer-typed array slot must hold
// either nil or a valid pointer, so stuffing an arbitrary count into one
// breaks the garbage collector's invariants the moment the slot is
// scanned. Giving the counter its own field instead costs a little more
// memory per node, but means every byte value has a real slot.
type Node struct {
	slots   [256]unsafe.Pointer
	exhaust uint32
}

// Slot returns the raw slot value for byte b: nil if empty, or a pointer
// to either a child Node (inside some arena page) or an
// *container.Container, depending on what the arena says about the
// pointer's address range.
func (n *Node) Slot(b byte) unsafe.Pointer { return n.slots[b] }

// SetSlot installs p (nil, a child Node pointer, or a Container pointer)
// into slot b.
func (n *Node) SetSlot(b byte, p unsafe.Pointer) { n.slots[b] = p }

// Exhaust returns the number of inserted keys whose byte sequence ended
// exactly at this node.
func (n *Node) Exhaust() uint32 { return n.exhaust }

// IncrExhaust records one more key ending exactly at this node.
func (n *Node) IncrExhaust() { n.exhaust++ }

// SetExhaust overwrites the exhaust counter outright; used when a burst
// transfers a container's exhaust count onto the freshly allocated node
// that replaces it.
func (n *Node) SetExhaust(v uint32) { n.exhaust = v }

// Arena is a bump allocator over a growing list of pack pages, each page a
// contiguous, fixed-size []Node. A pointer belongs to the arena's trie
// nodes if and only if it falls within one page's slice bounds; that test
// is the entire mechanism behind IsNode.
type Arena struct {
	pages    [][]Node
	pageCap  int
	maxPages int
	used     int // nodes allocated out of the current (last) page
	logger   *zap.Logger
}

// New returns an Arena whose pages hold pageCap nodes each, capped at
// maxPages total pages. logger may be nil, in which case a no-op logger is
// used.
func New(pageCap, maxPages int, logger *zap.Logger) *Arena {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Arena{
		pageCap:  pageCap,
		maxPages: maxPages,
		logger:   logger,
	}
}

// NewNode returns a freshly zeroed Node, allocating a new pack page first
// if the current one is full. It fails once the arena has allocated
// maxPages pages and the last one is exhausted.
func (a *Arena) NewNode() (*Node, error) {
	if len(a.pages) == 0 || a.used == a.pageCap {
		if len(a.pages) >= a.maxPages {
			return nil, ErrPagesExhausted
		}
		a.pages = append(a.pages, make([]Node, a.pageCap))
		a.used = 0
		a.logger.Debug("allocated arena pack page",
			zap.Int("page_index", len(a.pages)-1),
			zap.Int("page_capacity", a.pageCap),
		)
	}
	page := a.pages[len(a.pages)-1]
	node := &page[a.used]
	a.used++
	return node, nil
}

// IsNode reports whether p lies within the address range of some pack
// page, i.e. whether p is a pointer the arena itself produced via NewNode.
// This is the tagless trie/container discrimination the burst trie relies
// on: any slot value that isn't a trie node must be a container.
func (a *Arena) IsNode(p unsafe.Pointer) bool {
	if p == nil {
		return false
	}
	addr := uintptr(p)
	for _, page := range a.pages {
		base := uintptr(unsafe.Pointer(&page[0]))
		last := uintptr(unsafe.Pointer(&page[len(page)-1]))
		if addr >= base && addr <= last {
			return true
		}
	}
	return false
}

// PageCount returns the number of pack pages currently allocated.
func (a *Arena) PageCount() int { return len(a.pages) }

// NodeSize returns the size, in bytes, of a single Node.
func (a *Arena) NodeSize() uintptr { return unsafe.Sizeof(Node{}) }

// BytesAllocated estimates the total memory held by all pack pages,
// including a per-page allocator overhead.
func (a *Arena) BytesAllocated(allocOverhead uint64) uint64 {
	perPage := uint64(a.pageCap)*uint64(a.NodeSize()) + allocOverhead
	return perPage * uint64(len(a.pages))
}
