// Package container implements the leaf buckets of the burst trie: packed,
// length-prefixed, unsorted buffers that hold every key suffix sharing the
// trie path down to the slot that owns them. Entries are addressed by
// offset within the buffer rather than by individual allocation, so a
// container with thousands of short suffixes costs one growable buffer
// instead of thousands of small objects.
package container

import (
	"encoding/binary"
	"errors"
)

// Policy selects how a Container's backing buffer grows as entries are
// appended.
type Policy int

const (
	// Paging grows the buffer in discrete size classes (32 bytes, then
	// multiples of 64), amortizing allocation traffic. This is the
	// default.
	Paging Policy = iota
	// ExactFit grows the buffer to the exact byte count required by each
	// append, minimizing memory at the cost of more allocator traffic.
	ExactFit
)

const (
	headerSize = 6 // consumed(1) + reserved(1) + exhaust(4)

	class32 = 32
	class64 = 64

	// MaxEntryLen is the longest payload the length-prefix encoding can
	// represent (a 15-bit length).
	MaxEntryLen = 1<<15 - 1
)

// ErrEntryTooLong is returned by Append and AppendKnownLen when the
// payload exceeds MaxEntryLen.
var ErrEntryTooLong = errors.New("container: entry exceeds maximum encodable length")

// Container is a packed, length-prefixed byte buffer. Its zero value is
// not usable; construct one with New.
type Container struct {
	buf    []byte
	policy Policy
}

// New returns an empty Container: just the header, no packed region yet.
func New(policy Policy) *Container {
	return &Container{
		buf:    make([]byte, headerSize),
		policy: policy,
	}
}

// Consumed reports whether this container has ever stored a string.
func (c *Container) Consumed() bool { return c.buf[0] != 0 }

func (c *Container) setConsumed() { c.buf[0] = 1 }

// Exhaust returns the number of inserted keys whose byte sequence ended
// exactly at the slot leading to this container.
func (c *Container) Exhaust() uint32 { return binary.LittleEndian.Uint32(c.buf[2:6]) }

// IncrExhaust records one more key ending exactly at this container's slot.
func (c *Container) IncrExhaust() {
	binary.LittleEndian.PutUint32(c.buf[2:6], c.Exhaust()+1)
}

// SetExhaust overwrites the exhaust counter, used when transferring it
// onto the trie node that replaces this container during a burst.
func (c *Container) SetExhaust(v uint32) { binary.LittleEndian.PutUint32(c.buf[2:6], v) }

// Bytes returns the container's current backing buffer, for memory
// accounting. Callers must not retain or mutate it.
func (c *Container) Bytes() []byte { return c.buf }

// Append packs payload onto the end of the container, scanning the
// existing packed region (if any) to find both the insertion point and
// the resulting entry count. It returns the total number of packed
// entries after the append, which the burst engine compares against the
// burst threshold.
func (c *Container) Append(payload []byte) (int, error) {
	offset, count, err := c.appendAt(payload)
	if err != nil {
		return 0, err
	}
	_ = offset
	return count + 1, nil
}

// AppendKnownLen packs payload onto the end of the container without
// reporting the resulting entry count. It is used during a burst's split
// step, where the caller does not recheck the destination against the
// burst threshold.
func (c *Container) AppendKnownLen(payload []byte) error {
	_, _, err := c.appendAt(payload)
	return err
}

// appendAt does the actual packing: locate the current end of the packed
// region (and count its entries along the way), grow the buffer per the
// container's policy, write the new length-prefixed entry, and
// re-terminate the region.
func (c *Container) appendAt(payload []byte) (offset, count int, err error) {
	if len(payload) == 0 || len(payload) > MaxEntryLen {
		return 0, 0, ErrEntryTooLong
	}

	if c.Consumed() {
		offset, count = c.scan()
	}

	prefixLen := lengthPrefixSize(len(payload))
	entrySize := prefixLen + len(payload)
	c.grow(offset, entrySize+1) // +1 reserves the trailing terminator byte

	pos := headerSize + offset
	pos = EncodeLength(c.buf, pos, len(payload))
	pos += copy(c.buf[pos:], payload)
	c.buf[pos] = 0 // terminator

	c.setConsumed()
	return offset, count, nil
}

// scan walks the packed region from the start, decoding each length
// prefix and jumping past it, until it hits the zero terminator. It
// returns the byte offset of the terminator (i.e. the current size of the
// packed region) and the number of entries encountered.
func (c *Container) scan() (offset, count int) {
	pos := headerSize
	for c.buf[pos] != 0 {
		length, prefixLen := DecodeLength(c.buf, pos)
		pos += prefixLen + length
		count++
	}
	return pos - headerSize, count
}

// Entries decodes every packed entry into a slice of zero-copy
// sub-slices of the container's own buffer, in packed (insertion) order.
// It returns nil if the container has never stored a string.
func (c *Container) Entries() [][]byte {
	if !c.Consumed() {
		return nil
	}
	var out [][]byte
	pos := headerSize
	for c.buf[pos] != 0 {
		length, prefixLen := DecodeLength(c.buf, pos)
		start := pos + prefixLen
		out = append(out, c.buf[start:start+length])
		pos = start + length
	}
	return out
}

// grow resizes the buffer to make room for requiredIncrease additional
// packed bytes (entry plus terminator) beyond the current packed offset,
// per the container's growth policy. offset==0 means the container has no
// packed region yet (first append).
func (c *Container) grow(offset, requiredIncrease int) {
	switch c.policy {
	case ExactFit:
		c.growExactFit(offset, requiredIncrease)
	default:
		c.growPaging(offset, requiredIncrease)
	}
}

func (c *Container) growExactFit(offset, requiredIncrease int) {
	newSize := headerSize + offset + requiredIncrease
	tmp := make([]byte, newSize)
	if offset == 0 {
		copy(tmp, c.buf[:headerSize])
	} else {
		// the extra byte preserves the old terminator's position so it
		// can be overwritten by the new entry.
		copy(tmp, c.buf[:headerSize+offset+1])
	}
	c.buf = tmp
}

func (c *Container) growPaging(offset, requiredIncrease int) {
	if offset == 0 {
		need := headerSize + requiredIncrease
		tmp := make([]byte, classSize(need))
		copy(tmp, c.buf[:headerSize])
		c.buf = tmp
		return
	}

	oldSize := headerSize + offset + 1
	newSize := headerSize + offset + requiredIncrease

	switch {
	case oldSize <= class32 && newSize <= class32:
		return
	case oldSize <= class32 && newSize <= class64:
		tmp := make([]byte, class64)
		copy(tmp, c.buf[:oldSize])
		c.buf = tmp
	case oldSize <= class64 && newSize <= class64:
		return
	default:
		oldBlocks := (oldSize-1)/class64 + 1
		newBlocks := (newSize-1)/class64 + 1
		if newBlocks > oldBlocks {
			tmp := make([]byte, newBlocks*class64)
			copy(tmp, c.buf[:oldSize])
			c.buf = tmp
		}
	}
}

func classSize(need int) int {
	if need <= class32 {
		return class32
	}
	blocks := (need + class64 - 1) / class64
	return blocks * class64
}
