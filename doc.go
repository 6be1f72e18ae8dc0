// Copyright 2024 The burstsort authors. Licensed under the MIT license.

// Package burstsort sorts a large multiset of variable-length byte
// strings in ascending unsigned-byte order, entirely in memory, using a
// burst trie: a trie over raw byte values whose leaves are small, packed,
// unsorted containers that get "burst" into a deeper trie level once they
// outgrow a configurable threshold.
//
// It is a batch sorter, not an incremental index: insert every key first
// with Insert, then call Emit once to produce the sorted sequence.
// Duplicate keys are preserved and emitted once per occurrence.
//
// Example:
//
//	s, err := burstsort.New(burstsort.WithBurstThreshold(128))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, k := range keys {
//	    if err := s.Insert(k); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//	stats, err := s.Emit(os.Stdout)
//
// burstsort does not provide lookup, deletion, durability, or concurrent
// insertion; see the non-goals listed in SPEC_FULL.md for the full list.
package burstsort
