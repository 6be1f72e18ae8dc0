package engine

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkasiti/burstsort/internal/arena"
	"github.com/nkasiti/burstsort/internal/container"
)

func newTestEngine(t *testing.T, threshold int) *Engine {
	t.Helper()
	e, err := New(Params{
		Threshold: threshold,
		Growth:    container.Paging,
		PageCap:   64,
		MaxPages:  64,
		EmitLo:    1,
		EmitHi:    256,
	})
	require.NoError(t, err)
	return e
}

func emitAll(t *testing.T, e *Engine) []string {
	t.Helper()
	var got []string
	err := e.Emit(func(key []byte) error {
		got = append(got, string(key))
		return nil
	})
	require.NoError(t, err)
	return got
}

func TestInsertAndEmitSortsAndPreservesDuplicates(t *testing.T) {
	e := newTestEngine(t, 64)
	keys := []string{"cat", "car", "cart", "cat", "dog"}
	for _, k := range keys {
		require.NoError(t, e.Insert([]byte(k)))
	}
	assert.Equal(t, uint64(5), e.Inserted())

	got := emitAll(t, e)
	assert.Equal(t, []string{"car", "cart", "cat", "cat", "dog"}, got)
}

func TestInsertRandomKeysMatchesStandardSort(t *testing.T) {
	e := newTestEngine(t, 64)
	rng := rand.New(rand.NewSource(42))

	want := make([]string, 1000)
	for i := range want {
		b := make([]byte, 10)
		for j := range b {
			b[j] = byte('a' + rng.Intn(26))
		}
		want[i] = string(b)
		require.NoError(t, e.Insert(b))
	}
	sort.Strings(want)

	got := emitAll(t, e)
	assert.Equal(t, want, got)
	assert.Equal(t, 1000, len(got))
}

func TestDuplicateSingleByteKeyUsesExhaustNotContainer(t *testing.T) {
	e := newTestEngine(t, 64)
	for i := 0; i < 200; i++ {
		require.NoError(t, e.Insert([]byte("a")))
	}

	slot := e.root.Slot('a')
	require.NotNil(t, slot)
	require.False(t, e.arena.IsNode(slot))
	c := (*container.Container)(slot)
	assert.False(t, c.Consumed())
	assert.Equal(t, uint32(200), c.Exhaust())

	got := emitAll(t, e)
	assert.Len(t, got, 200)
	for _, v := range got {
		assert.Equal(t, "a", v)
	}
}

func TestBurstIncreasesDepthAndKeepsSortedOutput(t *testing.T) {
	e := newTestEngine(t, 64)
	var keys []string
	for i := 0; i < 200; i++ {
		k := "abcdefg" + string(rune('h'+i%26))
		keys = append(keys, k)
		require.NoError(t, e.Insert([]byte(k)))
	}

	slot := e.root.Slot('a')
	require.NotNil(t, slot)
	require.True(t, e.arena.IsNode(slot), "expected a burst to have replaced the container with a trie node")

	sort.Strings(keys)
	got := emitAll(t, e)
	assert.Equal(t, keys, got)
}

func TestLongKeyWithSharedPrefixShortKeys(t *testing.T) {
	e := newTestEngine(t, 64)
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'z'
	}
	require.NoError(t, e.Insert(long))
	require.NoError(t, e.Insert([]byte("zz")))
	require.NoError(t, e.Insert([]byte("z")))

	got := emitAll(t, e)
	want := []string{"z", "zz", string(long)}
	assert.Equal(t, want, got)
}

func TestEmptyKeyEmittedFirst(t *testing.T) {
	e := newTestEngine(t, 64)
	require.NoError(t, e.Insert(nil))
	require.NoError(t, e.Insert([]byte("a")))
	require.NoError(t, e.Insert([]byte("")))

	got := emitAll(t, e)
	require.Len(t, got, 3)
	assert.Equal(t, "", got[0])
	assert.Equal(t, "", got[1])
	assert.Equal(t, "a", got[2])
}

func TestPagesExhaustedPropagates(t *testing.T) {
	e, err := New(Params{
		Threshold: 64,
		Growth:    container.Paging,
		PageCap:   1,
		MaxPages:  1,
		EmitLo:    1,
		EmitHi:    256,
	})
	require.NoError(t, err)

	// Force enough bursts to exhaust the single-page, single-node arena:
	// the root node already consumed the page, so the first burst has
	// nowhere to allocate from.
	var err2 error
	for i := 0; i < 200 && err2 == nil; i++ {
		k := []byte{'a', byte('b' + i%50), byte('c' + i%50)}
		err2 = e.Insert(k)
	}
	assert.ErrorIs(t, err2, arena.ErrPagesExhausted)
}

func TestEmitTwiceReturnsErrAlreadyEmitted(t *testing.T) {
	e := newTestEngine(t, 64)
	require.NoError(t, e.Insert([]byte("a")))
	_ = emitAll(t, e)

	err := e.Emit(func([]byte) error { return nil })
	assert.ErrorIs(t, err, ErrAlreadyEmitted)

	err = e.Insert([]byte("b"))
	assert.ErrorIs(t, err, ErrAlreadyEmitted)
}

func TestSearchIsAlwaysNotFound(t *testing.T) {
	e := newTestEngine(t, 64)
	require.NoError(t, e.Insert([]byte("a")))
	_, found := e.Search([]byte("a"))
	assert.False(t, found)
}
