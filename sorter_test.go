package burstsort_test

import (
	"bytes"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkasiti/burstsort"
)

func TestCatCarCartDogOrdering(t *testing.T) {
	s, err := burstsort.New(burstsort.WithBurstThreshold(64))
	require.NoError(t, err)

	for _, k := range []string{"cat", "car", "cart", "cat", "dog"} {
		require.NoError(t, s.Insert([]byte(k)))
	}

	var out bytes.Buffer
	stats, err := s.Emit(&out)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), stats.Inserted)
	assert.Equal(t, "car\ncart\ncat\ncat\ndog\n", out.String())
}

func TestThresholdOutOfRangeRejected(t *testing.T) {
	_, err := burstsort.New(burstsort.WithBurstThreshold(burstsort.MinThreshold - 1))
	assert.ErrorIs(t, err, burstsort.ErrThresholdRange)

	_, err = burstsort.New(burstsort.WithBurstThreshold(burstsort.MaxThreshold + 1))
	assert.ErrorIs(t, err, burstsort.ErrThresholdRange)
}

func TestEmitSortsRandomKeys(t *testing.T) {
	s, err := burstsort.New()
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	want := make([]string, 1000)
	for i := range want {
		n := 1 + rng.Intn(40)
		b := make([]byte, n)
		for j := range b {
			// any non-zero byte except '\n', which Emit uses as separator
			c := byte(1 + rng.Intn(254))
			if c >= '\n' {
				c++
			}
			b[j] = c
		}
		want[i] = string(b)
		require.NoError(t, s.Insert(b))
	}
	sort.Strings(want)

	var out bytes.Buffer
	_, err = s.Emit(&out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	assert.Equal(t, want, lines)
}

func TestEmitFuncIdempotentUnderReinsertion(t *testing.T) {
	build := func(keys []string) []string {
		s, err := burstsort.New(burstsort.WithBurstThreshold(64))
		require.NoError(t, err)
		for _, k := range keys {
			require.NoError(t, s.Insert([]byte(k)))
		}
		var out []string
		err = s.EmitFunc(func(key []byte) error {
			out = append(out, string(key))
			return nil
		})
		require.NoError(t, err)
		return out
	}

	first := build([]string{"zebra", "apple", "apple", "mango", ""})
	second := build(first)
	assert.Equal(t, first, second)
}

func TestExactFitGrowthPolicyProducesSameOrder(t *testing.T) {
	keys := []string{"foo", "bar", "baz", "foobar", "", "a", "aa", "aaa"}

	run := func(growth burstsort.GrowthPolicy) []string {
		s, err := burstsort.New(burstsort.WithGrowthPolicy(growth))
		require.NoError(t, err)
		for _, k := range keys {
			require.NoError(t, s.Insert([]byte(k)))
		}
		var out bytes.Buffer
		_, err = s.Emit(&out)
		require.NoError(t, err)
		return strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	}

	assert.Equal(t, run(burstsort.Paging), run(burstsort.ExactFit))
}

func TestSearchAlwaysNotFound(t *testing.T) {
	s, err := burstsort.New()
	require.NoError(t, err)
	require.NoError(t, s.Insert([]byte("present")))

	_, ok := s.Search([]byte("present"))
	assert.False(t, ok)
}

func TestInsertAndEmitAfterEmitReturnErrAlreadyEmitted(t *testing.T) {
	s, err := burstsort.New()
	require.NoError(t, err)
	require.NoError(t, s.Insert([]byte("a")))

	var out bytes.Buffer
	_, err = s.Emit(&out)
	require.NoError(t, err)

	err = s.Insert([]byte("b"))
	assert.ErrorIs(t, err, burstsort.ErrAlreadyEmitted)

	_, err = s.Emit(&out)
	assert.ErrorIs(t, err, burstsort.ErrAlreadyEmitted)
}

func TestMaxPagesExhaustedReturnsError(t *testing.T) {
	s, err := burstsort.New(
		burstsort.WithBurstThreshold(64),
		burstsort.WithPageCapacity(1),
		burstsort.WithMaxPages(1),
	)
	require.NoError(t, err)

	var insertErr error
	for i := 0; i < 200 && insertErr == nil; i++ {
		k := []byte{'a', byte('b' + i%50), byte('c' + i%50)}
		insertErr = s.Insert(k)
	}
	assert.ErrorIs(t, insertErr, burstsort.ErrPagesExhausted)
}
