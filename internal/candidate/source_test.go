package candidate

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func collect(src Source) []string {
	return slices.Collect(All(src))
}

func TestExhaustiveOrder(t *testing.T) {
	t.Parallel()

	got := collect(NewExhaustive(2, "ab"))
	assert.Equal(t, []string{"aa", "ab", "ba", "bb"}, got)
}

func TestExhaustiveCount(t *testing.T) {
	t.Parallel()

	got := collect(NewExhaustive(3, Digits))
	assert.Len(t, got, 1000)
	assert.Equal(t, "000", got[0])
	assert.Equal(t, "999", got[len(got)-1])
}

func TestExhaustiveEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, collect(NewExhaustive(0, "ab")))
	assert.Empty(t, collect(NewExhaustive(-1, "ab")))
	assert.Empty(t, collect(NewExhaustive(3, "")))
}

func TestExhaustiveFreshInstancesRestart(t *testing.T) {
	t.Parallel()

	first := collect(NewExhaustive(2, "xy"))
	second := collect(NewExhaustive(2, "xy"))
	assert.Equal(t, first, second)
}

func TestCardinality(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint64(26*26*26), Cardinality(3, 26))
	assert.Equal(t, uint64(0), Cardinality(0, 26))
	assert.Equal(t, uint64(0), Cardinality(3, 0))
	assert.Equal(t, uint64(math.MaxUint64), Cardinality(100, 37))
}

func TestSliceSource(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"x", "y"}, collect(NewSliceSource("x", "y")))
	assert.Empty(t, collect(NewSliceSource()))
}

func TestAllStopsEarly(t *testing.T) {
	t.Parallel()

	src := NewExhaustive(2, "abc")
	for s := range All(src) {
		if s == "ab" {
			break
		}
	}
	next, ok := src.Next()
	assert.True(t, ok)
	assert.Equal(t, "ac", next)
}
