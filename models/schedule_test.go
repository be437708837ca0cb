package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClockMinutes(t *testing.T) {
	v, ok := ClockMinutes("09:30")
	assert.True(t, ok)
	assert.Equal(t, 570, v)

	for _, bad := range []string{"24:00", "12:60", "9:00", "09-00", ""} {
		_, ok := ClockMinutes(bad)
		assert.False(t, ok, "input %q", bad)
	}

	assert.Equal(t, "09:05", FormatClock(545))
}

func TestMergeClockRangesDropsAndSorts(t *testing.T) {
	merged := MergeClockRanges([][2]string{
		{"14:00", "18:00"},
		{"12:00", "10:00"}, // inverted
		{"bogus", "11:00"},
		{"08:00", "09:30"},
	}, 0)
	assert.Equal(t, [][2]string{{"08:00", "09:30"}, {"14:00", "18:00"}}, merged)
}

func TestMergeClockRangesMergesAdjacent(t *testing.T) {
	merged := MergeClockRanges([][2]string{
		{"09:00", "10:00"},
		{"10:00", "12:00"},
	}, 0)
	assert.Equal(t, [][2]string{{"09:00", "12:00"}}, merged)
}

func TestMergeClockRangesMergesOverlap(t *testing.T) {
	merged := MergeClockRanges([][2]string{
		{"09:00", "11:00"},
		{"10:00", "12:00"},
	}, 0)
	assert.Equal(t, [][2]string{{"09:00", "12:00"}}, merged)
}

func TestMergeClockRangesHonorsGap(t *testing.T) {
	pairs := [][2]string{
		{"09:00", "10:00"},
		{"10:15", "12:00"},
	}
	// Gap of 15 minutes stays split at adjacency 0, merges at adjacency 15.
	assert.Equal(t, [][2]string{{"09:00", "10:00"}, {"10:15", "12:00"}}, MergeClockRanges(pairs, 0))
	assert.Equal(t, [][2]string{{"09:00", "12:00"}}, MergeClockRanges(pairs, 15))
}
