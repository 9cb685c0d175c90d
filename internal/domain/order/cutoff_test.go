package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCutoff(t *testing.T) {
	c, err := ParseCutoff("23:30", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "23:30", c.String())

	_, err = ParseCutoff("25:00", time.UTC)
	require.Error(t, err)

	_, err = ParseCutoff("noon", time.UTC)
	require.Error(t, err)
}

func TestCutoff_On(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	c := MustParseCutoff("23:30", loc)

	// 18:00 UTC on the 1st is 01:00 on the 2nd in ICT.
	ref := time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC)
	got := c.On(ref)

	assert.Equal(t, time.Date(2024, 3, 2, 23, 30, 0, 0, loc), got)
}

func TestCutoff_Allows(t *testing.T) {
	c := MustParseCutoff("23:30", time.UTC)
	created := time.Date(2024, 5, 10, 23, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "before cutoff", now: time.Date(2024, 5, 10, 23, 29, 0, 0, time.UTC), want: true},
		{name: "exactly at cutoff", now: time.Date(2024, 5, 10, 23, 30, 0, 0, time.UTC), want: false},
		{name: "after cutoff", now: time.Date(2024, 5, 10, 23, 31, 0, 0, time.UTC), want: false},
		{name: "next morning", now: time.Date(2024, 5, 11, 8, 0, 0, 0, time.UTC), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Allows(created, tt.now))
		})
	}
}

func TestCutoff_ZeroValueUsesUTC(t *testing.T) {
	var c Cutoff
	assert.Equal(t, time.UTC, c.Location())
	assert.Equal(t, "00:00", c.String())
}
