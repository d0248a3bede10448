package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSweep(t *testing.T) {
	names, ranges, err := parseSweep([]string{"scale=0.05,0.1", "drag=1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"drag", "scale"}, names)
	assert.Equal(t, [][]float64{{1}, {0.05, 0.1}}, ranges)
}

func TestParseSweepErrors(t *testing.T) {
	for _, args := range [][]string{
		{"scale"},
		{"=1"},
		{"scale=a"},
		{"scale=1", "scale=2"},
	} {
		_, _, err := parseSweep(args)
		assert.Error(t, err, "args %v", args)
	}
}
