package main

import (
	"testing"

	"github.com/nvr-ai/go-depthtrack/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAdd(t *testing.T) {
	got, err := parseAdd("zoneA, 0.5, 0.25, 20")
	require.NoError(t, err)
	assert.Equal(t, events.AddPOI{ID: "zoneA", X: 0.5, Y: 0.25, Radius: 20}, got)

	for _, bad := range []string{"", "zoneA,0.5,0.5", "zoneA,x,0.5,1", "zoneA,0.5,y,1", "zoneA,0.5,0.5,wide"} {
		_, err := parseAdd(bad)
		assert.Error(t, err, bad)
	}
}
