package recorder

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestFileName(t *testing.T) {
	start := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)
	a := FileName(start)
	b := FileName(start)

	assert.True(t, strings.HasPrefix(a, "depth-20240309-140506-"), a)
	assert.True(t, strings.HasSuffix(a, ".avi"), a)
	assert.NotEqual(t, a, b)
}

func TestIdleRecorder(t *testing.T) {
	r := New(t.TempDir(), 64, 48, nil)

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC1)
	defer frame.Close()

	assert.False(t, r.Active())
	assert.NoError(t, r.Write(frame))
	assert.Zero(t, r.Frames())
	assert.NoError(t, r.Stop())
}

func TestRecordingLifecycle(t *testing.T) {
	r := New(t.TempDir(), 64, 48, nil)

	path, err := r.Start()
	if err != nil {
		t.Skipf("no movie writer backend available: %v", err)
	}
	again, err := r.Start()
	require.NoError(t, err)
	assert.Equal(t, path, again)

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC1)
	defer frame.Close()
	for i := 0; i < 5; i++ {
		require.NoError(t, r.Write(frame))
	}
	assert.Equal(t, 5, r.Frames())

	require.NoError(t, r.Toggle())
	assert.False(t, r.Active())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
