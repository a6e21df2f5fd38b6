package source

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nvr-ai/go-depthtrack/depth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func writeGray16PNG(t *testing.T, path string, w, h int, value uint16) {
	t.Helper()
	img := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray16(x, y, color.Gray16{Y: value})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestLatest(t *testing.T) {
	var l Latest

	_, ok := l.Take()
	assert.False(t, ok)

	first := depth.Filled(1)
	second := depth.Filled(2)
	l.Store(first)
	l.Store(second)

	got, ok := l.Take()
	require.True(t, ok)
	assert.Same(t, second, got)

	_, ok = l.Take()
	assert.False(t, ok, "a frame is handed out once")
}

func TestLatestConcurrentStore(t *testing.T) {
	var l Latest
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint16) {
			defer wg.Done()
			l.Store(depth.Filled(v))
		}(uint16(i))
	}
	wg.Wait()

	f, ok := l.Take()
	require.True(t, ok)
	require.NoError(t, f.Validate())
	// Whatever frame won, it is complete.
	v := f.Samples[0]
	for _, s := range f.Samples {
		require.Equal(t, v, s)
	}
}

func TestListSequence(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []int{10, 2, 1} {
		writeGray16PNG(t, filepath.Join(dir, fmt.Sprintf("frame-%d.png", n)), 4, 3, 0)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	files, err := ListSequence(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, []int{1, 2, 10}, []int{files[0].Frame, files[1].Frame, files[2].Frame})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "cover.png"), []byte{}, 0o644))
	_, err = ListSequence(dir)
	assert.Error(t, err)
}

func TestSequenceSourceLoops(t *testing.T) {
	dir := t.TempDir()
	writeGray16PNG(t, filepath.Join(dir, "frame-0.png"), depth.Width, depth.Height, 1000)
	writeGray16PNG(t, filepath.Join(dir, "frame-1.png"), depth.Width, depth.Height, 60000)

	s, err := OpenSequence(dir)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, 2, s.Len())

	var values []uint16
	for i := 0; i < 3; i++ {
		f, ok, err := s.Next()
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, f.Validate())
		values = append(values, f.At(5, 5))
	}
	assert.Equal(t, []uint16{1000, 60000, 1000}, values)
	assert.Equal(t, 1, s.Loops())
}

func TestSequenceSourceResizes(t *testing.T) {
	dir := t.TempDir()
	writeGray16PNG(t, filepath.Join(dir, "frame-0.png"), 64, 48, 40000)

	s, err := OpenSequence(dir)
	require.NoError(t, err)

	f, ok, err := s.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, f.Validate())
	assert.InDelta(t, 40000, f.At(320, 240), 2)
}

func TestOpenSequenceEmpty(t *testing.T) {
	_, err := OpenSequence(t.TempDir())
	assert.Error(t, err)

	_, err = OpenSequence(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestFrameFromMat(t *testing.T) {
	t.Run("16-bit depth map", func(t *testing.T) {
		mat := gocv.NewMatWithSize(depth.Height, depth.Width, gocv.MatTypeCV16UC1)
		defer mat.Close()
		mat.SetShortAt(7, 3, 1234)

		f, err := FrameFromMat(mat)
		require.NoError(t, err)
		assert.Equal(t, uint16(1234), f.At(3, 7))
		assert.Zero(t, f.At(0, 0))
	})

	t.Run("color movie frame", func(t *testing.T) {
		mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 240, 320, gocv.MatTypeCV8UC3)
		defer mat.Close()

		f, err := FrameFromMat(mat)
		require.NoError(t, err)
		require.NoError(t, f.Validate())
		assert.Equal(t, uint16(depth.Resolution), f.At(100, 100))
	})

	t.Run("empty", func(t *testing.T) {
		mat := gocv.NewMat()
		defer mat.Close()
		_, err := FrameFromMat(mat)
		assert.Error(t, err)
	})
}
