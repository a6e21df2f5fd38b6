package source

import (
	"image"
	_ "image/jpeg" // register decoders
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nfnt/resize"
	"github.com/nvr-ai/go-depthtrack/depth"
	"github.com/pkg/errors"
)

// ImageFile is one still in a recorded sequence.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Frame is the frame number parsed from the file name.
	Frame int
}

// ListSequence finds every "frame-N" image in a directory, ordered by N.
//
// Arguments:
//   - dir: Directory containing .png, .jpg or .jpeg files named frame-N.ext.
//
// Returns:
//   - []ImageFile: The ordered files.
//   - error: If the directory cannot be read or a name has no frame number.
func ListSequence(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sequence directory %s", dir)
	}

	var files []ImageFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		switch strings.ToLower(ext) {
		case ".png", ".jpg", ".jpeg":
		default:
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSuffix(entry.Name(), ext), "frame-"))
		if err != nil {
			return nil, errors.Wrapf(err, "%s is not named frame-N%s", entry.Name(), ext)
		}
		files = append(files, ImageFile{Path: filepath.Join(dir, entry.Name()), Frame: n})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Frame < files[j].Frame
	})
	return files, nil
}

// SequenceSource loops over a directory of stills. 16-bit grayscale PNGs keep
// their full depth precision; anything else is reduced to luminance.
type SequenceSource struct {
	files []ImageFile
	next  int
	loops int
}

// OpenSequence lists the directory and fails if it holds no frames.
func OpenSequence(dir string) (*SequenceSource, error) {
	files, err := ListSequence(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no frames found in %s", dir)
	}
	return &SequenceSource{files: files}, nil
}

// Next decodes the next still, wrapping around after the last one.
func (s *SequenceSource) Next() (*depth.Frame, bool, error) {
	file := s.files[s.next]
	s.next++
	if s.next == len(s.files) {
		s.next = 0
		s.loops++
	}

	frame, err := LoadFrame(file.Path)
	if err != nil {
		return nil, false, err
	}
	return frame, true, nil
}

// Len returns the number of stills in the sequence.
func (s *SequenceSource) Len() int {
	return len(s.files)
}

// Loops returns how many times the sequence wrapped around.
func (s *SequenceSource) Loops() int {
	return s.loops
}

// Close is a no-op; files are opened per frame.
func (s *SequenceSource) Close() error {
	return nil
}

// LoadFrame decodes an image file into a depth frame of the sensor size,
// resizing it when its dimensions differ.
func LoadFrame(path string) (*depth.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}
	return FrameFromImage(img), nil
}

// FrameFromImage converts an image to a depth frame of the sensor size.
func FrameFromImage(img image.Image) *depth.Frame {
	b := img.Bounds()
	if b.Dx() != depth.Width || b.Dy() != depth.Height {
		img = resize.Resize(depth.Width, depth.Height, img, resize.Bilinear)
	}
	return depth.FromImage(img)
}
