package source

import (
	"image"

	"github.com/nvr-ai/go-depthtrack/depth"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// FrameFromMat converts a captured Mat into a depth frame.
//
// 16-bit single-channel Mats (sensor depth maps) are copied as is; 8-bit gray
// or BGR Mats (movie frames) are reduced to luminance and widened to the full
// sample range. Mats of another size are resized to the sensor dimensions.
func FrameFromMat(mat gocv.Mat) (*depth.Frame, error) {
	if mat.Empty() {
		return nil, errors.New("cannot convert an empty Mat")
	}

	work := mat
	var owned []gocv.Mat
	defer func() {
		for _, m := range owned {
			m.Close()
		}
	}()

	if work.Rows() != depth.Height || work.Cols() != depth.Width {
		resized := gocv.NewMat()
		owned = append(owned, resized)
		gocv.Resize(work, &resized, image.Pt(depth.Width, depth.Height), 0, 0, gocv.InterpolationLinear)
		work = resized
	}

	switch work.Type() {
	case gocv.MatTypeCV16UC1:
		data, err := work.DataPtrUint16()
		if err != nil {
			return nil, errors.Wrap(err, "failed to read 16-bit depth data")
		}
		return depth.FromSamples(depth.Width, depth.Height, data)
	case gocv.MatTypeCV8UC3:
		gray := gocv.NewMat()
		owned = append(owned, gray)
		gocv.CvtColor(work, &gray, gocv.ColorBGRToGray)
		work = gray
	case gocv.MatTypeCV8UC4:
		gray := gocv.NewMat()
		owned = append(owned, gray)
		gocv.CvtColor(work, &gray, gocv.ColorBGRAToGray)
		work = gray
	case gocv.MatTypeCV8UC1:
	default:
		return nil, errors.Errorf("unsupported Mat type %v", work.Type())
	}

	data, err := work.DataPtrUint8()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read 8-bit frame data")
	}
	return depth.FromGray8(depth.Width, depth.Height, data)
}
