package images

import (
	"fmt"
	"image"

	"github.com/nvr-ai/go-depthtrack/depth"
	"gocv.io/x/gocv"
)

// PreprocessConfig contains the tunables applied before the blob sweep.
type PreprocessConfig struct {
	// Threshold is the binarization cutoff applied to the raw 8-bit frame.
	Threshold float64
	// Contrast multiplies every pixel after binarization.
	Contrast float64
	// Brightness is added after the contrast multiplier.
	Brightness int
	// BlurAmount is the box blur kernel size in pixels.
	BlurAmount int
}

// DefaultPreprocessConfig returns the tunables used when no configuration
// file is present.
func DefaultPreprocessConfig() PreprocessConfig {
	return PreprocessConfig{
		Threshold:  20,
		Contrast:   2.2,
		Brightness: 59,
		BlurAmount: 11,
	}
}

// Preprocessor turns a depth frame into the blurred single-channel image the
// BlobExtractor sweeps. Its matrices are reused across frames.
type Preprocessor struct {
	Config PreprocessConfig
	Input  gocv.Mat // 8-bit view of the depth frame
	Binary gocv.Mat // Input binarized at Config.Threshold
	Output gocv.Mat // Contrast, brightness and blur applied
}

// NewPreprocessor constructs a Preprocessor.
//
// Always call Close() to release memory.
func NewPreprocessor(config PreprocessConfig) *Preprocessor {
	return &Preprocessor{
		Config: config,
		Input:  gocv.NewMat(),
		Binary: gocv.NewMat(),
		Output: gocv.NewMat(),
	}
}

// Set loads a depth frame into the Input matrix, reduced to 8 bits.
func (p *Preprocessor) Set(frame *depth.Frame) error {
	mat, err := MatFromFrame(frame)
	if err != nil {
		return err
	}
	if !p.Input.Empty() {
		p.Input.Close()
	}
	p.Input = mat
	return nil
}

// Apply runs binarization, contrast/brightness and blur on Input.
//
// Returns:
//   - gocv.Mat: The Output matrix. It is owned by the Preprocessor and is
//     overwritten by the next call.
func (p *Preprocessor) Apply() gocv.Mat {
	gocv.Threshold(p.Input, &p.Binary, float32(p.Config.Threshold), 255, gocv.ThresholdBinary)
	p.Binary.ConvertToWithParams(&p.Output, gocv.MatTypeCV8U, float32(p.Config.Contrast), float32(p.Config.Brightness))

	if k := p.Config.BlurAmount; k > 1 {
		gocv.Blur(p.Output, &p.Output, image.Pt(k, k))
	}
	return p.Output
}

// Process is Set followed by Apply.
func (p *Preprocessor) Process(frame *depth.Frame) (gocv.Mat, error) {
	if err := p.Set(frame); err != nil {
		return gocv.NewMat(), err
	}
	return p.Apply(), nil
}

// Close releases all OpenCV native resources used by the preprocessor.
func (p *Preprocessor) Close() {
	p.Input.Close()
	p.Binary.Close()
	p.Output.Close()
}

// MatFromFrame builds an 8-bit single-channel Mat from a depth frame.
func MatFromFrame(frame *depth.Frame) (gocv.Mat, error) {
	if frame == nil {
		return gocv.NewMat(), fmt.Errorf("depth frame is nil")
	}
	mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC1, frame.GrayBytes())
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to convert depth frame to Mat: %w", err)
	}
	return mat, nil
}
