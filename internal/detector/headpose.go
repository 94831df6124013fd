package detector

import (
	"context"
	"fmt"
	"image"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"

	"github.com/hammamikhairi/facecapture/internal/domain"
	"github.com/hammamikhairi/facecapture/internal/headpose"
	"github.com/hammamikhairi/facecapture/internal/logger"
)

// FrameSource yields preview frames.
type FrameSource interface {
	ReadFrame(dst *gocv.Mat) error
}

// HeadPose turns camera frames into detector samples.
type HeadPose struct {
	cfg    Config
	frames FrameSource
	log    *logger.Logger

	mu       sync.Mutex
	cascade  gocv.CascadeClassifier
	frame    gocv.Mat
	gray     gocv.Mat
	crop     gocv.Mat
	input    *ort.Tensor[float32]
	output   *ort.Tensor[float32]
	session  *ort.AdvancedSession
	inputBuf []float32
}

// New loads the cascade, initialises the ONNX runtime and opens the
// head-pose model. Failures wrap ErrDetectorUnavailable so the caller can
// fall back to manual capture.
func New(cfg Config, frames FrameSource, log *logger.Logger) (*HeadPose, error) {
	cfg.defaults()
	d := &HeadPose{cfg: cfg, frames: frames, log: log}

	d.cascade = gocv.NewCascadeClassifier()
	if !d.cascade.Load(cfg.Cascade) {
		d.cascade.Close()
		return nil, fmt.Errorf("%w: loading cascade %s", domain.ErrDetectorUnavailable, cfg.Cascade)
	}

	log.Debug("initializing ONNX runtime (lib=%s)", cfg.OnnxLib)
	ort.SetSharedLibraryPath(cfg.OnnxLib)
	if err := ort.InitializeEnvironment(); err != nil {
		d.cascade.Close()
		return nil, fmt.Errorf("%w: onnx runtime: %v", domain.ErrDetectorUnavailable, err)
	}

	if err := d.openModel(); err != nil {
		d.cascade.Close()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("%w: %v", domain.ErrDetectorUnavailable, err)
	}

	d.frame = gocv.NewMat()
	d.gray = gocv.NewMat()
	d.crop = gocv.NewMat()
	log.Info("head-pose model loaded (%s, input %dx%d)", cfg.Model, cfg.InputSize, cfg.InputSize)
	return d, nil
}

func (d *HeadPose) openModel() error {
	size := int64(d.cfg.InputSize)

	inInfo, outInfo, err := ort.GetInputOutputInfo(d.cfg.Model)
	if err != nil {
		return fmt.Errorf("reading model info: %w", err)
	}
	if len(inInfo) == 0 || len(outInfo) == 0 {
		return fmt.Errorf("model %s has no inputs or outputs", d.cfg.Model)
	}

	in, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, size, size))
	if err != nil {
		return err
	}

	outShape := make([]int64, len(outInfo[0].Dimensions))
	for i, dim := range outInfo[0].Dimensions {
		if dim <= 0 {
			dim = 1
		}
		outShape[i] = dim
	}
	out, err := ort.NewEmptyTensor[float32](ort.NewShape(outShape...))
	if err != nil {
		in.Destroy()
		return err
	}

	sess, err := ort.NewAdvancedSession(
		d.cfg.Model,
		[]string{inInfo[0].Name}, []string{outInfo[0].Name},
		[]ort.Value{in}, []ort.Value{out},
		nil,
	)
	if err != nil {
		in.Destroy()
		out.Destroy()
		return err
	}

	d.input, d.output, d.session = in, out, sess
	d.inputBuf = make([]float32, 3*d.cfg.InputSize*d.cfg.InputSize)
	return nil
}

// Sample reads the newest frame and estimates the head pose of the first
// detected face. A frame with no face yields a sample with HasFace false.
func (d *HeadPose) Sample(ctx context.Context) (domain.Sample, error) {
	if err := ctx.Err(); err != nil {
		return domain.Sample{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.frames.ReadFrame(&d.frame); err != nil {
		return domain.Sample{}, fmt.Errorf("reading frame: %w", err)
	}

	gocv.CvtColor(d.frame, &d.gray, gocv.ColorBGRToGray)
	gocv.EqualizeHist(d.gray, &d.gray)
	faces := d.cascade.DetectMultiScaleWithParams(
		d.gray, 1.1, 5, 0,
		image.Pt(d.cfg.MinFace, d.cfg.MinFace), image.Pt(0, 0),
	)

	face, ok := headpose.FirstFace(faces)
	if !ok {
		return domain.Sample{}, nil
	}
	if len(faces) > 1 {
		d.log.Debug("%d faces in frame, tracking the first", len(faces))
	}

	bounds := image.Rect(0, 0, d.frame.Cols(), d.frame.Rows())
	box := headpose.ExpandBox(face, bounds, d.cfg.Margin)
	region := d.frame.Region(box)
	gocv.Resize(region, &d.crop, image.Pt(d.cfg.InputSize, d.cfg.InputSize), 0, 0, gocv.InterpolationLinear)
	region.Close()

	if err := headpose.Normalize(d.crop.ToBytes(), d.cfg.InputSize, d.inputBuf); err != nil {
		return domain.Sample{}, err
	}
	copy(d.input.GetData(), d.inputBuf)

	if err := d.session.Run(); err != nil {
		return domain.Sample{}, fmt.Errorf("running head-pose model: %w", err)
	}

	pose, err := headpose.Decode(d.output.GetData(), headpose.Convention{
		FlipYaw:   d.cfg.FlipYaw,
		FlipPitch: d.cfg.FlipPitch,
	})
	if err != nil {
		return domain.Sample{}, err
	}

	return domain.Sample{HasFace: true, Yaw: pose.Yaw, Pitch: pose.Pitch, Roll: pose.Roll}, nil
}

// Close releases the model, the runtime and the cascade.
func (d *HeadPose) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.session.Destroy()
	d.input.Destroy()
	d.output.Destroy()
	ort.DestroyEnvironment()
	d.cascade.Close()
	d.frame.Close()
	d.gray.Close()
	d.crop.Close()
}
