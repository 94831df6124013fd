// Package camera owns the capture device: it serves preview frames to the
// detector and writes JPEG stills for the session.
package camera

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/hammamikhairi/facecapture/internal/domain"
	"github.com/hammamikhairi/facecapture/internal/logger"
)

// Compile-time interface check.
var _ domain.Camera = (*Webcam)(nil)

// Config selects the device and where stills go.
type Config struct {
	Device      int
	StillDir    string
	JPEGQuality int // 1-100; defaults to 80
}

// Webcam is a gocv-backed camera. Preview reads and stills are serialised
// on one mutex; the device is owned exclusively for the Webcam's lifetime.
type Webcam struct {
	mu      sync.Mutex
	vc      *gocv.VideoCapture
	frame   gocv.Mat
	dir     string
	quality int
	log     *logger.Logger
}

// Open opens the device. Any failure to obtain frames is reported as
// ErrCameraPermissionDenied, since the OS gives no finer signal.
func Open(cfg Config, log *logger.Logger) (*Webcam, error) {
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 80
	}
	if err := os.MkdirAll(cfg.StillDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating still dir: %w", err)
	}

	vc, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("opening camera %d: %w: %v", cfg.Device, domain.ErrCameraPermissionDenied, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("opening camera %d: %w", cfg.Device, domain.ErrCameraPermissionDenied)
	}

	w := &Webcam{
		vc:      vc,
		frame:   gocv.NewMat(),
		dir:     cfg.StillDir,
		quality: cfg.JPEGQuality,
		log:     log,
	}

	// Some platforms open the device but refuse frames until access is granted.
	if ok := vc.Read(&w.frame); !ok || w.frame.Empty() {
		w.Close()
		return nil, fmt.Errorf("reading from camera %d: %w", cfg.Device, domain.ErrCameraPermissionDenied)
	}

	log.Info("camera %d opened (%dx%d), stills in %s", cfg.Device, w.frame.Cols(), w.frame.Rows(), cfg.StillDir)
	return w, nil
}

// ReadFrame copies the newest frame into dst.
func (w *Webcam) ReadFrame(dst *gocv.Mat) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if ok := w.vc.Read(&w.frame); !ok || w.frame.Empty() {
		return errors.New("camera returned an empty frame")
	}
	w.frame.CopyTo(dst)
	return nil
}

// Still grabs a fresh frame and writes it as a JPEG. The returned URI is a
// file:// URL.
func (w *Webcam) Still(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if ok := w.vc.Read(&w.frame); !ok || w.frame.Empty() {
		return "", fmt.Errorf("%w: empty frame", domain.ErrCaptureFailed)
	}

	path, err := filepath.Abs(filepath.Join(w.dir, uuid.NewString()+".jpg"))
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrCaptureFailed, err)
	}
	if !gocv.IMWriteWithParams(path, w.frame, []int{int(gocv.IMWriteJpegQuality), w.quality}) {
		return "", fmt.Errorf("%w: writing %s", domain.ErrCaptureFailed, path)
	}

	w.log.Debug("still written to %s", path)
	return (&url.URL{Scheme: "file", Path: path}).String(), nil
}

// Remove deletes a still this camera wrote.
func (w *Webcam) Remove(uri string) error {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return fmt.Errorf("not a local still: %s", uri)
	}
	if err := os.Remove(u.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Close releases the device.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.frame.Close()
	return w.vc.Close()
}
