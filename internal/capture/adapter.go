// Package capture turns whichever input is active (live camera or uploaded
// file) into a single still image on demand.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"stylebooth/internal/camera"
	"stylebooth/internal/domain"
	"stylebooth/internal/infra"
	"stylebooth/internal/media"
)

// Mode is the active input modality.
type Mode string

const (
	ModePrompt   Mode = "prompt"
	ModeLive     Mode = "live"
	ModeUploaded Mode = "uploaded"
)

const (
	DefaultJPEGQuality = 92
	DefaultMaxUpload   = 10 << 20

	CameraDeniedMessage = "Camera access denied. Please enable camera permissions in your browser settings."
)

// Source produces a still on demand. A nil image is never returned with a nil
// error; "nothing to capture" is domain.ErrInputNotReady.
type Source interface {
	Capture() (*media.Image, error)
}

// Status describes the adapter for display.
type Status struct {
	Mode        Mode   `json:"mode"`
	Ready       bool   `json:"ready"`
	CameraError string `json:"cameraError,omitempty"`
}

// Options configures an Adapter.
type Options struct {
	Device      camera.Device
	Constraints camera.Constraints
	JPEGQuality int
	MaxUpload   int64
	Logger      *infra.Logger
}

// Adapter owns at most one active input. Switching input always releases the
// camera first.
type Adapter struct {
	device      camera.Device
	constraints camera.Constraints
	quality     int
	maxUpload   int64
	logger      *infra.Logger

	mu        sync.Mutex
	mode      Mode
	stream    camera.Stream
	upload    *media.Image
	cameraErr string
}

func NewAdapter(opts Options) *Adapter {
	quality := opts.JPEGQuality
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	maxUpload := opts.MaxUpload
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	constraints := opts.Constraints
	if constraints == (camera.Constraints{}) {
		constraints = camera.DefaultConstraints()
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &Adapter{
		device:      opts.Device,
		constraints: constraints,
		quality:     quality,
		maxUpload:   maxUpload,
		logger:      logger,
		mode:        ModePrompt,
	}
}

// StartCamera opens the camera, replacing any previous input. It is also the
// retry entry point after a failure.
func (a *Adapter) StartCamera(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.releaseLocked()
	a.cameraErr = ""

	if a.device == nil {
		a.cameraErr = CameraDeniedMessage
		return fmt.Errorf("%w: no camera device configured", domain.ErrCameraUnavailable)
	}
	stream, err := a.device.Open(ctx, a.constraints)
	if err != nil {
		a.cameraErr = CameraDeniedMessage
		a.logger.Warn().Err(err).Msg("capture: camera unavailable")
		return fmt.Errorf("%w: %v", domain.ErrCameraUnavailable, err)
	}
	a.stream = stream
	a.mode = ModeLive
	return nil
}

// Upload reads an image file unmodified and makes it the active input.
func (a *Adapter) Upload(r io.Reader) (*media.Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, a.maxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("capture: read upload: %w", err)
	}
	if int64(len(data)) > a.maxUpload {
		return nil, fmt.Errorf("capture: upload exceeds %d bytes", a.maxUpload)
	}
	img, err := media.FromBytes(data)
	if err != nil {
		return nil, err
	}
	a.setUpload(img)
	return img, nil
}

// UploadDataURI accepts an already-encoded data blob as the uploaded input.
func (a *Adapter) UploadDataURI(uri string) (*media.Image, error) {
	img, err := media.ParseDataURI(uri)
	if err != nil {
		return nil, err
	}
	a.setUpload(img)
	return img, nil
}

func (a *Adapter) setUpload(img *media.Image) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.releaseLocked()
	a.cameraErr = ""
	a.upload = img
	a.mode = ModeUploaded
}

// Capture returns the current still. Live frames are mirrored left to right
// and re-encoded as JPEG; uploads are returned byte for byte.
func (a *Adapter) Capture() (*media.Image, error) {
	a.mu.Lock()
	mode, stream, upload := a.mode, a.stream, a.upload
	a.mu.Unlock()

	switch mode {
	case ModeUploaded:
		if upload == nil {
			return nil, domain.ErrInputNotReady
		}
		return upload, nil
	case ModeLive:
		if stream == nil {
			return nil, domain.ErrInputNotReady
		}
		frame, ok := stream.Frame()
		if !ok || frame == nil || frame.Bounds().Empty() {
			return nil, domain.ErrInputNotReady
		}
		mirrored := imaging.FlipH(frame)
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, mirrored, imaging.JPEG, imaging.JPEGQuality(a.quality)); err != nil {
			return nil, fmt.Errorf("capture: encode frame: %w", err)
		}
		return media.New(buf.Bytes(), media.MIMEJPEG)
	default:
		return nil, domain.ErrInputNotReady
	}
}

// Ready reports whether Capture would currently produce an image.
func (a *Adapter) Ready() bool {
	_, err := a.Capture()
	return err == nil
}

func (a *Adapter) Status() Status {
	a.mu.Lock()
	st := Status{Mode: a.mode, CameraError: a.cameraErr}
	a.mu.Unlock()
	st.Ready = a.Ready()
	return st
}

// ClearCameraError dismisses the last camera failure message.
func (a *Adapter) ClearCameraError() {
	a.mu.Lock()
	a.cameraErr = ""
	a.mu.Unlock()
}

// Close releases the camera, drops any upload and returns to the prompt.
// Safe to call repeatedly.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.releaseLocked()
	a.cameraErr = ""
	return nil
}

func (a *Adapter) releaseLocked() {
	if a.stream != nil {
		a.stream.Stop()
		a.stream = nil
	}
	a.upload = nil
	a.mode = ModePrompt
}

var _ Source = (*Adapter)(nil)
