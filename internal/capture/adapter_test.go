package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"stylebooth/internal/camera"
	"stylebooth/internal/domain"
)

type fakeStream struct {
	frame   image.Image
	stopped int
}

func (s *fakeStream) Frame() (image.Image, bool) {
	if s.frame == nil {
		return nil, false
	}
	return s.frame, true
}

func (s *fakeStream) Stop() { s.stopped++ }

type fakeDevice struct {
	open    func(ctx context.Context, c camera.Constraints) (camera.Stream, error)
	opened  []*fakeStream
	lastReq camera.Constraints
}

func (d *fakeDevice) Open(ctx context.Context, c camera.Constraints) (camera.Stream, error) {
	d.lastReq = c
	if d.open != nil {
		return d.open(ctx, c)
	}
	s := &fakeStream{}
	d.opened = append(d.opened, s)
	return s, nil
}

// halves paints the left half red and the right half blue.
func halves(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.Set(x, y, color.RGBA{R: 255, A: 255})
			} else {
				img.Set(x, y, color.RGBA{B: 255, A: 255})
			}
		}
	}
	return img
}

func isRed(c color.Color) bool {
	r, _, b, _ := c.RGBA()
	return r > b*2
}

func isBlue(c color.Color) bool {
	r, _, b, _ := c.RGBA()
	return b > r*2
}

func TestCapturePromptModeNotReady(t *testing.T) {
	a := NewAdapter(Options{Device: &fakeDevice{}})
	img, err := a.Capture()
	if !errors.Is(err, domain.ErrInputNotReady) || img != nil {
		t.Fatalf("Capture() = %v, %v; want nil, ErrInputNotReady", img, err)
	}
}

func TestStartCameraUsesSelfieConstraints(t *testing.T) {
	dev := &fakeDevice{}
	a := NewAdapter(Options{Device: dev})
	if err := a.StartCamera(context.Background()); err != nil {
		t.Fatalf("StartCamera: %v", err)
	}
	want := camera.DefaultConstraints()
	if dev.lastReq != want {
		t.Fatalf("constraints = %+v, want %+v", dev.lastReq, want)
	}
	if st := a.Status(); st.Mode != ModeLive || st.Ready {
		t.Fatalf("Status() = %+v, want live and not ready before first frame", st)
	}
}

func TestCaptureLiveMirrorsFrame(t *testing.T) {
	dev := &fakeDevice{}
	a := NewAdapter(Options{Device: dev})
	if err := a.StartCamera(context.Background()); err != nil {
		t.Fatalf("StartCamera: %v", err)
	}
	if _, err := a.Capture(); !errors.Is(err, domain.ErrInputNotReady) {
		t.Fatalf("Capture before frame err = %v", err)
	}
	dev.opened[0].frame = halves(32, 16)

	img, err := a.Capture()
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if img.MIMEType() != "image/jpeg" {
		t.Fatalf("MIMEType = %q", img.MIMEType())
	}
	decoded, err := jpeg.Decode(bytes.NewReader(img.Data()))
	if err != nil {
		t.Fatalf("jpeg.Decode: %v", err)
	}
	if !isBlue(decoded.At(4, 8)) {
		t.Fatalf("left side should be blue after mirroring, got %v", decoded.At(4, 8))
	}
	if !isRed(decoded.At(27, 8)) {
		t.Fatalf("right side should be red after mirroring, got %v", decoded.At(27, 8))
	}
}

func TestUploadIsByteIdentical(t *testing.T) {
	dev := &fakeDevice{}
	a := NewAdapter(Options{Device: dev})
	if err := a.StartCamera(context.Background()); err != nil {
		t.Fatalf("StartCamera: %v", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, halves(8, 4)); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	raw := buf.Bytes()
	if _, err := a.Upload(bytes.NewReader(raw)); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if dev.opened[0].stopped == 0 {
		t.Fatalf("switching to upload must stop the camera")
	}

	img, err := a.Capture()
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if !bytes.Equal(img.Data(), raw) {
		t.Fatalf("uploaded capture differs from source file")
	}
	if img.MIMEType() != "image/png" {
		t.Fatalf("MIMEType = %q", img.MIMEType())
	}
}

func TestUploadRejectsOversize(t *testing.T) {
	a := NewAdapter(Options{MaxUpload: 4})
	if _, err := a.Upload(bytes.NewReader(make([]byte, 5))); err == nil {
		t.Fatalf("expected size error")
	}
}

func TestStartCameraStopsPreviousStream(t *testing.T) {
	dev := &fakeDevice{}
	a := NewAdapter(Options{Device: dev})
	_ = a.StartCamera(context.Background())
	_ = a.StartCamera(context.Background())
	if len(dev.opened) != 2 {
		t.Fatalf("opened %d streams, want 2", len(dev.opened))
	}
	if dev.opened[0].stopped != 1 {
		t.Fatalf("first stream stopped %d times, want 1", dev.opened[0].stopped)
	}
	if dev.opened[1].stopped != 0 {
		t.Fatalf("second stream should still be open")
	}
}

func TestStartCameraDenied(t *testing.T) {
	dev := &fakeDevice{open: func(context.Context, camera.Constraints) (camera.Stream, error) {
		return nil, camera.ErrPermissionDenied
	}}
	a := NewAdapter(Options{Device: dev})
	err := a.StartCamera(context.Background())
	if !errors.Is(err, domain.ErrCameraUnavailable) {
		t.Fatalf("StartCamera err = %v, want ErrCameraUnavailable", err)
	}
	st := a.Status()
	if st.Mode != ModePrompt || st.CameraError != CameraDeniedMessage {
		t.Fatalf("Status() = %+v", st)
	}

	dev.open = nil
	if err := a.StartCamera(context.Background()); err != nil {
		t.Fatalf("retry StartCamera: %v", err)
	}
	if st := a.Status(); st.CameraError != "" || st.Mode != ModeLive {
		t.Fatalf("Status() after retry = %+v", st)
	}
}

func TestCloseReleasesEverything(t *testing.T) {
	dev := &fakeDevice{}
	a := NewAdapter(Options{Device: dev})
	_ = a.StartCamera(context.Background())
	_ = a.Close()
	_ = a.Close()
	if dev.opened[0].stopped != 1 {
		t.Fatalf("stream stopped %d times, want 1", dev.opened[0].stopped)
	}
	if st := a.Status(); st.Mode != ModePrompt || st.Ready {
		t.Fatalf("Status() = %+v", st)
	}
}
