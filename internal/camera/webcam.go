//go:build gocv

package camera

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// WebcamDevice reads frames from a local video capture device through OpenCV.
type WebcamDevice struct {
	ID int
}

func NewWebcamDevice(id int) Device {
	return &WebcamDevice{ID: id}
}

func (d *WebcamDevice) Open(ctx context.Context, c Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vc, err := gocv.OpenVideoCapture(d.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: open device %d: %v", ErrPermissionDenied, d.ID, err)
	}
	if !vc.IsOpened() {
		_ = vc.Close()
		return nil, fmt.Errorf("%w: device %d not opened", ErrPermissionDenied, d.ID)
	}
	if c.IdealWidth > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(c.IdealWidth))
	}
	if c.IdealHeight > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(c.IdealHeight))
	}
	s := &webcamStream{vc: vc, done: make(chan struct{})}
	s.wg.Add(1)
	go s.loop()
	return s, nil
}

type webcamStream struct {
	vc   *gocv.VideoCapture
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	mu    sync.Mutex
	frame image.Image
}

func (s *webcamStream) loop() {
	defer s.wg.Done()
	mat := gocv.NewMat()
	defer mat.Close()
	for {
		select {
		case <-s.done:
			return
		default:
		}
		if ok := s.vc.Read(&mat); !ok || mat.Empty() {
			continue
		}
		img, err := mat.ToImage()
		if err != nil {
			continue
		}
		s.mu.Lock()
		s.frame = img
		s.mu.Unlock()
	}
}

func (s *webcamStream) Frame() (image.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame, s.frame != nil
}

func (s *webcamStream) Stop() {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()
		_ = s.vc.Close()
		s.mu.Lock()
		s.frame = nil
		s.mu.Unlock()
	})
}
