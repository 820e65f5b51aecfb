//go:build !gocv

package camera

import "context"

// WebcamDevice needs the gocv build tag and a local OpenCV installation.
type WebcamDevice struct {
	ID int
}

func NewWebcamDevice(id int) Device {
	return &WebcamDevice{ID: id}
}

func (d *WebcamDevice) Open(ctx context.Context, c Constraints) (Stream, error) {
	return nil, ErrUnsupported
}
