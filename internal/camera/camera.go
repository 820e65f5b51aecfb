// Package camera abstracts the host video device that feeds the live capture
// mode. A Device hands out at most one Stream at a time; callers must Stop the
// stream to release the hardware.
package camera

import (
	"context"
	"errors"
	"image"
)

var (
	ErrPermissionDenied = errors.New("camera: permission denied")
	ErrNotStreaming     = errors.New("camera: no open stream")
	ErrUnsupported      = errors.New("camera: device not supported in this build")
)

// FacingUser asks for the front ("selfie") camera.
const FacingUser = "user"

// Constraints mirrors what the capture adapter asks of the device.
type Constraints struct {
	FacingMode  string
	IdealWidth  int
	IdealHeight int
	Audio       bool
}

// DefaultConstraints is a front camera at an ideal 720x720 without audio.
func DefaultConstraints() Constraints {
	return Constraints{
		FacingMode:  FacingUser,
		IdealWidth:  720,
		IdealHeight: 720,
		Audio:       false,
	}
}

// Stream is a live video source.
type Stream interface {
	// Frame returns the most recent frame, or false while no frame has
	// arrived yet.
	Frame() (image.Image, bool)
	// Stop releases every underlying track. It is safe to call more than once.
	Stop()
}

// Device opens streams.
type Device interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}
