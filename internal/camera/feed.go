package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

// FeedDevice is a camera whose frames are pushed from outside the process,
// typically by a browser page that owns the real getUserMedia stream and
// posts stills to the shell. The pushing side also reports whether the user
// granted camera permission.
type FeedDevice struct {
	mu      sync.Mutex
	allowed bool
	current *feedStream
}

func NewFeedDevice() *FeedDevice {
	return &FeedDevice{allowed: true}
}

// SetPermission records the user's answer to the permission prompt. Revoking
// permission stops any open stream.
func (d *FeedDevice) SetPermission(allowed bool) {
	d.mu.Lock()
	d.allowed = allowed
	cur := d.current
	if !allowed {
		d.current = nil
	}
	d.mu.Unlock()
	if !allowed && cur != nil {
		cur.Stop()
	}
}

func (d *FeedDevice) Open(ctx context.Context, c Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.allowed {
		return nil, ErrPermissionDenied
	}
	if d.current != nil {
		d.current.stop()
	}
	s := &feedStream{device: d, constraints: c}
	d.current = s
	return s, nil
}

// Active reports whether a stream is currently open.
func (d *FeedDevice) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current != nil
}

// Push delivers a decoded frame to the open stream.
func (d *FeedDevice) Push(frame image.Image) error {
	d.mu.Lock()
	s := d.current
	d.mu.Unlock()
	if s == nil {
		return ErrNotStreaming
	}
	s.setFrame(frame)
	return nil
}

// PushEncoded decodes a jpeg/png/gif/webp still and delivers it.
func (d *FeedDevice) PushEncoded(data []byte) error {
	frame, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("camera: decode frame: %w", err)
	}
	return d.Push(frame)
}

func (d *FeedDevice) release(s *feedStream) {
	d.mu.Lock()
	if d.current == s {
		d.current = nil
	}
	d.mu.Unlock()
}

type feedStream struct {
	device      *FeedDevice
	constraints Constraints

	mu      sync.Mutex
	frame   image.Image
	stopped bool
}

func (s *feedStream) Frame() (image.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.frame == nil {
		return nil, false
	}
	return s.frame, true
}

func (s *feedStream) setFrame(frame image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.frame = frame
	}
}

func (s *feedStream) Stop() {
	s.stop()
	s.device.release(s)
}

// stop is called with the device lock held when a newer stream replaces s.
func (s *feedStream) stop() {
	s.mu.Lock()
	s.stopped = true
	s.frame = nil
	s.mu.Unlock()
}
