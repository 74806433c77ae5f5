package capture

import (
	"image"
	"sync"
)

// PushSource holds the latest frame pushed by the browser camera.
type PushSource struct {
	mu     sync.RWMutex
	open   bool
	latest image.Image
}

// NewPushSource creates an empty push source.
func NewPushSource() *PushSource {
	return &PushSource{}
}

// Open marks the source as acquired. Frames pushed before Open are dropped.
func (s *PushSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.open = true
	s.latest = nil
	return nil
}

// Push replaces the current frame. It returns ErrNotReady when the source is closed.
func (s *PushSource) Push(img image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return ErrNotReady
	}
	s.latest = img
	return nil
}

func (s *PushSource) Frame() (image.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.open {
		return nil, ErrNotReady
	}
	return s.latest, nil
}

func (s *PushSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.open = false
	s.latest = nil
	return nil
}
