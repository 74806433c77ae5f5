package capture

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DirSource replays the still images of a directory in name order, looping.
type DirSource struct {
	dir string

	mu    sync.Mutex
	files []string
	next  int
}

// NewDirSource creates a source over the images in dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) Open() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return &CameraAcquisitionError{Source: s.dir, Err: err}
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, filepath.Join(s.dir, e.Name()))
		}
	}

	if len(files) == 0 {
		return &CameraAcquisitionError{Source: s.dir, Err: errors.New("no images found")}
	}
	sort.Strings(files)

	s.mu.Lock()
	s.files = files
	s.next = 0
	s.mu.Unlock()

	return nil
}

func (s *DirSource) Frame() (image.Image, error) {
	s.mu.Lock()
	if len(s.files) == 0 {
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	path := s.files[s.next]
	s.next = (s.next + 1) % len(s.files)
	s.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}

	return img, nil
}

func (s *DirSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files = nil
	s.next = 0
	return nil
}
