package session

import (
	"errors"
	"sync"

	"cropfolder/internal/dto"
)

// ErrEmpty is returned when the session holds no images.
var ErrEmpty = errors.New("no images found")

// Session is the image list of the target folder and the current position in it.
type Session struct {
	images []string
	index  int
	mu     sync.RWMutex
}

// New creates a session positioned on the first image.
func New(images []string) *Session {
	return &Session{images: append([]string(nil), images...)}
}

// Images returns a copy of the image list and the current index.
func (s *Session) Images() ([]string, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.images...), s.index
}

// Current describes the displayed image.
func (s *Session) Current() (dto.ImageState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current()
}

// Contains reports whether filename is part of the image list.
func (s *Session) Contains(filename string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, name := range s.images {
		if name == filename {
			return true
		}
	}
	return false
}

// Advance moves to the next image. At the last image it does nothing and
// reports moved=false.
func (s *Session) Advance() (dto.ImageState, bool) {
	return s.move(1)
}

// Retreat moves to the previous image. At the first image it does nothing and
// reports moved=false.
func (s *Session) Retreat() (dto.ImageState, bool) {
	return s.move(-1)
}

func (s *Session) move(delta int) (dto.ImageState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.index + delta
	if next < 0 || next >= len(s.images) {
		state, _ := s.current()
		return state, false
	}

	s.index = next
	state, _ := s.current()
	return state, true
}

func (s *Session) current() (dto.ImageState, error) {
	if len(s.images) == 0 {
		return dto.ImageState{}, ErrEmpty
	}
	return dto.ImageState{
		Filename: s.images[s.index],
		Index:    s.index,
		Total:    len(s.images),
	}, nil
}
