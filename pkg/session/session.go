// Package session keeps the ordered set of images awaiting annotation and
// the cursor over it.
package session

import "errors"

// ErrNoImages is returned when navigating without a loaded, non-empty image set
var ErrNoImages = errors.New("no images loaded")

// Move describes the outcome of a navigation step
type Move struct {
	Index      int    `json:"index"`
	Image      string `json:"image"`
	AtBoundary bool   `json:"at_boundary"`
}

// Session owns the image set and the cursor. The zero value is a session
// with no folder selected.
//
// When the active image is removed (committed) the session becomes
// detached: the image stays active, and the cursor marks the slot of its
// successor so the next Advance lands there instead of skipping it.
type Session struct {
	folder   string
	images   []string
	cursor   int
	detached bool
	active   string
	width    int
	height   int
}

// New creates a session over images discovered in folder
func New(folder string, images []string) *Session {
	s := &Session{}
	s.Reset(folder, images)
	return s
}

// Reset replaces the image set, e.g. after a new folder was selected
func (s *Session) Reset(folder string, images []string) {
	s.folder = folder
	s.images = append([]string(nil), images...)
	s.cursor = 0
	s.detached = false
	s.active = ""
	s.width, s.height = 0, 0
	if len(s.images) > 0 {
		s.active = s.images[0]
	}
}

// Folder returns the selected source folder, empty if none
func (s *Session) Folder() string { return s.folder }

// Len returns the number of images still pending
func (s *Session) Len() int { return len(s.images) }

// Empty reports whether nothing is left to annotate
func (s *Session) Empty() bool { return len(s.images) == 0 }

// Images returns a copy of the pending image set
func (s *Session) Images() []string { return append([]string(nil), s.images...) }

// Index returns the cursor, always within [0, Len) for a non-empty set, or -1
func (s *Session) Index() int {
	if len(s.images) == 0 {
		return -1
	}
	if s.cursor >= len(s.images) {
		return len(s.images) - 1
	}
	return s.cursor
}

// Current returns the active image. After a commit this may be an image
// no longer in the set.
func (s *Session) Current() (string, bool) {
	return s.active, s.active != ""
}

// Detached reports whether the active image has been removed from the set
func (s *Session) Detached() bool { return s.detached }

// SetDimensions records the pixel size of the active image
func (s *Session) SetDimensions(width, height int) {
	s.width, s.height = width, height
}

// Dimensions returns the pixel size of the active image
func (s *Session) Dimensions() (int, int) { return s.width, s.height }

// Advance moves to the next image, clamping at the last one
func (s *Session) Advance() (Move, error) {
	if s.folder == "" || len(s.images) == 0 {
		return Move{}, ErrNoImages
	}

	boundary := false
	switch {
	case s.detached && s.cursor < len(s.images):
	case s.detached:
		s.cursor = len(s.images) - 1
		boundary = true
	case s.cursor+1 < len(s.images):
		s.cursor++
	default:
		boundary = true
	}
	return s.attach(boundary), nil
}

// Retreat moves to the previous image, clamping at the first one
func (s *Session) Retreat() (Move, error) {
	if s.folder == "" || len(s.images) == 0 {
		return Move{}, ErrNoImages
	}

	boundary := false
	switch {
	case s.detached && s.cursor > 0:
		s.cursor--
	case s.detached:
		s.cursor = 0
		boundary = true
	case s.cursor > 0:
		s.cursor--
	default:
		boundary = true
	}
	return s.attach(boundary), nil
}

// Remove drops id from the pending set. It returns false if id was not pending.
func (s *Session) Remove(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.images = append(s.images[:i], s.images[i+1:]...)

	switch {
	case !s.detached && i == s.cursor:
		s.detached = true
	case i < s.cursor:
		s.cursor--
	}
	return true
}

func (s *Session) attach(boundary bool) Move {
	s.detached = false
	next := s.images[s.cursor]
	if next != s.active {
		s.width, s.height = 0, 0
	}
	s.active = next
	return Move{Index: s.cursor, Image: s.active, AtBoundary: boundary}
}

func (s *Session) indexOf(id string) int {
	for i, name := range s.images {
		if name == id {
			return i
		}
	}
	return -1
}
