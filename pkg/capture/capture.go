// Package capture implements the pointer interaction that turns a drag on
// the image canvas into a labelled rectangle.
//
// States: Idle -> Dragging -> AwaitingLabel -> (Committed | Discarded) -> Idle.
package capture

import (
	"errors"
	"strings"

	"github.com/menta2k/image-labeler/pkg/types"
)

// State is the interaction state
type State int

const (
	Idle State = iota
	Dragging
	AwaitingLabel
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case AwaitingLabel:
		return "awaiting-label"
	default:
		return "idle"
	}
}

// Outcome is the result of resolving a label prompt
type Outcome int

const (
	None Outcome = iota
	Committed
	Discarded
)

var (
	// ErrEmptyClass is reported when the label prompt was cancelled or left empty
	ErrEmptyClass = errors.New("class name cannot be empty")
	// ErrInvalidClass is reported for class names spanning more than one line
	ErrInvalidClass = errors.New("class name cannot contain line breaks")
)

// CheckClass trims class and collapses inner runs of whitespace to one
// space. Empty names and names containing a line break are rejected.
func CheckClass(class string) (string, error) {
	if strings.ContainsAny(class, "\r\n") {
		return "", ErrInvalidClass
	}
	class = strings.Join(strings.Fields(class), " ")
	if class == "" {
		return "", ErrEmptyClass
	}
	return class, nil
}

// Capture tracks one rectangle at a time. It is disarmed until an image
// is loaded; pointer events while disarmed are ignored.
type Capture struct {
	state State
	armed bool
	rect  types.Rect
}

// New returns a disarmed Capture
func New() *Capture {
	return &Capture{}
}

// Arm enables or disables pointer handling and drops any rectangle in progress
func (c *Capture) Arm(armed bool) {
	c.armed = armed
	c.Reset()
}

// Armed reports whether an image is loaded
func (c *Capture) Armed() bool { return c.armed }

// State returns the current state
func (c *Capture) State() State { return c.state }

// Rect returns the rectangle in progress, false when Idle
func (c *Capture) Rect() (types.Rect, bool) {
	return c.rect, c.state != Idle
}

// Reset drops any rectangle in progress
func (c *Capture) Reset() {
	c.state = Idle
	c.rect = types.Rect{}
}

// Down anchors a new rectangle. It reports whether the event was handled.
func (c *Capture) Down(p types.Point) bool {
	if !c.armed || c.state == AwaitingLabel {
		return false
	}
	c.state = Dragging
	c.rect = types.Rect{Anchor: p, Current: p}
	return true
}

// Move updates the opposite corner while dragging
func (c *Capture) Move(p types.Point) bool {
	if c.state != Dragging {
		return false
	}
	c.rect.Current = p
	return true
}

// Up freezes the rectangle and waits for a class name
func (c *Capture) Up(p types.Point) bool {
	if c.state != Dragging {
		return false
	}
	c.rect.Current = p
	c.state = AwaitingLabel
	return true
}

// Resolve finishes a prompt. A class accepted by CheckClass with ok commits
// the frozen rectangle; anything else discards it. Outside AwaitingLabel it
// returns None.
func (c *Capture) Resolve(class string, ok bool) (types.Rect, string, Outcome) {
	if c.state != AwaitingLabel {
		return types.Rect{}, "", None
	}
	rect := c.rect
	c.Reset()

	if !ok {
		return types.Rect{}, "", Discarded
	}
	class, err := CheckClass(class)
	if err != nil {
		return types.Rect{}, "", Discarded
	}
	return rect, class, Committed
}
