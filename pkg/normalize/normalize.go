// Package normalize maps rectangles drawn in view-pixel space to
// normalized center-form bounding boxes.
package normalize

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/menta2k/image-labeler/pkg/types"
)

// ExtentMode selects how negative raw extents are handled
type ExtentMode int

const (
	// Absolute stores width and height as non-negative values
	Absolute ExtentMode = iota
	// Signed keeps the sign of the raw drag delta, so a rectangle drawn
	// up/left of its anchor persists a negative width/height
	Signed
)

// ErrInvalidSize is returned for non-positive image dimensions
var ErrInvalidSize = errors.New("image dimensions must be positive")

// String returns the configuration name of the mode
func (m ExtentMode) String() string {
	switch m {
	case Signed:
		return "signed"
	default:
		return "absolute"
	}
}

// ParseExtentMode parses a configuration value
func ParseExtentMode(s string) (ExtentMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "absolute", "abs":
		return Absolute, nil
	case "signed":
		return Signed, nil
	default:
		return Absolute, fmt.Errorf("unknown extent mode %q (use absolute or signed)", s)
	}
}

// Normalize converts a view-space rectangle on a width x height image to a
// bounding box. The center is anchor + delta/2 for either drag direction.
func Normalize(rect types.Rect, class string, width, height int, mode ExtentMode) (types.BoundingBox, error) {
	if width <= 0 || height <= 0 {
		return types.BoundingBox{}, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	fw, fh := float64(width), float64(height)
	dx, dy := rect.Delta()

	box := types.BoundingBox{
		Class:   class,
		XCenter: (rect.Anchor.X + dx/2) / fw,
		YCenter: (rect.Anchor.Y + dy/2) / fh,
		Width:   dx / fw,
		Height:  dy / fh,
	}
	if mode == Absolute {
		box.Width = math.Abs(box.Width)
		box.Height = math.Abs(box.Height)
	}
	return box, nil
}

// Round6 rounds v to six decimal places
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
