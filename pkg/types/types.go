package types

import "math"

// Point is a position in view-pixel space as reported by a canvas
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is a rectangle drawn by the user, from the anchor (pointer-down)
// to the current corner (last pointer position). The current corner may
// lie above or left of the anchor.
type Rect struct {
	Anchor  Point `json:"anchor"`
	Current Point `json:"current"`
}

// Delta returns the raw, possibly negative, extents of the rectangle
func (r Rect) Delta() (dx, dy float64) {
	return r.Current.X - r.Anchor.X, r.Current.Y - r.Anchor.Y
}

// Empty reports whether the rectangle has zero area
func (r Rect) Empty() bool {
	dx, dy := r.Delta()
	return dx == 0 || dy == 0
}

// BoundingBox is one persisted annotation. All numeric fields are
// fractions of the image width/height.
type BoundingBox struct {
	Class   string  `json:"class"`
	XCenter float64 `json:"x_center"`
	YCenter float64 `json:"y_center"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// Valid reports whether the box edges lie within [0,1]
func (b BoundingBox) Valid() bool {
	hw, hh := math.Abs(b.Width)/2, math.Abs(b.Height)/2
	return inUnit(b.XCenter-hw) && inUnit(b.XCenter+hw) &&
		inUnit(b.YCenter-hh) && inUnit(b.YCenter+hh)
}

// Box converts the center-form box into a top-left normalized Box
func (b BoundingBox) Box() Box {
	w, h := math.Abs(b.Width), math.Abs(b.Height)
	return Box{X: b.XCenter - w/2, Y: b.YCenter - h/2, W: w, H: h}
}

// Box represents a normalized bounding box with coordinates in [0,1] range,
// X/Y being the top-left corner
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// SaveOptions controls how images are encoded into the dataset store
type SaveOptions struct {
	Quality  int
	Lossless bool
	Atomic   bool
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}
