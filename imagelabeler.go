// Package imagelabeler provides a bounding-box annotation core for building
// object-detection datasets.
//
// A folder of images is scanned for files not yet present in the dataset
// store, the user draws rectangles on them and names a class for each,
// and every labelled rectangle is appended to a per-image label file in
// the normalized center format used by YOLO-style trainers. The image
// itself is copied into the store on its first annotation, so a rescan
// only lists what is left to do.
//
// Basic usage:
//
//	package main
//
//	import (
//		"fmt"
//		"log"
//
//		imagelabeler "github.com/menta2k/image-labeler"
//		"github.com/menta2k/image-labeler/pkg/types"
//	)
//
//	func main() {
//		labeler, err := imagelabeler.New()
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		if err := labeler.Open("photos"); err != nil {
//			log.Fatal(err)
//		}
//
//		res, err := labeler.Annotate(types.Rect{
//			Anchor:  types.Point{X: 10, Y: 10},
//			Current: types.Point{X: 110, Y: 60},
//		}, "cat")
//		if err != nil {
//			log.Fatal(err)
//		}
//		fmt.Printf("%s: %+v\n", res.Image, res.Box)
//	}
//
// The package consists of these components:
//
// 1. Scanner (pkg/scanner): lists source images missing from the store
// 2. Session (pkg/session): the pending set and the navigation cursor
// 3. Capture (pkg/capture): the press/drag/release/label state machine
// 4. Normalize (pkg/normalize): view pixels to normalized center boxes
// 5. Store (pkg/store): label files and image copies on disk
// 6. Annotator (pkg/annotator): the controller front ends talk to
//
// Label lines look like
//
//	cat 0.300000 0.350000 0.500000 0.500000
//
// i.e. class name, x center, y center, width and height, all relative to
// the image size.
package imagelabeler

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/menta2k/image-labeler/pkg/annotator"
	"github.com/menta2k/image-labeler/pkg/normalize"
	"github.com/menta2k/image-labeler/pkg/processing"
	"github.com/menta2k/image-labeler/pkg/types"
)

// Version of the image labeler
const Version = "0.1.0"

// DefaultRoot is the dataset store root used by DefaultConfig
const DefaultRoot = "Dataset"

// ImageLabeler provides a high-level interface over an annotation session
type ImageLabeler struct {
	ctl  *annotator.Controller
	proc *processing.Processor
}

// DefaultConfig returns the controller settings for a store under ./Dataset
func DefaultConfig() annotator.Config {
	return ConfigForRoot(DefaultRoot)
}

// ConfigForRoot returns the default controller settings for a store under root
func ConfigForRoot(root string) annotator.Config {
	return annotator.Config{
		ImagesDir:  filepath.Join(root, "Images"),
		LabelsDir:  filepath.Join(root, "Labels"),
		Formats:    []string{"png", "jpg", "jpeg"},
		ExtentMode: normalize.Absolute,
		Save:       types.SaveOptions{Quality: 95, Atomic: true},
	}
}

// New creates an ImageLabeler with the default configuration and creates
// the store directories
func New(opts ...annotator.Option) (*ImageLabeler, error) {
	return NewWithConfig(DefaultConfig(), opts...)
}

// NewWithConfig creates an ImageLabeler with custom settings and creates
// the store directories
func NewWithConfig(cfg annotator.Config, opts ...annotator.Option) (*ImageLabeler, error) {
	ctl := annotator.New(cfg, opts...)
	if err := ctl.Init(); err != nil {
		return nil, fmt.Errorf("failed to create dataset store: %w", err)
	}
	return &ImageLabeler{
		ctl:  ctl,
		proc: processing.NewProcessorWithOptions(cfg.Save),
	}, nil
}

// Controller returns the underlying session controller for front ends
func (l *ImageLabeler) Controller() *annotator.Controller {
	return l.ctl
}

// Open scans folder and loads its first pending image
func (l *ImageLabeler) Open(folder string) error {
	return l.ctl.Open(folder)
}

// Annotate labels rect on the active image
func (l *ImageLabeler) Annotate(rect types.Rect, class string) (annotator.Result, error) {
	return l.ctl.Annotate(rect, class)
}

// Pending returns the images still to annotate
func (l *ImageLabeler) Pending() []string {
	return l.ctl.Pending()
}

// Preview loads the stored copy of imageID and draws its labelled boxes on it
func (l *ImageLabeler) Preview(imageID string) (image.Image, []types.BoundingBox, error) {
	st := l.ctl.Store()
	img, err := l.proc.LoadImage(st.ImagePath(imageID))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load stored image: %w", err)
	}
	boxes, err := st.ReadLabels(imageID)
	if err != nil {
		return nil, nil, err
	}
	return processing.CreateOverlay(img, boxes), boxes, nil
}

// SavePreview writes the Preview of imageID to path; the format follows
// the extension
func (l *ImageLabeler) SavePreview(imageID, path string) ([]types.BoundingBox, error) {
	img, boxes, err := l.Preview(imageID)
	if err != nil {
		return nil, err
	}
	if err := l.proc.SaveImage(img, path); err != nil {
		return nil, fmt.Errorf("failed to save preview: %w", err)
	}
	return boxes, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
