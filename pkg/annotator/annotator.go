// Package annotator is the session controller of the labeling tool. It
// turns folder selections, navigation and pointer events coming from a
// front end into scans, label lines and image copies, and reports
// everything the user should see through a Notifier.
//
// A Controller is not safe for concurrent use; front ends deliver events
// one at a time.
package annotator

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/menta2k/image-labeler/pkg/capture"
	"github.com/menta2k/image-labeler/pkg/normalize"
	"github.com/menta2k/image-labeler/pkg/processing"
	"github.com/menta2k/image-labeler/pkg/scanner"
	"github.com/menta2k/image-labeler/pkg/session"
	"github.com/menta2k/image-labeler/pkg/store"
	"github.com/menta2k/image-labeler/pkg/types"
)

// Config holds what a Controller needs to know about the dataset store
type Config struct {
	ImagesDir  string
	LabelsDir  string
	Formats    []string
	ExtentMode normalize.ExtentMode
	Save       types.SaveOptions
}

// Result describes what happened to a drawn rectangle
type Result struct {
	Outcome capture.Outcome   `json:"-"`
	Image   string            `json:"image,omitempty"`
	Box     types.BoundingBox `json:"box"`
}

// Controller owns the annotation session
type Controller struct {
	scanner  *scanner.Scanner
	session  *session.Session
	capture  *capture.Capture
	store    *store.Store
	proc     *processing.Processor
	mode     normalize.ExtentMode
	notifier Notifier
	prompter Prompter
	log      *zap.Logger

	image image.Image
}

// Option configures a Controller
type Option func(*Controller)

// WithNotifier sets where notices go; the default drops them
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithPrompter sets a blocking class-name prompt. Without one, PointerUp
// leaves the capture awaiting a call to Label.
func WithPrompter(p Prompter) Option {
	return func(c *Controller) { c.prompter = p }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a Controller. Call Init before the first Open.
func New(cfg Config, opts ...Option) *Controller {
	c := &Controller{
		session:  &session.Session{},
		capture:  capture.New(),
		mode:     cfg.ExtentMode,
		notifier: NotifierFunc(func(Notice) {}),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.scanner = scanner.NewWithFormats(cfg.Formats)
	c.proc = processing.NewProcessorWithOptions(cfg.Save)
	c.store = store.New(cfg.ImagesDir, cfg.LabelsDir, c.proc, store.WithLogger(c.log))
	return c
}

// Init creates the dataset directories
func (c *Controller) Init() error {
	return c.store.Init()
}

// Store returns the persistence layer
func (c *Controller) Store() *store.Store { return c.store }

// Open selects a source folder and loads the first pending image
func (c *Controller) Open(folder string) error {
	pending, err := c.scanner.Scan(folder, c.store.ImagesDir())
	if err != nil {
		c.notify(Error, "Error", fmt.Sprintf("Cannot read folder: %v", err))
		return err
	}

	c.session.Reset(folder, pending)
	c.log.Info("folder opened", zap.String("folder", folder), zap.Int("pending", len(pending)))

	if c.session.Empty() {
		c.unload()
		c.notify(Info, "No New Images", "No new images to process.")
		return nil
	}
	return c.show()
}

// Next advances to the following image
func (c *Controller) Next() (session.Move, error) {
	return c.navigate(c.session.Advance, "End", "You are at the last image.")
}

// Prev goes back to the previous image
func (c *Controller) Prev() (session.Move, error) {
	return c.navigate(c.session.Retreat, "Start", "You are already at the first image.")
}

func (c *Controller) navigate(step func() (session.Move, error), title, boundary string) (session.Move, error) {
	m, err := step()
	if err != nil {
		c.notify(Error, "Error", "No images loaded.")
		return m, err
	}
	if m.AtBoundary {
		c.notify(Info, title, boundary)
	}
	return m, c.show()
}

// show loads the active image and re-arms the capture
func (c *Controller) show() error {
	name, ok := c.session.Current()
	if !ok {
		c.unload()
		return nil
	}

	img, err := c.proc.LoadRGB(filepath.Join(c.session.Folder(), name))
	if err != nil {
		c.unload()
		c.log.Error("image load failed", zap.String("image", name), zap.Error(err))
		c.notify(Error, "Error", fmt.Sprintf("Cannot open %s: %v", name, err))
		return err
	}

	b := img.Bounds()
	c.image = img
	c.session.SetDimensions(b.Dx(), b.Dy())
	c.capture.Arm(true)
	c.log.Debug("image shown", zap.String("image", name), zap.Int("width", b.Dx()), zap.Int("height", b.Dy()))
	return nil
}

func (c *Controller) unload() {
	c.image = nil
	c.capture.Arm(false)
}

// Current returns the active image, if one is loaded
func (c *Controller) Current() (types.ImageInfo, bool) {
	name, ok := c.session.Current()
	if !ok || c.image == nil {
		return types.ImageInfo{}, false
	}
	w, h := c.session.Dimensions()
	return types.ImageInfo{Name: name, Width: w, Height: h}, true
}

// Image returns the pixel buffer of the active image, nil if none
func (c *Controller) Image() image.Image { return c.image }

// Folder returns the selected source folder
func (c *Controller) Folder() string { return c.session.Folder() }

// Pending returns the images still to annotate
func (c *Controller) Pending() []string { return c.session.Images() }

// Index returns the cursor, -1 when nothing is pending
func (c *Controller) Index() int { return c.session.Index() }

// State returns the capture state
func (c *Controller) State() capture.State { return c.capture.State() }

// Rect returns the rectangle being drawn, for rendering
func (c *Controller) Rect() (types.Rect, bool) { return c.capture.Rect() }

// Labels returns the boxes already stored for the active image
func (c *Controller) Labels() ([]types.BoundingBox, error) {
	name, ok := c.session.Current()
	if !ok {
		return nil, nil
	}
	return c.store.ReadLabels(name)
}

// PointerDown starts a rectangle; a no-op when no image is loaded
func (c *Controller) PointerDown(p types.Point) bool { return c.capture.Down(p) }

// PointerMove updates the rectangle being drawn
func (c *Controller) PointerMove(p types.Point) bool { return c.capture.Move(p) }

// PointerUp freezes the rectangle. With a Prompter the class name is asked
// for immediately; otherwise the front end must call Label.
func (c *Controller) PointerUp(ctx context.Context, p types.Point) (Result, error) {
	if !c.capture.Up(p) {
		return Result{}, nil
	}
	if c.prompter == nil {
		return Result{}, nil
	}
	class, ok := c.prompter.PromptClass(ctx)
	return c.Label(class, ok)
}

// Label answers the class-name prompt for the frozen rectangle
func (c *Controller) Label(class string, ok bool) (Result, error) {
	rect, name, out := c.capture.Resolve(class, ok)
	switch out {
	case capture.None:
		return Result{}, nil
	case capture.Discarded:
		err := capture.ErrEmptyClass
		if ok {
			if _, cerr := capture.CheckClass(class); cerr != nil {
				err = cerr
			}
		}
		if errors.Is(err, capture.ErrInvalidClass) {
			c.notify(Warning, "Error", "Class name cannot contain line breaks.")
		} else {
			c.notify(Warning, "Error", "Class name cannot be empty.")
		}
		return Result{Outcome: capture.Discarded}, err
	}
	return c.commit(rect, name)
}

// Annotate draws and labels a rectangle in one step. A rectangle still
// waiting for its class name is dropped first.
func (c *Controller) Annotate(rect types.Rect, class string) (Result, error) {
	if c.capture.State() != capture.Idle {
		c.capture.Reset()
	}
	if !c.capture.Down(rect.Anchor) {
		c.notify(Error, "Error", "No images loaded.")
		return Result{}, session.ErrNoImages
	}
	c.capture.Up(rect.Current)
	return c.Label(class, true)
}

func (c *Controller) commit(rect types.Rect, class string) (Result, error) {
	name, _ := c.session.Current()
	w, h := c.session.Dimensions()

	box, err := normalize.Normalize(rect, class, w, h, c.mode)
	if err != nil {
		c.notify(Error, "Error", err.Error())
		return Result{}, err
	}
	if !box.Valid() {
		c.log.Warn("box extends past image bounds", zap.String("image", name), zap.Any("box", box))
	}

	if err := c.store.Commit(name, c.image, box); err != nil {
		c.notify(Error, "Save Failed", fmt.Sprintf("Could not save annotation for %s: %v", name, err))
		return Result{}, err
	}

	c.session.Remove(name)
	c.notify(Info, "Label Added", "Label added: "+class)
	if c.session.Empty() {
		c.notify(Info, "End", "All images have been processed.")
	}
	return Result{Outcome: capture.Committed, Image: name, Box: box}, nil
}

func (c *Controller) notify(level Level, title, text string) {
	c.notifier.Notify(Notice{Level: level, Title: title, Text: text})
}

// IsUserError reports whether err is a user-input error rather than an I/O failure
func IsUserError(err error) bool {
	return errors.Is(err, session.ErrNoImages) ||
		errors.Is(err, capture.ErrEmptyClass) ||
		errors.Is(err, capture.ErrInvalidClass)
}
