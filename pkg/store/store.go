// Package store persists committed annotations into the dataset store:
// an Images directory holding copies of annotated images and a Labels
// directory holding one append-only label file per image.
package store

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/menta2k/image-labeler/internal/utils"
	"github.com/menta2k/image-labeler/pkg/label"
	"github.com/menta2k/image-labeler/pkg/types"
)

// ImageWriter encodes images to disk
type ImageWriter interface {
	SaveImage(img image.Image, path string) error
}

// Store writes label lines and image copies. The two writes of a commit
// are not transactional.
type Store struct {
	imagesDir string
	labelsDir string
	writer    ImageWriter
	log       *zap.Logger
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a store over the two directories
func New(imagesDir, labelsDir string, writer ImageWriter, opts ...Option) *Store {
	s := &Store{
		imagesDir: imagesDir,
		labelsDir: labelsDir,
		writer:    writer,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init creates both directories; safe to call repeatedly
func (s *Store) Init() error {
	for _, dir := range []string{s.imagesDir, s.labelsDir} {
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// ImagesDir returns the image directory
func (s *Store) ImagesDir() string { return s.imagesDir }

// LabelsDir returns the label directory
func (s *Store) LabelsDir() string { return s.labelsDir }

// ImagePath returns where the copy of imageID is stored
func (s *Store) ImagePath(imageID string) string {
	return filepath.Join(s.imagesDir, filepath.Base(imageID))
}

// LabelPath returns the label file for imageID
func (s *Store) LabelPath(imageID string) string {
	return filepath.Join(s.labelsDir, label.FileName(imageID))
}

// AppendLabel appends one line to the label file of imageID, creating it if needed
func (s *Store) AppendLabel(imageID string, box types.BoundingBox) error {
	path := s.LabelPath(imageID)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open label file: %w", err)
	}
	if _, err := f.WriteString(label.Format(box)); err != nil {
		f.Close()
		return fmt.Errorf("failed to write label: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close label file: %w", err)
	}
	return nil
}

// SaveImage writes img under its original identifier
func (s *Store) SaveImage(imageID string, img image.Image) error {
	if err := s.writer.SaveImage(img, s.ImagePath(imageID)); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// Commit appends the label line, then writes the image. A failure of the
// second step leaves the first in place.
func (s *Store) Commit(imageID string, img image.Image, box types.BoundingBox) error {
	if err := s.AppendLabel(imageID, box); err != nil {
		return err
	}
	if err := s.SaveImage(imageID, img); err != nil {
		s.log.Warn("label written without image", zap.String("image", imageID), zap.Error(err))
		return err
	}
	s.log.Info("annotation committed",
		zap.String("image", imageID),
		zap.String("class", box.Class),
		zap.String("label_file", s.LabelPath(imageID)))
	return nil
}

// ReadLabels returns the boxes stored for imageID; a missing file yields none
func (s *Store) ReadLabels(imageID string) ([]types.BoundingBox, error) {
	boxes, err := label.ReadFile(s.LabelPath(imageID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return boxes, err
}
