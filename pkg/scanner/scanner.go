// Package scanner discovers images that still need annotation.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/menta2k/image-labeler/internal/utils"
)

// Scanner compares a source folder against the destination image store
type Scanner struct {
	exts []string
}

// New creates a Scanner for the default formats (png, jpg, jpeg)
func New() *Scanner {
	return &Scanner{exts: utils.DefaultImageExts}
}

// NewWithFormats creates a Scanner accepting the given extensions
func NewWithFormats(exts []string) *Scanner {
	if len(exts) == 0 {
		return New()
	}
	return &Scanner{exts: append([]string(nil), exts...)}
}

// Formats returns the accepted extensions
func (s *Scanner) Formats() []string {
	return append([]string(nil), s.exts...)
}

// Scan returns the sorted names of supported images in src that are not
// yet present in dst. An empty result is not an error. A missing dst is
// treated as an empty store.
func (s *Scanner) Scan(src, dst string) ([]string, error) {
	source, err := utils.ListImageFiles(src, s.exts)
	if err != nil {
		return nil, fmt.Errorf("failed to list source folder: %w", err)
	}

	stored, err := utils.ListImageFiles(dst, s.exts)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to list image store: %w", err)
	}

	done := make(map[string]struct{}, len(stored))
	for _, name := range stored {
		done[name] = struct{}{}
	}

	pending := make([]string, 0, len(source))
	for _, name := range source {
		if _, ok := done[name]; !ok {
			pending = append(pending, name)
		}
	}
	sort.Strings(pending)
	return pending, nil
}
