// Package label encodes bounding boxes in the line-oriented label format:
// one object per line, "class x_center y_center width height", floats
// written with six decimals.
package label

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/menta2k/image-labeler/pkg/types"
)

// Ext is the extension of label files
const Ext = ".txt"

// ErrMalformed is returned for lines that do not have five fields
var ErrMalformed = errors.New("malformed label line")

// FileName returns the label file name for an image identifier
func FileName(imageID string) string {
	base := filepath.Base(imageID)
	return strings.TrimSuffix(base, filepath.Ext(base)) + Ext
}

// Format renders a box as one label line, including the trailing newline.
// Whitespace inside the class, line breaks included, is written as single
// spaces so the line parses back to the same class.
func Format(b types.BoundingBox) string {
	class := strings.Join(strings.Fields(b.Class), " ")
	return fmt.Sprintf("%s %.6f %.6f %.6f %.6f\n", class, b.XCenter, b.YCenter, b.Width, b.Height)
}

// Parse parses one label line. The class is everything before the last four fields.
func Parse(line string) (types.BoundingBox, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return types.BoundingBox{}, fmt.Errorf("%w: %q", ErrMalformed, line)
	}

	n := len(fields)
	var vals [4]float64
	for i, f := range fields[n-4:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return types.BoundingBox{}, fmt.Errorf("%w: field %d: %v", ErrMalformed, n-4+i+1, err)
		}
		vals[i] = v
	}

	return types.BoundingBox{
		Class:   strings.Join(fields[:n-4], " "),
		XCenter: vals[0],
		YCenter: vals[1],
		Width:   vals[2],
		Height:  vals[3],
	}, nil
}

// ReadFile parses every non-blank line of a label file
func ReadFile(path string) ([]types.BoundingBox, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var boxes []types.BoundingBox
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		b, err := Parse(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		boxes = append(boxes, b)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read label file: %w", err)
	}
	return boxes, nil
}
