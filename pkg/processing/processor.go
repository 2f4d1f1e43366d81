package processing

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/image-labeler/internal/utils"
	"github.com/menta2k/image-labeler/pkg/types"
)

// Processor handles image loading, color normalization and encoding
type Processor struct {
	opts types.SaveOptions
}

// NewProcessor creates a processor with default save options
// (JPEG quality 95, lossy WebP, atomic writes)
func NewProcessor() *Processor {
	return &Processor{opts: types.SaveOptions{Quality: 95, Atomic: true}}
}

// NewProcessorWithOptions creates a processor with custom save options
func NewProcessorWithOptions(opts types.SaveOptions) *Processor {
	if opts.Quality < 1 || opts.Quality > 100 {
		opts.Quality = 95
	}
	return &Processor{opts: opts}
}

// Options returns the save options in use
func (p *Processor) Options() types.SaveOptions { return p.opts }

// LoadImage loads an image from a file path with WebP support
func (p *Processor) LoadImage(path string) (image.Image, error) {
	// Try imaging.Open (registered decoders)
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	// Fallback: explicit WebP decode
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	img, err := p.decodeImageFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// LoadRGB loads an image and normalizes it to opaque RGB
func (p *Processor) LoadRGB(path string) (image.Image, error) {
	img, err := p.LoadImage(path)
	if err != nil {
		return nil, err
	}
	return ToRGB(img), nil
}

// decodeImageFromBytes decodes an image from byte data with WebP support
func (p *Processor) decodeImageFromBytes(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// GetImageInfo returns basic information about an image
func (p *Processor) GetImageInfo(name string, img image.Image) types.ImageInfo {
	b := img.Bounds()
	return types.ImageInfo{Name: name, Width: b.Dx(), Height: b.Dy()}
}

// ToRGB converts any image to 8-bit RGB with the alpha channel dropped.
// Color values are kept as-is rather than composited onto a background.
func ToRGB(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// SaveImage encodes img to path, the encoder being chosen by the extension
func (p *Processor) SaveImage(img image.Image, path string) error {
	if p.opts.Atomic {
		return utils.WriteAtomic(path, func(w io.Writer) error {
			return p.Encode(w, img, filepath.Ext(path))
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := p.Encode(f, img, filepath.Ext(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Encode writes img in the format named by ext (".jpg", "png", "webp", ...)
func (p *Processor) Encode(w io.Writer, img image.Image, ext string) error {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "webp" {
		return webp.Encode(w, img, &webp.Options{Lossless: p.opts.Lossless, Quality: float32(p.opts.Quality)})
	}

	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return fmt.Errorf("unsupported output format: %s", ext)
	}
	return imaging.Encode(w, img, format, imaging.JPEGQuality(p.opts.Quality))
}

// Fit scales img down to fit within maxW x maxH, keeping the aspect ratio.
// Smaller images are returned unscaled.
func Fit(img image.Image, maxW, maxH int) image.Image {
	if maxW <= 0 || maxH <= 0 {
		return img
	}
	return imaging.Fit(img, maxW, maxH, imaging.Box)
}

// CreateOverlay draws every box on a copy of img
func CreateOverlay(img image.Image, boxes []types.BoundingBox) image.Image {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()
	stroke := int(math.Max(2, 0.004*float64(minInt(w, h)))) // ~0.4% of min side

	for i, b := range boxes {
		drawBox(nrgba, b.Box(), w, h, palette[i%len(palette)], stroke)
	}
	return nrgba
}

// DrawRect draws a pixel-space rectangle outline on img in place
func DrawRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA, stroke int) {
	r = r.Canon()
	for s := 0; s < stroke; s++ {
		drawHLine(img, r.Min.Y+s, r.Min.X, r.Max.X, c)
		drawHLine(img, r.Max.Y-1-s, r.Min.X, r.Max.X, c)
		drawVLine(img, r.Min.X+s, r.Min.Y, r.Max.Y, c)
		drawVLine(img, r.Max.X-1-s, r.Min.Y, r.Max.Y, c)
	}
}

var palette = []color.NRGBA{
	{255, 0, 0, 255},
	{0, 255, 0, 255},
	{0, 170, 255, 255},
	{255, 204, 0, 255},
	{255, 0, 255, 255},
}

// Helper functions
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func boxToPixels(box types.Box, w, h int) (int, int, int, int) {
	x0 := int(clamp(box.X, 0, 1)*float64(w) + 0.5)
	y0 := int(clamp(box.Y, 0, 1)*float64(h) + 0.5)
	x1 := int(clamp(box.X+box.W, 0, 1)*float64(w) + 0.5)
	y1 := int(clamp(box.Y+box.H, 0, 1)*float64(h) + 0.5)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return x0, y0, x1, y1
}

func drawBox(img *image.NRGBA, box types.Box, w, h int, c color.NRGBA, stroke int) {
	x0, y0, x1, y1 := boxToPixels(box, w, h)
	DrawRect(img, image.Rect(x0, y0, x1, y1), c, stroke)
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
