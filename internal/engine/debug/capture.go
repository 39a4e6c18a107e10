// Package debug provides debug visualization utilities.
package debug

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/bmp"

	"github.com/Faultbox/terrastream/internal/engine/noise"
)

// Format is an image encoding for height field captures.
type Format int

const (
	FormatPNG Format = iota
	FormatBMP
)

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	if f == FormatBMP {
		return ".bmp"
	}
	return ".png"
}

// FormatFromPath picks a format by file extension. Anything other than
// .bmp is PNG.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".bmp") {
		return FormatBMP
	}
	return FormatPNG
}

// HeightmapCapture writes height fields as grayscale images.
type HeightmapCapture struct {
	outputDir string
	prefix    string
	format    Format
}

// NewHeightmapCapture creates a new height field capture handler.
func NewHeightmapCapture(outputDir, prefix string) *HeightmapCapture {
	return &HeightmapCapture{
		outputDir: outputDir,
		prefix:    prefix,
	}
}

// SetOutputDir sets the output directory for captures.
func (hc *HeightmapCapture) SetOutputDir(dir string) {
	hc.outputDir = dir
}

// SetFormat sets the image encoding for captures.
func (hc *HeightmapCapture) SetFormat(f Format) {
	hc.format = f
}

// Capture saves hf under a timestamped filename and returns the path.
func (hc *HeightmapCapture) Capture(hf *noise.HeightField) (string, error) {
	return hc.CaptureNamed(hf, time.Now().Format("2006-01-02_15-04-05"))
}

// CaptureNamed saves hf as <prefix>_<name> plus the format extension and
// returns the path.
func (hc *HeightmapCapture) CaptureNamed(hf *noise.HeightField, name string) (string, error) {
	// Create output directory if needed
	if hc.outputDir != "" {
		if err := os.MkdirAll(hc.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := fmt.Sprintf("%s_%s%s", hc.prefix, name, hc.format.Ext())
	if hc.outputDir != "" {
		filename = filepath.Join(hc.outputDir, filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := Encode(file, hf, hc.format); err != nil {
		return "", err
	}
	return filename, nil
}

// Encode writes hf as a grayscale image in format f.
func Encode(w io.Writer, hf *noise.HeightField, f Format) error {
	if f == FormatBMP {
		return WriteBMP(w, hf)
	}
	return WritePNG(w, hf)
}

// WritePNG encodes hf as a grayscale PNG.
func WritePNG(w io.Writer, hf *noise.HeightField) error {
	if hf.Width() == 0 || hf.Height() == 0 {
		return fmt.Errorf("encoding PNG: empty height field")
	}
	if err := png.Encode(w, HeightFieldImage(hf)); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}

// WriteBMP encodes hf as an 8-bit grayscale BMP.
func WriteBMP(w io.Writer, hf *noise.HeightField) error {
	if hf.Width() == 0 || hf.Height() == 0 {
		return fmt.Errorf("encoding BMP: empty height field")
	}
	if err := bmp.Encode(w, HeightFieldImage(hf)); err != nil {
		return fmt.Errorf("encoding BMP: %w", err)
	}
	return nil
}

// HeightFieldImage maps heights in [0, 1] from black to white.
// Column x of the field is pixel column x.
func HeightFieldImage(hf *noise.HeightField) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, hf.Width(), hf.Height()))
	for y := range hf.Height() {
		for x := range hf.Width() {
			img.SetGray(x, y, color.Gray{Y: grayLevel(hf.At(x, y))})
		}
	}
	return img
}

func grayLevel(h float32) uint8 {
	switch {
	case h <= 0:
		return 0
	case h >= 1:
		return 255
	default:
		return uint8(h*255 + 0.5)
	}
}
