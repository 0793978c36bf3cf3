// Package imageproc decodes, orients, rotates, crops and encodes images on disk.
package imageproc

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cropfolder/internal/model"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp"
)

// ErrDecode is returned when a file cannot be read as an image.
var ErrDecode = errors.New("cannot decode image")

// ErrUnsupportedFormat is returned when an output extension has no encoder.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Options controls encoder quality.
type Options struct {
	JPEGQuality int
	WebPQuality int
}

// Processor handles image processing operations.
type Processor struct {
	options Options
}

// NewProcessor creates a Processor with the given encoder options.
func NewProcessor(options Options) *Processor {
	if options.JPEGQuality <= 0 {
		options.JPEGQuality = 90
	}
	if options.WebPQuality <= 0 {
		options.WebPQuality = 90
	}
	return &Processor{options: options}
}

// DecodeMetadata reports the stored dimensions, format and EXIF orientation
// of the file without decoding its pixels.
func (p *Processor) DecodeMetadata(path string) (model.ImageMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.ImageMetadata{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return model.ImageMetadata{}, fmt.Errorf("%w: %s: %v", ErrDecode, filepath.Base(path), err)
	}

	meta := model.ImageMetadata{
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
	}

	if _, err := f.Seek(0, io.SeekStart); err == nil {
		meta.Orientation = readOrientation(f)
	}
	return meta, nil
}

// Load decodes the file and applies its EXIF orientation.
func (p *Processor) Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, filepath.Base(path), err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return img, nil
	}
	return ApplyOrientation(img, readOrientation(f)), nil
}

// Rotate turns img clockwise by angle degrees. The canvas grows to fit and
// exposed corners are filled with fill.
func (p *Processor) Rotate(img image.Image, angle float64, fill color.Color) image.Image {
	if angle == 0 {
		return img
	}
	// imaging rotates counter-clockwise.
	return imaging.Rotate(img, -angle, fill)
}

// Extract copies the region r out of img.
func (p *Processor) Extract(img image.Image, r image.Rectangle) image.Image {
	b := img.Bounds()
	return imaging.Crop(img, r.Add(b.Min))
}

// Save encodes img in the format implied by the extension of path.
func (p *Processor) Save(img image.Image, path string) error {
	ext := strings.ToLower(filepath.Ext(path))

	if ext == ".webp" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		opts := &webp.Options{Quality: float32(p.options.WebPQuality)}
		if err := webp.Encode(f, img, opts); err != nil {
			f.Close()
			return fmt.Errorf("encode webp: %w", err)
		}
		return f.Close()
	}

	if _, err := imaging.FormatFromExtension(ext); err != nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return imaging.Save(img, path, imaging.JPEGQuality(p.options.JPEGQuality))
}

// ApplyOrientation transforms img so that an image tagged with the given EXIF
// orientation (1-8) is displayed upright.
func ApplyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// readOrientation returns the EXIF orientation tag or 0 when absent.
func readOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 0
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0
	}
	orientation, err := tag.Int(0)
	if err != nil || orientation < 1 || orientation > 8 {
		return 0
	}
	return orientation
}
