// Package crop turns crop rectangles drawn in the browser into files in the
// output subfolder of the target folder.
package crop

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cropfolder/internal/logger"
	"cropfolder/internal/model"
	"cropfolder/internal/service/storage"

	"github.com/docker/go-units"
)

// ErrNoCrops is returned for a batch without rectangles.
var ErrNoCrops = errors.New("no crop regions defined")

// ErrInvalidFilename is returned when a request names a file outside the folder.
var ErrInvalidFilename = errors.New("invalid source filename")

// Processor is the image library the cropper delegates pixel work to.
type Processor interface {
	DecodeMetadata(path string) (model.ImageMetadata, error)
	Load(path string) (image.Image, error)
	Rotate(img image.Image, angle float64, fill color.Color) image.Image
	Extract(img image.Image, r image.Rectangle) image.Image
	Save(img image.Image, path string) error
}

// folderLocks serializes crop operations per output folder so that the
// on-disk uniqueness probe and the write that follows cannot interleave.
var folderLocks sync.Map

func lockFor(dir string) *sync.Mutex {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	mu, _ := folderLocks.LoadOrStore(dir, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Skipped records a rectangle dropped from a batch.
type Skipped struct {
	Position int
	Request  model.Rect
	Reason   error
}

// Result summarizes one crop operation.
type Result struct {
	Saved     []string
	Skipped   []Skipped
	Total     int
	Processed model.ProcessedImageInfo
}

// Message is the text reported back to the browser.
func (r *Result) Message(outputName string) string {
	return fmt.Sprintf("%d of %d crops saved to %s/ folder", len(r.Saved), r.Total, outputName)
}

// Cropper runs crop batches against one target folder.
type Cropper struct {
	processor Processor
	folder    *storage.Folder
	logger    *logger.Logger
	fill      color.Color
}

// NewCropper creates a Cropper writing into folder's output subfolder.
func NewCropper(processor Processor, folder *storage.Folder, logger *logger.Logger) *Cropper {
	return &Cropper{
		processor: processor,
		folder:    folder,
		logger:    logger,
		fill:      color.Transparent,
	}
}

// Folder returns the folder the cropper writes to.
func (c *Cropper) Folder() *storage.Folder {
	return c.folder
}

// CropBatch extracts every rectangle of batch from the processed source
// image. Rectangles outside the image are skipped; decode and write errors
// abort the batch.
func (c *Cropper) CropBatch(batch model.CropBatch) (*Result, error) {
	if len(batch.Crops) == 0 {
		return nil, ErrNoCrops
	}
	if err := checkFilename(batch.Filename); err != nil {
		return nil, err
	}

	mu := lockFor(c.folder.OutputDir())
	mu.Lock()
	defer mu.Unlock()

	start := time.Now()
	processed, err := c.prepare(batch.Filename, batch.Angle)
	if err != nil {
		return nil, err
	}

	bounds := processed.Bounds()
	result := &Result{
		Total:     len(batch.Crops),
		Processed: model.ProcessedImageInfo{Width: bounds.Dx(), Height: bounds.Dy()},
	}
	c.logger.Info("Dimensions after rotation: %dx%d", bounds.Dx(), bounds.Dy())

	ext := filepath.Ext(batch.Filename)
	namer := NewNamer(batch.GlobalName, BaseName(batch.Filename))

	for i, req := range batch.Crops {
		base := namer.Next(i, req)

		rect, err := Clamp(bounds.Dx(), bounds.Dy(), req.Rect)
		if err != nil {
			c.logger.Warning("Skipping crop %d: %v", i+1, err)
			result.Skipped = append(result.Skipped, Skipped{Position: i, Request: req.Rect, Reason: err})
			continue
		}

		filename := c.folder.UniqueFilename(base, ext)
		if err := c.write(processed, rect, filename); err != nil {
			return result, err
		}
		result.Saved = append(result.Saved, filename)
		c.logger.Info("Created crop %d: %s (%s)", i+1, filename, rect)
	}

	c.logger.Info("Batch %s: %s in %s", batch.Filename, result.Message(c.folder.OutputName()),
		units.HumanDuration(time.Since(start)))
	return result, nil
}

// CropSingle crops one rectangle and names the output after the source file.
// Unlike CropBatch it fails when the rectangle lies outside the image.
func (c *Cropper) CropSingle(filename string, r model.Rect, angle float64) (string, error) {
	if err := checkFilename(filename); err != nil {
		return "", err
	}

	mu := lockFor(c.folder.OutputDir())
	mu.Lock()
	defer mu.Unlock()

	processed, err := c.prepare(filename, angle)
	if err != nil {
		return "", err
	}

	bounds := processed.Bounds()
	c.logger.Info("Single crop - dimensions after rotation: %dx%d", bounds.Dx(), bounds.Dy())

	rect, err := Clamp(bounds.Dx(), bounds.Dy(), r)
	if err != nil {
		return "", err
	}

	output := c.folder.UniqueFilename(BaseName(filename), filepath.Ext(filename))
	if err := c.write(processed, rect, output); err != nil {
		return "", err
	}
	c.logger.Info("Successfully cropped to %s", c.folder.OutputPath(output))
	return output, nil
}

// prepare loads the source, applies EXIF orientation and then the user angle.
func (c *Cropper) prepare(filename string, angle float64) (image.Image, error) {
	path := c.folder.SourcePath(filename)

	meta, err := c.processor.DecodeMetadata(path)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Image metadata for %s: %dx%d orientation=%d format=%s",
		filename, meta.Width, meta.Height, meta.Orientation, meta.Format)

	img, err := c.processor.Load(path)
	if err != nil {
		return nil, err
	}
	return c.processor.Rotate(img, angle, c.fill), nil
}

func (c *Cropper) write(processed image.Image, rect model.Rect, filename string) error {
	path := c.folder.OutputPath(filename)
	region := c.processor.Extract(processed, rect.Rectangle())

	if err := c.processor.Save(region, path); err != nil {
		return fmt.Errorf("%w: write %s: %v", storage.ErrFilesystem, filename, err)
	}

	if info, err := os.Stat(path); err == nil {
		c.logger.Info("Wrote %s (%s)", filename, units.HumanSize(float64(info.Size())))
	}
	return nil
}

func checkFilename(filename string) error {
	if filename == "" || filename == "." || filename == ".." || filepath.Base(filename) != filename {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	return nil
}
