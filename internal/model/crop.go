package model

import (
	"encoding/json"
	"fmt"
	"image"
	"strconv"
	"strings"
)

// Rect is a crop rectangle in pixel units of the processed image.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rectangle converts r to an image.Rectangle.
func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// SubName is the per-crop name fragment. The browser may send it as a
// string or as the crop's ordinal number.
type SubName string

// UnmarshalJSON accepts strings, numbers and null.
func (s *SubName) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*s = ""
		return nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = SubName(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("subName must be a string or a number: %w", err)
	}
	if i, err := num.Int64(); err == nil {
		*s = SubName(strconv.FormatInt(i, 10))
		return nil
	}
	*s = SubName(num.String())
	return nil
}

// CropRequest is one user-specified rectangle plus its naming fields.
type CropRequest struct {
	Rect
	Index       *int    `json:"index,omitempty"`
	SubName     SubName `json:"subName,omitempty"`
	Description string  `json:"description,omitempty"`
}

// CropBatch covers one source image and one or more rectangles.
type CropBatch struct {
	Filename   string        `json:"filename"`
	Angle      float64       `json:"angle"`
	Crops      []CropRequest `json:"crops"`
	GlobalName string        `json:"globalName"`
}

// ProcessedImageInfo holds the dimensions after EXIF and user rotation.
type ProcessedImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ImageMetadata describes a source file as stored on disk.
type ImageMetadata struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Orientation int    `json:"orientation,omitempty"`
	Format      string `json:"format"`
}

// OrientationAngle translates the EXIF orientation tag into degrees.
func (m ImageMetadata) OrientationAngle() int {
	switch m.Orientation {
	case 3:
		return 180
	case 6:
		return 90
	case 8:
		return -90
	default:
		return 0
	}
}
