package crop

import (
	"errors"
	"fmt"

	"cropfolder/internal/model"
)

// ErrInvalidCropDimensions means the rectangle lies outside the image after clamping.
var ErrInvalidCropDimensions = errors.New("invalid crop dimensions: the crop area is outside the image bounds")

// Clamp fits r into an image of width x height processed pixels. The origin
// is clamped to zero and the size trimmed to the image edge; a rectangle left
// with no area is rejected.
func Clamp(width, height int, r model.Rect) (model.Rect, error) {
	out := model.Rect{
		X: max(0, r.X),
		Y: max(0, r.Y),
	}
	out.Width = min(width-out.X, r.Width)
	out.Height = min(height-out.Y, r.Height)

	if out.Width <= 0 || out.Height <= 0 {
		return out, fmt.Errorf("%w: requested %s, adjusted %s on %dx%d image",
			ErrInvalidCropDimensions, r, out, width, height)
	}
	return out, nil
}
