package dto

// ImageState identifies the displayed image. Sent by /api/current and the
// image-changed event.
type ImageState struct {
	Filename string `json:"filename"`
	Index    int    `json:"index"`
	Total    int    `json:"total"`
}

// ImageList is the /api/images response.
type ImageList struct {
	Images       []string `json:"images"`
	CurrentIndex int      `json:"currentIndex"`
}

// OrientationInfo is the /api/orientation response.
type OrientationInfo struct {
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	Orientation      *int   `json:"orientation,omitempty"`
	OrientationAngle int    `json:"orientationAngle"`
	Format           string `json:"format"`
}

// ErrorResponse is the JSON body of failed API requests.
type ErrorResponse struct {
	Error string `json:"error"`
}
