package dto

import (
	"encoding/json"

	"cropfolder/internal/model"
)

// Realtime event names.
const (
	EventNextImage    = "next-image"
	EventPrevImage    = "prev-image"
	EventImageChanged = "image-changed"
	EventCropImage    = "crop-image"
	EventCropMultiple = "crop-multiple"
	EventCropSuccess  = "crop-success"
	EventCropError    = "crop-error"
)

// Envelope wraps every realtime message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals data into an envelope for event.
func NewEnvelope(event string, data any) (Envelope, error) {
	if data == nil {
		return Envelope{Event: event}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: raw}, nil
}

// CropImageRequest is the payload of the legacy crop-image event.
type CropImageRequest struct {
	model.Rect
	Angle float64 `json:"angle"`
}

// CropSuccess is the payload of crop-success.
type CropSuccess struct {
	Message string   `json:"message"`
	Files   []string `json:"files,omitempty"`
}

// CropError is the payload of crop-error.
type CropError struct {
	Error string `json:"error"`
}
