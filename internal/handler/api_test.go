package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"cropfolder/internal/dto"
	"cropfolder/internal/testutil"
)

func TestImagesHandler(t *testing.T) {
	env := setupEnv(t, "a.png", "b.png")

	rr := httptest.NewRecorder()
	ImagesHandler(env.manager)(rr, httptest.NewRequest(http.MethodGet, "/api/images", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var list dto.ImageList
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(list.Images) != 2 || list.Images[0] != "a.png" || list.CurrentIndex != 0 {
		t.Errorf("Unexpected response %+v", list)
	}
}

func TestImagesHandler_MethodNotAllowed(t *testing.T) {
	env := setupEnv(t, "a.png")

	rr := httptest.NewRecorder()
	ImagesHandler(env.manager)(rr, httptest.NewRequest(http.MethodPost, "/api/images", nil))

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rr.Code)
	}
}

func TestCurrentHandler(t *testing.T) {
	env := setupEnv(t, "a.png", "b.png", "c.png")
	env.manager.GetSession().Advance()

	rr := httptest.NewRecorder()
	CurrentHandler(env.manager)(rr, httptest.NewRequest(http.MethodGet, "/api/current", nil))

	var state dto.ImageState
	if err := json.NewDecoder(rr.Body).Decode(&state); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if state.Filename != "b.png" || state.Index != 1 || state.Total != 3 {
		t.Errorf("Unexpected response %+v", state)
	}
}

func TestCurrentHandler_Empty(t *testing.T) {
	env := setupEnv(t)

	rr := httptest.NewRecorder()
	CurrentHandler(env.manager)(rr, httptest.NewRequest(http.MethodGet, "/api/current", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
	var body dto.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil || body.Error == "" {
		t.Errorf("Expected error body, got %q (%v)", body.Error, err)
	}
}

func TestImageFileHandler(t *testing.T) {
	env := setupEnv(t, "a.png", "b file.png")
	if err := os.WriteFile(env.folder.SourcePath("notes.txt"), []byte("private"), 0644); err != nil {
		t.Fatalf("Failed to write notes: %v", err)
	}
	if err := os.WriteFile(env.folder.OutputPath("a_1.png"), []byte("output"), 0644); err != nil {
		t.Fatalf("Failed to write output: %v", err)
	}

	tests := []struct {
		path   string
		status int
	}{
		{"/images/a.png", http.StatusOK},
		{"/images/b%20file.png", http.StatusOK},
		{"/images/", http.StatusNotFound},
		{"/images/notes.txt", http.StatusNotFound},
		{"/images/cropped/a_1.png", http.StatusNotFound},
		{"/images/cropped/", http.StatusNotFound},
		{"/images/../a.png", http.StatusNotFound},
	}

	for _, tt := range tests {
		rr := httptest.NewRecorder()
		ImageFileHandler(env.manager)(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))

		if rr.Code != tt.status {
			t.Errorf("GET %s: expected status %d, got %d", tt.path, tt.status, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	ImageFileHandler(env.manager)(rr, httptest.NewRequest(http.MethodGet, "/images/a.png", nil))
	if rr.Header().Get("Content-Type") != "image/png" {
		t.Errorf("Expected image/png, got %q", rr.Header().Get("Content-Type"))
	}
}

func TestOrientationHandler(t *testing.T) {
	env := setupEnv(t, "a.png")

	rr := httptest.NewRecorder()
	OrientationHandler(env.manager, env.processor, env.logger)(rr, httptest.NewRequest(http.MethodGet, "/api/orientation", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var raw map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&raw); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if raw["width"] != float64(200) || raw["height"] != float64(100) || raw["format"] != "png" {
		t.Errorf("Unexpected response %v", raw)
	}
	if raw["orientationAngle"] != float64(0) {
		t.Errorf("Expected orientationAngle 0, got %v", raw["orientationAngle"])
	}
	if _, ok := raw["orientation"]; ok {
		t.Errorf("Expected no orientation field without EXIF, got %v", raw["orientation"])
	}
}

func TestOrientationHandler_EXIFOrientation(t *testing.T) {
	env := setupEnv(t, "o.jpg")
	testutil.WriteJPEGWithOrientation(t, env.folder.Root(), "o.jpg", 80, 40, 6)

	rr := httptest.NewRecorder()
	OrientationHandler(env.manager, env.processor, env.logger)(rr, httptest.NewRequest(http.MethodGet, "/api/orientation", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var info dto.OrientationInfo
	if err := json.NewDecoder(rr.Body).Decode(&info); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if info.Orientation == nil || *info.Orientation != 6 {
		t.Errorf("Expected orientation 6, got %v", info.Orientation)
	}
	if info.OrientationAngle != 90 {
		t.Errorf("Expected orientationAngle 90, got %d", info.OrientationAngle)
	}
	if info.Width != 80 || info.Height != 40 || info.Format != "jpeg" {
		t.Errorf("Unexpected response %+v", info)
	}
}

func TestOrientationHandler_DecodeError(t *testing.T) {
	env := setupEnv(t, "a.png")
	if err := os.WriteFile(env.folder.SourcePath("a.png"), []byte("not an image"), 0644); err != nil {
		t.Fatalf("Failed to overwrite image: %v", err)
	}

	rr := httptest.NewRecorder()
	OrientationHandler(env.manager, env.processor, env.logger)(rr, httptest.NewRequest(http.MethodGet, "/api/orientation", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rr.Code)
	}
}

func TestOrientationHandler_Empty(t *testing.T) {
	env := setupEnv(t)

	rr := httptest.NewRecorder()
	OrientationHandler(env.manager, env.processor, env.logger)(rr, httptest.NewRequest(http.MethodGet, "/api/orientation", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}
