package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"cropfolder/internal/dto"
	"cropfolder/internal/logger"
	"cropfolder/internal/model"
	"cropfolder/internal/service"
)

// MetadataDecoder reads image dimensions and orientation without decoding pixels.
type MetadataDecoder interface {
	DecodeMetadata(path string) (model.ImageMetadata, error)
}

// ImagesHandler returns the image list of the target folder and the current index.
func ImagesHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		images, index := manager.GetSession().Images()
		writeJSON(w, http.StatusOK, dto.ImageList{Images: images, CurrentIndex: index})
	}
}

// CurrentHandler returns the displayed image, or 404 when the folder is empty.
func CurrentHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		state, err := manager.GetSession().Current()
		if err != nil {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "No images found"})
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

// OrientationHandler reports the stored size, format and EXIF orientation of
// the displayed image.
func OrientationHandler(manager *service.Manager, decoder MetadataDecoder, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		state, err := manager.GetSession().Current()
		if err != nil {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "No images found"})
			return
		}

		path := manager.GetCropper().Folder().SourcePath(state.Filename)
		meta, err := decoder.DecodeMetadata(path)
		if err != nil {
			logger.Error("Error reading orientation of %s: %v", state.Filename, err)
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
			return
		}

		info := dto.OrientationInfo{
			Width:            meta.Width,
			Height:           meta.Height,
			OrientationAngle: meta.OrientationAngle(),
			Format:           meta.Format,
		}
		if meta.Orientation != 0 {
			orientation := meta.Orientation
			info.Orientation = &orientation
		}
		writeJSON(w, http.StatusOK, info)
	}
}

// ImageFileHandler serves the source images of the session under /images/.
// Anything else in the target folder, including the output subfolder, is
// not reachable.
func ImageFileHandler(manager *service.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		filename := strings.TrimPrefix(r.URL.Path, "/images/")
		if !manager.GetSession().Contains(filename) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, manager.GetCropper().Folder().SourcePath(filename))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
