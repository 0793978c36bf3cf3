package routes

import (
	"net/http"

	"cropfolder/internal/handler"
	"cropfolder/internal/logger"
	"cropfolder/internal/middleware"
	"cropfolder/internal/service"
	"cropfolder/web"
)

var logFiles = map[string]string{
	"info":    logger.InfoFile,
	"warning": logger.WarningFile,
	"error":   logger.ErrorFile,
}

// SetupRoutes registers the API, image, realtime and log endpoints plus the
// embedded UI, and wraps the mux with request logging.
func SetupRoutes(manager *service.Manager, decoder handler.MetadataDecoder, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/images", handler.ImagesHandler(manager))
	mux.HandleFunc("/api/current", handler.CurrentHandler(manager))
	mux.HandleFunc("/api/orientation", handler.OrientationHandler(manager, decoder, logger))

	// Source images of the session
	mux.HandleFunc("/images/", handler.ImageFileHandler(manager))

	// Realtime channel
	mux.HandleFunc("/ws", handler.ViewWebsocketHandler(manager, logger))

	// Log endpoints
	for name, file := range logFiles {
		mux.HandleFunc("/logs/"+name, handler.ShowLogsHandler(logger, file))
		mux.HandleFunc("/logs/"+name+"/clear", handler.ClearLogsHandler(logger, file))
	}

	mux.Handle("/", web.Handler())

	return middleware.LoggingMiddleware(logger)(mux)
}
