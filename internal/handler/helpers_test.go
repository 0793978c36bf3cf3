package handler

import (
	"context"
	"io"
	"testing"

	"cropfolder/internal/logger"
	"cropfolder/internal/service"
	"cropfolder/internal/service/crop"
	"cropfolder/internal/service/imageproc"
	"cropfolder/internal/service/session"
	"cropfolder/internal/service/storage"
	"cropfolder/internal/service/websocket"
	"cropfolder/internal/testutil"
)

type testEnv struct {
	manager   *service.Manager
	folder    *storage.Folder
	processor *imageproc.Processor
	logger    *logger.Logger
}

// setupEnv creates a target folder holding the given PNG files and starts
// the hub and the manager.
func setupEnv(t *testing.T, images ...string) *testEnv {
	t.Helper()

	dir := t.TempDir()
	for _, name := range images {
		testutil.WritePNG(t, dir, name, 200, 100)
	}

	log := logger.NewWriterLogger(io.Discard)
	folder := storage.NewFolder(dir, "cropped")
	if _, err := folder.EnsureOutputDir(); err != nil {
		t.Fatalf("EnsureOutputDir failed: %v", err)
	}

	processor := imageproc.NewProcessor(imageproc.Options{})
	hub := websocket.NewHubService(log)
	manager := service.NewManager(session.New(images), crop.NewCropper(processor, folder, log), hub, log)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	go manager.Run(ctx)

	return &testEnv{manager: manager, folder: folder, processor: processor, logger: log}
}
