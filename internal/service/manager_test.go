package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"cropfolder/internal/dto"
	"cropfolder/internal/logger"
	"cropfolder/internal/service/crop"
	"cropfolder/internal/service/imageproc"
	"cropfolder/internal/service/session"
	"cropfolder/internal/service/storage"
	"cropfolder/internal/service/websocket"
)

func setupManager(t *testing.T, images []string) *Manager {
	t.Helper()

	log := logger.NewWriterLogger(io.Discard)
	folder := storage.NewFolder(t.TempDir(), "cropped")
	cropper := crop.NewCropper(imageproc.NewProcessor(imageproc.Options{}), folder, log)
	return NewManager(session.New(images), cropper, websocket.NewHubService(log), log)
}

func TestManager_NavigationUpdatesSession(t *testing.T) {
	m := setupManager(t, []string{"a.jpg", "b.jpg", "c.jpg"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.GetWebsocketService().Run(ctx)

	m.handle(Task{Message: dto.Envelope{Event: dto.EventNextImage}})
	m.handle(Task{Message: dto.Envelope{Event: dto.EventNextImage}})
	m.handle(Task{Message: dto.Envelope{Event: dto.EventNextImage}})

	state, err := m.GetSession().Current()
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if state.Index != 2 {
		t.Errorf("Expected index 2 after advancing past the end, got %d", state.Index)
	}

	m.handle(Task{Message: dto.Envelope{Event: dto.EventPrevImage}})
	if state, _ := m.GetSession().Current(); state.Index != 1 {
		t.Errorf("Expected index 1, got %d", state.Index)
	}
}

func TestManager_UnknownEventIgnored(t *testing.T) {
	m := setupManager(t, []string{"a.jpg"})

	m.handle(Task{Message: dto.Envelope{Event: "rename-image"}})

	if state, _ := m.GetSession().Current(); state.Index != 0 {
		t.Errorf("Expected index 0, got %d", state.Index)
	}
}

func TestManager_DispatchAfterStopDoesNotBlock(t *testing.T) {
	m := setupManager(t, []string{"a.jpg"})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			m.Dispatch(&websocket.Client{ID: "late"}, dto.Envelope{Event: dto.EventNextImage})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("Dispatch blocked after the manager stopped")
	}
}

func TestDecodeData(t *testing.T) {
	var req dto.CropImageRequest

	if err := decodeData(dto.Envelope{Event: dto.EventCropImage}, &req); err == nil {
		t.Error("Expected error for missing payload")
	}
	if err := decodeData(dto.Envelope{Event: dto.EventCropImage, Data: []byte(`{"x":"a"}`)}, &req); err == nil {
		t.Error("Expected error for invalid payload")
	}
	if err := decodeData(dto.Envelope{Event: dto.EventCropImage, Data: []byte(`{"x":1,"y":2,"width":3,"height":4,"angle":90}`)}, &req); err != nil {
		t.Fatalf("decodeData failed: %v", err)
	}
	if req.X != 1 || req.Height != 4 || req.Angle != 90 {
		t.Errorf("Unexpected request %+v", req)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{crop.ErrNoCrops, "No crop regions defined"},
		{fmt.Errorf("wrapped: %w", crop.ErrInvalidCropDimensions), "Invalid crop dimensions"},
		{session.ErrEmpty, "No images found"},
		{errors.New("disk full"), "disk full"},
	}

	for _, tt := range tests {
		if got := errorMessage(tt.err); got != tt.expected {
			t.Errorf("errorMessage(%v) = %q, expected %q", tt.err, got, tt.expected)
		}
	}
}
