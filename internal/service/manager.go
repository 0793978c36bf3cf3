package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"

	"cropfolder/internal/dto"
	"cropfolder/internal/logger"
	"cropfolder/internal/model"
	"cropfolder/internal/service/crop"
	"cropfolder/internal/service/session"
	"cropfolder/internal/service/websocket"
)

// ErrUnknownImage is returned for crop requests naming a file outside the session.
var ErrUnknownImage = errors.New("image is not part of the current folder")

// Manager owns the session and handles every realtime message, one at a time,
// from a single mailbox.
type Manager struct {
	session          *session.Session
	cropper          *crop.Cropper
	websocketService *websocket.HubService
	logger           *logger.Logger

	mailbox chan Task
	done    chan struct{}
}

// Task is one message received from a client.
type Task struct {
	Client  *websocket.Client
	Message dto.Envelope
}

func NewManager(sess *session.Session, cropper *crop.Cropper, websocketService *websocket.HubService, logger *logger.Logger) *Manager {
	return &Manager{
		session:          sess,
		cropper:          cropper,
		websocketService: websocketService,
		logger:           logger,
		mailbox:          make(chan Task, 100),
		done:             make(chan struct{}),
	}
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.websocketService
}

func (m *Manager) GetSession() *session.Session {
	return m.session
}

func (m *Manager) GetCropper() *crop.Cropper {
	return m.cropper
}

// Run processes the mailbox until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	defer close(m.done)

	m.logger.Info("🎬 Manager started")
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("🛑 Manager stopped")
			return
		case task := <-m.mailbox:
			m.handle(task)
		}
	}
}

// Dispatch queues message from client. It blocks while the mailbox is full
// and drops the message once the manager has stopped.
func (m *Manager) Dispatch(client *websocket.Client, message dto.Envelope) {
	select {
	case m.mailbox <- Task{Client: client, Message: message}:
	case <-m.done:
		m.logger.Warning("Manager stopped, dropping %s from %s", message.Event, client.ID)
	}
}

func (m *Manager) handle(task Task) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Panic while handling %s: %v\n%s", task.Message.Event, r, debug.Stack())
			m.replyError(task.Client, fmt.Errorf("internal error"))
		}
	}()

	switch task.Message.Event {
	case dto.EventNextImage:
		m.navigate(m.session.Advance)
	case dto.EventPrevImage:
		m.navigate(m.session.Retreat)
	case dto.EventCropImage:
		m.cropImage(task)
	case dto.EventCropMultiple:
		m.cropMultiple(task)
	default:
		m.logger.Warning("Ignoring unknown event %q", task.Message.Event)
	}
}

func (m *Manager) navigate(move func() (dto.ImageState, bool)) {
	state, moved := move()
	if !moved {
		return
	}

	message, err := dto.NewEnvelope(dto.EventImageChanged, state)
	if err != nil {
		m.logger.Error("Error encoding %s: %v", dto.EventImageChanged, err)
		return
	}
	m.logger.Info("Current image %d/%d: %s", state.Index+1, state.Total, state.Filename)
	m.websocketService.Broadcast(message)
}

func (m *Manager) cropImage(task Task) {
	var req dto.CropImageRequest
	if err := decodeData(task.Message, &req); err != nil {
		m.replyError(task.Client, err)
		return
	}

	current, err := m.session.Current()
	if err != nil {
		m.replyError(task.Client, err)
		return
	}

	m.logger.Info("Crop request for %s: %s angle=%v", current.Filename, req.Rect, req.Angle)
	output, err := m.cropper.CropSingle(current.Filename, req.Rect, req.Angle)
	if err != nil {
		m.logger.Error("Error cropping %s: %v", current.Filename, err)
		m.replyError(task.Client, err)
		return
	}

	m.replySuccess(task.Client, dto.CropSuccess{
		Message: fmt.Sprintf("Saved to %s/%s", m.cropper.Folder().OutputName(), output),
		Files:   []string{output},
	})
}

func (m *Manager) cropMultiple(task Task) {
	var batch model.CropBatch
	if err := decodeData(task.Message, &batch); err != nil {
		m.replyError(task.Client, err)
		return
	}
	if len(batch.Crops) == 0 {
		m.replyError(task.Client, crop.ErrNoCrops)
		return
	}
	if !m.session.Contains(batch.Filename) {
		m.replyError(task.Client, fmt.Errorf("%w: %q", ErrUnknownImage, batch.Filename))
		return
	}

	m.logger.Info("Batch request for %s: %d crops angle=%v", batch.Filename, len(batch.Crops), batch.Angle)
	result, err := m.cropper.CropBatch(batch)
	if err != nil {
		m.logger.Error("Error cropping %s: %v", batch.Filename, err)
		m.replyError(task.Client, err)
		return
	}

	m.replySuccess(task.Client, dto.CropSuccess{
		Message: result.Message(m.cropper.Folder().OutputName()),
		Files:   result.Saved,
	})
}

func (m *Manager) replySuccess(client *websocket.Client, payload dto.CropSuccess) {
	m.reply(client, dto.EventCropSuccess, payload)
}

func (m *Manager) replyError(client *websocket.Client, err error) {
	m.reply(client, dto.EventCropError, dto.CropError{Error: errorMessage(err)})
}

func (m *Manager) reply(client *websocket.Client, event string, payload any) {
	if client == nil {
		return
	}
	message, err := dto.NewEnvelope(event, payload)
	if err != nil {
		m.logger.Error("Error encoding %s: %v", event, err)
		return
	}
	if err := client.Send(message); err != nil {
		m.logger.Error("Error sending %s to %s: %v", event, client.ID, err)
	}
}

func decodeData(message dto.Envelope, v any) error {
	if len(message.Data) == 0 {
		return fmt.Errorf("%s: missing payload", message.Event)
	}
	if err := json.Unmarshal(message.Data, v); err != nil {
		return fmt.Errorf("%s: invalid payload: %w", message.Event, err)
	}
	return nil
}

// errorMessage turns err into the text shown in the browser status bar.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, crop.ErrNoCrops):
		return "No crop regions defined"
	case errors.Is(err, crop.ErrInvalidCropDimensions):
		return "Invalid crop dimensions"
	case errors.Is(err, session.ErrEmpty):
		return "No images found"
	default:
		return err.Error()
	}
}
