package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"cropfolder/internal/dto"
	"cropfolder/internal/logger"
	"cropfolder/internal/service"
	"cropfolder/internal/service/websocket"

	gorilla "github.com/gorilla/websocket"
)

const maxMessageSize = 1 << 20

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = gorilla.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ViewWebsocketHandler handles viewer connections over WebSocket, registers
// them in the HubService and forwards every message to the manager.
func ViewWebsocketHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(maxMessageSize)

		client := websocket.NewClient(connection)
		manager.GetWebsocketService().Register(client)
		defer manager.GetWebsocketService().Unregister(client)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go client.KeepAlive(ctx)

		for {
			_, data, err := connection.ReadMessage()
			if err != nil {
				if gorilla.IsCloseError(err, gorilla.CloseNormalClosure, gorilla.CloseGoingAway) {
					logger.Info("Viewer %s disconnected normally", client.ID)
				} else {
					logger.Error("Viewer %s disconnected with error: %v", client.ID, err)
				}
				break
			}

			var message dto.Envelope
			if err := json.Unmarshal(data, &message); err != nil || message.Event == "" {
				logger.Warning("Invalid message from %s: %s", client.ID, truncate(data, 120))
				continue
			}

			manager.Dispatch(client, message)
		}
	}
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
