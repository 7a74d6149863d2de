package handler

import (
	"log"
	"net/http"

	"gowa-hub/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the dashboard's deployment origin is fixed
		return true
	},
}

// GET /ws — attach one live event subscriber. The subscriber gets a status
// snapshot of every registered session first, then live events.
func (h *Handler) WebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return err
	}

	sub := h.Hub.Register()
	client := ws.NewClient(h.Hub, conn, sub)

	go client.WritePump()
	go client.ReadPump()

	return nil
}
