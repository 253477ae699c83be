package websocket

import (
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/moonrisegoods/nps/internal/domain"
)

// WsHub fans payment session status transitions out to storefront clients
// watching a checkout. Clients are keyed by order id; a poller that opens
// the stream sees each state change pushed instead of re-requesting status.
type WsHub struct {
	Clients    map[string]map[*websocket.Conn]bool
	Broadcast  chan WsMessage
	Register   chan *WsClient
	Unregister chan *WsClient
	Logger     zerolog.Logger
}

type WsClient struct {
	OrderID string
	Conn    *websocket.Conn
}

type WsMessage struct {
	Type    string                 `json:"type"`
	Session *domain.StatusResponse `json:"session,omitempty"`
}

func NewWsHub(logger zerolog.Logger) *WsHub {
	return &WsHub{
		Clients:    make(map[string]map[*websocket.Conn]bool),
		Broadcast:  make(chan WsMessage, 100),
		Register:   make(chan *WsClient, 100),
		Unregister: make(chan *WsClient, 100),
		Logger:     logger,
	}
}

func (h *WsHub) Run() {
	for {
		select {
		case client := <-h.Register:
			if h.Clients[client.OrderID] == nil {
				h.Clients[client.OrderID] = make(map[*websocket.Conn]bool)
			}
			h.Clients[client.OrderID][client.Conn] = true
			h.Logger.Info().
				Str("order_id", client.OrderID).
				Int("connection_count", len(h.Clients[client.OrderID])).
				Msg("WebSocket client registered")

		case client := <-h.Unregister:
			if clients, ok := h.Clients[client.OrderID]; ok {
				delete(clients, client.Conn)
				if len(clients) == 0 {
					delete(h.Clients, client.OrderID)
				}
				client.Conn.Close()
				h.Logger.Info().
					Str("order_id", client.OrderID).
					Int("connection_count", len(clients)).
					Msg("WebSocket client unregistered")
			}

		case message := <-h.Broadcast:
			if message.Session == nil {
				continue
			}
			orderID := message.Session.OrderID

			clients, ok := h.Clients[orderID]
			if !ok {
				continue
			}

			for conn := range clients {
				if err := conn.WriteJSON(message); err != nil {
					h.Logger.Err(err).
						Str("order_id", orderID).
						Msg("Failed to send WebSocket message")
					conn.Close()
					delete(clients, conn)
				}
			}
			if len(clients) == 0 {
				delete(h.Clients, orderID)
			}
		}
	}
}

// BroadcastSessionStatus pushes a status transition to every client watching
// the order. Safe on a nil hub so services can run without the stream.
func (h *WsHub) BroadcastSessionStatus(status domain.StatusResponse) {
	if h == nil {
		return
	}
	h.Logger.Info().
		Str("order_id", status.OrderID).
		Str("status", string(status.Status)).
		Msg("Broadcasting session status update")
	h.Broadcast <- WsMessage{
		Type:    "session_status",
		Session: &status,
	}
}
