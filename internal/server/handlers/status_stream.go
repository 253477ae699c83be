package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/moonrisegoods/nps/internal/server/websocket"
	"github.com/moonrisegoods/nps/pkg/config"
)

type StatusStreamHandler struct {
	wsHub    *websocket.WsHub
	upgrader gws.Upgrader
	logger   zerolog.Logger
}

func NewStatusStreamHandler(wsHub *websocket.WsHub, cfg config.WebSocketConfig, logger zerolog.Logger) *StatusStreamHandler {
	upgrader := gws.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
	}
	if !cfg.CheckOrigin {
		upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}

	return &StatusStreamHandler{
		wsHub:    wsHub,
		upgrader: upgrader,
		logger:   logger,
	}
}

// HandleConnection upgrades a storefront poller to a WebSocket subscribed to
// one order's status transitions.
func (h *StatusStreamHandler) HandleConnection(c *gin.Context) {
	orderID := c.Param("order_id")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order id is required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Err(err).
			Str("order_id", orderID).
			Msg("Failed to upgrade to WebSocket")
		return
	}

	client := &websocket.WsClient{
		OrderID: orderID,
		Conn:    conn,
	}
	h.wsHub.Register <- client
	h.logger.Info().
		Str("order_id", orderID).
		Msg("WebSocket client registration sent")

	go func() {
		defer func() {
			h.wsHub.Unregister <- client
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
