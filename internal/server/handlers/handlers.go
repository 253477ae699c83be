package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/moonrisegoods/nps/internal/application/paymentservice"
	"github.com/moonrisegoods/nps/internal/server/websocket"
	"github.com/moonrisegoods/nps/pkg/config"
)

type Handlers struct {
	PaymentSvc paymentservice.IPaymentService
	Logger     zerolog.Logger
	Config     *config.Config
	WsHub      *websocket.WsHub
}

func New(paymentSvc paymentservice.IPaymentService, logger zerolog.Logger, config *config.Config, wsHub *websocket.WsHub) *Handlers {
	return &Handlers{
		PaymentSvc: paymentSvc,
		Logger:     logger,
		Config:     config,
		WsHub:      wsHub,
	}
}

func (h *Handlers) SetupHandlers(router *gin.Engine) {
	checkoutHandler := NewCheckoutHandler(h.PaymentSvc, h.Logger)
	statusStreamHandler := NewStatusStreamHandler(h.WsHub, h.Config.WebSocket, h.Logger)
	healthHandler := NewHealthHandler()

	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/v1")
	{
		nano := v1.Group("/checkout/nano")
		{
			nano.POST("", checkoutHandler.CreateSession)
			nano.POST("/customer", checkoutHandler.AttachCustomer)
			nano.GET("/:order_id/status", checkoutHandler.GetStatus)
			nano.GET("/:order_id/ws", statusStreamHandler.HandleConnection)
		}
	}
}
