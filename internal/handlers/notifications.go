package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/models"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/realtime"
)

// NotificationHandler streams application events to the signed-in user.
type NotificationHandler struct {
	Hub    *realtime.Hub
	Logger *zap.Logger
}

func NewNotificationHandler(hub *realtime.Hub, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{Hub: hub, Logger: logger}
}

// Routes authenticates before the upgrade; browsers pass the token as
// ?token= since they cannot set headers on a websocket.
func (h *NotificationHandler) Routes(app fiber.Router, authMiddleware fiber.Handler) {
	app.Get("/ws/notifications", authMiddleware, func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	}, websocket.New(h.Serve))
}

func (h *NotificationHandler) Serve(c *websocket.Conn) {
	u, ok := c.Locals("user").(*models.User)
	if !ok || u == nil {
		_ = c.Close()
		return
	}
	log := h.Logger.With(zap.String("user_id", u.ID.String()))

	conn := realtime.NewWebSocketConn(c)
	client := realtime.NewClient(u.ID, conn)
	h.Hub.RegisterClient(client)
	log.Debug("notifications connected")
	defer func() {
		h.Hub.UnregisterClient(client)
		log.Debug("notifications disconnected")
	}()

	go func() {
		if err := conn.WritePump(client.Send); err != nil {
			log.Debug("websocket write failed", zap.Error(err))
		}
	}()

	// Reads only keep the connection alive; client messages are ignored.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
