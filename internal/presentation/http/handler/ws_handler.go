package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/sangkips/tableside-api/internal/infrastructure/realtime"
	"github.com/sangkips/tableside-api/internal/presentation/http/middleware"
)

// WSHandler upgrades staff screens to a websocket that receives order,
// table and payment events for their restaurant
type WSHandler struct {
	hub *realtime.Hub
	log zerolog.Logger
}

// NewWSHandler creates a new websocket handler
func NewWSHandler(hub *realtime.Hub, log zerolog.Logger) *WSHandler {
	return &WSHandler{hub: hub, log: log}
}

// Connect handles the upgrade. The upgrader writes its own error response.
func (h *WSHandler) Connect(c *gin.Context) {
	restaurantID := middleware.GetRestaurantID(c)
	if err := h.hub.ServeWS(c.Writer, c.Request, restaurantID); err != nil {
		h.log.Warn().Err(err).Str("restaurant_id", restaurantID.String()).Msg("websocket upgrade failed")
	}
}
