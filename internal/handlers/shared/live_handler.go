package handlers

import (
	"raddiwala/pkg/logger"
	"raddiwala/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// LiveHandler upgrades a signed-in party to the event socket that mirrors its notifications.
type LiveHandler struct {
	server *websocket.Server
	logger *logger.Logger
}

func NewLiveHandler(server *websocket.Server, logger *logger.Logger) *LiveHandler {
	return &LiveHandler{server: server, logger: logger}
}

func (h *LiveHandler) Connect(c *gin.Context) {
	partyID, role, ok := caller(c)
	if !ok {
		return
	}

	if err := h.server.Serve(c.Writer, c.Request, partyID, string(role)); err != nil {
		h.logger.WithError(err).WithPartyID(partyID).Debug("Live upgrade failed")
	}
}
