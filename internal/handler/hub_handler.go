package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/dm-backend/internal/hub"
	"github.com/shinyyama/dm-backend/internal/reqctx"
)

type HubHandler struct {
	hub      *hub.Hub
	upgrader websocket.Upgrader
}

// NewHubHandler accepts connections without an Origin header (non-browser
// clients) and browser origins approved by originAllowed.
func NewHubHandler(h *hub.Hub, originAllowed func(origin string) bool) *HubHandler {
	return &HubHandler{
		hub: h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || originAllowed(origin)
			},
		},
	}
}

// Serve upgrades /hubs/chat?userId=N and hands the connection to the hub.
func (h *HubHandler) Serve(c echo.Context) error {
	userID, err := strconv.Atoi(c.QueryParam("userId"))
	if err != nil || userID < 1 {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "userId query parameter is required"))
	}
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		reqctx.Logger(c.Request().Context()).WithError(err).Warn("websocket upgrade failed")
		return nil
	}
	go hub.NewClient(h.hub, conn, userID).Serve()
	return nil
}
