package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/onlineexam/backend/internal/middleware"
	"github.com/onlineexam/backend/internal/session"
	ws "github.com/onlineexam/backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the authoritative attempt countdown to clients. The
// stream is read-only from the client side apart from pings; answers and
// submission go through the HTTP API.
type WSHandler struct {
	manager  *session.Manager
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(manager *session.Manager, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		manager:  manager,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// AttemptTimerStream godoc
// WS /ws/v1/attempts/:attempt_id/timer
// Upgrades to WebSocket and pushes one tick event per second until the
// attempt terminates.
func (h *WSHandler) AttemptTimerStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attempt ID"})
		return
	}

	sess, ok := h.manager.Get(attemptID)
	if !ok || sess.StudentID != claims.UserID {
		c.JSON(http.StatusNotFound, gin.H{"error": "attempt not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("attempt_id", attemptID.String()).
		Int("student_id", claims.UserID).
		Logger()
	wsLog.Info().Msg("Timer stream connected")

	closed := make(chan struct{})
	go h.readPump(conn, closed, wsLog)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			wsLog.Debug().Msg("Timer stream closed by client")
			return
		case <-ticker.C:
			status := sess.Status()
			if status.Terminal() {
				_ = ws.WriteTyped(conn, ws.EndedEvent{Event: ws.EventEnded, Status: string(status)})
				wsLog.Info().Str("status", string(status)).Msg("Timer stream ended")
				return
			}
			tick := ws.TickEvent{
				Event:            ws.EventTick,
				RemainingSeconds: sess.Remaining(),
				LowTime:          sess.LowTime(),
			}
			if err := ws.WriteTyped(conn, tick); err != nil {
				wsLog.Debug().Err(err).Msg("Timer stream write failed")
				return
			}
		}
	}
}

// readPump answers pings and signals when the client goes away.
func (h *WSHandler) readPump(conn *websocket.Conn, closed chan<- struct{}, wsLog zerolog.Logger) {
	defer close(closed)
	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}
		if msg.Action == ws.ActionPing {
			_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		}
	}
}
