package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/classquiz/classquiz-backend/internal/middleware"
	"github.com/classquiz/classquiz-backend/internal/service"
	ws "github.com/classquiz/classquiz-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
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

// WSHandler streams the authoritative attempt timer over WebSocket.
type WSHandler struct {
	attemptService *service.AttemptService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attemptService *service.AttemptService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attemptService: attemptService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// AttemptTimerStream godoc
// WS /ws/attempts/:attempt_id/timer?token=...
// Streams one tick per second with the server-side remaining seconds. On
// expiry it sends a single expired event and closes. Untimed attempts get
// one tick with remaining = -1 and the connection stays open for pings.
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

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	deadline, completed, err := h.attemptService.Deadline(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		ws.WriteError(conn, "attempt not found or not yours")
		return
	}
	if completed {
		ws.WriteError(conn, "attempt already submitted")
		return
	}

	wsLog := h.log.With().
		Int("student_id", claims.UserID).
		Str("attempt_id", attemptID.String()).
		Logger()
	wsLog.Debug().Msg("Timer stream opened")

	// Reader goroutine: consume pings and detect disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var env ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &env); err != nil {
				return
			}
			if env.Action == ws.ActionPing {
				_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			}
		}
	}()

	if deadline == nil {
		if err := ws.WriteTyped(conn, ws.TickResponse{Event: ws.EventTick, Remaining: -1}); err != nil {
			return
		}
		<-done
		return
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			wsLog.Debug().Msg("Timer stream closed by client")
			return
		case now := <-ticker.C:
			remaining := int(deadline.Sub(now).Seconds())
			if remaining <= 0 {
				_ = ws.WriteTyped(conn, ws.ExpiredResponse{Event: ws.EventExpired})
				wsLog.Debug().Msg("Timer stream expired")
				return
			}
			if err := ws.WriteTyped(conn, ws.TickResponse{Event: ws.EventTick, Remaining: remaining}); err != nil {
				return
			}
		}
	}
}
