// internal/handlers/stream.go
package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront/internal/cart"
	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/services"
	"github.com/javajoker/storefront/internal/utils"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
)

type StreamHandler struct {
	sessions *services.SessionService
	images   *services.ImageService
	upgrader websocket.Upgrader
}

// NewStreamHandler accepts handshakes from origins. Without origins only same-host
// handshakes are accepted.
func NewStreamHandler(sessions *services.SessionService, images *services.ImageService, origins ...string) *StreamHandler {
	h := &StreamHandler{
		sessions: sessions,
		images:   images,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	if len(origins) > 0 {
		h.upgrader.CheckOrigin = allowOrigins(origins)
	}
	return h
}

// allowOrigins matches the handshake Origin against the configured UI origins.
// Requests without an Origin header are not from a browser and pass.
func allowOrigins(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		allowed[strings.ToLower(strings.TrimRight(origin, "/"))] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[strings.ToLower(strings.TrimRight(origin, "/"))]
		return ok
	}
}

// GET /cart/stream
// Pushes the rendered cart once on connect and again whenever its lines, loading flag
// or error change.
func (h *StreamHandler) Stream(c *gin.Context) {
	_, release := h.sessions.Hold(c.Request.Context(), utils.GetSessionIDFromContext(c))
	defer release()

	sc := resolveScope(c, h.sessions)
	logger := logrus.WithField("session_id", sc.session.ID)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WithError(err).Warn("Cart stream upgrade failed")
		return
	}
	defer conn.Close()

	// Only the latest state matters, so a full buffer drops the pending one.
	updates := make(chan models.CartState, 1)
	push := func(state models.CartState) {
		for {
			select {
			case updates <- state:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	}

	unsubscribe := cart.Select(sc.session.Cart,
		func(state models.CartState) models.CartState { return state },
		sameCartState,
		push,
	)
	defer unsubscribe()
	push(sc.session.Cart.State())

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case state := <-updates:
			view := buildCartView(sc.session, state, h.images, sc.locale)
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(view); err != nil {
				logger.WithError(err).Debug("Cart stream closed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func sameCartState(a, b models.CartState) bool {
	if a.IsLoading != b.IsLoading || len(a.Lines) != len(b.Lines) {
		return false
	}
	if (a.Error == nil) != (b.Error == nil) {
		return false
	}
	if a.Error != nil && *a.Error != *b.Error {
		return false
	}
	for i := range a.Lines {
		if a.Lines[i] != b.Lines[i] {
			return false
		}
	}
	return true
}
