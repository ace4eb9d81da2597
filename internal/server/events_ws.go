package server

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/manuelmanso/etfoptimizer/internal/events"
	"github.com/manuelmanso/etfoptimizer/internal/metrics"
)

const wsWriteTimeout = 5 * time.Second

// EventsSocketHandler streams session events over a websocket. The feed is
// one-way; anything the client sends is discarded.
type EventsSocketHandler struct {
	eventBus       *events.Bus
	originPatterns []string
	log            zerolog.Logger
}

// NewEventsSocketHandler creates a websocket event feed. allowedOrigins are
// full origins as configured for CORS; their hosts become the accepted
// origin patterns.
func NewEventsSocketHandler(eventBus *events.Bus, allowedOrigins []string, log zerolog.Logger) *EventsSocketHandler {
	var patterns []string
	for _, origin := range allowedOrigins {
		if origin == "*" {
			patterns = append(patterns, "*")
			continue
		}
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		}
	}

	return &EventsSocketHandler{
		eventBus:       eventBus,
		originPatterns: patterns,
		log:            log.With().Str("component", "events_ws").Logger(),
	}
}

// ServeHTTP handles GET /api/events/ws requests.
func (h *EventsSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.CloseNow()

	eventChan, unsubscribe := subscribe(h.eventBus, parseTypes(r), h.log)
	defer unsubscribe()

	metrics.StreamClients.WithLabelValues("websocket").Inc()
	defer metrics.StreamClients.WithLabelValues("websocket").Dec()

	// CloseRead handles control frames and cancels ctx once the peer goes away.
	ctx := conn.CloseRead(r.Context())

	h.log.Info().Msg("Client connected to event websocket")
	if err := h.write(ctx, conn, streamMessage{
		Type:      "connected",
		Timestamp: time.Now().Format(time.RFC3339),
		Message:   "Connected to session event stream",
	}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Client disconnected from event websocket")
			return
		case event := <-eventChan:
			if err := h.write(ctx, conn, newStreamMessage(event)); err != nil {
				h.log.Debug().Err(err).Msg("WebSocket write failed")
				return
			}
		}
	}
}

func (h *EventsSocketHandler) write(ctx context.Context, conn *websocket.Conn, msg streamMessage) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}
