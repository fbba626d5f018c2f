package server

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/matthewbaird/crudgen/internal/progress"
)

// streamBuffer bounds the events queued for one client. A slower client
// loses events.
const streamBuffer = 64

// streamEvents upgrades to a WebSocket and forwards every progress event as
// a JSON message until the client goes away.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Events == nil {
		s.writeError(w, http.StatusNotImplemented, "DISABLED", "progress events are not enabled")
		return
	}

	// Subscribe before the handshake so a client sees every event
	// published after its dial returns.
	stream := progress.NewStream(streamBuffer)
	unsubscribe := s.cfg.Events.Subscribe("ws "+middleware.GetReqID(r.Context()), stream)
	defer unsubscribe()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		s.log.Warn("websocket accept", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-s.base.Done():
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case evt := <-stream.C:
			if err := wsjson.Write(ctx, conn, evt); err != nil {
				s.log.Debug("websocket write", zap.Error(err))
				return
			}
		}
	}
}
