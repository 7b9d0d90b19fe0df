package service

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/yoloverlay/model-service/core/conversion"
	"github.com/yoloverlay/model-service/core/infra/logging"
)

// publishEvent feeds a stage transition into the fan-out channel.
// Dropping under pressure is fine; events are observability only.
func (s *server) publishEvent(evt conversion.Event) {
	select {
	case s.eventsCh <- evt:
	default:
	}
}

// broadcastEvents forwards pipeline events to connected websocket
// clients, dropping clients that cannot keep up.
func (s *server) broadcastEvents() {
	for evt := range s.eventsCh {
		var slowClients []*websocket.Conn
		s.clientsMu.RLock()
		for conn, ch := range s.clients {
			select {
			case ch <- evt:
			default:
				slowClients = append(slowClients, conn)
			}
		}
		s.clientsMu.RUnlock()

		if len(slowClients) > 0 {
			s.clientsMu.Lock()
			for _, conn := range slowClients {
				delete(s.clients, conn)
			}
			s.clientsMu.Unlock()
			for _, conn := range slowClients {
				if err := conn.Close(); err != nil {
					logging.Error(component, "ws client close failed", "error", err)
				}
			}
		}
	}
}

func (s *server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error(component, "ws upgrade failed", "error", err)
		return
	}
	defer ws.Close()
	logging.Info(component, "ws connected", "remote", r.RemoteAddr)

	clientCh := make(chan conversion.Event, 100)
	s.clientsMu.Lock()
	s.clients[ws] = clientCh
	s.clientsMu.Unlock()
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, ws)
		s.clientsMu.Unlock()
	}()

	for {
		select {
		case evt := <-clientCh:
			if err := ws.WriteJSON(evt); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
