// Package ws is the websocket transport in front of the membership
// coordinator. It owns connection ids, per-connection sinks and the wire
// framing; all membership decisions stay in the coordinator.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"presence-lab/contract"
	"presence-lab/domain"
	"presence-lab/domain/event"
)

type ServerConfig struct {
	// SinkBufferSize bounds the per-connection outbound queue.
	SinkBufferSize int
	// MessagesPerSecond / Burst rate-limit the send path per connection.
	MessagesPerSecond rate.Limit
	Burst             int
}

type Server struct {
	log         *slog.Logger
	coordinator contract.ICoordinator
	upgrader    websocket.Upgrader
	cfg         ServerConfig
}

func NewServer(log *slog.Logger, coordinator contract.ICoordinator, cfg ServerConfig) *Server {
	return &Server{
		log:         log,
		coordinator: coordinator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		cfg: cfg,
	}
}

// Handler exposes the HTTP surface: a plain greeting on / and the
// websocket upgrade on /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("Hello World!"))
}

// handleWS upgrades the connection, assigns it a fresh connection id and
// runs the read loop until the client goes away. Disconnect always fires on
// the way out so the coordinator can clean up.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Fresh per socket, never reused: the coordinator relies on the
	// transport for id uniqueness.
	connID := domain.ConnID(uuid.NewString())
	sink := NewSink(s.cfg.SinkBufferSize)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go s.writePump(ctx, conn, sink)
	s.readLoop(ctx, conn, connID, sink)

	if err := s.coordinator.Disconnect(context.Background(), domain.DisconnectCommand{ID: connID}); err != nil {
		// The client may never have completed a join.
		s.log.Debug("Disconnect cleanup skipped", "conn", connID, "error", err)
	}
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, connID domain.ConnID, sink *Sink) {
	limiter := rate.NewLimiter(s.cfg.MessagesPerSecond, s.cfg.Burst)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.log.Debug("Read loop finished", "conn", connID, "error", err)
			return
		}

		var frame ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.log.Debug("Malformed frame ignored", "conn", connID, "error", err)
			continue
		}

		switch frame.Type {
		case TypeJoin:
			err = s.coordinator.Connect(ctx, domain.ConnectCommand{ID: connID, Name: frame.Name}, sink)
		case TypeCreateRoom:
			err = s.coordinator.CreateRoom(ctx, domain.CreateRoomCommand{ID: connID, Name: frame.Name})
		case TypeJoinRoom:
			err = s.coordinator.JoinRoom(ctx, domain.JoinRoomCommand{ID: connID, Room: domain.RoomID(frame.Room)})
		case TypeSend:
			if !limiter.Allow() {
				_ = sink.Consume(ctx, event.Notice{Text: "You are sending messages too fast."})
				continue
			}
			err = s.coordinator.Send(ctx, domain.SendCommand{ID: connID, Content: frame.Content})
		case TypeLeaveRoom:
			err = s.coordinator.LeaveRoom(ctx, domain.LeaveRoomCommand{ID: connID, Room: domain.RoomID(frame.Room)})
		case TypeRemoveRoom:
			err = s.coordinator.RemoveRoom(ctx, domain.RemoveRoomCommand{ID: connID, Room: domain.RoomID(frame.Room)})
		default:
			s.log.Debug("Unknown frame type ignored", "conn", connID, "type", frame.Type)
			continue
		}

		if err != nil {
			// Rejections already produced their personal notice.
			s.log.Debug("Transition rejected", "conn", connID, "type", frame.Type, "error", err)
		}
	}
}

func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, sink *Sink) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-sink.Events():
			if err := conn.WriteJSON(EncodeFrame(n)); err != nil {
				s.log.Debug("Write pump finished", "error", err)
				return
			}
		}
	}
}
