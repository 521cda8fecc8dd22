package authority

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/vttforge/areatrigger/internal/services/resolution"
)

// Server is the authoritative session's operation endpoint. Each connected
// peer gets a read loop that executes forwarded operations through the local
// resolution service and writes the answer back on the same connection.
type Server struct {
	local    resolution.Service
	upgrader websocket.Upgrader
}

// ServerConfig holds configuration for the server
type ServerConfig struct {
	ResolutionService resolution.Service
}

// NewServer creates a new operation endpoint
func NewServer(cfg *ServerConfig) *Server {
	if cfg.ResolutionService == nil {
		panic("resolution service is required")
	}
	return &Server{
		local: cfg.ResolutionService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

// ServeHTTP upgrades the request and runs the peer's operation loop
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Authority: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Authority: peer %s dropped: %v", r.RemoteAddr, err)
			}
			return
		}

		reply := s.handle(r.Context(), payload)
		data, err := json.Marshal(reply)
		if err != nil {
			log.Printf("Authority: failed to serialize reply: %v", err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("Authority: failed to answer peer %s: %v", r.RemoteAddr, err)
			return
		}
	}
}

func (s *Server) handle(ctx context.Context, payload []byte) *replyEnvelope {
	var envelope callEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return &replyEnvelope{Error: "malformed operation frame"}
	}
	if envelope.Operation == nil {
		return &replyEnvelope{Error: "operation frame carried no operation"}
	}

	result, err := s.local.Resolve(ctx, envelope.Operation)
	if err != nil {
		log.Printf("Authority: forwarded operation failed: %v", err)
		return &replyEnvelope{Error: err.Error()}
	}
	return &replyEnvelope{Result: result}
}
