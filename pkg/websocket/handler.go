package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Server upgrades authenticated requests and attaches them to a hub.
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewServer accepts connections from the given origins. "*" allows any origin.
func NewServer(hub *Hub, allowedOrigins []string) *Server {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// Serve upgrades the request for an already authenticated party. On failure
// the upgrader has written the HTTP error.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, partyID primitive.ObjectID, role string) error {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := newClient(s.hub, conn, partyID, role)
	if !s.hub.join(client) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		return conn.Close()
	}

	go client.writePump()
	go client.readPump()
	return nil
}

func (s *Server) Hub() *Hub {
	return s.hub
}
