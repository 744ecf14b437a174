package handlers

import (
	"log"
	"net/http"

	"green-map/internal/middleware"
	"green-map/internal/websocket"

	ws "github.com/gorilla/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking based on config
		return true
	},
}

// HandleWebSocket upgrades the connection and registers the client with the
// hub. Clients then subscribe to locations to receive live trust-score
// updates. A valid JWT is required via query parameter since browsers
// cannot set headers on websocket upgrades.
func (s *Server) HandleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			http.Error(w, "Missing authentication token", http.StatusUnauthorized)
			return
		}

		claims, err := middleware.ValidateToken(tokenString)
		if err != nil {
			log.Printf("WebSocket connection failed: Invalid token: %v", err)
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for User %s: %v", claims.UserID, err)
			// Cannot write HTTP error after a failed upgrade attempt
			return
		}
		log.Printf("WebSocket connection upgraded for User %s", claims.UserID)

		client := &websocket.Client{
			Hub:  s.Hub,
			Conn: conn,
			Send: make(chan []byte, 256),
		}
		client.Hub.Register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}
