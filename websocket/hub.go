package websocket

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

type Client struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
}

var clients = make(map[uuid.UUID]*websocket.Conn)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Client registered: %s", client.UserID)
			clientsMu.Lock()
			clients[client.UserID] = client.Conn
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Client unregistered: %s", client.UserID)
			clientsMu.Lock()
			if conn, ok := clients[client.UserID]; ok && conn == client.Conn {
				delete(clients, client.UserID)
			}
			clientsMu.Unlock()
		}
	}
}

// SendToUser writes the payload to the user's connection if one exists.
// Delivery is fire-and-forget: true means the local write was accepted,
// not that the user saw anything. Offline users silently miss the push.
func SendToUser(userID uuid.UUID, payload any) bool {
	clientsMu.RLock()
	conn, ok := clients[userID]
	clientsMu.RUnlock()
	if !ok {
		return false
	}

	if err := conn.WriteJSON(payload); err != nil {
		log.Printf("Error pushing to client %s: %v", userID, err)
		conn.Close()
		clientsMu.Lock()
		if cur, ok := clients[userID]; ok && cur == conn {
			delete(clients, userID)
		}
		clientsMu.Unlock()
		return false
	}
	return true
}
