package notifications

import (
	"github.com/google/uuid"

	"github.com/kiptoo95/skill_exchange/websocket"
)

// SocketPayload is what connected clients receive over the websocket.
type SocketPayload struct {
	Title     string `json:"title"`
	Message   string `json:"message"`
	Category  string `json:"category"`
	ActionURL string `json:"action_url"`
}

type SocketService struct{}

func NewSocketService() *SocketService {
	return &SocketService{}
}

func (s *SocketService) SendToUser(userID uuid.UUID, payload SocketPayload) bool {
	return websocket.SendToUser(userID, payload)
}
