package websocket

import (
	"encoding/json"
	"sync"
)

type MessageType string

const (
	MessageBalance      MessageType = "balance"
	MessageSession      MessageType = "session"
	MessageNotification MessageType = "notification"
)

type Message struct {
	Type MessageType `json:"type"`
	Data any         `json:"data"`
}

type BalanceUpdate struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Balance   string `json:"balance"`
}

type SessionUpdate struct {
	Event     string `json:"event"`
	SessionID string `json:"session_id"`
}

type NotificationUpdate struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][client] = struct{}{}
}

func (h *Hub) Unregister(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		return
	}
	delete(h.clients[userID], client)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) BroadcastBalance(userID string, update BalanceUpdate) {
	h.broadcast(userID, Message{Type: MessageBalance, Data: update})
}

func (h *Hub) BroadcastNotification(userID string, update NotificationUpdate) {
	h.broadcast(userID, Message{Type: MessageNotification, Data: update})
}

// BroadcastSession pushes a session change to every socket of the user. A
// sign-out then closes the sockets opened under that session only; other
// devices stay connected.
func (h *Hub) BroadcastSession(userID string, update SessionUpdate) {
	h.broadcast(userID, Message{Type: MessageSession, Data: update})
	if update.Event != "SIGNED_OUT" {
		return
	}
	var closing []*Client
	h.mu.Lock()
	for client := range h.clients[userID] {
		if client.sessionID == update.SessionID {
			closing = append(closing, client)
			delete(h.clients[userID], client)
		}
	}
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
	h.mu.Unlock()
	for _, client := range closing {
		client.close()
	}
}

// broadcast drops the message for clients whose buffer is full.
func (h *Hub) broadcast(userID string, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		client.enqueue(payload)
	}
}
