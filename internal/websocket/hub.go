package websocket

import (
	"encoding/json"
	"fmt"
	"log"
)

// gameMessage - событие, адресованное подписчикам одной игры
type gameMessage struct {
	gameID  string
	payload []byte
}

// Hub поддерживает подписки клиентов по играм и рассылает события сессий.
// Рассылка зеркалирует состояние для UI: авторитетным остается движок,
// переподключившийся клиент восстанавливает состояние по HTTP.
type Hub struct {
	// Подписчики по ID игры
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan gameMessage
}

// NewHub создает новый хаб
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan gameMessage, 256),
	}
}

// Run обрабатывает регистрацию, отключения и рассылку.
// Блокируется; запускается одной горутиной из main.
func (h *Hub) Run() {
	log.Printf("[WebSocket] Хаб запущен")
	for {
		select {
		case client := <-h.register:
			room := h.rooms[client.GameID]
			if room == nil {
				room = make(map[*Client]bool)
				h.rooms[client.GameID] = room
			}
			room[client] = true
			log.Printf("[WebSocket] Пользователь %s подписан на игру %s (в комнате %d)",
				client.UserID, client.GameID, len(room))

		case client := <-h.unregister:
			if room, ok := h.rooms[client.GameID]; ok {
				if _, ok := room[client]; ok {
					delete(room, client)
					close(client.send)
					if len(room) == 0 {
						delete(h.rooms, client.GameID)
					}
					log.Printf("[WebSocket] Пользователь %s отписан от игры %s", client.UserID, client.GameID)
				}
			}

		case message := <-h.broadcast:
			for client := range h.rooms[message.gameID] {
				select {
				case client.send <- message.payload:
				default:
					// Переполненный буфер: клиент отстал, отключаем
					delete(h.rooms[message.gameID], client)
					close(client.send)
					log.Printf("[WebSocket] Буфер пользователя %s переполнен, отключение", client.UserID)
				}
			}
		}
	}
}

// Register подписывает клиента на события его игры
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// BroadcastToGame сериализует событие и рассылает его подписчикам игры.
// Реализует gameengine.Broadcaster.
func (h *Hub) BroadcastToGame(gameID string, event map[string]interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event for game %s: %w", gameID, err)
	}

	select {
	case h.broadcast <- gameMessage{gameID: gameID, payload: payload}:
		return nil
	default:
		return fmt.Errorf("broadcast queue is full, event for game %s dropped", gameID)
	}
}
