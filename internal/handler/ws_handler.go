package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/yourusername/boltblitz-api/internal/service"
	"github.com/yourusername/boltblitz-api/internal/websocket"
	"github.com/yourusername/boltblitz-api/pkg/auth"
)

// WSHandler обрабатывает подключения websocket-подписчиков игр
type WSHandler struct {
	hub         *websocket.Hub
	gameManager *service.GameManager
	jwtService  *auth.JWTService
	upgrader    gorillaws.Upgrader
}

// NewWSHandler создает новый обработчик websocket-подключений
func NewWSHandler(hub *websocket.Hub, gameManager *service.GameManager, jwtService *auth.JWTService, allowedOrigins []string) *WSHandler {
	originSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originSet[o] = true
	}

	return &WSHandler{
		hub:         hub,
		gameManager: gameManager,
		jwtService:  jwtService,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || originSet["*"] || originSet[origin]
			},
		},
	}
}

// HandleConnection апгрейдит соединение и подписывает клиента на игру.
// Браузер не может выставить заголовок Authorization на websocket,
// поэтому токен передается параметром запроса.
func (h *WSHandler) HandleConnection(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token query parameter is required"})
		return
	}
	claims, err := h.jwtService.ParseToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	gameID := c.Query("game_id")
	if gameID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "game_id query parameter is required"})
		return
	}

	// Подписываться могут только участники сессии
	game, err := h.gameManager.GetGame(gameID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}
	if claims.UserID != game.HostUserID && claims.UserID != game.GuestUserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant of this game"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WSHandler] Ошибка апгрейда соединения для %s: %v", claims.UserID, err)
		return
	}

	client := websocket.NewClient(h.hub, conn, claims.UserID, gameID)
	h.hub.Register(client)
	go client.Run()
}
