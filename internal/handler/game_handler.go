package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/boltblitz-api/internal/domain/entity"
	"github.com/yourusername/boltblitz-api/internal/handler/dto"
	"github.com/yourusername/boltblitz-api/internal/middleware"
	apperrors "github.com/yourusername/boltblitz-api/internal/pkg/errors"
	"github.com/yourusername/boltblitz-api/internal/service"
	"github.com/yourusername/boltblitz-api/internal/service/gameengine"
)

// GameHandler обрабатывает запросы, связанные с игровыми сессиями
type GameHandler struct {
	gameManager *service.GameManager
}

// NewGameHandler создает новый обработчик игровых сессий
func NewGameHandler(gameManager *service.GameManager) *GameHandler {
	return &GameHandler{gameManager: gameManager}
}

// CreateGameRequest представляет запрос на создание игровой сессии
type CreateGameRequest struct {
	Mode        string   `json:"mode" binding:"required"`
	GuestUserID string   `json:"guest_user_id"`
	Category    string   `json:"category" binding:"omitempty,max=50"`
	Language    string   `json:"language" binding:"omitempty,max=5"`
	ToolRoster  []string `json:"tool_roster"`
}

// CreateGame обрабатывает запрос на создание игровой сессии
func (h *GameHandler) CreateGame(c *gin.Context) {
	var req CreateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hostUserID := middleware.UserID(c)
	game, err := h.gameManager.CreateGame(hostUserID, req.GuestUserID, req.Mode, req.Category, req.Language, req.ToolRoster)
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewGameResponse(game))
}

// StartGame запускает раунд (только хост)
func (h *GameHandler) StartGame(c *gin.Context) {
	gameID := c.Param("id")
	userID := middleware.UserID(c)

	if err := h.gameManager.StartGame(c.Request.Context(), gameID, userID); err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

// GetState возвращает текущий срез состояния сессии
func (h *GameHandler) GetState(c *gin.Context) {
	snapshot, err := h.gameManager.State(c.Param("id"))
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetGame возвращает запись игровой сессии
func (h *GameHandler) GetGame(c *gin.Context) {
	game, err := h.gameManager.GetGame(c.Param("id"))
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewGameResponse(game))
}

// ListGames возвращает игры аутентифицированного пользователя
func (h *GameHandler) ListGames(c *gin.Context) {
	userID := middleware.UserID(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	games, err := h.gameManager.ListGames(userID, pageSize, (page-1)*pageSize)
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"games": dto.NewGameListResponse(games), "page": page})
}

// SelectAnswerRequest представляет запрос на предварительный выбор варианта
type SelectAnswerRequest struct {
	Option *int `json:"option" binding:"required"`
}

// SelectAnswer фиксирует предварительный выбор варианта
func (h *GameHandler) SelectAnswer(c *gin.Context) {
	var req SelectAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gameID := c.Param("id")
	userID := middleware.UserID(c)
	if err := h.gameManager.SelectAnswer(gameID, userID, *req.Option); err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "selected", "option": *req.Option})
}

// SubmitAnswer отправляет текущий выбор как окончательный ответ
func (h *GameHandler) SubmitAnswer(c *gin.Context) {
	gameID := c.Param("id")
	userID := middleware.UserID(c)

	result, err := h.gameManager.SubmitAnswer(gameID, userID)
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ActivateTool применяет инструмент от имени участника
func (h *GameHandler) ActivateTool(c *gin.Context) {
	gameID := c.Param("id")
	toolID := c.Param("toolId")
	userID := middleware.UserID(c)

	outcome, err := h.gameManager.ActivateTool(gameID, userID, toolID)
	if err != nil {
		h.handleGameError(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// GetToolCatalog возвращает статический каталог инструментов
func (h *GameHandler) GetToolCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": entity.ToolCatalog()})
}

// handleGameError транслирует ошибки сервисов и правил раунда в HTTP-статусы
func (h *GameHandler) handleGameError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case isRoundRuleError(err):
		// Тихий отказ правил раунда: состояние не изменилось
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "round_rule"})
	default:
		log.Printf("ERROR: Internal server error in GameHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// isRoundRuleError проверяет, является ли ошибка отказом правил раунда
func isRoundRuleError(err error) bool {
	for _, rule := range []error{
		gameengine.ErrRoundAlreadyStarted,
		gameengine.ErrRoundNotStarted,
		gameengine.ErrNoActiveQuestion,
		gameengine.ErrAlreadyAnswered,
		gameengine.ErrNoSelection,
		gameengine.ErrOptionEliminated,
		gameengine.ErrNotYourTurn,
		gameengine.ErrUnknownTool,
		gameengine.ErrToolNotInRoster,
		gameengine.ErrToolAlreadyUsed,
		gameengine.ErrToolNotApplicable,
	} {
		if errors.Is(err, rule) {
			return true
		}
	}
	return false
}
