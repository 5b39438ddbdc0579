package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/boltblitz-api/internal/handler/dto"
	"github.com/yourusername/boltblitz-api/internal/middleware"
	apperrors "github.com/yourusername/boltblitz-api/internal/pkg/errors"
	"github.com/yourusername/boltblitz-api/internal/service"
)

// UserHandler обрабатывает запросы статистики и таблицы лидеров
type UserHandler struct {
	statsService *service.StatsService
}

// NewUserHandler создает новый обработчик пользователей
func NewUserHandler(statsService *service.StatsService) *UserHandler {
	return &UserHandler{statsService: statsService}
}

// GetMyStats возвращает агрегаты аутентифицированного пользователя
func (h *UserHandler) GetMyStats(c *gin.Context) {
	userID := middleware.UserID(c)

	user, err := h.statsService.GetUserStats(userID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserStatsResponse(user))
}

// GetLeaderboard возвращает страницу таблицы лидеров
func (h *UserHandler) GetLeaderboard(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	entries, total, err := h.statsService.GetLeaderboard(page, pageSize)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard": entries,
		"total":       total,
		"page":        page,
	})
}

// GetAchievements возвращает достижения аутентифицированного пользователя
func (h *UserHandler) GetAchievements(c *gin.Context) {
	userID := middleware.UserID(c)

	achievements, err := h.statsService.GetAchievements(userID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"achievements": dto.NewAchievementListResponse(achievements)})
}

func (h *UserHandler) handleUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Printf("ERROR: Internal server error in UserHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
