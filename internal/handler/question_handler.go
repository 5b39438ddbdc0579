package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/boltblitz-api/internal/middleware"
	apperrors "github.com/yourusername/boltblitz-api/internal/pkg/errors"
	"github.com/yourusername/boltblitz-api/internal/service"
)

// Максимальный размер файла импорта (10 МБ)
const maxImportFileSize = 10 << 20

// QuestionHandler обрабатывает административные запросы к банку вопросов
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler создает новый обработчик банка вопросов
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// ImportQuestions импортирует вопросы из XLSX-файла (multipart поле "file")
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > maxImportFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open uploaded file"})
		return
	}
	defer file.Close()

	count, err := h.questionService.ImportFromXLSX(file)
	if err != nil {
		h.handleQuestionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"imported": count})
}

// GenerateQuestionRequest представляет запрос на генерацию вопроса
type GenerateQuestionRequest struct {
	Category string `json:"category" binding:"omitempty,max=50"`
	Language string `json:"language" binding:"omitempty,max=5"`
}

// GenerateQuestion генерирует новый вопрос через языковую модель
func (h *QuestionHandler) GenerateQuestion(c *gin.Context) {
	var req GenerateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question, err := h.questionService.Generate(c.Request.Context(), req.Category, req.Language)
	if err != nil {
		h.handleQuestionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// CountUnseen возвращает число непросмотренных вопросов пользователя
func (h *QuestionHandler) CountUnseen(c *gin.Context) {
	userID := middleware.UserID(c)
	count, err := h.questionService.CountUnseen(userID)
	if err != nil {
		h.handleQuestionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unseen": count})
}

func (h *QuestionHandler) handleQuestionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		log.Printf("ERROR: Internal server error in QuestionHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
