package repository

import (
	"github.com/yourusername/boltblitz-api/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с банком вопросов
type QuestionRepository interface {
	Create(question *entity.Question) error
	CreateBatch(questions []entity.Question) error
	GetByID(id string) (*entity.Question, error)
	// GetUnseenQuestion возвращает случайный вопрос, который пользователь еще не видел.
	// category может быть пустой строкой (любая категория).
	// Возвращает apperrors.ErrNotFound, если непросмотренных вопросов не осталось.
	GetUnseenQuestion(userID string, category string) (*entity.Question, error)
	// MarkViewed добавляет пользователя в viewed_by вопроса
	MarkViewed(questionID string, userID string) error
	// GetCategoryTexts возвращает английские тексты вопросов категории
	// (контекст для генератора, чтобы избегать дубликатов)
	GetCategoryTexts(category string, limit int) ([]string, error)
	CountUnseen(userID string) (int64, error)
}
