package repository

import (
	"github.com/yourusername/boltblitz-api/internal/domain/entity"
)

// GameRepository определяет методы для работы с игровыми сессиями
type GameRepository interface {
	Create(game *entity.Game) error
	GetByID(id string) (*entity.Game, error)
	// UpdateStatus точечно обновляет статус сессии
	UpdateStatus(gameID string, status string) error
	// UpdateScores точечно обновляет карту счета без full Save
	UpdateScores(gameID string, scores entity.ScoreMap) error
	// UpdateToolsUsed точечно обновляет карту использованных инструментов
	UpdateToolsUsed(gameID string, toolsUsed entity.ToolUsageMap) error
	// SaveAnswer сохраняет результат вопроса.
	// Возвращает apperrors.ErrConflict при повторной записи результата
	// на тот же вопрос (unique constraint).
	SaveAnswer(answer *entity.GameAnswer) error
	GetAnswers(gameID string) ([]entity.GameAnswer, error)
	ListByUser(userID string, limit, offset int) ([]entity.Game, error)
}
