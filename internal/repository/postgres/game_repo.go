package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/yourusername/boltblitz-api/internal/domain/entity"
	apperrors "github.com/yourusername/boltblitz-api/internal/pkg/errors"
)

// GameRepo реализует repository.GameRepository
type GameRepo struct {
	db *gorm.DB
}

// NewGameRepo создает новый репозиторий игровых сессий
func NewGameRepo(db *gorm.DB) *GameRepo {
	return &GameRepo{db: db}
}

// Create создает новую игровую сессию
func (r *GameRepo) Create(game *entity.Game) error {
	return r.db.Create(game).Error
}

// GetByID возвращает игровую сессию по ID
func (r *GameRepo) GetByID(id string) (*entity.Game, error) {
	var game entity.Game
	err := r.db.First(&game, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &game, nil
}

// UpdateStatus точечно обновляет статус сессии
func (r *GameRepo) UpdateStatus(gameID string, status string) error {
	return r.db.Model(&entity.Game{}).
		Where("id = ?", gameID).
		Update("status", status).Error
}

// UpdateScores точечно обновляет карту счета
func (r *GameRepo) UpdateScores(gameID string, scores entity.ScoreMap) error {
	return r.db.Model(&entity.Game{}).
		Where("id = ?", gameID).
		Update("scores", scores).Error
}

// UpdateToolsUsed точечно обновляет карту использованных инструментов
func (r *GameRepo) UpdateToolsUsed(gameID string, toolsUsed entity.ToolUsageMap) error {
	return r.db.Model(&entity.Game{}).
		Where("id = ?", gameID).
		Update("tools_used", toolsUsed).Error
}

// SaveAnswer сохраняет результат вопроса.
// Unique constraint (game_id, question_id) защищает от двойной записи:
// 23505 транслируется в apperrors.ErrConflict.
func (r *GameRepo) SaveAnswer(answer *entity.GameAnswer) error {
	err := r.db.Create(answer).Error
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: answer for question %s in game %s",
				apperrors.ErrConflict, answer.QuestionID, answer.GameID)
		}
		return err
	}
	return nil
}

// GetAnswers возвращает результаты вопросов игры в порядке прохождения
func (r *GameRepo) GetAnswers(gameID string) ([]entity.GameAnswer, error) {
	var answers []entity.GameAnswer
	err := r.db.Where("game_id = ?", gameID).Order("id").Find(&answers).Error
	if err != nil {
		return nil, err
	}
	return answers, nil
}

// ListByUser возвращает игры пользователя (как хоста или гостя), свежие первыми
func (r *GameRepo) ListByUser(userID string, limit, offset int) ([]entity.Game, error) {
	var games []entity.Game
	err := r.db.Where("host_user_id = ? OR guest_user_id = ?", userID, userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&games).Error
	if err != nil {
		return nil, err
	}
	return games, nil
}

// isUniqueViolation проверяет Postgres unique violation (23505) для pgconn и lib/pq драйверов
func isUniqueViolation(err error) bool {
	// pgx/v5 driver (pgconn.PgError)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	// lib/pq driver
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
