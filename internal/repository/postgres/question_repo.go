package postgres

import (
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/boltblitz-api/internal/domain/entity"
	apperrors "github.com/yourusername/boltblitz-api/internal/pkg/errors"
)

// viewedByArg собирает jsonb-аргумент вида ["userID"] для оператора @>.
// Маршалинг экранирует спецсимволы в идентификаторе.
func viewedByArg(userID string) string {
	arg, _ := json.Marshal([]string{userID})
	return string(arg)
}

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create создает новый вопрос
func (r *QuestionRepo) Create(question *entity.Question) error {
	return r.db.Create(question).Error
}

// CreateBatch создает пакет вопросов
func (r *QuestionRepo) CreateBatch(questions []entity.Question) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// Устанавливаем кодировку UTF-8 внутри транзакции
		if err := tx.Exec("SET CLIENT_ENCODING TO 'UTF8'").Error; err != nil {
			return err
		}
		return tx.Create(&questions).Error
	})
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(id string) (*entity.Question, error) {
	var question entity.Question
	err := r.db.First(&question, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// GetUnseenQuestion возвращает случайный вопрос, которого пользователь еще
// не видел. Пустая категория означает выборку по всем категориям.
// Возвращает apperrors.ErrNotFound при исчерпании непросмотренных вопросов.
func (r *QuestionRepo) GetUnseenQuestion(userID string, category string) (*entity.Question, error) {
	var question entity.Question

	// Проверка вхождения в jsonb-массив viewed_by через оператор @>
	query := r.db.Where("NOT (viewed_by @> ?)", viewedByArg(userID))
	if category != "" {
		query = query.Where("category = ?", category)
	}

	err := query.Order("RANDOM()").First(&question).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// MarkViewed добавляет пользователя в viewed_by вопроса. Идемпотентно:
// повторная пометка не дублирует элемент массива.
func (r *QuestionRepo) MarkViewed(questionID string, userID string) error {
	sql := `
		UPDATE questions
		SET viewed_by = viewed_by || ?
		WHERE id = ? AND NOT (viewed_by @> ?)
	`
	member := viewedByArg(userID)
	return r.db.Exec(sql, member, questionID, member).Error
}

// GetCategoryTexts возвращает английские тексты вопросов категории
func (r *QuestionRepo) GetCategoryTexts(category string, limit int) ([]string, error) {
	var texts []string
	err := r.db.Model(&entity.Question{}).
		Where("category = ?", category).
		Order("created_at DESC").
		Limit(limit).
		Pluck("text->>'en'", &texts).Error
	if err != nil {
		return nil, err
	}
	return texts, nil
}

// CountUnseen возвращает число непросмотренных пользователем вопросов
func (r *QuestionRepo) CountUnseen(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Question{}).
		Where("NOT (viewed_by @> ?)", viewedByArg(userID)).
		Count(&count).Error
	return count, err
}
