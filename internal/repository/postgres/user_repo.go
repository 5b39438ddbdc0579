package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/boltblitz-api/internal/domain/entity"
	apperrors "github.com/yourusername/boltblitz-api/internal/pkg/errors"
)

// UserRepo реализует repository.UserRepository
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo создает новый репозиторий пользователей
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetByID возвращает пользователя по ID
func (r *UserRepo) GetByID(id string) (*entity.User, error) {
	var user entity.User
	err := r.db.First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Update обновляет данные пользователя
func (r *UserRepo) Update(user *entity.User) error {
	result := r.db.Save(user)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// GetLeaderboard возвращает страницу пользователей по убыванию суммарного счета
// и общее число пользователей для пагинации
func (r *UserRepo) GetLeaderboard(limit, offset int) ([]entity.User, int64, error) {
	var users []entity.User
	var total int64

	if err := r.db.Model(&entity.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Order("total_score DESC, wins_count DESC, id").
		Limit(limit).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// AchievementRepo реализует repository.AchievementRepository
type AchievementRepo struct {
	db *gorm.DB
}

// NewAchievementRepo создает новый репозиторий достижений
func NewAchievementRepo(db *gorm.DB) *AchievementRepo {
	return &AchievementRepo{db: db}
}

// GetByUser возвращает достижения пользователя в порядке получения
func (r *AchievementRepo) GetByUser(userID string) ([]entity.UserAchievement, error) {
	var achievements []entity.UserAchievement
	err := r.db.Where("user_id = ?", userID).
		Order("unlocked_at").
		Find(&achievements).Error
	if err != nil {
		return nil, err
	}
	return achievements, nil
}

// Save сохраняет достижение. Повторное открытие того же достижения
// игнорируется (unique constraint user_id + achievement_id).
func (r *AchievementRepo) Save(achievement *entity.UserAchievement) error {
	err := r.db.Create(achievement).Error
	if err != nil && isUniqueViolation(err) {
		return nil
	}
	return err
}
