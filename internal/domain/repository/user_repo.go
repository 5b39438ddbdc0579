package repository

import (
	"github.com/yourusername/boltblitz-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с записями пользователей
type UserRepository interface {
	GetByID(id string) (*entity.User, error)
	Update(user *entity.User) error
	// GetLeaderboard возвращает пользователей, отсортированных по суммарному счету
	GetLeaderboard(limit, offset int) ([]entity.User, int64, error)
}

// AchievementRepository определяет методы для работы с достижениями.
// Запись создается внешним компонентом оценки порогов; движок только читает.
type AchievementRepository interface {
	GetByUser(userID string) ([]entity.UserAchievement, error)
	Save(achievement *entity.UserAchievement) error
}
