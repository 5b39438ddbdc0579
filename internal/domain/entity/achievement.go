package entity

import (
	"time"
)

// UserAchievement представляет разблокированное достижение пользователя.
// Оценка порогов достижений выполняется внешним компонентом по агрегированной
// статистике пользователя; движок раунда достижения не начисляет.
type UserAchievement struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        string    `gorm:"type:uuid;not null;index;uniqueIndex:idx_user_achievement" json:"user_id"`
	AchievementID string    `gorm:"size:50;not null;uniqueIndex:idx_user_achievement" json:"achievement_id"`
	UnlockedAt    time.Time `gorm:"not null" json:"unlocked_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (UserAchievement) TableName() string {
	return "user_achievements"
}
