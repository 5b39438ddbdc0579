package entity

import (
	"time"
)

// User представляет запись пользователя.
// Создание и аутентификация учетных записей выполняются внешним провайдером;
// здесь хранятся только профиль, балансы и агрегированная статистика игр.
type User struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	Username       string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	ProfilePicture string    `gorm:"size:255;not null;default:''" json:"profile_picture"`
	Language       string    `gorm:"size:5;not null;default:'en'" json:"language"` // "en" или "ar"
	Coins          int       `gorm:"not null;default:0" json:"coins"`
	Gems           int       `gorm:"not null;default:0" json:"gems"`
	GamesPlayed    int       `gorm:"not null;default:0" json:"games_played"`
	WinsCount      int       `gorm:"not null;default:0;index:idx_users_leaderboard" json:"wins_count"`
	TotalScore     int       `gorm:"not null;default:0;index:idx_users_leaderboard" json:"total_score"`
	HighestScore   int       `gorm:"not null;default:0" json:"highest_score"`
	CorrectAnswers int       `gorm:"not null;default:0" json:"correct_answers"`
	TotalAnswered  int       `gorm:"not null;default:0" json:"total_answered"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// AccuracyPercent возвращает процент правильных ответов за все время (0 при отсутствии ответов)
func (u *User) AccuracyPercent() int {
	if u.TotalAnswered == 0 {
		return 0
	}
	return u.CorrectAnswers * 100 / u.TotalAnswered
}
