package entity

import (
	"time"
)

// GameAnswer представляет результат одного вопроса в рамках игровой сессии.
// Уникальный индекс (game_id, question_id) не позволяет записать два результата
// на один и тот же вопрос.
type GameAnswer struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	GameID         string    `gorm:"type:uuid;not null;index;uniqueIndex:idx_game_question" json:"game_id"`
	QuestionID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_game_question" json:"question_id"`
	ParticipantKey string    `gorm:"size:64;not null" json:"participant_key"`
	SelectedOption int       `gorm:"not null;default:-1" json:"selected_option"`
	IsCorrect      bool      `gorm:"not null" json:"is_correct"`
	Points         int       `gorm:"not null;default:0" json:"points"`
	TimedOut       bool      `gorm:"not null;default:false" json:"timed_out"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (GameAnswer) TableName() string {
	return "game_answers"
}
