package dto

import (
	"time"

	"github.com/yourusername/boltblitz-api/internal/domain/entity"
)

// GameResponse представляет игровую сессию в формате для ответа клиенту
type GameResponse struct {
	ID            string              `json:"id"`
	Mode          string              `json:"mode"`
	Status        string              `json:"status"`
	HostUserID    string              `json:"host_user_id"`
	GuestUserID   string              `json:"guest_user_id,omitempty"`
	Category      string              `json:"category,omitempty"`
	Language      string              `json:"language"`
	QuestionCount int                 `json:"question_count"`
	Multiplayer   bool                `json:"multiplayer"`
	Scores        entity.ScoreMap     `json:"scores"`
	ToolsUsed     entity.ToolUsageMap `json:"tools_used"`
	ToolRoster    []string            `json:"tool_roster"`
	CreatedAt     time.Time           `json:"created_at"`
}

// NewGameResponse создает DTO из сущности игры
func NewGameResponse(game *entity.Game) GameResponse {
	return GameResponse{
		ID:            game.ID,
		Mode:          game.Mode,
		Status:        game.Status,
		HostUserID:    game.HostUserID,
		GuestUserID:   game.GuestUserID,
		Category:      game.Category,
		Language:      game.Language,
		QuestionCount: game.QuestionCount,
		Multiplayer:   game.IsMultiplayer(),
		Scores:        game.Scores,
		ToolsUsed:     game.ToolsUsed,
		ToolRoster:    game.ToolRoster,
		CreatedAt:     game.CreatedAt,
	}
}

// NewGameListResponse создает список DTO из сущностей игр
func NewGameListResponse(games []entity.Game) []GameResponse {
	out := make([]GameResponse, 0, len(games))
	for i := range games {
		out = append(out, NewGameResponse(&games[i]))
	}
	return out
}

// UserStatsResponse представляет агрегаты пользователя
type UserStatsResponse struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	ProfilePicture  string `json:"profile_picture,omitempty"`
	Coins           int    `json:"coins"`
	Gems            int    `json:"gems"`
	GamesPlayed     int    `json:"games_played"`
	WinsCount       int    `json:"wins_count"`
	TotalScore      int    `json:"total_score"`
	HighestScore    int    `json:"highest_score"`
	CorrectAnswers  int    `json:"correct_answers"`
	TotalAnswered   int    `json:"total_answered"`
	AccuracyPercent int    `json:"accuracy_percent"`
}

// NewUserStatsResponse создает DTO из сущности пользователя
func NewUserStatsResponse(user *entity.User) UserStatsResponse {
	return UserStatsResponse{
		ID:              user.ID,
		Username:        user.Username,
		ProfilePicture:  user.ProfilePicture,
		Coins:           user.Coins,
		Gems:            user.Gems,
		GamesPlayed:     user.GamesPlayed,
		WinsCount:       user.WinsCount,
		TotalScore:      user.TotalScore,
		HighestScore:    user.HighestScore,
		CorrectAnswers:  user.CorrectAnswers,
		TotalAnswered:   user.TotalAnswered,
		AccuracyPercent: user.AccuracyPercent(),
	}
}

// AchievementResponse представляет открытое достижение
type AchievementResponse struct {
	AchievementID string    `json:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}

// NewAchievementListResponse создает список DTO достижений
func NewAchievementListResponse(achievements []entity.UserAchievement) []AchievementResponse {
	out := make([]AchievementResponse, 0, len(achievements))
	for _, a := range achievements {
		out = append(out, AchievementResponse{
			AchievementID: a.AchievementID,
			UnlockedAt:    a.UnlockedAt,
		})
	}
	return out
}
