package service

import (
	"fmt"
	"log"
	"time"

	"github.com/yourusername/boltblitz-api/internal/domain/entity"
	"github.com/yourusername/boltblitz-api/internal/domain/repository"
	"github.com/yourusername/boltblitz-api/internal/service/gameengine"
)

// Награды по уровням результативности
var tierRewards = map[string]struct{ Coins, Gems int }{
	gameengine.TierTop: {Coins: 50, Gems: 5},
	gameengine.TierMid: {Coins: 25, Gems: 2},
	gameengine.TierLow: {Coins: 10, Gems: 0},
}

// Пороговые достижения
const (
	achievementFirstWin    = "first-win"
	achievementTenWins     = "ten-wins"
	achievementPerfectGame = "perfect-game"
	achievementHighScorer  = "high-scorer"
	achievementVeteran     = "veteran"
)

const (
	veteranGamesThreshold    = 50
	highScorerScoreThreshold = 1000
	tenWinsThreshold         = 10
)

// StatsService сворачивает итоги завершенных игр в агрегаты пользователя
// и обслуживает таблицу лидеров
type StatsService struct {
	userRepo        repository.UserRepository
	achievementRepo repository.AchievementRepository
}

// NewStatsService создает новый сервис статистики
func NewStatsService(
	userRepo repository.UserRepository,
	achievementRepo repository.AchievementRepository,
) *StatsService {
	return &StatsService{
		userRepo:        userRepo,
		achievementRepo: achievementRepo,
	}
}

// ApplyGameSummary сворачивает итог игры в агрегаты пользователя:
// счетчики игр и побед, суммарный и лучший счет, точность, награды по
// уровню, пороговые достижения. Вызывается один раз на пользователя
// после завершения игры.
func (s *StatsService) ApplyGameSummary(userID string, summary *gameengine.GameSummary, won bool) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return fmt.Errorf("failed to load user %s: %w", userID, err)
	}

	user.GamesPlayed++
	if won {
		user.WinsCount++
	}
	user.TotalScore += summary.FinalScore
	if summary.FinalScore > user.HighestScore {
		user.HighestScore = summary.FinalScore
	}
	user.CorrectAnswers += summary.CorrectAnswers
	user.TotalAnswered += summary.TotalAnswered

	reward := tierRewards[summary.Tier]
	user.Coins += reward.Coins
	user.Gems += reward.Gems

	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to update user %s stats: %w", userID, err)
	}

	log.Printf("[StatsService] Пользователь %s: игра учтена (счет %d, уровень %s, +%d монет)",
		userID, summary.FinalScore, summary.Tier, reward.Coins)

	s.evaluateAchievements(user, summary, won)
	return nil
}

// evaluateAchievements открывает пороговые достижения (best-effort)
func (s *StatsService) evaluateAchievements(user *entity.User, summary *gameengine.GameSummary, won bool) {
	var unlocked []string

	if won && user.WinsCount == 1 {
		unlocked = append(unlocked, achievementFirstWin)
	}
	if won && user.WinsCount == tenWinsThreshold {
		unlocked = append(unlocked, achievementTenWins)
	}
	if summary.TotalAnswered > 0 && summary.AccuracyPercent == 100 {
		unlocked = append(unlocked, achievementPerfectGame)
	}
	if summary.FinalScore >= highScorerScoreThreshold {
		unlocked = append(unlocked, achievementHighScorer)
	}
	if user.GamesPlayed == veteranGamesThreshold {
		unlocked = append(unlocked, achievementVeteran)
	}

	for _, id := range unlocked {
		achievement := &entity.UserAchievement{
			UserID:        user.ID,
			AchievementID: id,
			UnlockedAt:    time.Now(),
		}
		// Save идемпотентен: повторное открытие молча игнорируется
		if err := s.achievementRepo.Save(achievement); err != nil {
			log.Printf("[StatsService] Ошибка сохранения достижения %s для %s: %v", id, user.ID, err)
			continue
		}
		log.Printf("[StatsService] Пользователь %s открыл достижение %s", user.ID, id)
	}
}

// GetUserStats возвращает агрегаты пользователя
func (s *StatsService) GetUserStats(userID string) (*entity.User, error) {
	return s.userRepo.GetByID(userID)
}

// GetAchievements возвращает достижения пользователя
func (s *StatsService) GetAchievements(userID string) ([]entity.UserAchievement, error) {
	return s.achievementRepo.GetByUser(userID)
}

// LeaderboardEntry - строка таблицы лидеров
type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	TotalScore     int    `json:"total_score"`
	WinsCount      int    `json:"wins_count"`
	GamesPlayed    int    `json:"games_played"`
}

// GetLeaderboard возвращает страницу таблицы лидеров и общее число игроков
func (s *StatsService) GetLeaderboard(page, pageSize int) ([]LeaderboardEntry, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	users, total, err := s.userRepo.GetLeaderboard(pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, LeaderboardEntry{
			Rank:           offset + i + 1,
			UserID:         u.ID,
			Username:       u.Username,
			ProfilePicture: u.ProfilePicture,
			TotalScore:     u.TotalScore,
			WinsCount:      u.WinsCount,
			GamesPlayed:    u.GamesPlayed,
		})
	}
	return entries, total, nil
}
