package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/boltblitz-api/internal/domain/entity"
	apperrors "github.com/yourusername/boltblitz-api/internal/pkg/errors"
	"github.com/yourusername/boltblitz-api/internal/service/gameengine"
)

// ============================================================================
// Моки для StatsService
// ============================================================================

// MockUserRepoForStats реализует repository.UserRepository
type MockUserRepoForStats struct {
	mock.Mock
}

func (m *MockUserRepoForStats) GetByID(id string) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepoForStats) Update(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepoForStats) GetLeaderboard(limit, offset int) ([]entity.User, int64, error) {
	args := m.Called(limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.User), args.Get(1).(int64), args.Error(2)
}

// MockAchievementRepoForStats реализует repository.AchievementRepository
type MockAchievementRepoForStats struct {
	mock.Mock
}

func (m *MockAchievementRepoForStats) GetByUser(userID string) ([]entity.UserAchievement, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.UserAchievement), args.Error(1)
}

func (m *MockAchievementRepoForStats) Save(achievement *entity.UserAchievement) error {
	args := m.Called(achievement)
	return args.Error(0)
}

// ============================================================================
// Тесты для StatsService
// ============================================================================

func TestStatsService_ApplyGameSummary_FoldsAggregates(t *testing.T) {
	// Arrange
	mockUserRepo := new(MockUserRepoForStats)
	mockAchievementRepo := new(MockAchievementRepoForStats)

	user := &entity.User{
		ID:             "user-1",
		Username:       "alice",
		GamesPlayed:    5,
		WinsCount:      2,
		TotalScore:     1500,
		HighestScore:   600,
		CorrectAnswers: 12,
		TotalAnswered:  20,
		Coins:          100,
	}
	mockUserRepo.On("GetByID", "user-1").Return(user, nil)

	var updated *entity.User
	mockUserRepo.On("Update", mock.AnythingOfType("*entity.User")).
		Run(func(args mock.Arguments) { updated = args.Get(0).(*entity.User) }).
		Return(nil)
	mockAchievementRepo.On("Save", mock.Anything).Return(nil)

	svc := NewStatsService(mockUserRepo, mockAchievementRepo)
	summary := &gameengine.GameSummary{
		CorrectAnswers:  4,
		TotalAnswered:   5,
		AccuracyPercent: 80,
		FinalScore:      800,
		Tier:            gameengine.TierTop,
	}

	// Act
	err := svc.ApplyGameSummary("user-1", summary, true)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, 6, updated.GamesPlayed)
	assert.Equal(t, 3, updated.WinsCount)
	assert.Equal(t, 2300, updated.TotalScore)
	assert.Equal(t, 800, updated.HighestScore, "Новый лучший счет должен обновиться")
	assert.Equal(t, 16, updated.CorrectAnswers)
	assert.Equal(t, 25, updated.TotalAnswered)
	assert.Equal(t, 150, updated.Coins, "Верхний уровень дает 50 монет")
	mockUserRepo.AssertExpectations(t)
}

func TestStatsService_ApplyGameSummary_HighestScoreNotLowered(t *testing.T) {
	// Arrange
	mockUserRepo := new(MockUserRepoForStats)
	mockAchievementRepo := new(MockAchievementRepoForStats)

	user := &entity.User{ID: "user-1", HighestScore: 900, GamesPlayed: 10}
	mockUserRepo.On("GetByID", "user-1").Return(user, nil)

	var updated *entity.User
	mockUserRepo.On("Update", mock.AnythingOfType("*entity.User")).
		Run(func(args mock.Arguments) { updated = args.Get(0).(*entity.User) }).
		Return(nil)

	svc := NewStatsService(mockUserRepo, mockAchievementRepo)
	summary := &gameengine.GameSummary{FinalScore: 300, Tier: gameengine.TierLow, TotalAnswered: 4}

	// Act
	err := svc.ApplyGameSummary("user-1", summary, false)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 900, updated.HighestScore, "Лучший счет не понижается")
	assert.Equal(t, 0, updated.WinsCount)
}

func TestStatsService_ApplyGameSummary_FirstWinAchievement(t *testing.T) {
	// Arrange
	mockUserRepo := new(MockUserRepoForStats)
	mockAchievementRepo := new(MockAchievementRepoForStats)

	user := &entity.User{ID: "user-1", WinsCount: 0}
	mockUserRepo.On("GetByID", "user-1").Return(user, nil)
	mockUserRepo.On("Update", mock.Anything).Return(nil)

	var saved []string
	mockAchievementRepo.On("Save", mock.AnythingOfType("*entity.UserAchievement")).
		Run(func(args mock.Arguments) {
			saved = append(saved, args.Get(0).(*entity.UserAchievement).AchievementID)
		}).
		Return(nil)

	svc := NewStatsService(mockUserRepo, mockAchievementRepo)
	summary := &gameengine.GameSummary{
		CorrectAnswers:  5,
		TotalAnswered:   5,
		AccuracyPercent: 100,
		FinalScore:      500,
		Tier:            gameengine.TierTop,
	}

	// Act
	err := svc.ApplyGameSummary("user-1", summary, true)

	// Assert
	require.NoError(t, err)
	assert.Contains(t, saved, achievementFirstWin, "Первая победа должна открыть достижение")
	assert.Contains(t, saved, achievementPerfectGame, "Стопроцентная точность должна открыть достижение")
}

func TestStatsService_ApplyGameSummary_UserNotFound(t *testing.T) {
	// Arrange
	mockUserRepo := new(MockUserRepoForStats)
	mockAchievementRepo := new(MockAchievementRepoForStats)
	mockUserRepo.On("GetByID", "missing").Return(nil, apperrors.ErrNotFound)

	svc := NewStatsService(mockUserRepo, mockAchievementRepo)

	// Act
	err := svc.ApplyGameSummary("missing", &gameengine.GameSummary{}, false)

	// Assert
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	mockUserRepo.AssertNotCalled(t, "Update")
}

func TestStatsService_GetLeaderboard_Ranks(t *testing.T) {
	// Arrange
	mockUserRepo := new(MockUserRepoForStats)
	mockAchievementRepo := new(MockAchievementRepoForStats)

	users := []entity.User{
		{ID: "u1", Username: "alice", TotalScore: 900},
		{ID: "u2", Username: "bob", TotalScore: 700},
	}
	// Вторая страница по 2 записи: ранги продолжаются с 3
	mockUserRepo.On("GetLeaderboard", 2, 2).Return(users, int64(10), nil)

	svc := NewStatsService(mockUserRepo, mockAchievementRepo)

	// Act
	entries, total, err := svc.GetLeaderboard(2, 2)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
	require.Len(t, entries, 2)
	assert.Equal(t, 3, entries[0].Rank)
	assert.Equal(t, 4, entries[1].Rank)
	assert.Equal(t, "alice", entries[0].Username)
}
