package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/boltblitz-api/internal/domain/entity"
	apperrors "github.com/yourusername/boltblitz-api/internal/pkg/errors"
)

// ============================================================================
// Моки для QuestionService
// ============================================================================

// MockQuestionRepoForService реализует repository.QuestionRepository
type MockQuestionRepoForService struct {
	mock.Mock
}

func (m *MockQuestionRepoForService) Create(question *entity.Question) error {
	args := m.Called(question)
	return args.Error(0)
}

func (m *MockQuestionRepoForService) CreateBatch(questions []entity.Question) error {
	args := m.Called(questions)
	return args.Error(0)
}

func (m *MockQuestionRepoForService) GetByID(id string) (*entity.Question, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockQuestionRepoForService) GetUnseenQuestion(userID string, category string) (*entity.Question, error) {
	args := m.Called(userID, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockQuestionRepoForService) MarkViewed(questionID string, userID string) error {
	args := m.Called(questionID, userID)
	return args.Error(0)
}

func (m *MockQuestionRepoForService) GetCategoryTexts(category string, limit int) ([]string, error) {
	args := m.Called(category, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockQuestionRepoForService) CountUnseen(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockCacheRepoForService реализует repository.CacheRepository
type MockCacheRepoForService struct {
	mock.Mock
}

func (m *MockCacheRepoForService) Set(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepoForService) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepoForService) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCacheRepoForService) Exists(key string) (bool, error) {
	args := m.Called(key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepoForService) SetNX(key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(key, value, expiration)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepoForService) SAdd(key string, members ...string) error {
	args := m.Called(key, members)
	return args.Error(0)
}

func (m *MockCacheRepoForService) SMembers(key string) ([]string, error) {
	args := m.Called(key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCacheRepoForService) SRem(key string, members ...string) error {
	args := m.Called(key, members)
	return args.Error(0)
}

// newPermissiveCache разрешает все операции кеша
func newPermissiveCache() *MockCacheRepoForService {
	cache := new(MockCacheRepoForService)
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return cache
}

// ============================================================================
// Тесты для NextQuestion
// ============================================================================

func TestQuestionService_NextQuestion_FromBank(t *testing.T) {
	// Arrange
	mockRepo := new(MockQuestionRepoForService)
	question := &entity.Question{ID: "q-1", Category: "science"}
	mockRepo.On("GetUnseenQuestion", "user-1", "science").Return(question, nil)
	mockRepo.On("MarkViewed", "q-1", "user-1").Return(nil)

	svc := NewQuestionService(mockRepo, newPermissiveCache(), GenerationConfig{})

	// Act
	got, err := svc.NextQuestion(context.Background(), "user-1", "science", "en")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "q-1", got.ID)
	mockRepo.AssertExpectations(t)
}

func TestQuestionService_NextQuestion_ExhaustedAndGenerationDisabled(t *testing.T) {
	// Arrange: банк пуст, генерация выключена
	mockRepo := new(MockQuestionRepoForService)
	mockRepo.On("GetUnseenQuestion", "user-1", "").Return(nil, apperrors.ErrNotFound)

	svc := NewQuestionService(mockRepo, newPermissiveCache(), GenerationConfig{Enabled: false})

	// Act
	_, err := svc.NextQuestion(context.Background(), "user-1", "", "en")

	// Assert: фатальный случай исчерпания банка
	assert.ErrorIs(t, err, apperrors.ErrQuestionBankExhausted)
}

func TestQuestionService_NextQuestion_GeneratesWhenExhausted(t *testing.T) {
	// Arrange: банк пуст, генерация отвечает валидным вопросом
	server := newGenerationStub(t, generatedQuestion{
		Question:      "What is the chemical symbol for gold?",
		CorrectAnswer: "Au",
		WrongAnswers:  []string{"Ag", "Go", "Gd"},
		Fact:          "Gold is one of the least reactive chemical elements.",
	})
	defer server.Close()

	mockRepo := new(MockQuestionRepoForService)
	mockRepo.On("GetUnseenQuestion", "user-1", "science").Return(nil, apperrors.ErrNotFound)
	mockRepo.On("GetCategoryTexts", "science", dedupeContextSize).Return([]string{}, nil)

	var created *entity.Question
	mockRepo.On("Create", mock.AnythingOfType("*entity.Question")).
		Run(func(args mock.Arguments) { created = args.Get(0).(*entity.Question) }).
		Return(nil)
	mockRepo.On("MarkViewed", mock.Anything, "user-1").Return(nil)

	svc := NewQuestionService(mockRepo, newPermissiveCache(), GenerationConfig{
		Enabled:   true,
		APIKey:    "test-key",
		BaseURL:   server.URL,
		ChatModel: "gpt-4o",
	})

	// Act
	got, err := svc.NextQuestion(context.Background(), "user-1", "science", "en")

	// Assert
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "science", created.Category)
	assert.Len(t, created.Options, 4)
	// Правильный индекс указывает на правильный ответ после перемешивания
	assert.Equal(t, "Au", created.Options[created.CorrectOption])
	assert.ElementsMatch(t, []string{"Au", "Ag", "Go", "Gd"}, []string(created.Options))
	assert.Equal(t, "Gold is one of the least reactive chemical elements.", created.Fact)
}

func TestQuestionService_Generate_IncompleteModelOutput(t *testing.T) {
	// Arrange: модель вернула JSON без достаточного числа неправильных ответов
	server := newGenerationStub(t, generatedQuestion{
		Question:      "Broken",
		CorrectAnswer: "X",
		WrongAnswers:  []string{"Y"},
	})
	defer server.Close()

	mockRepo := new(MockQuestionRepoForService)
	mockRepo.On("GetCategoryTexts", mock.Anything, mock.Anything).Return([]string{}, nil)

	svc := NewQuestionService(mockRepo, newPermissiveCache(), GenerationConfig{
		Enabled:   true,
		APIKey:    "test-key",
		BaseURL:   server.URL,
		ChatModel: "gpt-4o",
	})

	// Act
	_, err := svc.Generate(context.Background(), "science", "en")

	// Assert
	assert.Error(t, err)
	mockRepo.AssertNotCalled(t, "Create")
}

// newGenerationStub поднимает OpenAI-совместимую заглушку chat/completions
func newGenerationStub(t *testing.T, out generatedQuestion) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		content, err := json.Marshal(out)
		require.NoError(t, err)
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"content": string(content)}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}
