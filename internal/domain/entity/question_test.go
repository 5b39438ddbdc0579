package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuestion_IsCorrect(t *testing.T) {
	// Arrange
	question := &Question{
		ID:            "q-1",
		Text:          LocalizedText{"en": "Which language powers this server?"},
		Options:       StringArray{"Python", "Go", "Java", "Rust"},
		CorrectOption: 1,
	}

	// Act & Assert
	assert.True(t, question.IsCorrect(1), "IsCorrect должен вернуть true для правильного ответа")
	assert.False(t, question.IsCorrect(0), "IsCorrect должен вернуть false для неправильного ответа")
	assert.False(t, question.IsCorrect(3), "IsCorrect должен вернуть false для неправильного ответа")
}

func TestQuestion_IsValidOption(t *testing.T) {
	// Arrange
	question := &Question{
		Options: StringArray{"A", "B", "C", "D"},
	}

	// Act & Assert: валидные опции
	assert.True(t, question.IsValidOption(0), "Индекс 0 должен быть валидным")
	assert.True(t, question.IsValidOption(3), "Индекс 3 должен быть валидным")

	// Assert: невалидные опции
	assert.False(t, question.IsValidOption(-1), "Отрицательный индекс должен быть невалидным")
	assert.False(t, question.IsValidOption(4), "Индекс вне диапазона должен быть невалидным")
}

func TestQuestion_BasePoints(t *testing.T) {
	tests := []struct {
		difficulty string
		expected   int
	}{
		{DifficultyEasy, 100},
		{DifficultyMedium, 200},
		{DifficultyHard, 400},
		{"unknown", 200}, // неизвестная сложность трактуется как Medium
	}

	for _, tt := range tests {
		t.Run(tt.difficulty, func(t *testing.T) {
			q := &Question{Difficulty: tt.difficulty}
			assert.Equal(t, tt.expected, q.BasePoints())
		})
	}
}

func TestQuestion_WrongOptions(t *testing.T) {
	// Arrange
	question := &Question{
		Options:       StringArray{"A", "B", "C", "D"},
		CorrectOption: 2,
	}

	// Act & Assert: неправильные индексы в порядке следования
	assert.Equal(t, []int{0, 1, 3}, question.WrongOptions())
}

func TestQuestion_WasViewedBy(t *testing.T) {
	// Arrange
	question := &Question{ViewedBy: StringArray{"user-1", "user-2"}}

	// Act & Assert
	assert.True(t, question.WasViewedBy("user-1"))
	assert.False(t, question.WasViewedBy("user-3"))
}

func TestLocalizedText_Resolve(t *testing.T) {
	// Arrange
	text := LocalizedText{"en": "Hello", "ru": "Привет"}

	// Act & Assert
	assert.Equal(t, "Привет", text.Resolve("ru"))
	assert.Equal(t, "Hello", text.Resolve("en"))
	assert.Equal(t, "Hello", text.Resolve("de"), "Отсутствующий язык должен падать на английский")
}
