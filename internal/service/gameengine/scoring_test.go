package gameengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yourusername/boltblitz-api/internal/domain/entity"
)

func TestComputePoints_ByDifficulty(t *testing.T) {
	tests := []struct {
		name       string
		difficulty string
		correct    bool
		double     bool
		expected   int
	}{
		{"easy correct", entity.DifficultyEasy, true, false, 100},
		{"medium correct", entity.DifficultyMedium, true, false, 200},
		{"hard correct", entity.DifficultyHard, true, false, 400},
		{"unknown difficulty falls back to medium", "nightmare", true, false, 200},
		{"easy incorrect", entity.DifficultyEasy, false, false, 0},
		{"hard incorrect", entity.DifficultyHard, false, false, 0},
		{"easy correct doubled", entity.DifficultyEasy, true, true, 200},
		{"medium correct doubled", entity.DifficultyMedium, true, true, 400},
		{"hard correct doubled", entity.DifficultyHard, true, true, 800},
		{"incorrect not doubled", entity.DifficultyHard, false, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points := ComputePoints(tt.difficulty, tt.correct, tt.double)
			assert.Equal(t, tt.expected, points, "Неверное количество очков")
		})
	}
}

func TestComputePoints_DoubleAppliesAfterBase(t *testing.T) {
	// Удвоение применяется к базовым очкам сложности, а не наоборот
	base := ComputePoints(entity.DifficultyHard, true, false)
	doubled := ComputePoints(entity.DifficultyHard, true, true)

	assert.Equal(t, base*2, doubled, "Удвоенные очки должны быть ровно вдвое больше базовых")
}
