package gameengine

import (
	"github.com/yourusername/boltblitz-api/internal/domain/entity"
)

// ComputePoints рассчитывает очки за ответ. Чистая функция состояния раунда.
// Базовые очки по сложности: Easy = 100, Medium = 200, Hard = 400.
// Неправильный ответ всегда дает 0 независимо от модификаторов.
// Активный double-points удваивает базовые очки правильного ответа.
// Отрицательных значений функция не возвращает.
func ComputePoints(difficulty string, correct bool, doublePointsActive bool) int {
	if !correct {
		return 0
	}

	var base int
	switch difficulty {
	case entity.DifficultyEasy:
		base = entity.PointsEasy
	case entity.DifficultyHard:
		base = entity.PointsHard
	default:
		base = entity.PointsMedium
	}

	if doublePointsActive {
		return base * 2
	}
	return base
}
