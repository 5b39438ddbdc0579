package gameengine

import "github.com/yourusername/boltblitz-api/internal/domain/entity"

// Пороги уровней результативности в процентах точности
const (
	TierTopThreshold = 80
	TierMidThreshold = 60
)

// Уровни результативности по итогам игры
const (
	TierTop = "top"
	TierMid = "mid"
	TierLow = "low"
)

// ParticipantTally - счетчики ответов одного участника
type ParticipantTally struct {
	CorrectAnswers int `json:"correct_answers"`
	TotalAnswered  int `json:"total_answered"`
}

// GameSummary - итоговая сводка завершенной игры.
// Общие счетчики покрывают все отвеченные вопросы игры;
// Tallies разбивает их по ключам участников.
type GameSummary struct {
	CorrectAnswers  int                         `json:"correct_answers"`
	TotalAnswered   int                         `json:"total_answered"`
	AccuracyPercent int                         `json:"accuracy_percent"`
	FinalScore      int                         `json:"final_score"`
	Tier            string                      `json:"tier"`
	Scores          entity.ScoreMap             `json:"scores"`
	Tallies         map[string]ParticipantTally `json:"tallies,omitempty"`
}

// ForParticipant строит персональную сводку по собственным счетчикам
// участника. Точность и уровень считаются только по его ответам - итоги
// многопользовательской игры сворачиваются в статистику каждого игрока
// отдельно.
func (s *GameSummary) ForParticipant(key string, finalScore int) *GameSummary {
	tally := s.Tallies[key]
	accuracy := accuracyOf(tally.CorrectAnswers, tally.TotalAnswered)

	return &GameSummary{
		CorrectAnswers:  tally.CorrectAnswers,
		TotalAnswered:   tally.TotalAnswered,
		AccuracyPercent: accuracy,
		FinalScore:      finalScore,
		Tier:            tierFor(accuracy),
		Scores:          s.Scores,
	}
}

// SummaryAggregator накапливает статистику ответов по ходу игры,
// раздельно по ключам участников. Таймауты засчитываются как
// отвеченные вопросы активной стороны.
type SummaryAggregator struct {
	tallies map[string]*ParticipantTally
}

// NewSummaryAggregator создает пустой агрегатор
func NewSummaryAggregator() *SummaryAggregator {
	return &SummaryAggregator{tallies: make(map[string]*ParticipantTally)}
}

// Record фиксирует результат одного вопроса за участником, чей был ход
func (sa *SummaryAggregator) Record(key string, correct bool) {
	tally := sa.tallies[key]
	if tally == nil {
		tally = &ParticipantTally{}
		sa.tallies[key] = tally
	}
	tally.TotalAnswered++
	if correct {
		tally.CorrectAnswers++
	}
}

// Build строит итоговую сводку по накопленной статистике и финальному счету.
// finalScore - очки участника, от имени которого строится сводка.
func (sa *SummaryAggregator) Build(finalScore int, scores entity.ScoreMap) *GameSummary {
	correct, total := 0, 0
	tallies := make(map[string]ParticipantTally, len(sa.tallies))
	for key, tally := range sa.tallies {
		tallies[key] = *tally
		correct += tally.CorrectAnswers
		total += tally.TotalAnswered
	}

	accuracy := accuracyOf(correct, total)

	snapshot := make(entity.ScoreMap, len(scores))
	for k, v := range scores {
		snapshot[k] = v
	}

	return &GameSummary{
		CorrectAnswers:  correct,
		TotalAnswered:   total,
		AccuracyPercent: accuracy,
		FinalScore:      finalScore,
		Tier:            tierFor(accuracy),
		Scores:          snapshot,
		Tallies:         tallies,
	}
}

// accuracyOf возвращает процент правильных ответов (0 при отсутствии ответов)
func accuracyOf(correct, total int) int {
	if total == 0 {
		return 0
	}
	return correct * 100 / total
}

// tierFor возвращает уровень результативности по точности
func tierFor(accuracy int) string {
	switch {
	case accuracy >= TierTopThreshold:
		return TierTop
	case accuracy >= TierMidThreshold:
		return TierMid
	default:
		return TierLow
	}
}
