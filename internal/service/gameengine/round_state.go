package gameengine

import (
	"time"

	"github.com/yourusername/boltblitz-api/internal/domain/entity"
)

// noSelection - маркер отсутствия выбранного варианта
const noSelection = -1

// RoundState - эфемерное состояние текущего вопроса. Создается заново для
// каждого вопроса и отбрасывается целиком при переходе к следующему;
// между вопросами переносятся только счет и набор использованных инструментов.
type RoundState struct {
	Question *entity.Question
	Number   int // Порядковый номер вопроса, начиная с 1

	// Выбор участника. До отправки может быть перезаписан; после отправки
	// или таймаута неизменен.
	Selected int

	// Answered - одноразовая защелка: становится true при отправке ответа
	// или истечении времени и уже не сбрасывается для этого вопроса.
	Answered bool

	// SubmittedOption и SubmittedBy фиксируются в момент отправки
	// (noSelection при таймауте - выбор отбрасывается, не отправляется)
	SubmittedOption int
	SubmittedBy     ParticipantRef
	TimedOut        bool

	// Remaining - целочисленный счетчик секунд, уменьшается внешним Tick()
	Remaining int

	// Eliminated - индексы, исключенные инструментом 50/50
	Eliminated map[int]bool

	// Модификаторы текущего вопроса
	DoublePoints bool
	FrozenUntil  time.Time
}

// newRoundState создает чистое состояние для очередного вопроса
func newRoundState(question *entity.Question, number, seconds int) *RoundState {
	return &RoundState{
		Question:        question,
		Number:          number,
		Selected:        noSelection,
		SubmittedOption: noSelection,
		Remaining:       seconds,
		Eliminated:      make(map[int]bool),
	}
}

// HasSelection проверяет, выбран ли вариант ответа
func (rs *RoundState) HasSelection() bool {
	return rs.Selected != noSelection
}

// IsEliminated проверяет, исключен ли вариант
func (rs *RoundState) IsEliminated(option int) bool {
	return rs.Eliminated[option]
}

// IsFrozen проверяет, заморожен ли таймер на данный момент времени
func (rs *RoundState) IsFrozen(now time.Time) bool {
	return now.Before(rs.FrozenUntil)
}

// EliminatedList возвращает исключенные индексы в возрастающем порядке
func (rs *RoundState) EliminatedList() []int {
	out := make([]int, 0, len(rs.Eliminated))
	for i := 0; i < rs.Question.OptionsCount(); i++ {
		if rs.Eliminated[i] {
			out = append(out, i)
		}
	}
	return out
}
