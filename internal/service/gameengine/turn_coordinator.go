package gameengine

// TurnCoordinator чередует ход между двумя сторонами в многопользовательских
// режимах. Переключение происходит ровно один раз после каждого завершенного
// вопроса (ответ или таймаут), независимо от правильности.
// В одиночных режимах координатор пассивен: ход всегда у участника.
type TurnCoordinator struct {
	multiplayer bool
	current     Side
}

// NewTurnCoordinator создает координатор ходов. Первой всегда ходит сторона A.
func NewTurnCoordinator(multiplayer bool) *TurnCoordinator {
	return &TurnCoordinator{
		multiplayer: multiplayer,
		current:     SideA,
	}
}

// IsMultiplayer возвращает true, если ходы чередуются
func (tc *TurnCoordinator) IsMultiplayer() bool {
	return tc.multiplayer
}

// ActiveSide возвращает сторону, владеющую ходом (false в одиночных режимах)
func (tc *TurnCoordinator) ActiveSide() (Side, bool) {
	if !tc.multiplayer {
		return "", false
	}
	return tc.current, true
}

// HoldsTurn проверяет, владеет ли участник ходом.
// В одиночных режимах всегда true.
func (tc *TurnCoordinator) HoldsTurn(ref ParticipantRef) bool {
	if !tc.multiplayer {
		return true
	}
	return ref.Kind == ParticipantSide && ref.Side == tc.current
}

// Flip передает ход другой стороне. В одиночных режимах ничего не делает.
func (tc *TurnCoordinator) Flip() {
	if !tc.multiplayer {
		return
	}
	tc.current = tc.current.Opposite()
}
