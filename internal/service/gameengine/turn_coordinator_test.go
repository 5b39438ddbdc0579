package gameengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTurnCoordinator_Singleplayer(t *testing.T) {
	tc := NewTurnCoordinator(false)

	assert.False(t, tc.IsMultiplayer())

	_, ok := tc.ActiveSide()
	assert.False(t, ok, "В одиночной игре нет активной стороны")

	// Одиночный участник всегда держит ход, Flip - no-op
	solo := SoloRef("user-1")
	assert.True(t, tc.HoldsTurn(solo))
	tc.Flip()
	assert.True(t, tc.HoldsTurn(solo), "Flip не должен менять ничего в одиночной игре")
}

func TestTurnCoordinator_AlternatesAfterEveryFlip(t *testing.T) {
	tc := NewTurnCoordinator(true)

	// Игра начинается с хода стороны A
	side, ok := tc.ActiveSide()
	assert.True(t, ok)
	assert.Equal(t, SideA, side)
	assert.True(t, tc.HoldsTurn(SideRef(SideA)))
	assert.False(t, tc.HoldsTurn(SideRef(SideB)))

	// Ход переходит после каждого завершенного вопроса,
	// независимо от правильности ответа или таймаута
	tc.Flip()
	side, _ = tc.ActiveSide()
	assert.Equal(t, SideB, side)
	assert.True(t, tc.HoldsTurn(SideRef(SideB)))
	assert.False(t, tc.HoldsTurn(SideRef(SideA)))

	tc.Flip()
	side, _ = tc.ActiveSide()
	assert.Equal(t, SideA, side, "После двух смен ход возвращается к стороне A")
}

func TestTurnCoordinator_SoloRefNeverHoldsSideTurn(t *testing.T) {
	tc := NewTurnCoordinator(true)

	// Ссылка без стороны не может держать ход в многопользовательской игре
	assert.False(t, tc.HoldsTurn(SoloRef("user-1")))
}
