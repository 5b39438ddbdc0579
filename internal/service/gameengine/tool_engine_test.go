package gameengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/boltblitz-api/internal/domain/entity"
)

// ============================================================================
// Вспомогательные функции
// ============================================================================

func fullRoster() []string {
	ids := make([]string, 0, 6)
	for _, t := range entity.ToolCatalog() {
		ids = append(ids, t.ID)
	}
	return ids
}

func testQuestion(correctOption int) *entity.Question {
	return &entity.Question{
		ID:            "q-1",
		Category:      "science",
		Difficulty:    entity.DifficultyMedium,
		Text:          entity.LocalizedText{"en": "Test question"},
		Options:       entity.StringArray{"Alpha", "Beta", "Gamma", "Delta"},
		CorrectOption: correctOption,
	}
}

func newTestToolEngine(roster []string) *ToolEngine {
	return NewToolEngine(DefaultConfig(), time.Now, roster, nil)
}

// ============================================================================
// Валидация активации
// ============================================================================

func TestToolEngine_UnknownTool(t *testing.T) {
	te := newTestToolEngine(fullRoster())
	rs := newRoundState(testQuestion(0), 1, 30)
	turns := NewTurnCoordinator(false)

	_, err := te.Activate("mind-reader", SoloRef("user-1"), ParticipantRef{}, rs, turns)

	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestToolEngine_ToolNotInRoster(t *testing.T) {
	// В составе игры только 50/50
	te := newTestToolEngine([]string{entity.ToolFiftyFifty})
	rs := newRoundState(testQuestion(0), 1, 30)
	turns := NewTurnCoordinator(false)

	_, err := te.Activate(entity.ToolShield, SoloRef("user-1"), ParticipantRef{}, rs, turns)

	assert.ErrorIs(t, err, ErrToolNotInRoster)
}

func TestToolEngine_SingleUsePerGame(t *testing.T) {
	te := newTestToolEngine(fullRoster())
	turns := NewTurnCoordinator(false)
	actor := SoloRef("user-1")

	// Первая активация проходит
	rs := newRoundState(testQuestion(0), 1, 30)
	_, err := te.Activate(entity.ToolDoublePoints, actor, ParticipantRef{}, rs, turns)
	require.NoError(t, err)

	// Повторная активация на другом вопросе отклоняется
	rs2 := newRoundState(testQuestion(1), 2, 30)
	_, err = te.Activate(entity.ToolDoublePoints, actor, ParticipantRef{}, rs2, turns)
	assert.ErrorIs(t, err, ErrToolAlreadyUsed)
}

func TestToolEngine_UsageRestoredFromPersistedState(t *testing.T) {
	// Инструменты, использованные до рестарта, остаются использованными
	usedSoFar := entity.ToolUsageMap{"user-1": {entity.ToolFiftyFifty}}
	te := NewToolEngine(DefaultConfig(), time.Now, fullRoster(), usedSoFar)
	rs := newRoundState(testQuestion(0), 1, 30)
	turns := NewTurnCoordinator(false)

	_, err := te.Activate(entity.ToolFiftyFifty, SoloRef("user-1"), ParticipantRef{}, rs, turns)

	assert.ErrorIs(t, err, ErrToolAlreadyUsed)
}

func TestToolEngine_NoActiveQuestion(t *testing.T) {
	te := newTestToolEngine(fullRoster())
	turns := NewTurnCoordinator(false)

	_, err := te.Activate(entity.ToolFiftyFifty, SoloRef("user-1"), ParticipantRef{}, nil, turns)

	assert.ErrorIs(t, err, ErrNoActiveQuestion)
}

// ============================================================================
// 50/50
// ============================================================================

func TestToolEngine_FiftyFifty_EliminatesTwoWrongOptions(t *testing.T) {
	te := newTestToolEngine(fullRoster())
	rs := newRoundState(testQuestion(2), 1, 30)
	turns := NewTurnCoordinator(false)

	outcome, err := te.Activate(entity.ToolFiftyFifty, SoloRef("user-1"), ParticipantRef{}, rs, turns)

	require.NoError(t, err)
	// Исключаются первые два неправильных индекса в порядке следования
	assert.Equal(t, []int{0, 1}, outcome.Eliminated)
	assert.True(t, rs.IsEliminated(0))
	assert.True(t, rs.IsEliminated(1))
	assert.False(t, rs.IsEliminated(2), "Правильный вариант не может быть исключен")
	assert.False(t, rs.IsEliminated(3))
}

func TestToolEngine_FiftyFifty_ClearsEliminatedSelection(t *testing.T) {
	te := newTestToolEngine(fullRoster())
	rs := newRoundState(testQuestion(2), 1, 30)
	rs.Selected = 0 // предварительный выбор попадает под исключение
	turns := NewTurnCoordinator(false)

	_, err := te.Activate(entity.ToolFiftyFifty, SoloRef("user-1"), ParticipantRef{}, rs, turns)

	require.NoError(t, err)
	assert.False(t, rs.HasSelection(), "Исключенный вариант не должен оставаться выбранным")
}

func TestToolEngine_FiftyFifty_RejectedAfterAnswer(t *testing.T) {
	te := newTestToolEngine(fullRoster())
	rs := newRoundState(testQuestion(0), 1, 30)
	rs.Answered = true
	turns := NewTurnCoordinator(false)

	_, err := te.Activate(entity.ToolFiftyFifty, SoloRef("user-1"), ParticipantRef{}, rs, turns)

	assert.ErrorIs(t, err, ErrToolNotApplicable)
	assert.False(t, te.WasUsed(SoloRef("user-1"), entity.ToolFiftyFifty),
		"Отклоненная активация не расходует инструмент")
}

// ============================================================================
// Удвоение очков и заморозка времени
// ============================================================================

func TestToolEngine_DoublePoints_SetsRoundFlag(t *testing.T) {
	te := newTestToolEngine(fullRoster())
	rs := newRoundState(testQuestion(0), 1, 30)
	turns := NewTurnCoordinator(false)

	outcome, err := te.Activate(entity.ToolDoublePoints, SoloRef("user-1"), ParticipantRef{}, rs, turns)

	require.NoError(t, err)
	assert.True(t, outcome.DoublePoints)
	assert.True(t, rs.DoublePoints)
}

func TestToolEngine_TimeFreeze_FreezesForConfiguredWindow(t *testing.T) {
	// Фиксированные часы для детерминированной проверки окна заморозки
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	te := NewToolEngine(DefaultConfig(), clock, fullRoster(), nil)
	rs := newRoundState(testQuestion(0), 1, 30)
	turns := NewTurnCoordinator(false)

	outcome, err := te.Activate(entity.ToolTimeFreeze, SoloRef("user-1"), ParticipantRef{}, rs, turns)

	require.NoError(t, err)
	assert.Equal(t, now.Add(10*time.Second), outcome.FrozenUntil)
	assert.True(t, rs.IsFrozen(now))
	assert.True(t, rs.IsFrozen(now.Add(9*time.Second)))
	assert.False(t, rs.IsFrozen(now.Add(10*time.Second)), "Окно заморозки закрывается ровно через 10 секунд")
}

// ============================================================================
// Страйк, подглядывание, щит
// ============================================================================

func TestToolEngine_Strike_ReducesOpponentTime(t *testing.T) {
	te := newTestToolEngine(fullRoster())
	rs := newRoundState(testQuestion(0), 1, 30)
	turns := NewTurnCoordinator(true) // ход стороны A

	// Сторона B бьет по ходу стороны A
	outcome, err := te.Activate(entity.ToolStrike, SideRef(SideB), SideRef(SideA), rs, turns)

	require.NoError(t, err)
	assert.Equal(t, 10, outcome.StruckSeconds)
	assert.Equal(t, 20, rs.Remaining)
}

func TestToolEngine_Strike_FloorsAtZero(t *testing.T) {
	te := newTestToolEngine(fullRoster())
	rs := newRoundState(testQuestion(0), 1, 30)
	rs.Remaining = 4
	turns := NewTurnCoordinator(true)

	_, err := te.Activate(entity.ToolStrike, SideRef(SideB), SideRef(SideA), rs, turns)

	require.NoError(t, err)
	assert.Equal(t, 0, rs.Remaining, "Оставшееся время не может стать отрицательным")
}

func TestToolEngine_Strike_RejectedOnOwnTurn(t *testing.T) {
	te := newTestToolEngine(fullRoster())
	rs := newRoundState(testQuestion(0), 1, 30)
	turns := NewTurnCoordinator(true) // ход стороны A

	// Сторона A не может бить по собственному ходу
	_, err := te.Activate(entity.ToolStrike, SideRef(SideA), SideRef(SideB), rs, turns)

	assert.ErrorIs(t, err, ErrToolNotApplicable)
}

func TestToolEngine_Strike_RejectedInSingleplayer(t *testing.T) {
	te := newTestToolEngine(fullRoster())
	rs := newRoundState(testQuestion(0), 1, 30)
	turns := NewTurnCoordinator(false)

	_, err := te.Activate(entity.ToolStrike, SoloRef("user-1"), ParticipantRef{}, rs, turns)

	assert.ErrorIs(t, err, ErrToolNotApplicable)
}

func TestToolEngine_Peek_RevealsOpponentSubmission(t *testing.T) {
	te := newTestToolEngine(fullRoster())
	rs := newRoundState(testQuestion(0), 1, 30)
	// Соперник (сторона A) уже отправил ответ на этот вопрос
	rs.Answered = true
	rs.SubmittedOption = 2
	rs.SubmittedBy = SideRef(SideA)
	turns := NewTurnCoordinator(true)

	outcome, err := te.Activate(entity.ToolPeek, SideRef(SideB), SideRef(SideA), rs, turns)

	require.NoError(t, err)
	assert.Equal(t, 2, outcome.PeekedOption)
}

func TestToolEngine_Peek_RejectedBeforeOpponentAnswers(t *testing.T) {
	te := newTestToolEngine(fullRoster())
	rs := newRoundState(testQuestion(0), 1, 30)
	turns := NewTurnCoordinator(true)

	_, err := te.Activate(entity.ToolPeek, SideRef(SideB), SideRef(SideA), rs, turns)

	assert.ErrorIs(t, err, ErrToolNotApplicable)
}

func TestToolEngine_Peek_RejectedOnOwnSubmission(t *testing.T) {
	te := newTestToolEngine(fullRoster())
	rs := newRoundState(testQuestion(0), 1, 30)
	// Отправлял сам активатор, а не соперник
	rs.Answered = true
	rs.SubmittedOption = 1
	rs.SubmittedBy = SideRef(SideB)
	turns := NewTurnCoordinator(true)

	_, err := te.Activate(entity.ToolPeek, SideRef(SideB), SideRef(SideA), rs, turns)

	assert.ErrorIs(t, err, ErrToolNotApplicable)
}

func TestToolEngine_Shield_BlocksNextDirectedEffect(t *testing.T) {
	te := newTestToolEngine(fullRoster())
	turns := NewTurnCoordinator(true) // ход стороны A

	// Сторона A поднимает щит
	rs := newRoundState(testQuestion(0), 1, 30)
	outcome, err := te.Activate(entity.ToolShield, SideRef(SideA), SideRef(SideB), rs, turns)
	require.NoError(t, err)
	assert.True(t, outcome.ShieldRaised)
	assert.True(t, te.ShieldActive(SideRef(SideA)))

	// Страйк стороны B нейтрализуется; инструмент все равно расходуется
	outcome, err = te.Activate(entity.ToolStrike, SideRef(SideB), SideRef(SideA), rs, turns)
	require.NoError(t, err)
	assert.True(t, outcome.Blocked, "Щит должен нейтрализовать страйк")
	assert.Equal(t, 30, rs.Remaining, "Нейтрализованный страйк не трогает время")
	assert.True(t, te.WasUsed(SideRef(SideB), entity.ToolStrike),
		"Нейтрализованный инструмент считается использованным")

	// Щит одноразовый
	assert.False(t, te.ShieldActive(SideRef(SideA)), "Щит расходуется первым входящим эффектом")
}

func TestToolEngine_Shield_SurvivesAcrossQuestions(t *testing.T) {
	te := newTestToolEngine(fullRoster())
	turns := NewTurnCoordinator(true)

	rs1 := newRoundState(testQuestion(0), 1, 30)
	_, err := te.Activate(entity.ToolShield, SideRef(SideA), SideRef(SideB), rs1, turns)
	require.NoError(t, err)

	// Щит поднят на первом вопросе, эффект приходит на третьем
	rs3 := newRoundState(testQuestion(1), 3, 30)
	outcome, err := te.Activate(entity.ToolStrike, SideRef(SideB), SideRef(SideA), rs3, turns)

	require.NoError(t, err)
	assert.True(t, outcome.Blocked, "Щит действует до первого входящего эффекта, а не до конца вопроса")
}

// ============================================================================
// Снимок использования
// ============================================================================

func TestToolEngine_UsageSnapshot(t *testing.T) {
	te := newTestToolEngine(fullRoster())
	turns := NewTurnCoordinator(true)
	rs := newRoundState(testQuestion(0), 1, 30)

	_, err := te.Activate(entity.ToolDoublePoints, SideRef(SideA), SideRef(SideB), rs, turns)
	require.NoError(t, err)
	_, err = te.Activate(entity.ToolShield, SideRef(SideB), SideRef(SideA), rs, turns)
	require.NoError(t, err)

	snapshot := te.UsageSnapshot()

	assert.Equal(t, []string{entity.ToolDoublePoints}, snapshot["A"])
	assert.Equal(t, []string{entity.ToolShield}, snapshot["B"])
}
