package gameengine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	apperrors "github.com/yourusername/boltblitz-api/internal/pkg/errors"

	"github.com/yourusername/boltblitz-api/internal/domain/entity"
)

// AnswerResult - исход одного вопроса, возвращается при отправке ответа
// или таймауте и рассылается подписчикам
type AnswerResult struct {
	Correct           bool   `json:"correct"`
	Points            int    `json:"points"`
	CorrectOption     int    `json:"correct_option"`
	CorrectAnswerText string `json:"correct_answer_text"`
	Fact              string `json:"fact,omitempty"`
	TimedOut          bool   `json:"timed_out"`

	// PersistWarning заполняется, если запись результата в хранилище
	// не удалась. Игра при этом продолжается.
	PersistWarning string `json:"persist_warning,omitempty"`
}

// StateSnapshot - срез состояния раунда для запроса состояния по HTTP.
// Правильный ответ не раскрывается до завершения вопроса.
type StateSnapshot struct {
	GameID         string              `json:"game_id"`
	Phase          string              `json:"phase"`
	QuestionNumber int                 `json:"question_number"`
	QuestionCount  int                 `json:"question_count"`
	Question       *QuestionView       `json:"question,omitempty"`
	Remaining      int                 `json:"remaining_seconds"`
	Frozen         bool                `json:"frozen"`
	Eliminated     []int               `json:"eliminated,omitempty"`
	ActiveSide     string              `json:"active_side,omitempty"`
	Scores         entity.ScoreMap     `json:"scores"`
	ToolsUsed      entity.ToolUsageMap `json:"tools_used"`
	Summary        *GameSummary        `json:"summary,omitempty"`
}

// QuestionView - представление вопроса без правильного индекса
type QuestionView struct {
	ID         string   `json:"id"`
	Category   string   `json:"category"`
	Difficulty string   `json:"difficulty"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
	PictureURL string   `json:"picture_url,omitempty"`
}

// RoundController управляет жизненным циклом одной игровой сессии:
// выдача вопросов, отсчет времени, прием ответов, инструменты, итоговая
// сводка. Время движется только внешними вызовами Tick() - собственных
// таймеров у контроллера нет, что делает весь цикл детерминированным.
//
// Фазы: awaiting_start → presenting → result → presenting | completed.
// Все переходы только вперед.
type RoundController struct {
	mu sync.Mutex

	game  *entity.Game
	cfg   *Config
	deps  *Dependencies
	clock Clock

	phase Phase
	host  ParticipantRef
	guest ParticipantRef

	turns *TurnCoordinator
	tools *ToolEngine
	agg   *SummaryAggregator

	round           *RoundState
	questionsServed int
	leadInLeft      int
	resultLeft      int

	summary *GameSummary
	failure error
}

// NewRoundController создает контроллер для игровой сессии
func NewRoundController(game *entity.Game, deps *Dependencies) *RoundController {
	return NewRoundControllerWithClock(game, deps, time.Now)
}

// NewRoundControllerWithClock создает контроллер с инжектированными часами
func NewRoundControllerWithClock(game *entity.Game, deps *Dependencies, clock Clock) *RoundController {
	cfg := deps.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}

	multiplayer := game.IsMultiplayer()

	var host, guest ParticipantRef
	if multiplayer {
		host = SideRef(SideA)
		guest = SideRef(SideB)
	} else {
		host = SoloRef(game.HostUserID)
	}

	if game.Scores == nil {
		game.Scores = make(entity.ScoreMap)
	}

	return &RoundController{
		game:  game,
		cfg:   cfg,
		deps:  deps,
		clock: clock,
		phase: PhaseAwaitingStart,
		host:  host,
		guest: guest,
		turns: NewTurnCoordinator(multiplayer),
		tools: NewToolEngine(cfg, clock, game.ToolRoster, game.ToolsUsed),
		agg:   NewSummaryAggregator(),
	}
}

// GameID возвращает идентификатор сессии
func (rc *RoundController) GameID() string {
	return rc.game.ID
}

// Phase возвращает текущую фазу раунда
func (rc *RoundController) Phase() Phase {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.phase
}

// Summary возвращает итоговую сводку завершенной игры (nil до завершения)
func (rc *RoundController) Summary() *GameSummary {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.summary
}

// Failure возвращает причину аварийного завершения (nil, если игра не упала)
func (rc *RoundController) Failure() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.failure
}

// Start запускает раунд: переводит сессию в active и начинает отсчет
// вступительной задержки перед первым вопросом. Повторный вызов - ошибка.
func (rc *RoundController) Start(ctx context.Context) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.phase != PhaseAwaitingStart {
		return ErrRoundAlreadyStarted
	}

	if err := rc.game.AdvanceStatus(entity.GameStatusActive); err != nil {
		return fmt.Errorf("cannot start game %s: %w", rc.game.ID, err)
	}
	if err := rc.deps.GameRepo.UpdateStatus(rc.game.ID, entity.GameStatusActive); err != nil {
		// Персистенция не блокирует игру
		log.Printf("[RoundController] Ошибка сохранения статуса игры %s: %v", rc.game.ID, err)
	}

	rc.leadInLeft = rc.cfg.LeadInSeconds
	rc.phase = PhasePresenting

	log.Printf("[RoundController] Игра %s запущена (режим %s, вопросов %d)",
		rc.game.ID, rc.game.Mode, rc.game.QuestionCount)

	rc.broadcastLocked("game:start", map[string]interface{}{
		"game_id":        rc.game.ID,
		"mode":           rc.game.Mode,
		"question_count": rc.game.QuestionCount,
		"lead_in":        rc.cfg.LeadInSeconds,
	})

	if rc.leadInLeft == 0 {
		rc.loadNextQuestionLocked(ctx)
	}
	return nil
}

// Tick продвигает раунд на одну секунду. Вызывается внешним планировщиком;
// порядок внутри тика: вступительная задержка, затем отсчет вопроса
// (пропускается при заморозке), затем показ результата.
func (rc *RoundController) Tick(ctx context.Context) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	switch rc.phase {
	case PhasePresenting:
		if rc.leadInLeft > 0 {
			rc.leadInLeft--
			if rc.leadInLeft == 0 {
				rc.loadNextQuestionLocked(ctx)
			}
			return
		}
		if rc.round == nil {
			return
		}
		if rc.round.IsFrozen(rc.clock()) {
			return
		}
		rc.round.Remaining--
		if rc.round.Remaining <= 0 {
			// Таймаут: невыбранный или неотправленный вариант отбрасывается
			rc.finishQuestionLocked(rc.activeParticipantLocked(), noSelection, true)
		}

	case PhaseResult:
		rc.resultLeft--
		if rc.resultLeft <= 0 {
			rc.loadNextQuestionLocked(ctx)
		}
	}
}

// SelectAnswer фиксирует предварительный выбор варианта. До отправки выбор
// можно менять сколько угодно раз; счет не затрагивается.
func (rc *RoundController) SelectAnswer(actor ParticipantRef, option int) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.phase != PhasePresenting || rc.round == nil || rc.round.Question == nil {
		return ErrNoActiveQuestion
	}
	if rc.round.Answered {
		return ErrAlreadyAnswered
	}
	if !rc.turns.HoldsTurn(actor) {
		return ErrNotYourTurn
	}
	if !rc.round.Question.IsValidOption(option) {
		return apperrors.ErrValidation
	}
	if rc.round.IsEliminated(option) {
		return ErrOptionEliminated
	}

	rc.round.Selected = option
	return nil
}

// SubmitAnswer отправляет текущий выбор как окончательный ответ.
// Первая отправка защелкивает вопрос; повторные отклоняются.
func (rc *RoundController) SubmitAnswer(actor ParticipantRef) (*AnswerResult, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.phase != PhasePresenting || rc.round == nil || rc.round.Question == nil {
		return nil, ErrNoActiveQuestion
	}
	if rc.round.Answered {
		return nil, ErrAlreadyAnswered
	}
	if !rc.turns.HoldsTurn(actor) {
		return nil, ErrNotYourTurn
	}
	if !rc.round.HasSelection() {
		return nil, ErrNoSelection
	}

	return rc.finishQuestionLocked(actor, rc.round.Selected, false), nil
}

// ActivateTool применяет инструмент от имени участника
func (rc *RoundController) ActivateTool(actor ParticipantRef, toolID string) (*ToolOutcome, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.phase != PhasePresenting && rc.phase != PhaseResult {
		return nil, ErrNoActiveQuestion
	}

	outcome, err := rc.tools.Activate(toolID, actor, rc.opponentOf(actor), rc.round, rc.turns)
	if err != nil {
		return nil, err
	}

	rc.game.ToolsUsed = rc.tools.UsageSnapshot()
	if err := rc.deps.GameRepo.UpdateToolsUsed(rc.game.ID, rc.game.ToolsUsed); err != nil {
		log.Printf("[RoundController] Ошибка сохранения инструментов игры %s: %v", rc.game.ID, err)
	}

	event := map[string]interface{}{
		"game_id": rc.game.ID,
		"tool_id": outcome.ToolID,
		"by":      actor.Key(),
		"blocked": outcome.Blocked,
	}
	if len(outcome.Eliminated) > 0 {
		event["eliminated"] = outcome.Eliminated
	}
	if outcome.StruckSeconds > 0 {
		event["struck_seconds"] = outcome.StruckSeconds
	}
	rc.broadcastLocked("game:tool", event)

	return outcome, nil
}

// Snapshot возвращает срез состояния для клиента, переподключившегося по HTTP
func (rc *RoundController) Snapshot() *StateSnapshot {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	// Живая карта счета копируется под мьютексом: срез сериализуется
	// уже после разблокировки, параллельно с начислением очков
	scores := make(entity.ScoreMap, len(rc.game.Scores))
	for key, points := range rc.game.Scores {
		scores[key] = points
	}

	snap := &StateSnapshot{
		GameID:        rc.game.ID,
		Phase:         rc.phase.String(),
		QuestionCount: rc.game.QuestionCount,
		Scores:        scores,
		ToolsUsed:     rc.tools.UsageSnapshot(),
		Summary:       rc.summary,
	}
	if side, ok := rc.turns.ActiveSide(); ok {
		snap.ActiveSide = string(side)
	}
	if rc.round != nil && rc.round.Question != nil {
		snap.QuestionNumber = rc.round.Number
		snap.Remaining = rc.round.Remaining
		snap.Frozen = rc.round.IsFrozen(rc.clock())
		snap.Eliminated = rc.round.EliminatedList()
		if !rc.round.Answered {
			snap.Question = rc.questionViewLocked()
		}
	}
	return snap
}

// activeParticipantLocked возвращает участника, чей сейчас ход
func (rc *RoundController) activeParticipantLocked() ParticipantRef {
	if side, ok := rc.turns.ActiveSide(); ok {
		return SideRef(side)
	}
	return rc.host
}

// opponentOf возвращает противоположную сторону (пустая ссылка в одиночной игре)
func (rc *RoundController) opponentOf(actor ParticipantRef) ParticipantRef {
	if !rc.turns.IsMultiplayer() || actor.Kind != ParticipantSide {
		return ParticipantRef{}
	}
	return SideRef(actor.Side.Opposite())
}

// activeUserIDLocked возвращает id пользователя активной стороны
// для выборки непросмотренных вопросов
func (rc *RoundController) activeUserIDLocked() string {
	side, ok := rc.turns.ActiveSide()
	if !ok || side == SideA {
		return rc.game.HostUserID
	}
	if rc.game.GuestUserID != "" {
		return rc.game.GuestUserID
	}
	return rc.game.HostUserID
}

// loadNextQuestionLocked выдает следующий вопрос или завершает игру,
// когда все вопросы отыграны
func (rc *RoundController) loadNextQuestionLocked(ctx context.Context) {
	if rc.questionsServed >= rc.game.QuestionCount {
		rc.completeLocked()
		return
	}

	question, err := rc.deps.QuestionSource.NextQuestion(
		ctx, rc.activeUserIDLocked(), rc.game.Category, rc.game.Language)
	if err != nil {
		// Аварийное завершение без итоговой сводки: банк вопросов
		// исчерпан и генерация не дала нового
		rc.phase = PhaseFailed
		if errors.Is(err, apperrors.ErrQuestionBankExhausted) {
			rc.failure = err
		} else {
			rc.failure = fmt.Errorf("%w: %v", apperrors.ErrQuestionBankExhausted, err)
		}
		log.Printf("[RoundController] Игра %s прервана: %v", rc.game.ID, rc.failure)

		if err := rc.deps.GameRepo.UpdateStatus(rc.game.ID, entity.GameStatusEnded); err != nil {
			log.Printf("[RoundController] Ошибка сохранения статуса игры %s: %v", rc.game.ID, err)
		}
		rc.broadcastLocked("game:error", map[string]interface{}{
			"game_id": rc.game.ID,
			"message": rc.failure.Error(),
		})
		return
	}

	rc.questionsServed++
	rc.round = newRoundState(question, rc.questionsServed, rc.cfg.PerQuestionSeconds)
	rc.phase = PhasePresenting

	rc.broadcastLocked("game:question", map[string]interface{}{
		"game_id":     rc.game.ID,
		"number":      rc.round.Number,
		"total":       rc.game.QuestionCount,
		"question":    rc.questionViewLocked(),
		"seconds":     rc.round.Remaining,
		"active_side": snapActiveSide(rc.turns),
	})
}

// finishQuestionLocked - единственная точка завершения вопроса: защелкивает
// ответ, считает очки, двигает ход и запускает показ результата.
// selected == noSelection означает таймаут: выбор отброшен, очки не начисляются.
func (rc *RoundController) finishQuestionLocked(actor ParticipantRef, selected int, timedOut bool) *AnswerResult {
	rs := rc.round
	q := rs.Question

	rs.Answered = true
	rs.SubmittedOption = selected
	rs.SubmittedBy = actor
	rs.TimedOut = timedOut

	correct := selected != noSelection && q.IsCorrect(selected)
	points := ComputePoints(q.Difficulty, correct, rs.DoublePoints)

	key := actor.Key()
	rc.game.Scores[key] += points
	rc.agg.Record(key, correct)
	rc.turns.Flip()

	result := &AnswerResult{
		Correct:           correct,
		Points:            points,
		CorrectOption:     q.CorrectOption,
		CorrectAnswerText: optionText(q, q.CorrectOption),
		Fact:              q.Fact,
		TimedOut:          timedOut,
	}

	// Персистенция не откатывает уже примененный результат
	answer := &entity.GameAnswer{
		GameID:         rc.game.ID,
		QuestionID:     q.ID,
		ParticipantKey: key,
		SelectedOption: selected,
		IsCorrect:      correct,
		Points:         points,
		TimedOut:       timedOut,
	}
	if err := rc.deps.GameRepo.SaveAnswer(answer); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			log.Printf("[RoundController] Повторная запись ответа в игре %s на вопрос %s", rc.game.ID, q.ID)
		} else {
			log.Printf("[RoundController] Ошибка сохранения ответа в игре %s: %v", rc.game.ID, err)
			result.PersistWarning = "answer not persisted"
		}
	}
	if err := rc.deps.GameRepo.UpdateScores(rc.game.ID, rc.game.Scores); err != nil {
		log.Printf("[RoundController] Ошибка сохранения счета игры %s: %v", rc.game.ID, err)
		result.PersistWarning = "score not persisted"
	}

	rc.phase = PhaseResult
	rc.resultLeft = rc.cfg.ResultDisplaySeconds

	rc.broadcastLocked("game:result", map[string]interface{}{
		"game_id":             rc.game.ID,
		"number":              rs.Number,
		"by":                  key,
		"correct":             correct,
		"points":              points,
		"correct_option":      q.CorrectOption,
		"correct_answer_text": result.CorrectAnswerText,
		"fact":                q.Fact,
		"timed_out":           timedOut,
		"scores":              rc.game.Scores,
	})

	return result
}

// completeLocked завершает игру штатно и строит итоговую сводку
func (rc *RoundController) completeLocked() {
	rc.phase = PhaseCompleted
	rc.round = nil
	rc.summary = rc.agg.Build(rc.game.Scores[rc.host.Key()], rc.game.Scores)

	if err := rc.deps.GameRepo.UpdateStatus(rc.game.ID, entity.GameStatusEnded); err != nil {
		log.Printf("[RoundController] Ошибка сохранения статуса игры %s: %v", rc.game.ID, err)
	}

	log.Printf("[RoundController] Игра %s завершена: %d/%d правильных, уровень %s",
		rc.game.ID, rc.summary.CorrectAnswers, rc.summary.TotalAnswered, rc.summary.Tier)

	rc.broadcastLocked("game:finish", map[string]interface{}{
		"game_id": rc.game.ID,
		"summary": rc.summary,
	})
}

// questionViewLocked строит представление текущего вопроса без правильного индекса
func (rc *RoundController) questionViewLocked() *QuestionView {
	q := rc.round.Question
	return &QuestionView{
		ID:         q.ID,
		Category:   q.Category,
		Difficulty: q.Difficulty,
		Text:       q.Text.Resolve(rc.game.Language),
		Options:    q.Options,
		PictureURL: q.PictureURL,
	}
}

// broadcastLocked рассылает событие подписчикам сессии (best-effort)
func (rc *RoundController) broadcastLocked(eventType string, payload map[string]interface{}) {
	if rc.deps.Broadcaster == nil {
		return
	}
	payload["type"] = eventType
	if err := rc.deps.Broadcaster.BroadcastToGame(rc.game.ID, payload); err != nil {
		log.Printf("[RoundController] Ошибка рассылки события %s для игры %s: %v", eventType, rc.game.ID, err)
	}
}

func optionText(q *entity.Question, option int) string {
	if option >= 0 && option < len(q.Options) {
		return q.Options[option]
	}
	return ""
}

func snapActiveSide(turns *TurnCoordinator) string {
	if side, ok := turns.ActiveSide(); ok {
		return string(side)
	}
	return ""
}
