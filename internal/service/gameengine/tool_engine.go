package gameengine

import (
	"log"
	"time"

	"github.com/yourusername/boltblitz-api/internal/domain/entity"
)

// ToolEngine отслеживает доступные и использованные инструменты и применяет
// их эффекты к состоянию раунда. Каждый инструмент используется не более
// одного раза за игру на сторону; факт использования фиксируется при
// активации независимо от того, сработал ли эффект.
type ToolEngine struct {
	cfg    *Config
	clock  Clock
	roster map[string]bool
	used   map[string]map[string]bool // ключ участника → id инструмента → true

	// Активные щиты по ключам участников. Щит переживает смену вопросов
	// и расходуется при первом входящем направленном эффекте соперника.
	shields map[string]bool
}

// ToolOutcome описывает результат активации инструмента для презентации
type ToolOutcome struct {
	ToolID string `json:"tool_id"`

	// Blocked = true, если эффект нейтрализован щитом цели.
	// Инструмент при этом все равно считается использованным.
	Blocked bool `json:"blocked"`

	// Заполняются в зависимости от инструмента
	Eliminated    []int     `json:"eliminated,omitempty"`
	DoublePoints  bool      `json:"double_points,omitempty"`
	FrozenUntil   time.Time `json:"frozen_until,omitempty"`
	StruckSeconds int       `json:"struck_seconds,omitempty"`
	PeekedOption  int       `json:"peeked_option,omitempty"`
	ShieldRaised  bool      `json:"shield_raised,omitempty"`
}

// NewToolEngine создает движок инструментов для одной игровой сессии.
// usedSoFar восстанавливает ранее использованные инструменты из
// персистентной записи сессии.
func NewToolEngine(cfg *Config, clock Clock, roster []string, usedSoFar entity.ToolUsageMap) *ToolEngine {
	rosterSet := make(map[string]bool, len(roster))
	for _, id := range roster {
		rosterSet[id] = true
	}

	used := make(map[string]map[string]bool)
	for key, ids := range usedSoFar {
		used[key] = make(map[string]bool, len(ids))
		for _, id := range ids {
			used[key][id] = true
		}
	}

	return &ToolEngine{
		cfg:     cfg,
		clock:   clock,
		roster:  rosterSet,
		used:    used,
		shields: make(map[string]bool),
	}
}

// WasUsed проверяет, использовал ли участник инструмент в этой игре
func (te *ToolEngine) WasUsed(actor ParticipantRef, toolID string) bool {
	return te.used[actor.Key()][toolID]
}

// ShieldActive проверяет, поднят ли щит участника
func (te *ToolEngine) ShieldActive(ref ParticipantRef) bool {
	return te.shields[ref.Key()]
}

// UsageSnapshot возвращает карту использованных инструментов для персистенции
func (te *ToolEngine) UsageSnapshot() entity.ToolUsageMap {
	out := make(entity.ToolUsageMap, len(te.used))
	for key, ids := range te.used {
		list := make([]string, 0, len(ids))
		for _, t := range entity.ToolCatalog() {
			if ids[t.ID] {
				list = append(list, t.ID)
			}
		}
		out[key] = list
	}
	return out
}

// Activate применяет инструмент к текущему состоянию раунда.
// Проверки: инструмент известен, входит в состав игры, не использован этой
// стороной, есть текущий вопрос, тайминг инструмента совместим с фазой хода.
// Эффект применяется атомарно; ошибки не меняют состояние.
func (te *ToolEngine) Activate(
	toolID string,
	actor ParticipantRef,
	opponent ParticipantRef,
	rs *RoundState,
	turns *TurnCoordinator,
) (*ToolOutcome, error) {
	if !entity.IsKnownTool(toolID) {
		return nil, ErrUnknownTool
	}
	if !te.roster[toolID] {
		return nil, ErrToolNotInRoster
	}
	if te.WasUsed(actor, toolID) {
		return nil, ErrToolAlreadyUsed
	}
	if rs == nil || rs.Question == nil {
		return nil, ErrNoActiveQuestion
	}

	outcome := &ToolOutcome{ToolID: toolID, PeekedOption: noSelection}

	switch toolID {
	case entity.ToolFiftyFifty:
		if rs.Answered || !turns.HoldsTurn(actor) {
			return nil, ErrToolNotApplicable
		}
		// Исключаются первые два неправильных индекса;
		// если неправильных меньше двух - сколько есть
		wrongs := rs.Question.WrongOptions()
		if len(wrongs) > 2 {
			wrongs = wrongs[:2]
		}
		for _, i := range wrongs {
			rs.Eliminated[i] = true
		}
		outcome.Eliminated = wrongs
		// Исключенный вариант не может оставаться выбранным
		if rs.HasSelection() && rs.Eliminated[rs.Selected] {
			rs.Selected = noSelection
		}

	case entity.ToolDoublePoints:
		if rs.Answered || !turns.HoldsTurn(actor) {
			return nil, ErrToolNotApplicable
		}
		// Действует только на текущий вопрос; расходуется независимо
		// от правильности ответа
		rs.DoublePoints = true
		outcome.DoublePoints = true

	case entity.ToolTimeFreeze:
		if rs.Answered || !turns.HoldsTurn(actor) {
			return nil, ErrToolNotApplicable
		}
		rs.FrozenUntil = te.clock().Add(time.Duration(te.cfg.TimeFreezeSeconds) * time.Second)
		outcome.FrozenUntil = rs.FrozenUntil

	case entity.ToolStrike:
		// Применяется во время хода соперника и направлен на него
		if !turns.IsMultiplayer() || opponent.IsZero() {
			return nil, ErrToolNotApplicable
		}
		if rs.Answered || !turns.HoldsTurn(opponent) {
			return nil, ErrToolNotApplicable
		}
		if te.consumeShield(opponent) {
			outcome.Blocked = true
			break
		}
		rs.Remaining -= te.cfg.StrikeSeconds
		if rs.Remaining < 0 {
			rs.Remaining = 0
		}
		outcome.StruckSeconds = te.cfg.StrikeSeconds

	case entity.ToolPeek:
		// Показывает уже отправленный выбор соперника на этот же вопрос.
		// Только чтение, счет не меняется.
		if !turns.IsMultiplayer() || opponent.IsZero() {
			return nil, ErrToolNotApplicable
		}
		if !rs.Answered || rs.SubmittedBy.Key() != opponent.Key() {
			return nil, ErrToolNotApplicable
		}
		if te.consumeShield(opponent) {
			outcome.Blocked = true
			break
		}
		outcome.PeekedOption = rs.SubmittedOption

	case entity.ToolShield:
		// Пассивный: нейтрализует следующий направленный эффект соперника
		te.shields[actor.Key()] = true
		outcome.ShieldRaised = true
	}

	te.markUsed(actor, toolID)
	return outcome, nil
}

// consumeShield гасит щит цели, если он поднят.
// Возвращает true, если эффект должен быть нейтрализован.
func (te *ToolEngine) consumeShield(target ParticipantRef) bool {
	if !te.shields[target.Key()] {
		return false
	}
	delete(te.shields, target.Key())
	log.Printf("[ToolEngine] Щит участника %s поглотил входящий эффект", target.Key())
	return true
}

func (te *ToolEngine) markUsed(actor ParticipantRef, toolID string) {
	key := actor.Key()
	if te.used[key] == nil {
		te.used[key] = make(map[string]bool)
	}
	te.used[key][toolID] = true
}
