package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Константы статусов игровой сессии.
// Статус меняется только вперед: setup → active → ended.
const (
	GameStatusSetup  = "setup"
	GameStatusActive = "active"
	GameStatusEnded  = "ended"
)

// Режимы игры
const (
	GameModeQuick      = "quick"
	GameModeCustom     = "custom"
	GameModePractice   = "practice"
	GameModeTournament = "tournament"
	GameModeDaily      = "daily"
)

// Количество вопросов по режимам
var questionCountByMode = map[string]int{
	GameModeQuick:      5,
	GameModePractice:   4,
	GameModeCustom:     6,
	GameModeTournament: 8,
	GameModeDaily:      5,
}

// DefaultQuestionCount возвращает количество вопросов для режима
func DefaultQuestionCount(mode string) int {
	if n, ok := questionCountByMode[mode]; ok {
		return n
	}
	return 4
}

// IsValidGameMode проверяет, что режим известен
func IsValidGameMode(mode string) bool {
	_, ok := questionCountByMode[mode]
	return ok
}

// ScoreMap - счет по ключам участников (JSONB)
type ScoreMap map[string]int

// Scan реализует интерфейс sql.Scanner для ScoreMap
func (m *ScoreMap) Scan(value interface{}) error {
	if value == nil {
		*m = ScoreMap{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}
	if len(bytes) == 0 {
		*m = ScoreMap{}
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// Value реализует интерфейс driver.Valuer для ScoreMap
func (m ScoreMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// ToolUsageMap - использованные инструменты по ключам участников (JSONB)
type ToolUsageMap map[string][]string

// Scan реализует интерфейс sql.Scanner для ToolUsageMap
func (m *ToolUsageMap) Scan(value interface{}) error {
	if value == nil {
		*m = ToolUsageMap{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}
	if len(bytes) == 0 {
		*m = ToolUsageMap{}
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// Value реализует интерфейс driver.Valuer для ToolUsageMap
func (m ToolUsageMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Game представляет одну игровую сессию от первого вопроса до итогов
type Game struct {
	ID            string       `gorm:"type:uuid;primaryKey" json:"id"`
	Mode          string       `gorm:"size:20;not null;index" json:"mode"`
	Status        string       `gorm:"size:10;not null;default:'setup';index" json:"status"`
	HostUserID    string       `gorm:"type:uuid;not null;index" json:"host_user_id"`
	GuestUserID   string       `gorm:"size:36;not null;default:''" json:"guest_user_id,omitempty"`
	Category      string       `gorm:"size:50;not null;default:''" json:"category,omitempty"`
	Language      string       `gorm:"size:5;not null;default:'en'" json:"language"`
	QuestionCount int          `gorm:"not null;default:4" json:"question_count"`
	Scores        ScoreMap     `gorm:"type:jsonb;not null;default:'{}'" json:"scores"`
	ToolsUsed     ToolUsageMap `gorm:"type:jsonb;not null;default:'{}'" json:"tools_used"`
	ToolRoster    StringArray  `gorm:"type:jsonb;not null;default:'[]'" json:"tool_roster"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Game) TableName() string {
	return "games"
}

// IsActive проверяет, идет ли игра
func (g *Game) IsActive() bool {
	return g.Status == GameStatusActive
}

// IsEnded проверяет, завершена ли игра
func (g *Game) IsEnded() bool {
	return g.Status == GameStatusEnded
}

// IsMultiplayer определяет, чередуются ли ходы в этой сессии.
// custom и tournament всегда на две стороны; quick - только при наличии гостя;
// practice и daily всегда одиночные.
func (g *Game) IsMultiplayer() bool {
	switch g.Mode {
	case GameModeCustom, GameModeTournament:
		return true
	case GameModeQuick:
		return g.GuestUserID != ""
	default:
		return false
	}
}

// AdvanceStatus переводит статус строго вперед.
// Возвращает ошибку при попытке отката или повторного перехода.
func (g *Game) AdvanceStatus(next string) error {
	valid := (g.Status == GameStatusSetup && next == GameStatusActive) ||
		(g.Status == GameStatusActive && next == GameStatusEnded)
	if !valid {
		return errors.New("invalid game status transition: " + g.Status + " -> " + next)
	}
	g.Status = next
	return nil
}
