package entity

// Идентификаторы инструментов
const (
	ToolFiftyFifty   = "fifty-fifty"
	ToolDoublePoints = "double-points"
	ToolTimeFreeze   = "time-freeze"
	ToolPeek         = "peek"
	ToolStrike       = "strike"
	ToolShield       = "shield"
)

// Классы времени активации инструмента
const (
	ToolTimingBeforeAnswer = "before-answer"
	ToolTimingDuring       = "during-question"
	ToolTimingAfterAnswer  = "after-answer"
	ToolTimingOpponentTurn = "opponent-turn"
	ToolTimingPassive      = "passive"
)

// ToolDefinition описывает один инструмент (пауэр-ап) из статического каталога
type ToolDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Timing      string `json:"timing"`
	Effect      string `json:"effect"`
	Description string `json:"description"`
}

// toolCatalog - статический каталог инструментов.
// Каждый инструмент может быть использован не более одного раза за игру на сторону.
var toolCatalog = []ToolDefinition{
	{
		ID:          ToolFiftyFifty,
		Name:        "50/50",
		Timing:      ToolTimingBeforeAnswer,
		Effect:      "Remove 2 wrong answers",
		Description: "Eliminates two incorrect options, leaving only the correct answer and one wrong option.",
	},
	{
		ID:          ToolDoublePoints,
		Name:        "Double Points",
		Timing:      ToolTimingBeforeAnswer,
		Effect:      "Double score for this question",
		Description: "Doubles the points earned from the next correct answer.",
	},
	{
		ID:          ToolTimeFreeze,
		Name:        "Time Freeze",
		Timing:      ToolTimingDuring,
		Effect:      "Stop timer for 10 seconds",
		Description: "Pauses the countdown timer for 10 seconds to give you more thinking time.",
	},
	{
		ID:          ToolPeek,
		Name:        "Peek",
		Timing:      ToolTimingAfterAnswer,
		Effect:      "See opponent's answer",
		Description: "Reveals what your opponent selected for this question.",
	},
	{
		ID:          ToolStrike,
		Name:        "Strike",
		Timing:      ToolTimingOpponentTurn,
		Effect:      "Reduce opponent time by 10s",
		Description: "Reduces your opponent's remaining time by 10 seconds.",
	},
	{
		ID:          ToolShield,
		Name:        "Shield",
		Timing:      ToolTimingPassive,
		Effect:      "Block opponent tools",
		Description: "Protects you from the next opponent tool used against you.",
	},
}

// ToolCatalog возвращает копию статического каталога инструментов
func ToolCatalog() []ToolDefinition {
	out := make([]ToolDefinition, len(toolCatalog))
	copy(out, toolCatalog)
	return out
}

// ToolByID возвращает определение инструмента по его идентификатору
func ToolByID(id string) (ToolDefinition, bool) {
	for _, t := range toolCatalog {
		if t.ID == id {
			return t, true
		}
	}
	return ToolDefinition{}, false
}

// IsKnownTool проверяет, существует ли инструмент с таким идентификатором
func IsKnownTool(id string) bool {
	_, ok := ToolByID(id)
	return ok
}
