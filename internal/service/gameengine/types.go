package gameengine

import (
	"context"
	"errors"
	"time"

	"github.com/yourusername/boltblitz-api/internal/domain/entity"
	"github.com/yourusername/boltblitz-api/internal/domain/repository"
)

// Константы значений по умолчанию
const (
	DefaultPerQuestionSeconds   = 30
	DefaultLeadInSeconds        = 3
	DefaultResultDisplaySeconds = 3
	DefaultTimeFreezeSeconds    = 10
	DefaultStrikeSeconds        = 10
)

// Ошибки правил раунда. Все они являются тихими отказами:
// состояние раунда не меняется, клиенту возвращается предупреждение.
var (
	ErrRoundAlreadyStarted = errors.New("round already started")
	ErrRoundNotStarted     = errors.New("round not started")
	ErrNoActiveQuestion    = errors.New("no current question")
	ErrAlreadyAnswered     = errors.New("question already answered")
	ErrNoSelection         = errors.New("no answer selected")
	ErrOptionEliminated    = errors.New("option is eliminated")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrUnknownTool         = errors.New("unknown tool")
	ErrToolNotInRoster     = errors.New("tool is not in this game's roster")
	ErrToolAlreadyUsed     = errors.New("tool already used this game")
	ErrToolNotApplicable   = errors.New("tool is not applicable right now")
)

// Config содержит настройки для всех компонентов движка раунда
type Config struct {
	// Таймауты и интервалы (в секундах, движутся внешними тиками)
	PerQuestionSeconds   int // Отсчет на один вопрос
	LeadInSeconds        int // Задержка перед первым вопросом
	ResultDisplaySeconds int // Показ результата перед следующим вопросом

	// Настройки инструментов
	TimeFreezeSeconds int // Длительность заморозки таймера (реальное время)
	StrikeSeconds     int // На сколько секунд страйк уменьшает время соперника
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		PerQuestionSeconds:   DefaultPerQuestionSeconds,
		LeadInSeconds:        DefaultLeadInSeconds,
		ResultDisplaySeconds: DefaultResultDisplaySeconds,
		TimeFreezeSeconds:    DefaultTimeFreezeSeconds,
		StrikeSeconds:        DefaultStrikeSeconds,
	}
}

// QuestionSource выдает следующий непросмотренный вопрос для пользователя,
// при исчерпании банка инициируя генерацию нового. Вопрос помечается
// просмотренным в момент выдачи.
type QuestionSource interface {
	NextQuestion(ctx context.Context, userID, category, language string) (*entity.Question, error)
}

// Broadcaster рассылает события сессии подписчикам (зеркалирование UI).
// Движок остается авторитетным источником состояния.
type Broadcaster interface {
	BroadcastToGame(gameID string, event map[string]interface{}) error
}

// Dependencies содержит зависимости для компонентов движка
type Dependencies struct {
	GameRepo       repository.GameRepository
	QuestionSource QuestionSource
	CacheRepo      repository.CacheRepository
	Broadcaster    Broadcaster
	Config         *Config
}

// Side - одна из двух сторон многопользовательского раунда
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// Opposite возвращает противоположную сторону
func (s Side) Opposite() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// ParticipantKind различает одиночного участника и сторону команды
type ParticipantKind int

const (
	ParticipantSolo ParticipantKind = iota
	ParticipantSide
)

// ParticipantRef - единый ключ участника для карты счета и набора инструментов:
// либо одиночный пользователь, либо сторона A/B. Заменяет динамический выбор
// ключа (user id против метки стороны) из исходной реализации.
type ParticipantRef struct {
	Kind   ParticipantKind
	UserID string
	Side   Side
}

// SoloRef создает ссылку на одиночного участника
func SoloRef(userID string) ParticipantRef {
	return ParticipantRef{Kind: ParticipantSolo, UserID: userID}
}

// SideRef создает ссылку на сторону A или B
func SideRef(side Side) ParticipantRef {
	return ParticipantRef{Kind: ParticipantSide, Side: side}
}

// Key возвращает ключ участника для карт счета и инструментов
func (r ParticipantRef) Key() string {
	if r.Kind == ParticipantSide {
		return string(r.Side)
	}
	return r.UserID
}

// IsZero проверяет, что ссылка не заполнена
func (r ParticipantRef) IsZero() bool {
	return r.Kind == ParticipantSolo && r.UserID == ""
}

// Phase - фаза жизненного цикла раунда. Переходы только вперед.
type Phase int

const (
	PhaseAwaitingStart Phase = iota
	PhasePresenting
	PhaseResult
	PhaseCompleted
	PhaseFailed
)

// String возвращает строковое представление фазы
func (p Phase) String() string {
	switch p {
	case PhaseAwaitingStart:
		return "awaiting_start"
	case PhasePresenting:
		return "presenting"
	case PhaseResult:
		return "result"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Clock - инжектируемый источник времени. В тестах подменяется для
// детерминированной проверки заморозки таймера.
type Clock func() time.Time
