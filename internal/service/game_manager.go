package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/boltblitz-api/internal/domain/entity"
	"github.com/yourusername/boltblitz-api/internal/domain/repository"
	apperrors "github.com/yourusername/boltblitz-api/internal/pkg/errors"
	"github.com/yourusername/boltblitz-api/internal/service/gameengine"
)

// Время жизни блокировки активной сессии пользователя
const activeGameLockTTL = 2 * time.Hour

// GameManager управляет активными игровыми сессиями: создает контроллеры
// раундов, двигает их единым тиком раз в секунду и сворачивает итоги
// завершенных игр в статистику пользователей
type GameManager struct {
	mu          sync.RWMutex
	controllers map[string]*gameengine.RoundController

	gameRepo        repository.GameRepository
	cacheRepo       repository.CacheRepository
	questionService *QuestionService
	statsService    *StatsService
	broadcaster     gameengine.Broadcaster
	engineCfg       *gameengine.Config
}

// NewGameManager создает новый менеджер игровых сессий
func NewGameManager(
	gameRepo repository.GameRepository,
	cacheRepo repository.CacheRepository,
	questionService *QuestionService,
	statsService *StatsService,
	broadcaster gameengine.Broadcaster,
	engineCfg *gameengine.Config,
) *GameManager {
	return &GameManager{
		controllers:     make(map[string]*gameengine.RoundController),
		gameRepo:        gameRepo,
		cacheRepo:       cacheRepo,
		questionService: questionService,
		statsService:    statsService,
		broadcaster:     broadcaster,
		engineCfg:       engineCfg,
	}
}

// Run запускает цикл тиков. Блокируется до отмены контекста.
// Все активные контроллеры двигаются одним тикером - у контроллеров
// собственных таймеров нет.
func (m *GameManager) Run(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	log.Printf("[GameManager] Цикл тиков запущен")
	for {
		select {
		case <-ctx.Done():
			log.Printf("[GameManager] Цикл тиков остановлен")
			return
		case <-ticker.C:
			m.tickAll(ctx)
		}
	}
}

func (m *GameManager) tickAll(ctx context.Context) {
	m.mu.RLock()
	active := make([]*gameengine.RoundController, 0, len(m.controllers))
	for _, rc := range m.controllers {
		active = append(active, rc)
	}
	m.mu.RUnlock()

	for _, rc := range active {
		rc.Tick(ctx)
		switch rc.Phase() {
		case gameengine.PhaseCompleted, gameengine.PhaseFailed:
			m.finalize(rc)
		}
	}
}

// ============================================================================
// Жизненный цикл сессии
// ============================================================================

// CreateGame создает игровую сессию в статусе setup.
// Пустой roster означает полный каталог инструментов.
func (m *GameManager) CreateGame(hostUserID, guestUserID, mode, category, language string, roster []string) (*entity.Game, error) {
	if !entity.IsValidGameMode(mode) {
		return nil, fmt.Errorf("%w: unknown game mode %q", apperrors.ErrValidation, mode)
	}
	if language == "" {
		language = "en"
	}

	if len(roster) == 0 {
		for _, t := range entity.ToolCatalog() {
			roster = append(roster, t.ID)
		}
	} else {
		for _, id := range roster {
			if !entity.IsKnownTool(id) {
				return nil, fmt.Errorf("%w: unknown tool %q", apperrors.ErrValidation, id)
			}
		}
	}

	game := &entity.Game{
		ID:            uuid.New().String(),
		Mode:          mode,
		Status:        entity.GameStatusSetup,
		HostUserID:    hostUserID,
		GuestUserID:   guestUserID,
		Category:      category,
		Language:      language,
		QuestionCount: entity.DefaultQuestionCount(mode),
		Scores:        entity.ScoreMap{},
		ToolsUsed:     entity.ToolUsageMap{},
		ToolRoster:    entity.StringArray(roster),
	}

	// Одна активная сессия на пользователя
	if err := m.acquireLocks(game); err != nil {
		return nil, err
	}

	if err := m.gameRepo.Create(game); err != nil {
		m.releaseLocks(game)
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if err := m.cacheRepo.SAdd(presenceKey(game.ID), participantIDs(game)...); err != nil {
		log.Printf("[GameManager] Ошибка записи присутствия игры %s: %v", game.ID, err)
	}

	log.Printf("[GameManager] Создана игра %s (режим %s, хост %s)", game.ID, mode, hostUserID)
	return game, nil
}

// StartGame запускает раунд. Запускать может только хост.
func (m *GameManager) StartGame(ctx context.Context, gameID, userID string) error {
	game, err := m.gameRepo.GetByID(gameID)
	if err != nil {
		return err
	}
	if game.HostUserID != userID {
		return fmt.Errorf("%w: only the host can start the game", apperrors.ErrForbidden)
	}
	if game.IsEnded() {
		return fmt.Errorf("%w: game %s is over", apperrors.ErrConflict, gameID)
	}

	m.mu.Lock()
	if _, exists := m.controllers[gameID]; exists {
		m.mu.Unlock()
		return gameengine.ErrRoundAlreadyStarted
	}
	deps := &gameengine.Dependencies{
		GameRepo:       m.gameRepo,
		QuestionSource: m.questionService,
		CacheRepo:      m.cacheRepo,
		Broadcaster:    m.broadcaster,
		Config:         m.engineCfg,
	}
	rc := gameengine.NewRoundController(game, deps)
	m.controllers[gameID] = rc
	m.mu.Unlock()

	if err := rc.Start(ctx); err != nil {
		m.mu.Lock()
		delete(m.controllers, gameID)
		m.mu.Unlock()
		return err
	}
	return nil
}

// SelectAnswer фиксирует предварительный выбор участника
func (m *GameManager) SelectAnswer(gameID, userID string, option int) error {
	rc, actor, err := m.controllerFor(gameID, userID)
	if err != nil {
		return err
	}
	return rc.SelectAnswer(actor, option)
}

// SubmitAnswer отправляет выбор участника как окончательный
func (m *GameManager) SubmitAnswer(gameID, userID string) (*gameengine.AnswerResult, error) {
	rc, actor, err := m.controllerFor(gameID, userID)
	if err != nil {
		return nil, err
	}
	return rc.SubmitAnswer(actor)
}

// ActivateTool применяет инструмент от имени участника
func (m *GameManager) ActivateTool(gameID, userID, toolID string) (*gameengine.ToolOutcome, error) {
	rc, actor, err := m.controllerFor(gameID, userID)
	if err != nil {
		return nil, err
	}
	return rc.ActivateTool(actor, toolID)
}

// State возвращает срез состояния сессии. Для завершенных игр (контроллер
// уже снят) собирает срез из персистентной записи.
func (m *GameManager) State(gameID string) (*gameengine.StateSnapshot, error) {
	m.mu.RLock()
	rc, ok := m.controllers[gameID]
	m.mu.RUnlock()
	if ok {
		return rc.Snapshot(), nil
	}

	game, err := m.gameRepo.GetByID(gameID)
	if err != nil {
		return nil, err
	}

	phase := gameengine.PhaseAwaitingStart
	if game.IsEnded() {
		phase = gameengine.PhaseCompleted
	}
	return &gameengine.StateSnapshot{
		GameID:        game.ID,
		Phase:         phase.String(),
		QuestionCount: game.QuestionCount,
		Scores:        game.Scores,
		ToolsUsed:     game.ToolsUsed,
	}, nil
}

// GetGame возвращает запись игровой сессии
func (m *GameManager) GetGame(gameID string) (*entity.Game, error) {
	return m.gameRepo.GetByID(gameID)
}

// ListGames возвращает игры пользователя
func (m *GameManager) ListGames(userID string, limit, offset int) ([]entity.Game, error) {
	return m.gameRepo.ListByUser(userID, limit, offset)
}

// ============================================================================
// Внутреннее
// ============================================================================

// controllerFor возвращает контроллер и ссылку участника
func (m *GameManager) controllerFor(gameID, userID string) (*gameengine.RoundController, gameengine.ParticipantRef, error) {
	m.mu.RLock()
	rc, ok := m.controllers[gameID]
	m.mu.RUnlock()
	if !ok {
		return nil, gameengine.ParticipantRef{}, gameengine.ErrRoundNotStarted
	}

	game, err := m.gameRepo.GetByID(gameID)
	if err != nil {
		return nil, gameengine.ParticipantRef{}, err
	}
	actor, err := resolveParticipant(game, userID)
	if err != nil {
		return nil, gameengine.ParticipantRef{}, err
	}
	return rc, actor, nil
}

// resolveParticipant сопоставляет пользователя стороне сессии
func resolveParticipant(game *entity.Game, userID string) (gameengine.ParticipantRef, error) {
	switch userID {
	case game.HostUserID:
		if game.IsMultiplayer() {
			return gameengine.SideRef(gameengine.SideA), nil
		}
		return gameengine.SoloRef(userID), nil
	case game.GuestUserID:
		if game.GuestUserID != "" && game.IsMultiplayer() {
			return gameengine.SideRef(gameengine.SideB), nil
		}
	}
	return gameengine.ParticipantRef{}, fmt.Errorf("%w: user %s is not a participant of game %s",
		apperrors.ErrForbidden, userID, game.ID)
}

// finalize сворачивает итоги завершенной игры и снимает контроллер
func (m *GameManager) finalize(rc *gameengine.RoundController) {
	gameID := rc.GameID()

	m.mu.Lock()
	if _, ok := m.controllers[gameID]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.controllers, gameID)
	m.mu.Unlock()

	game, err := m.gameRepo.GetByID(gameID)
	if err != nil {
		log.Printf("[GameManager] Ошибка загрузки завершенной игры %s: %v", gameID, err)
		return
	}
	defer func() {
		m.releaseLocks(game)
		if err := m.cacheRepo.SRem(presenceKey(gameID), participantIDs(game)...); err != nil {
			log.Printf("[GameManager] Ошибка очистки присутствия игры %s: %v", gameID, err)
		}
	}()

	summary := rc.Summary()
	if summary == nil {
		// Аварийное завершение: статистика не начисляется
		log.Printf("[GameManager] Игра %s завершена аварийно: %v", gameID, rc.Failure())
		return
	}

	if game.IsMultiplayer() {
		keyA := string(gameengine.SideA)
		keyB := string(gameengine.SideB)
		scoreA := summary.Scores[keyA]
		scoreB := summary.Scores[keyB]
		// Каждому игроку - сводка по его собственным ответам
		m.foldParticipant(game.HostUserID, summary.ForParticipant(keyA, scoreA), scoreA > scoreB)
		if game.GuestUserID != "" {
			m.foldParticipant(game.GuestUserID, summary.ForParticipant(keyB, scoreB), scoreB > scoreA)
		}
	} else {
		// Одиночная победа - верхний уровень результативности
		m.foldParticipant(game.HostUserID, summary, summary.Tier == gameengine.TierTop)
	}
}

// foldParticipant сворачивает персональную сводку в агрегаты участника (best-effort)
func (m *GameManager) foldParticipant(userID string, personal *gameengine.GameSummary, won bool) {
	if err := m.statsService.ApplyGameSummary(userID, personal, won); err != nil {
		log.Printf("[GameManager] Ошибка учета статистики пользователя %s: %v", userID, err)
	}
}

func (m *GameManager) acquireLocks(game *entity.Game) error {
	acquired := make([]string, 0, 2)
	for _, userID := range participantIDs(game) {
		ok, err := m.cacheRepo.SetNX(activeGameKey(userID), game.ID, activeGameLockTTL)
		if err != nil {
			log.Printf("[GameManager] Ошибка блокировки сессии для %s: %v", userID, err)
			continue
		}
		if !ok {
			for _, id := range acquired {
				if err := m.cacheRepo.Delete(activeGameKey(id)); err != nil {
					log.Printf("[GameManager] Ошибка снятия блокировки %s: %v", id, err)
				}
			}
			return fmt.Errorf("%w: user %s already has an active game", apperrors.ErrConflict, userID)
		}
		acquired = append(acquired, userID)
	}
	return nil
}

// releaseLocks снимает блокировки активной сессии, принадлежащие этой игре.
// Блокировка, занятая другой игрой (например, когда SetNX для участника
// не прошел), не трогается.
func (m *GameManager) releaseLocks(game *entity.Game) {
	for _, userID := range participantIDs(game) {
		key := activeGameKey(userID)

		holder, err := m.cacheRepo.Get(key)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				log.Printf("[GameManager] Ошибка чтения блокировки сессии %s: %v", userID, err)
			}
			continue
		}
		if holder != game.ID {
			continue
		}

		if err := m.cacheRepo.Delete(key); err != nil {
			log.Printf("[GameManager] Ошибка снятия блокировки сессии %s: %v", userID, err)
		}
	}
}

func participantIDs(game *entity.Game) []string {
	ids := []string{game.HostUserID}
	if game.GuestUserID != "" {
		ids = append(ids, game.GuestUserID)
	}
	return ids
}

func presenceKey(gameID string) string {
	return "game:" + gameID + ":participants"
}

func activeGameKey(userID string) string {
	return "user:" + userID + ":active-game"
}
