package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/boltblitz-api/internal/domain/entity"
	"github.com/yourusername/boltblitz-api/internal/domain/repository"
	apperrors "github.com/yourusername/boltblitz-api/internal/pkg/errors"
)

// Веса сложности при генерации (в процентах)
const (
	generateEasyWeight   = 40
	generateMediumWeight = 40
	// остаток (20) - Hard
)

// Количество недавних текстов категории, передаваемых генератору
// для избегания дубликатов
const dedupeContextSize = 20

// Время жизни маркера последнего выданного вопроса
const recentQuestionTTL = 10 * time.Minute

// GenerationConfig - настройки генерации вопросов через OpenAI-совместимый API
type GenerationConfig struct {
	Enabled    bool
	APIKey     string
	BaseURL    string
	ChatModel  string
	ImageModel string
	Timeout    time.Duration
}

// QuestionService управляет банком вопросов: выдача непросмотренных,
// генерация новых при исчерпании, массовый импорт
type QuestionService struct {
	questionRepo repository.QuestionRepository
	cacheRepo    repository.CacheRepository
	genCfg       GenerationConfig
	httpClient   *http.Client
	rng          *rand.Rand
}

// NewQuestionService создает новый сервис вопросов
func NewQuestionService(
	questionRepo repository.QuestionRepository,
	cacheRepo repository.CacheRepository,
	genCfg GenerationConfig,
) *QuestionService {
	timeout := genCfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &QuestionService{
		questionRepo: questionRepo,
		cacheRepo:    cacheRepo,
		genCfg:       genCfg,
		httpClient:   &http.Client{Timeout: timeout},
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NextQuestion возвращает следующий вопрос для пользователя: сперва
// непросмотренный из банка, при исчерпании - свежесгенерированный.
// Вопрос помечается просмотренным в момент выдачи.
func (s *QuestionService) NextQuestion(ctx context.Context, userID, category, language string) (*entity.Question, error) {
	question, err := s.questionRepo.GetUnseenQuestion(userID, category)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to fetch unseen question: %w", err)
		}

		question, err = s.Generate(ctx, category, language)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrQuestionBankExhausted, err)
		}
	}

	if err := s.questionRepo.MarkViewed(question.ID, userID); err != nil {
		// Пометка best-effort: вопрос уже выдан, дубликат отсечет
		// маркер в кеше
		log.Printf("[QuestionService] Ошибка пометки вопроса %s для %s: %v", question.ID, userID, err)
	}

	// Маркер последнего выданного вопроса (eventually-consistent подсказка
	// для переподключившихся клиентов)
	if err := s.cacheRepo.Set("question:last:"+userID, question.ID, recentQuestionTTL); err != nil {
		log.Printf("[QuestionService] Ошибка записи маркера вопроса: %v", err)
	}

	return question, nil
}

// CountUnseen возвращает число непросмотренных пользователем вопросов
func (s *QuestionService) CountUnseen(userID string) (int64, error) {
	return s.questionRepo.CountUnseen(userID)
}

// GetByID возвращает вопрос по ID
func (s *QuestionService) GetByID(id string) (*entity.Question, error) {
	return s.questionRepo.GetByID(id)
}

// ============================================================================
// Генерация через OpenAI-совместимый API
// ============================================================================

// generatedQuestion - формат ответа модели (строго JSON)
type generatedQuestion struct {
	Question      string   `json:"question"`
	CorrectAnswer string   `json:"correct_answer"`
	WrongAnswers  []string `json:"wrong_answers"`
	Fact          string   `json:"fact"`
	ImagePrompt   string   `json:"image_prompt"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Generate создает новый вопрос категории через языковую модель и сохраняет
// его в банк. Варианты перемешиваются в момент создания, чтобы правильный
// индекс не имел предсказуемой позиции.
func (s *QuestionService) Generate(ctx context.Context, category, language string) (*entity.Question, error) {
	if !s.genCfg.Enabled {
		return nil, errors.New("question generation is disabled")
	}
	if category == "" {
		category = "general"
	}

	difficulty := s.pickDifficulty()

	// Недавние тексты категории - контекст против дубликатов
	recent, err := s.questionRepo.GetCategoryTexts(category, dedupeContextSize)
	if err != nil {
		log.Printf("[QuestionService] Ошибка загрузки текстов категории %s: %v", category, err)
		recent = nil
	}

	generated, err := s.requestGeneration(ctx, category, difficulty, recent)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	if generated.Question == "" || generated.CorrectAnswer == "" || len(generated.WrongAnswers) < 3 {
		return nil, errors.New("generated question is incomplete")
	}

	// Перемешивание вариантов при создании
	options := append([]string{generated.CorrectAnswer}, generated.WrongAnswers[:3]...)
	correctOption := 0
	for i := len(options) - 1; i > 0; i-- {
		j := s.rng.Intn(i + 1)
		options[i], options[j] = options[j], options[i]
		switch correctOption {
		case i:
			correctOption = j
		case j:
			correctOption = i
		}
	}

	question := &entity.Question{
		ID:            uuid.New().String(),
		Category:      category,
		Difficulty:    difficulty,
		Text:          entity.LocalizedText{"en": generated.Question},
		Options:       entity.StringArray(options),
		CorrectOption: correctOption,
		Fact:          generated.Fact,
		ViewedBy:      entity.StringArray{},
	}

	// Картинка best-effort: вопрос годен и без нее
	if generated.ImagePrompt != "" {
		if url, err := s.requestImage(ctx, generated.ImagePrompt); err != nil {
			log.Printf("[QuestionService] Ошибка генерации картинки: %v", err)
		} else {
			question.PictureURL = url
		}
	}

	if err := s.questionRepo.Create(question); err != nil {
		return nil, fmt.Errorf("failed to save generated question: %w", err)
	}

	log.Printf("[QuestionService] Сгенерирован вопрос %s (категория %s, сложность %s)",
		question.ID, category, difficulty)
	return question, nil
}

// pickDifficulty выбирает сложность по весам 40/40/20
func (s *QuestionService) pickDifficulty() string {
	roll := s.rng.Intn(100)
	switch {
	case roll < generateEasyWeight:
		return entity.DifficultyEasy
	case roll < generateEasyWeight+generateMediumWeight:
		return entity.DifficultyMedium
	default:
		return entity.DifficultyHard
	}
}

func (s *QuestionService) requestGeneration(ctx context.Context, category, difficulty string, recent []string) (*generatedQuestion, error) {
	prompt := buildGenerationPrompt(category, difficulty, recent)

	body, err := json.Marshal(chatRequest{
		Model: s.genCfg.ChatModel,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a trivia question writer. Respond with a single JSON object and nothing else."},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
		Temperature:    0.9,
	})
	if err != nil {
		return nil, err
	}

	respBody, err := s.post(ctx, "/chat/completions", body)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("invalid chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("chat response has no choices")
	}

	var generated generatedQuestion
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &generated); err != nil {
		return nil, fmt.Errorf("model returned non-JSON content: %w", err)
	}
	return &generated, nil
}

func (s *QuestionService) requestImage(ctx context.Context, prompt string) (string, error) {
	if s.genCfg.ImageModel == "" {
		return "", errors.New("image model is not configured")
	}

	body, err := json.Marshal(imageRequest{
		Model:  s.genCfg.ImageModel,
		Prompt: prompt,
		N:      1,
		Size:   "512x512",
	})
	if err != nil {
		return "", err
	}

	respBody, err := s.post(ctx, "/images/generations", body)
	if err != nil {
		return "", err
	}

	var parsed imageResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("invalid image response: %w", err)
	}
	if len(parsed.Data) == 0 || parsed.Data[0].URL == "" {
		return "", errors.New("image response has no url")
	}
	return parsed.Data[0].URL, nil
}

func (s *QuestionService) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	url := strings.TrimRight(s.genCfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.genCfg.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}
	return respBody, nil
}

func buildGenerationPrompt(category, difficulty string, recent []string) string {
	var sb strings.Builder
	sb.WriteString("Write one multiple-choice trivia question.\n")
	sb.WriteString("Category: " + category + "\n")
	sb.WriteString("Difficulty: " + difficulty + "\n")
	sb.WriteString(`Return JSON: {"question": "...", "correct_answer": "...", ` +
		`"wrong_answers": ["...", "...", "..."], "fact": "...", "image_prompt": "..."}` + "\n")
	sb.WriteString("The fact is a short fun fact about the answer. ")
	sb.WriteString("The image_prompt describes a simple illustration for the question.\n")

	if len(recent) > 0 {
		sb.WriteString("Do NOT repeat any of these existing questions:\n")
		for _, text := range recent {
			sb.WriteString("- " + text + "\n")
		}
	}
	return sb.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// ============================================================================
// Массовый импорт из XLSX
// ============================================================================

// Колонки листа импорта:
// A категория, B сложность, C текст (en), D-G варианты, H номер правильного (1-4), I факт
const importMinColumns = 8

// ImportFromXLSX читает вопросы из листа Excel и сохраняет их пакетом.
// Возвращает число импортированных вопросов.
func (s *QuestionService) ImportFromXLSX(r io.Reader) (int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return 0, fmt.Errorf("%w: cannot open xlsx: %v", apperrors.ErrValidation, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	var questions []entity.Question
	for i, row := range rows {
		// Первая строка - заголовок
		if i == 0 {
			continue
		}
		if len(row) < importMinColumns {
			log.Printf("[QuestionService] Импорт: строка %d пропущена (колонок %d)", i+1, len(row))
			continue
		}

		correctOption, err := strconv.Atoi(strings.TrimSpace(row[7]))
		if err != nil || correctOption < 1 || correctOption > 4 {
			log.Printf("[QuestionService] Импорт: строка %d пропущена (правильный вариант %q)", i+1, row[7])
			continue
		}

		difficulty := strings.TrimSpace(row[1])
		switch difficulty {
		case entity.DifficultyEasy, entity.DifficultyMedium, entity.DifficultyHard:
		default:
			difficulty = entity.DifficultyMedium
		}

		fact := ""
		if len(row) > 8 {
			fact = strings.TrimSpace(row[8])
		}

		questions = append(questions, entity.Question{
			ID:            uuid.New().String(),
			Category:      strings.TrimSpace(row[0]),
			Difficulty:    difficulty,
			Text:          entity.LocalizedText{"en": strings.TrimSpace(row[2])},
			Options:       entity.StringArray{row[3], row[4], row[5], row[6]},
			CorrectOption: correctOption - 1,
			Fact:          fact,
			ViewedBy:      entity.StringArray{},
		})
	}

	if len(questions) == 0 {
		return 0, fmt.Errorf("%w: no valid rows in sheet", apperrors.ErrValidation)
	}

	if err := s.questionRepo.CreateBatch(questions); err != nil {
		return 0, fmt.Errorf("failed to import questions: %w", err)
	}

	log.Printf("[QuestionService] Импортировано вопросов: %d", len(questions))
	return len(questions), nil
}
