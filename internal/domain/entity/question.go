package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Уровни сложности вопроса
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// Базовые очки за правильный ответ по сложности
const (
	PointsEasy   = 100
	PointsMedium = 200
	PointsHard   = 400
)

// StringArray - пользовательский тип для работы с JSONB
type StringArray []string

// Scan реализует интерфейс sql.Scanner для StringArray
// Используется GORM для чтения JSONB данных из базы
func (o *StringArray) Scan(value interface{}) error {
	// Обработка NULL значений из базы данных
	if value == nil {
		*o = StringArray{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	// Обработка пустого массива байтов
	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для StringArray
// Используется GORM для записи StringArray в JSONB в базе
func (o StringArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil // Возвращаем пустой JSON массив вместо null
	}
	return json.Marshal(o)
}

// Contains проверяет наличие строки в массиве
func (o StringArray) Contains(s string) bool {
	for _, v := range o {
		if v == s {
			return true
		}
	}
	return false
}

// LocalizedText - локализованный текст вопроса в формате JSONB ({"en": ..., "ar": ...})
type LocalizedText map[string]string

// Scan реализует интерфейс sql.Scanner для LocalizedText
func (t *LocalizedText) Scan(value interface{}) error {
	if value == nil {
		*t = LocalizedText{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*t = LocalizedText{}
		return nil
	}

	return json.Unmarshal(bytes, t)
}

// Value реализует интерфейс driver.Valuer для LocalizedText
func (t LocalizedText) Value() (driver.Value, error) {
	if len(t) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(t)
}

// Resolve возвращает текст на запрошенном языке с откатом на английский
func (t LocalizedText) Resolve(language string) string {
	if s, ok := t[language]; ok && s != "" {
		return s
	}
	return t["en"]
}

// Question представляет вопрос в банке вопросов
type Question struct {
	ID            string        `gorm:"type:uuid;primaryKey" json:"id"`
	Category      string        `gorm:"size:50;not null;index" json:"category"`
	Difficulty    string        `gorm:"size:10;not null;default:'Medium'" json:"difficulty"`
	Text          LocalizedText `gorm:"type:jsonb;not null" json:"question_text"`
	Options       StringArray   `gorm:"type:jsonb;not null" json:"options"`
	CorrectOption int           `gorm:"not null" json:"-"` // Скрыто от клиента
	Fact          string        `gorm:"size:500;not null;default:''" json:"fact,omitempty"`
	PictureURL    string        `gorm:"size:500;not null;default:''" json:"picture_url,omitempty"`
	ViewedBy      StringArray   `gorm:"type:jsonb;not null;default:'[]'" json:"-"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// IsCorrect проверяет, является ли выбранный вариант правильным
func (q *Question) IsCorrect(selectedOption int) bool {
	return selectedOption == q.CorrectOption
}

// IsValidOption проверяет, является ли выбранный вариант допустимым
func (q *Question) IsValidOption(selectedOption int) bool {
	return selectedOption >= 0 && selectedOption < len(q.Options)
}

// OptionsCount возвращает количество вариантов ответа
func (q *Question) OptionsCount() int {
	return len(q.Options)
}

// BasePoints возвращает базовые очки за правильный ответ по сложности.
// Easy = 100, Medium = 200, Hard = 400; неизвестная сложность трактуется как Medium.
func (q *Question) BasePoints() int {
	switch q.Difficulty {
	case DifficultyEasy:
		return PointsEasy
	case DifficultyHard:
		return PointsHard
	default:
		return PointsMedium
	}
}

// WrongOptions возвращает индексы неправильных вариантов в порядке следования
func (q *Question) WrongOptions() []int {
	wrongs := make([]int, 0, len(q.Options))
	for i := range q.Options {
		if i != q.CorrectOption {
			wrongs = append(wrongs, i)
		}
	}
	return wrongs
}

// WasViewedBy проверяет, видел ли пользователь этот вопрос
func (q *Question) WasViewedBy(userID string) bool {
	return q.ViewedBy.Contains(userID)
}
