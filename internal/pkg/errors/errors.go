package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния (например, попытка запустить уже идущую игру).
	ErrConflict = errors.New("resource state conflict")

	// ErrQuestionBankExhausted означает, что непросмотренных вопросов не осталось
	// и генерация нового вопроса тоже не удалась. Фатально для текущего раунда.
	ErrQuestionBankExhausted = errors.New("question bank exhausted and generation failed")
)
