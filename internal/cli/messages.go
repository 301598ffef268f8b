package cli

import (
	"errors"

	"github.com/trofimovelijah/SuprematistArticleFinder/internal/domain"
)

// User-facing messages carried over from the original page. Network and
// backend failures both collapse into the generic message; the underlying
// cause stays in the diagnostic log.
const (
	msgSearchFailed = "Произошла ошибка при поиске"
	msgFilterFailed = "Произошла ошибка при фильтрации результатов"
	msgExportFailed = "Произошла ошибка при экспорте результатов"
)

// userMessage maps a session error to what the user should see. An empty
// string means the error is silently ignored (empty query). Validation
// errors get their specific message; everything else gets the generic one.
func userMessage(err error, generic string) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrEmptyQuery):
		return ""
	case errors.Is(err, domain.ErrFutureDateBound):
		return "Дата окончания не может быть в будущем"
	case errors.Is(err, domain.ErrStartAfterEnd):
		return "Дата начала не может быть позже даты окончания"
	case errors.Is(err, domain.ErrInvalidDate):
		return "Неверный формат даты"
	case errors.Is(err, domain.ErrInvalidSort):
		return "Неверный порядок сортировки"
	default:
		return generic
	}
}
