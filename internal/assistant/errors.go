package assistant

import (
	"taskAssistant/internal/service"
)

var ErrEmptyMessage = service.NewValidationError("message", "сообщение не может быть пустым")

func ErrUnknownModel(model string) error {
	return service.NewValidationError("model", "неизвестная модель "+model)
}
