package handlers

import (
	"errors"
	"net/http"

	"taskAssistant/internal/logger"
	"taskAssistant/internal/service"

	"go.uber.org/zap"
)

func handleBusinessError(w http.ResponseWriter, err error) bool {
	var businessErr *service.BusinessError
	if errors.As(err, &businessErr) {
		statusCode := mapBusinessErrorToHTTP(businessErr.Code)

		logger.Warn("HTTP: Бизнес-ошибка",
			zap.String("error_code", businessErr.Code),
			zap.Int("http_status", statusCode))

		responseWithJSON(w, statusCode,
			toPayload("error", businessErr.Code),
			toPayload("message", businessErr.Message),
			toPayload("details", businessErr.Details),
		)
		return true
	}
	return false
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation, service.CodeSelfDependency:
		return http.StatusBadRequest
	case service.CodeCyclicDependency, service.CodeVersionConflict:
		return http.StatusConflict
	case service.CodeCrossOwnerDependency:
		// чужая задача неотличима от несуществующей
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}
