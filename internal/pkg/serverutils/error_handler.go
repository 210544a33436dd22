package serverutils

import (
	"errors"

	"vehicle-rag-be/internal/pkg/apperror"
	"vehicle-rag-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

type ErrorResponse struct {
	Detail string `json:"detail"`
}

// StatusFor maps an error to the HTTP status the API answers with.
func StatusFor(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindUnprocessable:
		return fiber.StatusUnprocessableEntity
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every error returned by a handler as {"detail": "..."}.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		status := StatusFor(err)

		detail := err.Error()
		var fiberErr *fiber.Error
		var appErr *apperror.Error
		switch {
		case errors.As(err, &fiberErr):
			detail = fiberErr.Message
		case errors.As(err, &appErr) && appErr.Kind != apperror.KindInternal:
			detail = appErr.Message
			if appErr.Kind == apperror.KindUpstream && appErr.Err != nil {
				detail = appErr.Error()
			}
		}

		if status >= fiber.StatusInternalServerError && log != nil {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"status": status,
				"error":  err,
			})
		}

		return ctx.Status(status).JSON(ErrorResponse{Detail: detail})
	}
}
