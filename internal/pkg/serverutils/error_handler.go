package serverutils

import (
	"errors"

	"ai-chat-router-be/pkg/ai/generation"

	"github.com/gofiber/fiber/v2"
)

// StatusClientClosedRequest is returned when the caller cancelled the generation
const StatusClientClosedRequest = 499

// ErrorHandlerMiddleware turns errors returned by handlers into the JSON envelope
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code, errorType, message := MapError(err)
		return ctx.Status(code).JSON(TypedErrorResponse(code, errorType, message))
	}
}

// MapError picks the HTTP status and error type for err
func MapError(err error) (int, string, string) {
	if genErr, ok := generation.AsError(err); ok {
		switch {
		case errors.Is(genErr, generation.ErrAuthentication):
			return fiber.StatusUnauthorized, genErr.Type(), genErr.Message
		case errors.Is(genErr, generation.ErrRateLimited):
			return fiber.StatusTooManyRequests, genErr.Type(), genErr.Message
		case errors.Is(genErr, generation.ErrNetwork):
			return fiber.StatusServiceUnavailable, genErr.Type(), genErr.Message
		default:
			return fiber.StatusBadGateway, genErr.Type(), genErr.Message
		}
	}

	if errors.Is(err, generation.ErrCancelled) {
		return StatusClientClosedRequest, "cancelled", err.Error()
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return fiber.StatusBadRequest, "validation", verr.Error()
	}

	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return ferr.Code, "", ferr.Message
	}

	return fiber.StatusInternalServerError, "", err.Error()
}
