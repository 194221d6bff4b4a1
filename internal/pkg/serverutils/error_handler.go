package serverutils

import (
	"errors"

	"civic-assistant-be/pkg/llm"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns handler errors into the JSON error envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		code, body := errorBody(err)
		return ctx.Status(code).JSON(body)
	}
}

func errorBody(err error) (int, *ErrorBody) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		body := ErrorResponse(fiber.StatusBadRequest, "Validation failed")
		body.Errors = validationErr.Fields
		return fiber.StatusBadRequest, body
	}

	var providerErr *llm.ProviderError
	if errors.As(err, &providerErr) {
		return fiber.StatusBadGateway, ErrorResponse(fiber.StatusBadGateway, "Language model provider failed")
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, ErrorResponse(fiberErr.Code, fiberErr.Message)
	}

	return fiber.StatusInternalServerError, ErrorResponse(fiber.StatusInternalServerError, "Internal server error")
}
