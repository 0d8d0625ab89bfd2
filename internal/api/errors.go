package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lazylions/lazy-leaderboard/pkg/logger"
)

// ValidationError 请求参数不合法，返回 400
type ValidationError struct {
	Message string `json:"error"`
}

func (e ValidationError) Error() string {
	return e.Message
}

// RequestError 带状态码的错误响应
type RequestError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (e RequestError) Error() string {
	return e.Message
}

func ErrorHandler(c *fiber.Ctx, err error) error {
	var (
		verr ValidationError
		rerr RequestError
		ferr *fiber.Error
	)

	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(verr)
	case errors.As(err, &rerr):
		if rerr.Code >= fiber.StatusInternalServerError {
			logger.Error().Err(err).
				Int("code", rerr.Code).
				Str("path", c.Path()).
				Str("details", strings.ReplaceAll(rerr.Details, "\n", "\\n")).
				Msg("request failed")
		}
		return c.Status(rerr.Code).JSON(rerr)
	case errors.As(err, &ferr):
		return c.Status(ferr.Code).JSON(fiber.Map{"error": ferr.Message})
	default:
		logger.Error().Err(err).Str("path", c.Path()).Str("ip", c.IP()).Msg("unhandled request error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error: " + err.Error(),
		})
	}
}
