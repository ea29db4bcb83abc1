package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"clientfiles/internal/http/middleware"
	"clientfiles/internal/service"
)

// errorPayload is the error body every endpoint returns.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func requestIDFromCtx(c *fiber.Ctx) string {
	s, _ := c.Locals(middleware.RequestIDLocalKey).(string)
	return s
}

// writeError writes the standard envelope. message must be safe to show.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

var serviceErrors = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrIDRequired, fiber.StatusBadRequest, "ID_REQUIRED"},
	{service.ErrNameRequired, fiber.StatusBadRequest, "NAME_REQUIRED"},
	{service.ErrInvalidKind, fiber.StatusBadRequest, "INVALID_KIND"},
	{service.ErrInvalidStatus, fiber.StatusBadRequest, "INVALID_STATUS"},
	{service.ErrInvalidFolderType, fiber.StatusBadRequest, "INVALID_FOLDER_TYPE"},
	{service.ErrReaderNil, fiber.StatusBadRequest, "FILE_REQUIRED"},
	{service.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{service.ErrDuplicateReference, fiber.StatusConflict, "DUPLICATE_REFERENCE"},
	{service.ErrProjectCompleted, fiber.StatusConflict, "PROJECT_COMPLETED"},
	{service.ErrSubmissionProcessed, fiber.StatusConflict, "SUBMISSION_PROCESSED"},
	{service.ErrNotInitialized, fiber.StatusConflict, "NO_SESSION"},
	{service.ErrQuotaExceeded, fiber.StatusRequestEntityTooLarge, "QUOTA_EXCEEDED"},
}

// fromServiceError maps a service error onto the HTTP envelope. Remote write
// failures become 502; anything unrecognised is a 500 with no detail.
func fromServiceError(c *fiber.Ctx, err error) error {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			msg := m.err.Error()
			if m.status == fiber.StatusRequestEntityTooLarge {
				msg = err.Error()
			}
			return writeError(c, m.status, m.code, msg)
		}
	}
	var remote *service.RemoteError
	if errors.As(err, &remote) {
		return writeError(c, fiber.StatusBadGateway, "REMOTE_WRITE_FAILED", remote.Op+" could not be saved; the change will be reconciled")
	}
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler is the fiber-wide error handler.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", "missing or invalid access token")
		case fiber.StatusForbidden:
			return writeError(c, status, "FORBIDDEN", "token does not belong to the session user")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "BODY_TOO_LARGE", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
