package handler

import (
	"github.com/gofiber/fiber/v2"

	"clientfiles/internal/http/middleware"
	"clientfiles/internal/service"
)

type sessionResponse struct {
	UserID            string `json:"user_id"`
	Email             string `json:"email,omitempty"`
	Policy            string `json:"policy"`
	FolderFilesLoaded bool   `json:"folder_files_loaded"`
}

func session(svc *service.Service) sessionResponse {
	p := svc.Principal()
	return sessionResponse{
		UserID:            p.UserID,
		Email:             p.Email,
		Policy:            svc.Policy().String(),
		FolderFilesLoaded: svc.Snapshot().FolderFilesLoaded,
	}
}

// StartSession loads the token owner's tree, replacing any running session.
//
//	@Summary	Start a sync session
//	@Tags		session
//	@Security	BearerAuth
//	@Success	200	{object}	sessionResponse
//	@Failure	502	{object}	errorPayload
//	@Router		/session [post]
func StartSession(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := middleware.PrincipalFrom(c)
		if !ok {
			return fiber.ErrUnauthorized
		}
		if err := svc.Init(c.UserContext(), p); err != nil {
			return writeError(c, fiber.StatusBadGateway, "LOAD_FAILED", "could not load client files")
		}
		return c.JSON(session(svc))
	}
}

func GetSession(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if svc.Principal().UserID == "" {
			return fromServiceError(c, service.ErrNotInitialized)
		}
		return c.JSON(session(svc))
	}
}

func EndSession(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		svc.Teardown()
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// Refetch forces an immediate full reload instead of waiting for the debouncer.
func Refetch(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Refetch(c.UserContext()); err != nil {
			if svc.Principal().UserID == "" {
				return fromServiceError(c, err)
			}
			return writeError(c, fiber.StatusBadGateway, "REFETCH_FAILED", "could not reload client files")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func ListActivities(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(svc.Activities())
	}
}
