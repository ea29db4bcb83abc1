package handler

import (
	"github.com/gofiber/fiber/v2"

	"clientfiles/internal/service"
)

type notesRequest struct {
	Notes string `json:"notes"`
}

func UpdateNotes(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req notesRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
		if err := svc.UpdateNotes(c.UserContext(), c.Params("fileID"), c.Params("projectID"), req.Notes); err != nil {
			return fromServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListNoteEntries returns the project's note entries newest first.
func ListNoteEntries(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := svc.Snapshot().Project(c.Params("fileID"), c.Params("projectID"))
		if p == nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "project not found")
		}
		return c.JSON(p.NotesByDate())
	}
}

func SetNoteEntries(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var entries []service.NoteEntryInput
		if err := c.BodyParser(&entries); err != nil {
			return invalidBody(c)
		}
		fileID, projectID := c.Params("fileID"), c.Params("projectID")
		if err := svc.SetNoteEntries(c.UserContext(), fileID, projectID, entries); err != nil {
			return fromServiceError(c, err)
		}
		p := svc.Snapshot().Project(fileID, projectID)
		if p == nil {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.JSON(p.NotesByDate())
	}
}

func CreateNoteEntry(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.NoteEntryInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		n, err := svc.AddNoteEntry(c.UserContext(), c.Params("fileID"), c.Params("projectID"), in)
		if err != nil {
			return fromServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(n)
	}
}

func UpdateNoteEntry(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var patch service.NoteEntryPatch
		if err := c.BodyParser(&patch); err != nil {
			return invalidBody(c)
		}
		if err := svc.UpdateNoteEntry(c.UserContext(), c.Params("fileID"), c.Params("projectID"), c.Params("entryID"), patch); err != nil {
			return fromServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func DeleteNoteEntry(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.DeleteNoteEntry(c.UserContext(), c.Params("fileID"), c.Params("projectID"), c.Params("entryID")); err != nil {
			return fromServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
