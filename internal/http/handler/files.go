package handler

import (
	"github.com/gofiber/fiber/v2"

	"clientfiles/internal/service"
)

// ListFiles returns the cached client-file tree.
//
//	@Summary	List client files
//	@Tags		files
//	@Security	BearerAuth
//	@Success	200	{array}	model.ClientFile
//	@Router		/api/files [get]
func ListFiles(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(svc.Files())
	}
}

func GetFile(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := svc.Snapshot().File(c.Params("fileID"))
		if f == nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
		}
		return c.JSON(f)
	}
}

// CreateFile adds a client file.
//
//	@Summary	Create client file
//	@Tags		files
//	@Security	BearerAuth
//	@Param		body	body		service.FileInput	true	"file"
//	@Success	201		{object}	model.ClientFile
//	@Failure	400		{object}	errorPayload
//	@Failure	409		{object}	errorPayload
//	@Router		/api/files [post]
func CreateFile(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.FileInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		f, err := svc.AddFile(c.UserContext(), in)
		if err != nil {
			return fromServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(f)
	}
}

func UpdateFile(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var patch service.FilePatch
		if err := c.BodyParser(&patch); err != nil {
			return invalidBody(c)
		}
		id := c.Params("fileID")
		if err := svc.UpdateFile(c.UserContext(), id, patch); err != nil {
			return fromServiceError(c, err)
		}
		return c.JSON(svc.Snapshot().File(id))
	}
}

func DeleteFile(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.DeleteFile(c.UserContext(), c.Params("fileID")); err != nil {
			return fromServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func ShareFile(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		share, err := svc.ShareFile(c.UserContext(), c.Params("fileID"))
		if err != nil {
			return fromServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(share)
	}
}

func UnshareFile(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.UnshareFile(c.UserContext(), c.Params("fileID")); err != nil {
			return fromServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
