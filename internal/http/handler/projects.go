package handler

import (
	"github.com/gofiber/fiber/v2"

	"clientfiles/internal/service"
)

type createProjectRequest struct {
	service.ProjectInput
	// TemplateID, when set, builds fields and folders from the template and
	// ignores the ones in the body.
	TemplateID string `json:"template_id,omitempty"`
}

func NextProjectID(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"project_number": svc.NextProjectID()})
	}
}

// CreateProject adds a project to a file, optionally from a template.
//
//	@Summary	Create project
//	@Tags		projects
//	@Security	BearerAuth
//	@Param		fileID	path		string					true	"file id"
//	@Param		body	body		createProjectRequest	true	"project"
//	@Success	201		{object}	model.Project
//	@Failure	404		{object}	errorPayload
//	@Router		/api/files/{fileID}/projects [post]
func CreateProject(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createProjectRequest
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c)
		}
		fileID := c.Params("fileID")
		var err error
		var out any
		if req.TemplateID != "" {
			out, err = svc.AddProjectFromTemplate(c.UserContext(), fileID, req.TemplateID, req.Name)
		} else {
			out, err = svc.AddProject(c.UserContext(), fileID, req.ProjectInput)
		}
		if err != nil {
			return fromServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(out)
	}
}

func UpdateProject(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var patch service.ProjectPatch
		if err := c.BodyParser(&patch); err != nil {
			return invalidBody(c)
		}
		fileID, projectID := c.Params("fileID"), c.Params("projectID")
		if err := svc.UpdateProject(c.UserContext(), fileID, projectID, patch); err != nil {
			return fromServiceError(c, err)
		}
		return c.JSON(svc.Snapshot().Project(fileID, projectID))
	}
}

func DeleteProject(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.DeleteProject(c.UserContext(), c.Params("fileID"), c.Params("projectID")); err != nil {
			return fromServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func CreateField(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.FieldInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		f, err := svc.AddField(c.UserContext(), c.Params("fileID"), c.Params("projectID"), in)
		if err != nil {
			return fromServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(f)
	}
}

func UpdateField(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var patch service.FieldPatch
		if err := c.BodyParser(&patch); err != nil {
			return invalidBody(c)
		}
		if err := svc.UpdateField(c.UserContext(), c.Params("fileID"), c.Params("projectID"), c.Params("fieldID"), patch); err != nil {
			return fromServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func DeleteField(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.DeleteField(c.UserContext(), c.Params("fileID"), c.Params("projectID"), c.Params("fieldID")); err != nil {
			return fromServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
