package handler

import (
	"github.com/gofiber/fiber/v2"

	"clientfiles/internal/service"
)

func ListTemplates(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(svc.Templates())
	}
}

func CreateTemplate(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.TemplateInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		t, err := svc.AddTemplate(c.UserContext(), in)
		if err != nil {
			return fromServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(t)
	}
}

func UpdateTemplate(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var patch service.TemplatePatch
		if err := c.BodyParser(&patch); err != nil {
			return invalidBody(c)
		}
		id := c.Params("templateID")
		if err := svc.UpdateTemplate(c.UserContext(), id, patch); err != nil {
			return fromServiceError(c, err)
		}
		return c.JSON(svc.Snapshot().Template(id))
	}
}

func DeleteTemplate(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.DeleteTemplate(c.UserContext(), c.Params("templateID")); err != nil {
			return fromServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ShareTemplate publishes the template as a public form.
//
//	@Summary	Share template as form
//	@Tags		templates
//	@Security	BearerAuth
//	@Param		templateID	path		string	true	"template id"
//	@Success	200			{object}	model.Share
//	@Router		/api/templates/{templateID}/share [post]
func ShareTemplate(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		share, err := svc.GenerateFormShare(c.UserContext(), c.Params("templateID"))
		if err != nil {
			return fromServiceError(c, err)
		}
		return c.JSON(share)
	}
}

func ListSubmissions(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subs, err := svc.GetFormSubmissions(c.UserContext(), c.Params("templateID"))
		if err != nil {
			return fromServiceError(c, err)
		}
		return c.JSON(subs)
	}
}

func ImportSubmission(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var target service.ImportTarget
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&target); err != nil {
				return invalidBody(c)
			}
		}
		p, err := svc.ImportFormSubmission(c.UserContext(), c.Params("submissionID"), target)
		if err != nil {
			return fromServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

func RejectSubmission(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.RejectFormSubmission(c.UserContext(), c.Params("submissionID")); err != nil {
			return fromServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
