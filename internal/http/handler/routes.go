package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"clientfiles/internal/auth"
	"clientfiles/internal/http/middleware"
	"clientfiles/internal/service"
)

// Deps are the collaborators the routes need. Metrics may be nil.
type Deps struct {
	DB       *sql.DB
	Service  *service.Service
	Verifier *auth.Verifier
	Metrics  prometheus.Gatherer
}

// RegisterRoutes attaches every route to app. Everything under /api needs a
// bearer token belonging to the session user.
func RegisterRoutes(app *fiber.App, d Deps) {
	svc := d.Service

	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())
	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{})))
	}

	app.Post("/session", middleware.Auth(d.Verifier, nil), StartSession(svc))

	api := app.Group("/api", middleware.Auth(d.Verifier, func() string { return svc.Principal().UserID }))
	api.Get("/session", GetSession(svc))
	api.Delete("/session", EndSession(svc))
	api.Post("/refetch", Refetch(svc))
	api.Get("/activities", ListActivities(svc))
	api.Get("/storage", StorageUsage(svc))
	api.Post("/urls/refresh", RefreshURL(svc))

	api.Get("/files", ListFiles(svc))
	api.Post("/files", CreateFile(svc))
	api.Get("/files/:fileID", GetFile(svc))
	api.Patch("/files/:fileID", UpdateFile(svc))
	api.Delete("/files/:fileID", DeleteFile(svc))
	api.Post("/files/:fileID/share", ShareFile(svc))
	api.Delete("/files/:fileID/share", UnshareFile(svc))

	api.Get("/projects/next-id", NextProjectID(svc))
	api.Post("/files/:fileID/projects", CreateProject(svc))
	project := api.Group("/files/:fileID/projects/:projectID")
	project.Patch("", UpdateProject(svc))
	project.Delete("", DeleteProject(svc))
	project.Post("/fields", CreateField(svc))
	project.Patch("/fields/:fieldID", UpdateField(svc))
	project.Delete("/fields/:fieldID", DeleteField(svc))
	project.Put("/notes", UpdateNotes(svc))
	project.Get("/note-entries", ListNoteEntries(svc))
	project.Put("/note-entries", SetNoteEntries(svc))
	project.Post("/note-entries", CreateNoteEntry(svc))
	project.Patch("/note-entries/:entryID", UpdateNoteEntry(svc))
	project.Delete("/note-entries/:entryID", DeleteNoteEntry(svc))
	project.Post("/folders", CreateFolder(svc))
	project.Post("/folders/:folderID/files", UploadFile(svc))
	project.Patch("/folders/:folderID/files/:id", RenameFolderFile(svc))
	project.Delete("/folders/:folderID/files/:id", DeleteFolderFile(svc))
	project.Post("/folders/:folderID/upload-requests", CreateUploadRequest(svc))
	api.Delete("/folders/:folderID", DeleteFolder(svc))
	api.Post("/folders/:folderID/sync", SyncFolder(svc))

	api.Get("/templates", ListTemplates(svc))
	api.Post("/templates", CreateTemplate(svc))
	api.Patch("/templates/:templateID", UpdateTemplate(svc))
	api.Delete("/templates/:templateID", DeleteTemplate(svc))
	api.Post("/templates/:templateID/share", ShareTemplate(svc))
	api.Get("/templates/:templateID/submissions", ListSubmissions(svc))
	api.Post("/submissions/:submissionID/import", ImportSubmission(svc))
	api.Post("/submissions/:submissionID/reject", RejectSubmission(svc))
}

// HealthCheck pings the database.
//
//	@Summary	Readiness probe
//	@Tags		health
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	errorPayload
//	@Router		/health [get]
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.JSON(fiber.Map{"status": "healthy"})
	}
}

func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

func invalidBody(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
}
