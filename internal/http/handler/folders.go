package handler

import (
	"github.com/gofiber/fiber/v2"

	"clientfiles/internal/model"
	"clientfiles/internal/service"
)

type storageResponse struct {
	UsedBytes   int64  `json:"used_bytes"`
	LimitBytes  int64  `json:"limit_bytes"`
	Used        string `json:"used"`
	Limit       string `json:"limit"`
	Provisional bool   `json:"provisional"`
}

func StorageUsage(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		used := svc.TotalStorageUsed()
		return c.JSON(storageResponse{
			UsedBytes:   used,
			LimitBytes:  service.StorageLimitBytes,
			Used:        model.HumanSize(used),
			Limit:       model.HumanSize(service.StorageLimitBytes),
			Provisional: !svc.Snapshot().FolderFilesLoaded,
		})
	}
}

func CreateFolder(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.FolderInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		d, err := svc.AddFolder(c.UserContext(), c.Params("fileID"), c.Params("projectID"), in)
		if err != nil {
			return fromServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(d)
	}
}

func DeleteFolder(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.DeleteFolder(c.UserContext(), c.Params("folderID")); err != nil {
			return fromServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UploadFile stores a multipart upload (field "file") in a folder.
//
//	@Summary	Upload file into folder
//	@Tags		folders
//	@Security	BearerAuth
//	@Accept		multipart/form-data
//	@Param		fileID		path		string	true	"file id"
//	@Param		projectID	path		string	true	"project id"
//	@Param		folderID	path		string	true	"folder id"
//	@Param		file		formData	file	true	"file"
//	@Success	201			{object}	model.FolderFile
//	@Failure	413			{object}	errorPayload
//	@Failure	502			{object}	errorPayload
//	@Router		/api/files/{fileID}/projects/{projectID}/folders/{folderID}/files [post]
func UploadFile(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}
		ff, err := svc.AddFileToFolder(c.UserContext(), c.Params("fileID"), c.Params("projectID"), c.Params("folderID"), service.Upload{
			Name:        fh.Filename,
			ContentType: ct,
			Size:        fh.Size,
			Body:        f,
		})
		if err != nil {
			return fromServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(ff)
	}
}

func RenameFolderFile(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var patch service.FolderFilePatch
		if err := c.BodyParser(&patch); err != nil {
			return invalidBody(c)
		}
		err := svc.UpdateFileInFolder(c.UserContext(), c.Params("fileID"), c.Params("projectID"), c.Params("folderID"), c.Params("id"), patch)
		if err != nil {
			return fromServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func DeleteFolderFile(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := svc.DeleteFileFromFolder(c.UserContext(), c.Params("fileID"), c.Params("projectID"), c.Params("folderID"), c.Params("id"))
		if err != nil {
			return fromServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func SyncFolder(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.SyncFolderFiles(c.UserContext(), c.Params("folderID")); err != nil {
			return fromServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func CreateUploadRequest(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		share, err := svc.CreateUploadRequest(c.UserContext(), c.Params("fileID"), c.Params("projectID"), c.Params("folderID"))
		if err != nil {
			return fromServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(share)
	}
}

type refreshURLRequest struct {
	StoragePath string `json:"storage_path"`
}

// RefreshURL re-signs a download URL. A signing failure yields a null url
// rather than an error.
func RefreshURL(svc *service.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req refreshURLRequest
		if err := c.BodyParser(&req); err != nil || req.StoragePath == "" {
			return invalidBody(c)
		}
		url, ok := svc.RefreshFileURL(c.UserContext(), req.StoragePath)
		if !ok {
			return c.JSON(fiber.Map{"url": nil})
		}
		return c.JSON(fiber.Map{"url": url})
	}
}
