package handlers

import (
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	mw "vision-webapi/internal/middleware"
	"vision-webapi/internal/models"
	"vision-webapi/internal/pkg/validation"
	"vision-webapi/internal/services"
)

// UploadHandler stores submitted media and exposes the upload ledger.
type UploadHandler struct {
	ledger    services.UploadLedger
	uploadDir string
	maxBytes  int64
}

// NewUploadHandler creates a new UploadHandler saving files under uploadDir.
func NewUploadHandler(ledger services.UploadLedger, uploadDir string, maxUploadMB int) *UploadHandler {
	return &UploadHandler{
		ledger:    ledger,
		uploadDir: uploadDir,
		maxBytes:  int64(maxUploadMB) << 20,
	}
}

// AttachResultRequest is the body of PUT /uploads/:id/result.
type AttachResultRequest struct {
	ResultPath string `json:"result_path" validate:"required,max=1024"`
}

// Create handles POST /uploads (multipart/form-data, field "file", optional "file_type").
func (h *UploadHandler) Create(c *fiber.Ctx) error {
	logger := mw.GetRequestFileLogger(c)
	userID, ok := mw.CurrentUserID(c)
	if !ok {
		return unauthorizedSession(c)
	}

	file, err := c.FormFile("file")
	if err != nil {
		logger.Warn("Upload request without a file", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "A file is required"})
	}
	if h.maxBytes > 0 && file.Size > h.maxBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "File too large"})
	}

	fileType := strings.ToLower(strings.TrimSpace(c.FormValue("file_type")))
	if fileType == "" {
		fileType = detectFileType(file)
	}
	if fileType == "" {
		logger.Warn("Unsupported upload content type", zap.String("contentType", file.Header.Get(fiber.HeaderContentType)))
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{"error": "Only image and video files are accepted"})
	}

	if err := os.MkdirAll(h.uploadDir, 0755); err != nil {
		logger.Error("Failed to ensure upload directory exists", zap.String("path", h.uploadDir), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not save file"})
	}
	storedName := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	storedPath := filepath.Join(h.uploadDir, storedName)
	if err := c.SaveFile(file, storedPath); err != nil {
		logger.Error("Failed to save uploaded file", zap.String("filename", file.Filename), zap.String("path", storedPath), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not save file"})
	}

	id, err := h.ledger.RecordUpload(c.UserContext(), userID, filepath.Base(file.Filename), storedPath, fileType)
	if err != nil {
		if rmErr := os.Remove(storedPath); rmErr != nil {
			logger.Warn("Failed to remove orphaned upload", zap.String("path", storedPath), zap.Error(rmErr))
		}
		return h.ledgerError(c, err, zap.Int64("userID", userID))
	}

	upload, err := h.ledger.Get(c.UserContext(), id)
	if err != nil {
		return h.ledgerError(c, err, zap.Int64("uploadID", id))
	}
	logger.Info("Upload stored", zap.Int64("uploadID", id), zap.String("type", fileType), zap.Int64("size", file.Size))
	return c.Status(fiber.StatusCreated).JSON(upload)
}

// AttachResult handles PUT /uploads/:id/result.
func (h *UploadHandler) AttachResult(c *fiber.Ctx) error {
	upload, err := h.ownedUpload(c)
	if err != nil {
		return err
	}
	if upload == nil {
		return nil
	}

	var req AttachResultRequest
	if !validation.ParseAndValidate(c, &req) {
		return nil
	}
	if err := h.ledger.AttachResult(c.UserContext(), upload.ID, strings.TrimSpace(req.ResultPath)); err != nil {
		return h.ledgerError(c, err, zap.Int64("uploadID", upload.ID))
	}

	updated, err := h.ledger.Get(c.UserContext(), upload.ID)
	if err != nil {
		return h.ledgerError(c, err, zap.Int64("uploadID", upload.ID))
	}
	return c.Status(fiber.StatusOK).JSON(updated)
}

// Download handles GET /uploads/:id/file and streams the stored media to its owner.
func (h *UploadHandler) Download(c *fiber.Ctx) error {
	upload, err := h.ownedUpload(c)
	if err != nil || upload == nil {
		return err
	}
	if _, err := os.Stat(upload.FilePath); err != nil {
		mw.GetRequestFileLogger(c).Warn("Stored upload missing on disk", zap.Int64("uploadID", upload.ID), zap.Error(err))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "File no longer available"})
	}
	c.Attachment(upload.FileName)
	return c.SendFile(upload.FilePath)
}

// List handles GET /uploads.
func (h *UploadHandler) List(c *fiber.Ctx) error {
	userID, ok := mw.CurrentUserID(c)
	if !ok {
		return unauthorizedSession(c)
	}
	uploads, err := h.ledger.ListByUser(c.UserContext(), userID)
	if err != nil {
		return h.ledgerError(c, err, zap.Int64("userID", userID))
	}
	return c.Status(fiber.StatusOK).JSON(uploads)
}

// Get handles GET /uploads/:id.
func (h *UploadHandler) Get(c *fiber.Ctx) error {
	upload, err := h.ownedUpload(c)
	if err != nil || upload == nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(upload)
}

// ownedUpload loads the upload named by the :id param. When it returns a nil upload the
// response has already been written; uploads owned by someone else are reported as missing.
func (h *UploadHandler) ownedUpload(c *fiber.Ctx) (*models.Upload, error) {
	userID, ok := mw.CurrentUserID(c)
	if !ok {
		return nil, unauthorizedSession(c)
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid upload id"})
	}

	upload, err := h.ledger.Get(c.UserContext(), int64(id))
	if err != nil {
		return nil, h.ledgerError(c, err, zap.Int("uploadID", id))
	}
	if upload.UserID != userID {
		mw.GetRequestFileLogger(c).Warn("Upload requested by non-owner", zap.Int("uploadID", id), zap.Int64("userID", userID))
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": services.ErrUploadNotFound.Error()})
	}
	return upload, nil
}

func (h *UploadHandler) ledgerError(c *fiber.Ctx, err error, fields ...zap.Field) error {
	logger := mw.GetRequestFileLogger(c)
	switch {
	case errors.Is(err, services.ErrValidation):
		return validationFailed(c, err)
	case errors.Is(err, services.ErrUploadNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrUserNotFound):
		logger.Warn("Upload references a user that no longer exists", append(fields, zap.Error(err))...)
		return unauthorizedSession(c)
	default:
		logger.Error("Upload ledger failure", append(fields, zap.Error(err))...)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Upload operation failed"})
	}
}

// detectFileType maps the part's declared content type to an upload kind, or "" if unsupported.
func detectFileType(file *multipart.FileHeader) string {
	contentType := strings.ToLower(file.Header.Get(fiber.HeaderContentType))
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	default:
		return ""
	}
}

// SetupUploadRoutes registers upload routes on a router already guarded by middleware.Protected.
func (h *UploadHandler) SetupUploadRoutes(router fiber.Router) {
	uploads := router.Group("/uploads")
	uploads.Post("/", h.Create)
	uploads.Get("/", h.List)
	uploads.Get("/:id", h.Get)
	uploads.Get("/:id/file", h.Download)
	uploads.Put("/:id/result", h.AttachResult)
}
