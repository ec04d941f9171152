package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jp973/groupnotify-backend/internal/httpx"
	"github.com/jp973/groupnotify-backend/internal/storage"
)

type StorageHandler struct {
	store *storage.S3Storage
}

func NewStorageHandler(store *storage.S3Storage) *StorageHandler {
	return &StorageHandler{store: store}
}

// GetUploadURL handles GET /storage/upload-url?filename=...
func (h *StorageHandler) GetUploadURL(c *fiber.Ctx) error {
	if h.store == nil {
		return httpx.ServiceUnavailable(c, "storage_unavailable", "Storage is not configured")
	}

	filename := c.Query("filename")
	if filename == "" {
		return httpx.BadRequest(c, "missing_filename", "filename is required")
	}

	url, err := h.store.PresignedUploadURL(c.Context(), filename)
	if err != nil {
		return httpx.BadRequest(c, "presign_failed", err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "url": url})
}

// GetDownloadURL handles GET /storage/download-url?filename=...
func (h *StorageHandler) GetDownloadURL(c *fiber.Ctx) error {
	if h.store == nil {
		return httpx.ServiceUnavailable(c, "storage_unavailable", "Storage is not configured")
	}

	filename := c.Query("filename")
	if filename == "" {
		return httpx.BadRequest(c, "missing_filename", "filename is required")
	}

	url, err := h.store.PresignedDownloadURL(c.Context(), filename)
	if err != nil {
		return httpx.BadRequest(c, "presign_failed", err.Error())
	}
	return c.JSON(fiber.Map{"success": true, "url": url})
}
