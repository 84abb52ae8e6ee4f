package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tbayconnect/api/internal/model"
	"github.com/tbayconnect/api/pkg/storage"
)

// Max size per image: 8MB. Events carry at most 3 images.
const (
	maxImageSize  = 8 << 20
	maxEventMedia = 3
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// UploadHandler handles event media uploads
type UploadHandler struct {
	storage *storage.MinIOStorage
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(storage *storage.MinIOStorage) *UploadHandler {
	return &UploadHandler{storage: storage}
}

// UploadImage godoc
// @Summary Upload a single event image
// @Description Upload one image (jpg, png, gif, webp; max 8MB) and get its public URL back.
// @Tags Upload
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image to upload"
// @Success 200 {object} model.UploadResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 413 {object} model.ErrorResponse
// @Router /upload [post]
func (h *UploadHandler) UploadImage(c *gin.Context) {
	// Limit request body size
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageSize)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{Error: "File too large (max 8MB)"})
			return
		}
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "File is required", Message: err.Error()})
		return
	}
	defer file.Close()

	contentType := strings.ToLower(header.Header.Get("Content-Type"))
	if !allowedImageTypes[contentType] {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "Unsupported file type",
			Message: "Allowed: jpg, png, gif, webp",
		})
		return
	}

	result, err := h.storage.Upload(c.Request.Context(), file, header, "events")
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to upload file", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.UploadResponse{
		URL:      result.URL,
		Key:      result.Key,
		FileName: result.FileName,
		FileSize: result.FileSize,
		MimeType: result.MimeType,
	})
}

// UploadMultiple godoc
// @Summary Upload event images
// @Description Upload up to 3 images at once. Returns array of URLs suitable for an event's media_urls.
// @Tags Upload
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param files formData file true "Images to upload (max 3)"
// @Success 200 {array} model.UploadResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /upload/multiple [post]
func (h *UploadHandler) UploadMultiple(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxEventMedia*maxImageSize)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid form data", Message: err.Error()})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "No files provided"})
		return
	}
	if len(files) > maxEventMedia {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Maximum 3 images allowed"})
		return
	}

	results := []model.UploadResponse{}
	for _, header := range files {
		if header.Size > maxImageSize {
			c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{Error: "File too large (max 8MB)", Message: header.Filename})
			return
		}

		contentType := strings.ToLower(header.Header.Get("Content-Type"))
		if !allowedImageTypes[contentType] {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Unsupported file type", Message: header.Filename})
			return
		}

		file, err := header.Open()
		if err != nil {
			continue
		}

		result, err := h.storage.Upload(c.Request.Context(), file, header, "events")
		file.Close()
		if err != nil {
			continue // Skip failed uploads
		}

		results = append(results, model.UploadResponse{
			URL:      result.URL,
			Key:      result.Key,
			FileName: result.FileName,
			FileSize: result.FileSize,
			MimeType: result.MimeType,
		})
	}

	c.JSON(http.StatusOK, results)
}

// DeleteImage godoc
// @Summary Delete an uploaded image
// @Description Removes the object by the key returned at upload time.
// @Tags Upload
// @Produce json
// @Security BearerAuth
// @Param key path string true "Object key"
// @Success 200 {object} model.SuccessResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /upload/{key} [delete]
func (h *UploadHandler) DeleteImage(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if !strings.HasPrefix(key, "events/") || strings.Contains(key, "..") {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid object key"})
		return
	}

	if err := h.storage.Delete(c.Request.Context(), key); err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Failed to delete file", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "File deleted"})
}
