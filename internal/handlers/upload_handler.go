package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/justsurfingit/job-board/internal/errors"
	"github.com/justsurfingit/job-board/internal/uploads"
	"go.uber.org/zap"
)

type UploadHandler struct {
	Store *uploads.DiskStore
}

func NewUploadHandler(store *uploads.DiskStore) *UploadHandler {
	return &UploadHandler{Store: store}
}

// Upload godoc
// @Summary Upload an attachment
// @Description Stores a CV or similar document (pdf, doc, docx, txt, rtf, odt; max 10MB) and returns its URL for the application's attachement field.
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document"
// @Success 201 {object} uploads.Upload
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /uploads [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	if _, ok := mustCaller(c); !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, uploads.MaxSize+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, apperrors.InvalidFields("no file uploaded", map[string]string{"file": "is required"}))
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, apperrors.InvalidInput("unreadable upload", err))
		return
	}
	defer file.Close()

	up, err := h.Store.Save(header.Filename, file)
	if err != nil {
		respondError(c, err)
		return
	}
	logger(c).Info("attachment stored", zap.String("name", up.Name), zap.Int64("size", header.Size))
	c.JSON(http.StatusCreated, up)
}
