package v1

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	ierr "github.com/sublytics/sublytics/internal/errors"
	"github.com/sublytics/sublytics/internal/logger"
	"github.com/sublytics/sublytics/internal/service"
)

type UploadHandler struct {
	analyticsService service.SubscriptionAnalyticsService
	logger           *logger.Logger
}

func NewUploadHandler(
	analyticsService service.SubscriptionAnalyticsService,
	logger *logger.Logger,
) *UploadHandler {
	return &UploadHandler{
		analyticsService: analyticsService,
		logger:           logger,
	}
}

func (h *UploadHandler) UploadWalletExport(c *gin.Context) {
	filename, data, err := readUpload(c)
	if err != nil {
		c.Error(err)
		return
	}

	response, err := h.analyticsService.ProcessWalletUpload(c.Request.Context(), filename, data)
	if err != nil {
		h.logger.Errorw("failed to process wallet export", "file", filename, "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *UploadHandler) UploadRecoveryExport(c *gin.Context) {
	filename, data, err := readUpload(c)
	if err != nil {
		c.Error(err)
		return
	}

	response, err := h.analyticsService.ProcessRecoveryUpload(c.Request.Context(), filename, data)
	if err != nil {
		h.logger.Errorw("failed to process recovery export", "file", filename, "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func readUpload(c *gin.Context) (string, []byte, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return "", nil, ierr.WithError(err).
			WithHint("attach the export as the 'file' form field").
			Mark(ierr.ErrValidation)
	}

	file, err := header.Open()
	if err != nil {
		return "", nil, ierr.WithError(err).
			WithHint("the uploaded file could not be opened").
			Mark(ierr.ErrValidation)
	}
	defer func(file multipart.File) {
		_ = file.Close()
	}(file)

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, ierr.WithError(err).
			WithHint("the uploaded file could not be read").
			Mark(ierr.ErrValidation)
	}
	return header.Filename, data, nil
}
