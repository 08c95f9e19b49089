package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"autosales/internal/apierrors"
	authhandler "autosales/internal/auth/handler"
	"autosales/internal/ingest/processor"
	"autosales/internal/observability"
)

const maxUploadBytes = 10 << 20

type Handler struct {
	ingestProcessor *processor.IngestProcessor
	logger          *observability.Logger
}

func New(ingestProcessor *processor.IngestProcessor, logger *observability.Logger) *Handler {
	return &Handler{
		ingestProcessor: ingestProcessor,
		logger:          logger,
	}
}

// HandleUpload parses an uploaded spreadsheet and returns the validated
// rows for review. Nothing is persisted here; the contacts import
// endpoint saves the rows the user confirms.
func (h *Handler) HandleUpload(c *gin.Context) {
	userID, ok := authhandler.UserIDFromContext(c)
	if !ok {
		apierrors.Unauthorized(c, "authentication required")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apierrors.BadRequest(c, "MISSING_FILE", "nenhum arquivo enviado")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		apierrors.BadRequest(c, "FILE_TOO_LARGE", "arquivo excede o limite de 10MB")
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".csv" && ext != ".xlsx" && ext != ".xls" {
		apierrors.BadRequest(c, "UNSUPPORTED_FORMAT", "formato não suportado, envie CSV ou XLSX")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		apierrors.InternalError(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		apierrors.InternalError(c, err)
		return
	}

	result, err := h.ingestProcessor.ProcessUpload(c.Request.Context(), userID, data, fileHeader.Filename)
	if err != nil {
		var limitErr *processor.PlanLimitError
		if errors.As(err, &limitErr) {
			apierrors.BadRequest(c, "PLAN_LIMIT_EXCEEDED", limitErr.Error())
			return
		}
		h.logger.Error(c.Request.Context(), "failed to process upload", err)
		apierrors.BadRequest(c, "INVALID_FILE", err.Error())
		return
	}

	c.JSON(http.StatusOK, result)
}
