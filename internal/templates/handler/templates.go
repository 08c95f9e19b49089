package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"autosales/internal/apierrors"
	authhandler "autosales/internal/auth/handler"
	"autosales/internal/observability"
	"autosales/internal/templates/processor"
)

type Handler struct {
	templatesProcessor *processor.TemplatesProcessor
	logger             *observability.Logger
}

func New(templatesProcessor *processor.TemplatesProcessor, logger *observability.Logger) *Handler {
	return &Handler{
		templatesProcessor: templatesProcessor,
		logger:             logger,
	}
}

func (h *Handler) HandleList(c *gin.Context) {
	userID, ok := authhandler.UserIDFromContext(c)
	if !ok {
		apierrors.Unauthorized(c, "authentication required")
		return
	}

	templates, err := h.templatesProcessor.List(c.Request.Context(), userID)
	if err != nil {
		apierrors.InternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

type CreateTemplateRequest struct {
	Name    string `json:"name" binding:"required"`
	Content string `json:"content" binding:"required"`
}

func (h *Handler) HandleCreate(c *gin.Context) {
	userID, ok := authhandler.UserIDFromContext(c)
	if !ok {
		apierrors.Unauthorized(c, "authentication required")
		return
	}

	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationError(c, err)
		return
	}

	template, err := h.templatesProcessor.Create(c.Request.Context(), userID, req.Name, req.Content)
	if err != nil {
		if errors.Is(err, processor.ErrDuplicateName) {
			apierrors.BadRequest(c, "DUPLICATE_NAME", err.Error())
			return
		}
		apierrors.InternalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, template)
}

type UpdateTemplateRequest struct {
	Name     *string `json:"name"`
	Content  *string `json:"content"`
	IsActive *bool   `json:"isActive"`
}

func (h *Handler) HandleUpdate(c *gin.Context) {
	userID, ok := authhandler.UserIDFromContext(c)
	if !ok {
		apierrors.Unauthorized(c, "authentication required")
		return
	}

	templateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.BadRequest(c, "INVALID_ID", "invalid template id")
		return
	}

	var req UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationError(c, err)
		return
	}

	template, err := h.templatesProcessor.Update(c.Request.Context(), userID, templateID, processor.UpdateParams{
		Name:     req.Name,
		Content:  req.Content,
		IsActive: req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, processor.ErrTemplateNotFound):
			apierrors.NotFound(c, "template not found")
		case errors.Is(err, processor.ErrDuplicateName):
			apierrors.BadRequest(c, "DUPLICATE_NAME", err.Error())
		default:
			apierrors.InternalError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, template)
}

type SuggestRequest struct {
	Description string `json:"description" binding:"required"`
}

// HandleSuggest drafts a collection message body from a free-form
// description of what the user wants to say.
func (h *Handler) HandleSuggest(c *gin.Context) {
	userID, ok := authhandler.UserIDFromContext(c)
	if !ok {
		apierrors.Unauthorized(c, "authentication required")
		return
	}

	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationError(c, err)
		return
	}

	suggestion, err := h.templatesProcessor.Suggest(c.Request.Context(), userID, req.Description)
	if err != nil {
		apierrors.ServiceUnavailable(c, "AI_UNAVAILABLE", "não foi possível gerar a sugestão agora", err)
		return
	}

	c.JSON(http.StatusOK, suggestion)
}
