package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"autosales/internal/apierrors"
	authhandler "autosales/internal/auth/handler"
	"autosales/internal/dispatch/processor"
	"autosales/internal/observability"
	"autosales/internal/store"
)

// CampaignStore is the read surface for campaign queries
type CampaignStore interface {
	GetCampaignByID(ctx context.Context, campaignID, userID uuid.UUID) (store.Campaign, error)
	ListCampaigns(ctx context.Context, userID uuid.UUID, limit, offset int) ([]store.Campaign, error)
}

type Handler struct {
	dispatchProcessor *processor.DispatchProcessor
	campaignStore     CampaignStore
	logger            *observability.Logger
}

func New(dispatchProcessor *processor.DispatchProcessor, campaignStore CampaignStore, logger *observability.Logger) *Handler {
	return &Handler{
		dispatchProcessor: dispatchProcessor,
		campaignStore:     campaignStore,
		logger:            logger,
	}
}

// ScheduleConfig is the optional sending window in the request body.
// Field names follow the web client's Portuguese vocabulary. The
// intervalMinutes key is a legacy alias that has always carried
// seconds; intervalSeconds wins when both are present.
type ScheduleConfig struct {
	HorarioInicio   string `json:"horarioInicio"`
	HorarioFim      string `json:"horarioFim"`
	IntervalSeconds *int   `json:"intervalSeconds"`
	IntervalMinutes *int   `json:"intervalMinutes"`
	DiasUteis       *bool  `json:"diasUteis"`
}

type SendRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description *string         `json:"description"`
	TemplateID  string          `json:"templateId" binding:"required"`
	ContactIDs  []string        `json:"contactIds" binding:"required,min=1"`
	Config      *ScheduleConfig `json:"config"`
}

// HandleSend validates and executes a campaign run. The run happens
// within the request; the response carries the full rollup and the
// per-contact details. Progress also streams over the WebSocket
// endpoint while the run is in flight.
func (h *Handler) HandleSend(c *gin.Context) {
	userID, ok := authhandler.UserIDFromContext(c)
	if !ok {
		apierrors.Unauthorized(c, "authentication required")
		return
	}

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationError(c, err)
		return
	}

	templateID, err := uuid.Parse(req.TemplateID)
	if err != nil {
		apierrors.BadRequest(c, "INVALID_ID", "invalid template id")
		return
	}

	contactIDs := make([]uuid.UUID, 0, len(req.ContactIDs))
	for _, raw := range req.ContactIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			apierrors.BadRequest(c, "INVALID_ID", "invalid contact id: "+raw)
			return
		}
		contactIDs = append(contactIDs, id)
	}

	schedule := resolveSchedule(req.Config)

	result, err := h.dispatchProcessor.Dispatch(c.Request.Context(), userID, processor.DispatchParams{
		Name:        req.Name,
		Description: req.Description,
		TemplateID:  templateID,
		ContactIDs:  contactIDs,
		Schedule:    schedule,
	})
	if err != nil {
		switch {
		case errors.Is(err, processor.ErrTemplateNotFound):
			apierrors.NotFound(c, "active template not found")
		case errors.Is(err, processor.ErrContactsNotFound):
			apierrors.NotFound(c, "no target contacts found")
		case errors.Is(err, processor.ErrOutsideSchedule):
			apierrors.BadRequest(c, "OUTSIDE_BUSINESS_HOURS", "envio permitido apenas dentro do horário configurado")
		case errors.Is(err, processor.ErrInvalidSchedule):
			apierrors.BadRequest(c, "INVALID_SCHEDULE", err.Error())
		default:
			apierrors.InternalError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    result.Failed == 0,
		"campaignId": result.Campaign.ID,
		"sent":       result.Sent,
		"failed":     result.Failed,
		"total":      result.Total,
		"details":    result.Details,
	})
}

// resolveSchedule merges the request overrides into the default window
func resolveSchedule(config *ScheduleConfig) processor.Schedule {
	schedule := processor.DefaultSchedule()
	if config == nil {
		return schedule
	}
	if config.HorarioInicio != "" {
		schedule.StartTime = config.HorarioInicio
	}
	if config.HorarioFim != "" {
		schedule.EndTime = config.HorarioFim
	}
	switch {
	case config.IntervalSeconds != nil:
		schedule.IntervalSeconds = *config.IntervalSeconds
	case config.IntervalMinutes != nil:
		schedule.IntervalSeconds = *config.IntervalMinutes
	}
	if config.DiasUteis != nil {
		schedule.BusinessDaysOnly = *config.DiasUteis
	}
	return schedule
}

func (h *Handler) HandleList(c *gin.Context) {
	userID, ok := authhandler.UserIDFromContext(c)
	if !ok {
		apierrors.Unauthorized(c, "authentication required")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	campaigns, err := h.campaignStore.ListCampaigns(c.Request.Context(), userID, limit, (page-1)*limit)
	if err != nil {
		apierrors.InternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
}

func (h *Handler) HandleGet(c *gin.Context) {
	userID, ok := authhandler.UserIDFromContext(c)
	if !ok {
		apierrors.Unauthorized(c, "authentication required")
		return
	}

	campaignID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.BadRequest(c, "INVALID_ID", "invalid campaign id")
		return
	}

	campaign, err := h.campaignStore.GetCampaignByID(c.Request.Context(), campaignID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apierrors.NotFound(c, "campaign not found")
			return
		}
		apierrors.InternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}
