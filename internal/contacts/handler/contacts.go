package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"autosales/internal/apierrors"
	authhandler "autosales/internal/auth/handler"
	"autosales/internal/contacts/processor"
	"autosales/internal/observability"
	"autosales/internal/store"
)

type Handler struct {
	contactsProcessor *processor.ContactsProcessor
	logger            *observability.Logger
}

func New(contactsProcessor *processor.ContactsProcessor, logger *observability.Logger) *Handler {
	return &Handler{
		contactsProcessor: contactsProcessor,
		logger:            logger,
	}
}

// HandleList returns a page of contacts with pagination and the
// account's status counters.
func (h *Handler) HandleList(c *gin.Context) {
	userID, ok := authhandler.UserIDFromContext(c)
	if !ok {
		apierrors.Unauthorized(c, "authentication required")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	params := processor.ListParams{Page: page, Limit: limit}
	if search := c.Query("search"); search != "" {
		params.Search = &search
	}
	if status := c.Query("status"); status != "" {
		params.Status = &status
	}

	result, err := h.contactsProcessor.List(c.Request.Context(), userID, params)
	if err != nil {
		apierrors.InternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type ContactRequest struct {
	Name          string   `json:"name" binding:"required"`
	Phone         string   `json:"phone" binding:"required"`
	Email         *string  `json:"email"`
	Company       *string  `json:"company"`
	Value         *float64 `json:"value"`
	DueDate       *string  `json:"dueDate"`
	InvoiceNumber *string  `json:"invoiceNumber"`
	Description   *string  `json:"description"`
}

func (h *Handler) HandleCreate(c *gin.Context) {
	userID, ok := authhandler.UserIDFromContext(c)
	if !ok {
		apierrors.Unauthorized(c, "authentication required")
		return
	}

	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationError(c, err)
		return
	}

	params := processor.CreateParams{
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		Company:       req.Company,
		Value:         req.Value,
		InvoiceNumber: req.InvoiceNumber,
		Description:   req.Description,
	}
	if req.DueDate != nil {
		due, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			apierrors.BadRequest(c, "INVALID_DATE", "dueDate must be in YYYY-MM-DD format")
			return
		}
		params.DueDate = &due
	}

	contact, err := h.contactsProcessor.Create(c.Request.Context(), userID, params)
	if err != nil {
		switch {
		case errors.Is(err, processor.ErrInvalidPhone):
			apierrors.BadRequest(c, "INVALID_PHONE", err.Error())
		case errors.Is(err, processor.ErrDuplicatePhone):
			apierrors.BadRequest(c, "DUPLICATE_PHONE", err.Error())
		default:
			apierrors.InternalError(c, err)
		}
		return
	}

	c.JSON(http.StatusCreated, contact)
}

func (h *Handler) HandleGet(c *gin.Context) {
	userID, ok := authhandler.UserIDFromContext(c)
	if !ok {
		apierrors.Unauthorized(c, "authentication required")
		return
	}

	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.BadRequest(c, "INVALID_ID", "invalid contact id")
		return
	}

	contact, err := h.contactsProcessor.Get(c.Request.Context(), userID, contactID)
	if err != nil {
		if errors.Is(err, processor.ErrContactNotFound) {
			apierrors.NotFound(c, "contact not found")
			return
		}
		apierrors.InternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, contact)
}

type UpdateContactRequest struct {
	Name          *string  `json:"name"`
	Phone         *string  `json:"phone"`
	Email         *string  `json:"email"`
	Company       *string  `json:"company"`
	Value         *float64 `json:"value"`
	DueDate       *string  `json:"dueDate"`
	InvoiceNumber *string  `json:"invoiceNumber"`
	Description   *string  `json:"description"`
	Status        *string  `json:"status"`
}

// HandleUpdate serves both PUT and PATCH. Fields absent from the body
// keep their stored value.
func (h *Handler) HandleUpdate(c *gin.Context) {
	userID, ok := authhandler.UserIDFromContext(c)
	if !ok {
		apierrors.Unauthorized(c, "authentication required")
		return
	}

	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.BadRequest(c, "INVALID_ID", "invalid contact id")
		return
	}

	var req UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationError(c, err)
		return
	}

	if req.Status != nil && !validContactStatus(*req.Status) {
		apierrors.BadRequest(c, "INVALID_STATUS", "status must be pending, contacted or paid")
		return
	}

	params := store.UpdateContactParams{
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		Company:       req.Company,
		Value:         req.Value,
		InvoiceNumber: req.InvoiceNumber,
		Description:   req.Description,
		Status:        req.Status,
	}
	if req.DueDate != nil {
		due, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			apierrors.BadRequest(c, "INVALID_DATE", "dueDate must be in YYYY-MM-DD format")
			return
		}
		params.DueDate = &due
	}

	contact, err := h.contactsProcessor.Update(c.Request.Context(), userID, contactID, params)
	if err != nil {
		switch {
		case errors.Is(err, processor.ErrContactNotFound):
			apierrors.NotFound(c, "contact not found")
		case errors.Is(err, processor.ErrInvalidPhone):
			apierrors.BadRequest(c, "INVALID_PHONE", err.Error())
		case errors.Is(err, processor.ErrDuplicatePhone):
			apierrors.BadRequest(c, "DUPLICATE_PHONE", err.Error())
		default:
			apierrors.InternalError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, contact)
}

func (h *Handler) HandleDelete(c *gin.Context) {
	userID, ok := authhandler.UserIDFromContext(c)
	if !ok {
		apierrors.Unauthorized(c, "authentication required")
		return
	}

	contactID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apierrors.BadRequest(c, "INVALID_ID", "invalid contact id")
		return
	}

	if err := h.contactsProcessor.Delete(c.Request.Context(), userID, contactID); err != nil {
		if errors.Is(err, processor.ErrContactNotFound) {
			apierrors.NotFound(c, "contact not found")
			return
		}
		apierrors.InternalError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type BulkDeleteRequest struct {
	ContactIDs []string `json:"contactIds" binding:"required,min=1"`
}

// HandleBulkDelete deletes a set of contacts in one call. The batch is
// all or nothing.
func (h *Handler) HandleBulkDelete(c *gin.Context) {
	userID, ok := authhandler.UserIDFromContext(c)
	if !ok {
		apierrors.Unauthorized(c, "authentication required")
		return
	}

	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationError(c, err)
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

	deleted, err := h.contactsProcessor.BulkDelete(c.Request.Context(), userID, contactIDs)
	if err != nil {
		if errors.Is(err, processor.ErrContactsMismatch) {
			apierrors.NotFound(c, "one or more contacts not found")
			return
		}
		apierrors.InternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

type ImportRequest struct {
	Contacts []processor.ImportContact `json:"contacts" binding:"required,min=1"`
}

// HandleImport persists spreadsheet rows the user confirmed after review
func (h *Handler) HandleImport(c *gin.Context) {
	userID, ok := authhandler.UserIDFromContext(c)
	if !ok {
		apierrors.Unauthorized(c, "authentication required")
		return
	}

	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationError(c, err)
		return
	}

	imported, err := h.contactsProcessor.Import(c.Request.Context(), userID, req.Contacts)
	if err != nil {
		apierrors.InternalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"imported": imported})
}

func validContactStatus(status string) bool {
	switch status {
	case store.ContactStatusPending, store.ContactStatusContacted, store.ContactStatusPaid:
		return true
	}
	return false
}
