package handler

import (
	"autosales/internal/apierrors"
	"autosales/internal/auth/processor"
	"autosales/internal/observability"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	authProcessor processor.AuthProcessor
	logger        *observability.Logger
}

type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func New(authProcessor processor.AuthProcessor, logger *observability.Logger) Handler {
	return Handler{authProcessor: authProcessor, logger: logger}
}

func (h *Handler) HandleSignup(c *gin.Context) {
	var req SignupRequest
	ctx := c.Request.Context()
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationError(c, err)
		return
	}
	signedUpUser, err := h.authProcessor.Signup(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, processor.ErrEmailAlreadyExists) {
			apierrors.Conflict(c, "EMAIL_EXISTS", "Email already exists")
			return
		}
		apierrors.InternalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, signedUpUser)
}

func (h *Handler) HandleLogin(c *gin.Context) {
	var req LoginRequest
	ctx := c.Request.Context()
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.ValidationError(c, err)
		return
	}
	token, err := h.authProcessor.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, processor.ErrInvalidCredentials) {
			apierrors.Unauthorized(c, "Invalid email or password")
			return
		}
		apierrors.InternalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// HandleJWTMiddleware resolves the bearer token into the canonical user id
// exactly once per request and stores it for downstream handlers.
func (h *Handler) HandleJWTMiddleware(c *gin.Context) {
	ctx := c.Request.Context()
	tokenHeader := c.GetHeader("Authorization")

	if tokenHeader == "" || !strings.HasPrefix(tokenHeader, "Bearer ") {
		apierrors.Unauthorized(c, "Authorization token is missing or invalid")
		c.Abort()
		return
	}

	tokenString := strings.TrimPrefix(tokenHeader, "Bearer ")

	claims, err := h.authProcessor.ValidateJWTToken(ctx, tokenString)
	if err != nil {
		apierrors.Unauthorized(c, "Authorization token is missing or invalid")
		c.Abort()
		return
	}
	sub, err := claims.GetSubject()
	if err != nil {
		apierrors.Unauthorized(c, "Authorization token is missing or invalid")
		c.Abort()
		return
	}
	c.Set("User-ID", sub)
	c.Next()
}

func (h *Handler) GetUserInfo(c *gin.Context) {
	ctx := c.Request.Context()
	userID, ok := UserIDFromContext(c)
	if !ok {
		apierrors.InternalError(c, errors.New("failed to get user from context"))
		return
	}
	user, err := h.authProcessor.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, processor.ErrUserNotFound) {
			apierrors.NotFound(c, "User not found")
			return
		}
		apierrors.InternalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UserIDFromContext returns the authenticated user's id set by the JWT
// middleware. Shared by every protected handler.
func UserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := c.Get("User-ID")
	if !ok {
		return uuid.Nil, false
	}
	str, ok := raw.(string)
	if !ok {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}
