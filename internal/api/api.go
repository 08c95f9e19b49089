package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authHandler "autosales/internal/auth/handler"
	contactsHandler "autosales/internal/contacts/handler"
	dispatchHandler "autosales/internal/dispatch/handler"
	ingestHandler "autosales/internal/ingest/handler"
	templatesHandler "autosales/internal/templates/handler"
	"autosales/internal/ws"
)

type API struct {
	router           *gin.RouterGroup
	authHandler      authHandler.Handler
	contactsHandler  *contactsHandler.Handler
	templatesHandler *templatesHandler.Handler
	ingestHandler    *ingestHandler.Handler
	dispatchHandler  *dispatchHandler.Handler
	hub              *ws.Hub
}

func New(
	router *gin.RouterGroup,
	auth authHandler.Handler,
	contacts *contactsHandler.Handler,
	templates *templatesHandler.Handler,
	ingest *ingestHandler.Handler,
	dispatch *dispatchHandler.Handler,
	hub *ws.Hub,
) API {
	return API{
		router:           router,
		authHandler:      auth,
		contactsHandler:  contacts,
		templatesHandler: templates,
		ingestHandler:    ingest,
		dispatchHandler:  dispatch,
		hub:              hub,
	}
}

func (a *API) RegisterRoutes() {
	a.Health()
	apiGroup := a.router.Group("/api")
	{
		authGroup := apiGroup.Group("/auth")
		authGroup.POST("/signup", a.authHandler.HandleSignup)
		authGroup.POST("/login", a.authHandler.HandleLogin)
	}
	protectedGroup := apiGroup.Group("/protected", a.authHandler.HandleJWTMiddleware)
	{
		protectedGroup.GET("/user", a.authHandler.GetUserInfo)

		protectedGroup.GET("/contacts", a.contactsHandler.HandleList)
		protectedGroup.POST("/contacts", a.contactsHandler.HandleCreate)
		protectedGroup.GET("/contacts/:id", a.contactsHandler.HandleGet)
		protectedGroup.PUT("/contacts/:id", a.contactsHandler.HandleUpdate)
		protectedGroup.PATCH("/contacts/:id", a.contactsHandler.HandleUpdate)
		protectedGroup.DELETE("/contacts/:id", a.contactsHandler.HandleDelete)
		protectedGroup.DELETE("/contacts/bulk-delete", a.contactsHandler.HandleBulkDelete)
		protectedGroup.POST("/contacts/import", a.contactsHandler.HandleImport)

		protectedGroup.POST("/upload/planilha", a.ingestHandler.HandleUpload)

		protectedGroup.GET("/templates", a.templatesHandler.HandleList)
		protectedGroup.POST("/templates", a.templatesHandler.HandleCreate)
		protectedGroup.PUT("/templates/:id", a.templatesHandler.HandleUpdate)
		protectedGroup.POST("/templates/suggest", a.templatesHandler.HandleSuggest)

		protectedGroup.GET("/campaigns", a.dispatchHandler.HandleList)
		protectedGroup.GET("/campaigns/progress", a.hub.ServeWS)
		protectedGroup.GET("/campaigns/:id", a.dispatchHandler.HandleGet)
		protectedGroup.POST("/campaigns/send", a.dispatchHandler.HandleSend)
	}
}

func (a *API) Health() {
	a.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
}
