package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/suPer8Hu/docchat/internal/auth"
	"github.com/suPer8Hu/docchat/internal/common"
	"github.com/suPer8Hu/docchat/internal/httpapi/handlers"
	"github.com/suPer8Hu/docchat/internal/httpapi/middleware"
)

type RouterDeps struct {
	Handler           *handlers.Handler
	Auth              *auth.Validator
	WebhookSecretHash string
	Log               zerolog.Logger
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Log))
	r.Use(middleware.Recovery(d.Log))
	// dashboard is served from another origin
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:   []string{middleware.RequestIDHeader},
	}))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := d.Handler

	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")

	v1.POST("/webhook/incoming", middleware.WebhookSecret(d.WebhookSecretHash), h.Incoming)

	authGroup := v1.Group("/auth")
	authGroup.POST("/signup", h.Signup)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/logout", h.Logout)
	authGroup.POST("/password-reset", h.PasswordReset)

	// bearer required
	private := v1.Group("/")
	private.Use(d.Auth.Middleware())

	private.GET("/customers/me", h.GetMe)
	private.PATCH("/customers/me", h.UpdateMe)
	private.GET("/customers/me/webhook-url", h.GetWebhookURL)
	private.GET("/customers/me/chatbot-prompt", h.GetChatbotPrompt)
	private.PUT("/customers/me/chatbot-prompt", h.UpdateChatbotPrompt)

	private.POST("/documents/upload", h.UploadDocument)
	private.GET("/documents", h.ListDocuments)
	private.GET("/documents/:id", h.GetDocument)
	private.DELETE("/documents/:id", h.DeleteDocument)

	private.GET("/messages", h.ListMessages)
	private.GET("/messages/conversations", h.ListConversations)

	private.GET("/billing/usage", h.Usage)
	private.GET("/billing/invoices", h.Invoices)

	admin := private.Group("/admin")
	admin.Use(auth.RequireRole(auth.RoleGlobalAdmin))
	admin.GET("/customers", h.ListCustomers)

	return r
}
