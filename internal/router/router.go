package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "veriform/docs"
	"veriform/internal/domain"
	"veriform/internal/handler"
	"veriform/internal/middleware"
	"veriform/internal/service"
)

// CallbackTokenHeader carries the shared secret on validation callbacks.
const CallbackTokenHeader = "X-Validation-Token"

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Health     *handler.HealthHandler
	Submission *handler.SubmissionHandler
	Validation *handler.ValidationHandler
	Attachment *handler.AttachmentHandler
}

// Options holds the cross-cutting middleware settings.
type Options struct {
	AllowedOrigins []string
	CallbackToken  string
	RateLimiter    *middleware.RateLimiter
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(verifier service.TokenVerifier, h Handlers, opts Options) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(opts.AllowedOrigins))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	if opts.RateLimiter != nil {
		v1.Use(opts.RateLimiter.Middleware())
	}

	// Machine-to-machine callback from the validation workflow
	v1.POST("/validations/callback",
		middleware.RequireSharedToken(CallbackTokenHeader, opts.CallbackToken),
		h.Validation.Callback)

	// Protected routes - require valid JWT
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(verifier))

	submissions := protected.Group("/submissions")
	submissions.POST("", h.Submission.Create)
	submissions.GET("", h.Submission.List)
	submissions.GET("/:id", h.Submission.GetByID)
	submissions.PUT("/:id", h.Submission.SaveDraft)
	submissions.DELETE("/:id", h.Submission.Delete)
	submissions.POST("/:id/submit", h.Submission.SubmitForAnalysis)
	submissions.POST("/:id/retry", h.Submission.Retry)
	submissions.POST("/:id/submit-for-review", h.Submission.SubmitForReview)
	submissions.POST("/:id/submit-without-ai", h.Submission.SubmitWithoutAI)
	submissions.POST("/:id/review", middleware.RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin), h.Submission.Review)
	submissions.GET("/:id/reviews", h.Submission.ListReviews)
	submissions.GET("/:id/validation", h.Validation.Latest)
	submissions.GET("/:id/validation/wait", h.Validation.Wait)
	submissions.GET("/:id/attachments", h.Attachment.List)
	submissions.POST("/:id/fields/:fieldId/attachment", h.Attachment.Upload)

	protected.DELETE("/attachments/:id", h.Attachment.Delete)
	protected.GET("/storage/url", h.Attachment.StorageURL)

	reviews := protected.Group("/reviews")
	reviews.Use(middleware.RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin))
	reviews.GET("/queue", h.Submission.ReviewQueue)

	return r
}
