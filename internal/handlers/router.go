package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/connect-jobs/internal/metrics"
	"github.com/justsurfingit/connect-jobs/internal/middleware"
	"github.com/justsurfingit/connect-jobs/internal/models"
	"github.com/justsurfingit/connect-jobs/internal/ratelimit"
	"github.com/sirupsen/logrus"
)

// multipartOverhead is the allowance for headers and boundaries on top of the file size limit.
const multipartOverhead = 1 << 20

type RouterConfig struct {
	Log            *logrus.Entry
	FrontendURL    string
	Authenticator  *middleware.Authenticator
	ApplyLimiter   ratelimit.Limiter
	MaxUploadBytes int64

	Jobs         *JobHandler
	Applications *ApplicationHandler
	Users        *UserHandler
	Auth         *AuthHandler
	Health       *HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(cfg.Log),
		middleware.Metrics(),
		middleware.CORS(cfg.FrontendURL),
	)
	r.MaxMultipartMemory = cfg.MaxUploadBytes + multipartOverhead

	r.GET("/health", cfg.Health.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	requireAuth := cfg.Authenticator.RequireAuth()
	employer := middleware.RequireRole(models.RoleEmployer, models.RoleAdmin)
	jobseeker := middleware.RequireRole(models.RoleJobseeker)
	upload := limitBody(cfg.MaxUploadBytes + multipartOverhead)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", cfg.Auth.Register)
		auth.POST("/login", cfg.Auth.Login)
		auth.GET("/status", requireAuth, cfg.Auth.Status)
		auth.POST("/logout", requireAuth, cfg.Auth.Logout)
	}

	jobs := api.Group("/jobs")
	{
		jobs.GET("", cfg.Jobs.ListJobs)
		jobs.GET("/my-jobs", requireAuth, employer, cfg.Jobs.MyJobs)
		jobs.POST("", requireAuth, employer, cfg.Jobs.CreateJob)
		jobs.POST("/extract", requireAuth, employer, cfg.Jobs.ParseJob)
		jobs.GET("/:id", cfg.Authenticator.OptionalAuth(), cfg.Jobs.GetJob)
		jobs.PUT("/:id", requireAuth, employer, cfg.Jobs.UpdateJob)
		jobs.DELETE("/:id", requireAuth, employer, cfg.Jobs.DeleteJob)
	}

	apps := api.Group("/applications", requireAuth)
	{
		apps.POST("/:id/apply", jobseeker, middleware.RateLimit(cfg.ApplyLimiter, "apply"), upload, cfg.Applications.Apply)
		apps.GET("/my-applications", jobseeker, cfg.Applications.MyApplications)
		apps.PUT("/:id/approve", employer, cfg.Applications.Approve)
		apps.PUT("/:id/reject", employer, cfg.Applications.Reject)
		apps.DELETE("/:id", jobseeker, cfg.Applications.Withdraw)
		apps.GET("/:id/resume", cfg.Applications.Resume)
	}

	users := api.Group("/users")
	{
		users.GET("/me", requireAuth, cfg.Users.Me)
		users.PUT("/update-profile", requireAuth, cfg.Users.UpdateProfile)
		users.PUT("/profile-picture", requireAuth, upload, cfg.Users.UpdatePicture)
		users.GET("/notifications", requireAuth, cfg.Users.Notifications)
		users.PUT("/notifications/mark-as-read", requireAuth, cfg.Users.MarkNotificationsRead)
		users.GET("/:id", requireAuth, cfg.Users.Profile)
		users.GET("/:id/picture", cfg.Users.Picture)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
	return r
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
