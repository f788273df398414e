package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pmes/internal/handler"
	"pmes/pkg/rbac"
)

// Handlers groups the route handlers wired by NewRouter.
type Handlers struct {
	Projects    *handler.ProjectHandler
	Submissions *handler.SubmissionHandler
	Reviews     *handler.ReviewHandler
	Inbox       *handler.InboxHandler
	Sweep       *handler.SweepHandler
}

func NewRouter(h Handlers, jwtSecret string, logger *zap.Logger, db *pgxpool.Pool) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(Auth(jwtSecret, logger))

	api.GET("/projects/:id",
		RequirePermission(rbac.PermissionReadProject), h.Projects.Get)
	api.GET("/projects/:id/progress",
		RequirePermission(rbac.PermissionReadProject), h.Projects.GetProgress)
	api.PUT("/projects/:id/progress",
		RequirePermission(rbac.PermissionReviewFinal), h.Projects.UpdateProgress)
	api.GET("/projects/:id/delays",
		RequirePermission(rbac.PermissionReadProject), h.Projects.ListDelayNotifications)

	api.POST("/projects/:id/submissions",
		RequirePermission(rbac.PermissionCreateSubmission), h.Submissions.Create)
	api.GET("/projects/:id/submissions",
		RequirePermission(rbac.PermissionReadProject), h.Submissions.ListByProject)
	api.GET("/submissions/:id",
		RequirePermission(rbac.PermissionReadProject), h.Submissions.Get)

	// Stage depends on the decision; the workflow enforces the role guard.
	api.POST("/submissions/:id/review", h.Reviews.Review)

	// Inbox routes are actor-scoped; any authenticated role may read its own.
	api.GET("/inbox", h.Inbox.List)
	api.POST("/inbox/:id/read", h.Inbox.MarkRead)

	api.POST("/sweep",
		RequirePermission(rbac.PermissionTriggerSweep), h.Sweep.Run)

	return r
}
