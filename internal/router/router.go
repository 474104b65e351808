package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/makeyourchoice/electives-api/internal/handler"
	"github.com/makeyourchoice/electives-api/internal/middleware"
	"github.com/makeyourchoice/electives-api/internal/models"
	"github.com/makeyourchoice/electives-api/internal/repository"
	"github.com/makeyourchoice/electives-api/internal/service"
	"github.com/makeyourchoice/electives-api/pkg/config"
	"github.com/makeyourchoice/electives-api/pkg/logger"
	corsmiddleware "github.com/makeyourchoice/electives-api/pkg/middleware/cors"
	reqidmiddleware "github.com/makeyourchoice/electives-api/pkg/middleware/requestid"
)

// Dependencies bundles everything the router needs.
type Dependencies struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *service.MetricsService

	AuthService *service.AuthService
	AuthRepo    *repository.AuthRepository

	Auth        *handler.AuthHandler
	Courses     *handler.CourseHandler
	Programs    *handler.ProgramHandler
	Semesters   *handler.SemesterHandler
	Voting      *handler.VotingHandler
	Suggestions *handler.SuggestionHandler
	Exports     *handler.ExportHandler
	MetricsH    *handler.MetricsHandler
}

// New assembles the gin engine with all routes and middleware.
func New(deps Dependencies) *gin.Engine {
	if deps.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(deps.Config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", deps.MetricsH.Prometheus)

	if deps.Config.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(deps.Config.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/request-code", deps.Auth.RequestCode)
	auth.POST("/verify-code", deps.Auth.VerifyCode)
	auth.POST("/refresh", deps.Auth.Refresh)

	// Download auth is the signed token itself.
	api.GET("/exports/download", deps.Exports.Download)

	secured := api.Group("", middleware.JWT(deps.AuthService))
	secured.POST("/auth/logout", deps.Auth.Logout)
	secured.GET("/auth/me", deps.Auth.Me)

	secured.GET("/courses/available", deps.Courses.ListVisible)
	secured.GET("/courses/:id", deps.Courses.Get)

	secured.POST("/priorities", deps.Voting.Submit)
	secured.GET("/priorities/latest", deps.Voting.Latest)
	secured.GET("/priorities/deadline", deps.Voting.Deadline)

	secured.POST("/suggestions", deps.Suggestions.Create)

	secured.GET("/semesters/active", deps.Semesters.GetActive)
	secured.GET("/programs/:group/deadline", deps.Programs.DeadlineStatus)

	admin := secured.Group("", middleware.RequireRoles(models.RoleAdmin))

	admin.GET("/courses", deps.Courses.List)
	admin.POST("/courses", middleware.Audit(deps.AuthRepo, "create", "course"), deps.Courses.Create)
	admin.PUT("/courses/:id", middleware.Audit(deps.AuthRepo, "update", "course"), deps.Courses.Update)
	admin.POST("/courses/:id/archive", middleware.Audit(deps.AuthRepo, "archive", "course"), deps.Courses.Archive)
	admin.POST("/courses/:id/unarchive", middleware.Audit(deps.AuthRepo, "unarchive", "course"), deps.Courses.Unarchive)
	admin.DELETE("/courses/:id", middleware.Audit(deps.AuthRepo, "delete", "course"), deps.Courses.Delete)

	admin.GET("/programs", deps.Programs.List)
	admin.GET("/programs/names", deps.Programs.GroupNames)
	admin.GET("/programs/:group", deps.Programs.Get)
	admin.POST("/programs", middleware.Audit(deps.AuthRepo, "create", "program"), deps.Programs.Create)
	admin.PUT("/programs/:group", middleware.Audit(deps.AuthRepo, "update", "program"), deps.Programs.Update)
	admin.PUT("/programs/:group/deadline", middleware.Audit(deps.AuthRepo, "set_deadline", "program"), deps.Programs.SetDeadline)
	admin.DELETE("/programs/:group", middleware.Audit(deps.AuthRepo, "delete", "program"), deps.Programs.Delete)

	admin.GET("/semesters", deps.Semesters.List)
	admin.GET("/semesters/:id", deps.Semesters.Get)
	admin.POST("/semesters", middleware.Audit(deps.AuthRepo, "create", "semester"), deps.Semesters.Create)
	admin.PUT("/semesters/:id", middleware.Audit(deps.AuthRepo, "update", "semester"), deps.Semesters.Update)
	admin.POST("/semesters/:id/activate", middleware.Audit(deps.AuthRepo, "activate", "semester"), deps.Semesters.Activate)
	admin.POST("/semesters/:id/deactivate", middleware.Audit(deps.AuthRepo, "deactivate", "semester"), deps.Semesters.Deactivate)
	admin.DELETE("/semesters/:id", middleware.Audit(deps.AuthRepo, "delete", "semester"), deps.Semesters.Delete)

	admin.GET("/suggestions", deps.Suggestions.List)
	admin.GET("/suggestions/:id", deps.Suggestions.Get)
	admin.PUT("/suggestions/:id", middleware.Audit(deps.AuthRepo, "update", "suggestion"), deps.Suggestions.Update)
	admin.POST("/suggestions/:id/accept", middleware.Audit(deps.AuthRepo, "accept", "suggestion"), deps.Suggestions.Accept)
	admin.POST("/suggestions/:id/decline", middleware.Audit(deps.AuthRepo, "decline", "suggestion"), deps.Suggestions.Decline)
	admin.POST("/suggestions/:id/recover", middleware.Audit(deps.AuthRepo, "recover", "suggestion"), deps.Suggestions.Recover)
	admin.DELETE("/suggestions/:id", middleware.Audit(deps.AuthRepo, "delete", "suggestion"), deps.Suggestions.Delete)

	admin.GET("/priorities/all", deps.Voting.ListLatest)
	admin.GET("/priorities/log", deps.Voting.ListLog)

	admin.POST("/exports", middleware.Audit(deps.AuthRepo, "request", "export"), deps.Exports.Request)
	admin.GET("/exports/:id", deps.Exports.Status)

	admin.GET("/metrics/summary", deps.MetricsH.Snapshot)

	return r
}
