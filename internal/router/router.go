package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prostuti-app/prostuti-backend/internal/config"
	"github.com/prostuti-app/prostuti-backend/internal/handler"
	"github.com/prostuti-app/prostuti-backend/internal/middleware"
	"github.com/prostuti-app/prostuti-backend/internal/model"
	"github.com/prostuti-app/prostuti-backend/internal/response"
	"github.com/prostuti-app/prostuti-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	Subject     *handler.SubjectHandler
	Chapter     *handler.ChapterHandler
	Question    *handler.QuestionHandler
	Test        *handler.TestHandler
	Attempt     *handler.AttemptHandler
	Resource    *handler.ResourceHandler
	Planner     *handler.PlannerHandler
	StudentMgmt *handler.StudentManagementHandler
	WS          *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/admin/login", handlers.Auth.AdminLogin)

		// Authenticated profile routes
		auth.GET("/me", middleware.RequireStudentJWT(authService), handlers.Auth.Me)
		auth.GET("/admin/me", middleware.RequireAdminJWT(authService), handlers.Auth.AdminMe)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		// Published study content. Short client cache: edits go live
		// within a minute, which is fine for curriculum data.
		contentCache := middleware.CacheControl(60)
		studentAPI.GET("/subjects", contentCache, handlers.Subject.List(true))
		studentAPI.GET("/subjects/:id/chapters", contentCache, handlers.Chapter.ListBySubject(true))
		studentAPI.GET("/subjects/:id/resources", contentCache, handlers.Resource.ListBySubject(true))
		studentAPI.GET("/chapters/:id/questions", contentCache, handlers.Question.Practice)

		// Mock tests and attempts
		studentAPI.GET("/subjects/:id/tests", handlers.Test.ListBySubject)
		studentAPI.GET("/tests/:id/paper", handlers.Attempt.Paper)
		studentAPI.POST("/tests/:id/attempt", handlers.Attempt.Start)
		studentAPI.GET("/tests/:id/attempt", handlers.Attempt.State)
		studentAPI.POST("/tests/:id/attempt/answer", handlers.Attempt.Answer)
		studentAPI.POST("/tests/:id/attempt/skip", handlers.Attempt.Skip)
		studentAPI.POST("/tests/:id/attempt/mark", handlers.Attempt.Mark)
		studentAPI.POST("/tests/:id/attempt/navigate", handlers.Attempt.Navigate)
		studentAPI.POST("/tests/:id/attempt/submit", handlers.Attempt.Submit)
		studentAPI.DELETE("/tests/:id/attempt", handlers.Attempt.Abandon)
		studentAPI.GET("/tests/:id/result", handlers.Attempt.Result)
		studentAPI.GET("/attempts", handlers.Attempt.History)

		// Study planner
		studentAPI.GET("/planner", handlers.Planner.List)
		studentAPI.POST("/planner", handlers.Planner.Create)
		studentAPI.PUT("/planner/:id", handlers.Planner.Update)
		studentAPI.DELETE("/planner/:id", handlers.Planner.Delete)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireStudentWSAuth(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		ws.GET("/tests/:id/attempt", handlers.WS.AttemptStream)
	}

	// ─── 4. Admin Group (JWT + RBAC) ───────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		// Subject management
		adminAPI.GET("/subjects",
			middleware.RequirePermission(string(model.PermissionContentRead)),
			handlers.Subject.List(false),
		)
		adminAPI.GET("/subjects/:id",
			middleware.RequirePermission(string(model.PermissionContentRead)),
			handlers.Subject.Get,
		)
		adminAPI.POST("/subjects",
			middleware.RequirePermission(string(model.PermissionContentWrite)),
			handlers.Subject.Create,
		)
		adminAPI.PUT("/subjects/:id",
			middleware.RequirePermission(string(model.PermissionContentWrite)),
			handlers.Subject.Update,
		)
		adminAPI.DELETE("/subjects/:id",
			middleware.RequirePermission(string(model.PermissionContentWrite)),
			handlers.Subject.Delete,
		)

		// Chapter management
		adminAPI.GET("/subjects/:id/chapters",
			middleware.RequirePermission(string(model.PermissionContentRead)),
			handlers.Chapter.ListBySubject(false),
		)
		adminAPI.POST("/subjects/:id/chapters",
			middleware.RequirePermission(string(model.PermissionContentWrite)),
			handlers.Chapter.Create,
		)
		adminAPI.PUT("/chapters/:id",
			middleware.RequirePermission(string(model.PermissionContentWrite)),
			handlers.Chapter.Update,
		)
		adminAPI.DELETE("/chapters/:id",
			middleware.RequirePermission(string(model.PermissionContentWrite)),
			handlers.Chapter.Delete,
		)

		// Question management
		adminAPI.GET("/chapters/:id/questions",
			middleware.RequirePermission(string(model.PermissionContentRead)),
			handlers.Question.ListByChapter,
		)
		adminAPI.GET("/questions/:id",
			middleware.RequirePermission(string(model.PermissionContentRead)),
			handlers.Question.Get,
		)
		adminAPI.POST("/chapters/:id/questions",
			middleware.RequirePermission(string(model.PermissionContentWrite)),
			handlers.Question.Create,
		)
		adminAPI.PUT("/questions/:id",
			middleware.RequirePermission(string(model.PermissionContentWrite)),
			handlers.Question.Update,
		)
		adminAPI.DELETE("/questions/:id",
			middleware.RequirePermission(string(model.PermissionContentWrite)),
			handlers.Question.Delete,
		)

		// Mock test management
		adminAPI.GET("/tests",
			middleware.RequirePermission(string(model.PermissionTestsRead)),
			handlers.Test.ListAll,
		)
		adminAPI.GET("/tests/:id",
			middleware.RequirePermission(string(model.PermissionTestsRead)),
			handlers.Test.Get,
		)
		adminAPI.GET("/tests/:id/results",
			middleware.RequirePermission(string(model.PermissionTestsRead)),
			handlers.Test.Results,
		)
		adminAPI.POST("/tests",
			middleware.RequirePermission(string(model.PermissionTestsWrite)),
			handlers.Test.Create,
		)
		adminAPI.PUT("/tests/:id",
			middleware.RequirePermission(string(model.PermissionTestsWrite)),
			handlers.Test.Update,
		)
		adminAPI.DELETE("/tests/:id",
			middleware.RequirePermission(string(model.PermissionTestsWrite)),
			handlers.Test.Delete,
		)
		adminAPI.POST("/tests/:id/publish",
			middleware.RequirePermission(string(model.PermissionTestsPublish)),
			handlers.Test.Publish,
		)
		adminAPI.POST("/tests/:id/archive",
			middleware.RequirePermission(string(model.PermissionTestsPublish)),
			handlers.Test.Archive,
		)

		// Resource management
		adminAPI.GET("/subjects/:id/resources",
			middleware.RequirePermission(string(model.PermissionContentRead)),
			handlers.Resource.ListBySubject(false),
		)
		adminAPI.POST("/resources",
			middleware.RequirePermission(string(model.PermissionResourcesWrite)),
			handlers.Resource.Create,
		)
		adminAPI.PUT("/resources/:id",
			middleware.RequirePermission(string(model.PermissionResourcesWrite)),
			handlers.Resource.Update,
		)
		adminAPI.DELETE("/resources/:id",
			middleware.RequirePermission(string(model.PermissionResourcesWrite)),
			handlers.Resource.Delete,
		)

		// Student management
		adminAPI.GET("/students",
			middleware.RequirePermission(string(model.PermissionStudentsRead)),
			handlers.StudentMgmt.List,
		)
		adminAPI.POST("/students",
			middleware.RequirePermission(string(model.PermissionStudentsWrite)),
			handlers.StudentMgmt.Create,
		)
		adminAPI.PUT("/students/:id",
			middleware.RequirePermission(string(model.PermissionStudentsWrite)),
			handlers.StudentMgmt.Update,
		)
		adminAPI.DELETE("/students/:id",
			middleware.RequirePermission(string(model.PermissionStudentsWrite)),
			handlers.StudentMgmt.Delete,
		)
		adminAPI.POST("/students/:id/reset-session",
			middleware.RequirePermission(string(model.PermissionStudentsResetSession)),
			handlers.StudentMgmt.ResetSession,
		)
	}

	return router
}
