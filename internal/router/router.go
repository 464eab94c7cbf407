package router

import (
	"net/http"
	"time"

	"github.com/classquiz/classquiz-backend/internal/config"
	"github.com/classquiz/classquiz-backend/internal/handler"
	"github.com/classquiz/classquiz-backend/internal/middleware"
	"github.com/classquiz/classquiz-backend/internal/response"
	"github.com/classquiz/classquiz-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Class    *handler.ClassHandler
	Quiz     *handler.QuizHandler
	Question *handler.QuestionHandler
	Attempt  *handler.AttemptHandler
	WS       *handler.WSHandler
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
	auth := router.Group("/api/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Shared Group (Any Authenticated User) ──────────────────────
	api := router.Group("/api")
	api.Use(middleware.RequireJWT(authService))
	{
		api.GET("/classes", handlers.Class.ListClasses)
		api.GET("/classes/:class_id/quizzes", handlers.Class.ClassQuizzes)
		api.GET("/quizzes/:quiz_id", handlers.Quiz.GetQuiz)
		api.GET("/quizzes/:quiz_id/questions", handlers.Question.ListQuestions)
		api.GET("/answers", handlers.Attempt.ListAnswers)
	}

	// ─── 3. Teacher Group ──────────────────────────────────────────────
	teacherAPI := router.Group("/api")
	teacherAPI.Use(middleware.RequireTeacherJWT(authService))
	{
		teacherAPI.POST("/classes", handlers.Class.CreateClass)
		teacherAPI.PUT("/classes/:class_id", handlers.Class.RenameClass)
		teacherAPI.DELETE("/classes/:class_id", handlers.Class.DeleteClass)

		teacherAPI.POST("/quizzes", handlers.Quiz.CreateQuiz)
		teacherAPI.PUT("/quizzes/:quiz_id", handlers.Quiz.UpdateQuiz)
		teacherAPI.DELETE("/quizzes/:quiz_id", handlers.Quiz.DeleteQuiz)
		teacherAPI.POST("/quizzes/:quiz_id/publish", handlers.Quiz.PublishQuiz)
		teacherAPI.PUT("/quizzes/:quiz_id/questions", handlers.Question.ReplaceQuestions)
		teacherAPI.GET("/quizzes/:quiz_id/results", handlers.Quiz.QuizResults)
	}

	// ─── 4. Student Group ──────────────────────────────────────────────
	studentAPI := router.Group("/api")
	studentAPI.Use(middleware.RequireStudentJWT(authService))
	{
		studentAPI.POST("/classes/join", handlers.Class.JoinClass)
		studentAPI.POST("/attempts", handlers.Attempt.OpenAttempt)
		studentAPI.POST("/attempts/:attempt_id/submit", handlers.Attempt.SubmitAttempt)
		studentAPI.GET("/attempts", handlers.Attempt.ListAttempts)
	}

	// ─── 5. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/attempts/:attempt_id/timer", handlers.WS.AttemptTimerStream)
	}

	return router
}
