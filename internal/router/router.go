package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/onlineexam/backend/internal/config"
	"github.com/onlineexam/backend/internal/handler"
	"github.com/onlineexam/backend/internal/middleware"
	"github.com/onlineexam/backend/internal/response"
	"github.com/onlineexam/backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Question *handler.QuestionHandler
	Exam     *handler.ExamHandler
	Student  *handler.StudentHandler
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
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", authLimiter.Middleware(), handlers.Auth.Register)
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireAuth(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireAuth(authService), handlers.Auth.Me)
	}

	// ─── 2. Student Group (JWT + Single Session) ───────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireAuth(authService),
		middleware.RequireStudent(),
		middleware.CheckSingleSession(authService),
	)
	{
		studentAPI.GET("/exams", handlers.Student.ListAvailableExams)
		studentAPI.POST("/exams/:exam_id/attempts", handlers.Student.StartAttempt)
		studentAPI.POST("/exams/:exam_id/submit", handlers.Student.SubmitExam)

		studentAPI.GET("/attempts/active", handlers.Student.GetActiveAttempt)
		studentAPI.GET("/attempts/:attempt_id", handlers.Student.GetAttempt)
		studentAPI.PUT("/attempts/:attempt_id/answer", handlers.Student.SelectAnswer)
		studentAPI.PUT("/attempts/:attempt_id/position", handlers.Student.MoveTo)
		studentAPI.DELETE("/attempts/:attempt_id", handlers.Student.AbandonAttempt)

		studentAPI.GET("/results", handlers.Student.ListMyResults)
		studentAPI.GET("/results/:result_id", handlers.Student.GetResult)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/attempts/:attempt_id/timer", handlers.WS.AttemptTimerStream)
	}

	// ─── 4. Staff Group (JWT + Role) ───────────────────────────────────
	staffAPI := router.Group("/api/v1/staff")
	staffAPI.Use(
		middleware.RequireAuth(authService),
		middleware.RequireStaff(),
		middleware.CheckSingleSession(authService),
	)
	{
		// Question bank
		staffAPI.GET("/questions", handlers.Question.ListQuestions)
		staffAPI.GET("/questions/categories", handlers.Question.ListCategories)
		staffAPI.GET("/questions/:question_id", handlers.Question.GetQuestion)
		staffAPI.POST("/questions", handlers.Question.CreateQuestion)
		staffAPI.PUT("/questions/:question_id", handlers.Question.UpdateQuestion)
		staffAPI.DELETE("/questions/:question_id", handlers.Question.DeleteQuestion)

		// Exams
		staffAPI.GET("/exams", handlers.Exam.ListExams)
		staffAPI.GET("/exams/:exam_id", handlers.Exam.GetExam)
		staffAPI.POST("/exams", handlers.Exam.CreateExam)
		staffAPI.PUT("/exams/:exam_id", handlers.Exam.UpdateExam)
		staffAPI.DELETE("/exams/:exam_id", handlers.Exam.DeleteExam)
		staffAPI.POST("/exams/:exam_id/publish", handlers.Exam.PublishExam)
		staffAPI.POST("/exams/:exam_id/archive", handlers.Exam.ArchiveExam)
		staffAPI.GET("/exams/:exam_id/results", handlers.Exam.ListExamResults)
		staffAPI.GET("/exams/:exam_id/statistics", handlers.Exam.GetExamStatistics)
	}

	return router
}
