package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/tutorhub/tutorhub-back/docs"
	"github.com/tutorhub/tutorhub-back/internal/auth"
	"github.com/tutorhub/tutorhub-back/internal/config"
)

// @title           TutorHub Sessions API
// @version         1.0
// @description     Class session scheduling, dispatch and attendance.
// @host            localhost:8000
// @BasePath        /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func SetupRouter(cfg *config.Config, a *API, dir auth.Directory) *gin.Engine {
	auth.InitGoogle(cfg)

	r := gin.Default()

	// Public routes
	r.GET("/health", func(c *gin.Context) {
		if err := a.Store.Ping(); err != nil {
			c.JSON(500, gin.H{"status": "db_ping_error"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Google login
	r.GET("/auth/google/login", auth.GoogleLoginHandler())
	r.GET("/auth/google/callback", auth.GoogleCallbackHandler(cfg, dir))
	r.POST("/auth/refresh", auth.RefreshHandler(cfg))

	// Protected
	v1 := r.Group("/api/v1")
	v1.Use(auth.AuthMiddleware(cfg))
	{
		v1.GET("/sessions", a.ListSessions)
		v1.GET("/sessions/:id", a.GetSession)
		v1.GET("/sessions/:id/join", a.JoinSession)
		v1.POST("/sessions/:id/heartbeat", a.Heartbeat)
		v1.POST("/sessions/:id/leave", a.Leave)

		v1.GET("/classes/:id/sessions", a.ListClassSessions)
		v1.GET("/me/classes", a.MyClasses)
		v1.GET("/rooms/:name", a.ResolveRoom)

		staff := v1.Group("")
		staff.Use(auth.RequireRole("teacher", "admin"))
		{
			staff.POST("/sessions", a.CreateSession)
			staff.POST("/sessions/recurring", a.CreateRecurringSessions)
			staff.PATCH("/sessions/:id", a.PatchSession)
			staff.POST("/sessions/:id/cancel", a.CancelSession)
			staff.POST("/sessions/:id/cancel-following", a.CancelFollowing)
			staff.POST("/sessions/:id/complete", a.CompleteSession)
			staff.POST("/sessions/:id/reschedule", a.RescheduleSession)
			staff.GET("/sessions/:id/attendance", a.AttendanceSummary)

			staff.GET("/classes/:id/roster", a.ClassRoster)
			staff.POST("/classes/:id/roster", a.AddRosterStudent)
			staff.DELETE("/classes/:id/roster/:studentId", a.RemoveRosterStudent)

			staff.POST("/timetable/import", a.ImportTimetable)
		}
	}

	return r
}
