package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/taskboard-dev/taskboard/internal/handlers"
	"github.com/taskboard-dev/taskboard/internal/middleware"
	"github.com/taskboard-dev/taskboard/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws/:board_id", middleware.AuthMiddleware(), handlers.WebSocket)

		api.POST("/registration", handlers.Registration)
		api.POST("/login", handlers.Login)
		api.GET("/email-check", middleware.AuthMiddleware(), handlers.EmailCheck)

		boards := api.Group("/boards", middleware.AuthMiddleware())
		{
			boards.GET("", handlers.ListBoards)
			boards.POST("", handlers.CreateBoard)
			boards.GET("/:board_id", handlers.GetBoard)
			boards.PATCH("/:board_id", handlers.UpdateBoard)
			boards.DELETE("/:board_id", handlers.DeleteBoard)
		}

		tasks := api.Group("/tasks", middleware.AuthMiddleware())
		{
			tasks.GET("", handlers.ListTasks)
			tasks.POST("", handlers.CreateTask)
			tasks.GET("/assigned-to-me", handlers.ListTasksAssignedToMe)
			tasks.GET("/reviewing", handlers.ListTasksReviewing)
			tasks.GET("/:task_id", handlers.GetTask)
			tasks.PATCH("/:task_id", handlers.UpdateTask)
			tasks.DELETE("/:task_id", handlers.DeleteTask)

			// Comment endpoints
			tasks.GET("/:task_id/comments", handlers.ListComments)
			tasks.POST("/:task_id/comments", handlers.CreateComment)
			tasks.DELETE("/:task_id/comments/:comment_id", handlers.DeleteComment)
		}
	}

	return r
}
