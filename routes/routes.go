package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/alkemata/reasonreport-backend/accounts"
	"github.com/alkemata/reasonreport-backend/controllers"
	"github.com/alkemata/reasonreport-backend/middleware"
	"github.com/alkemata/reasonreport-backend/ws"
)

type Handlers struct {
	Auth      *controllers.AuthController
	Users     *controllers.UserController
	Notebooks *controllers.NotebookController
	Health    *controllers.HealthController
	Accounts  *accounts.Service
	Hub       *ws.Hub
	Logger    *slog.Logger
}

func SetupRouter(r *gin.Engine, h *Handlers) *gin.Engine {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", h.Health.HealthCheck)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", h.Auth.Logout)
		auth.POST("/password-reset", h.Auth.RequestPasswordReset)
		auth.POST("/password-reset/confirm", h.Auth.ConfirmPasswordReset)
	}

	user := api.Group("/user")
	{
		user.Use(middleware.AuthMiddleware(h.Accounts, h.Logger))
		user.GET("/me", h.Users.Me)
		user.PUT("/password", h.Users.ChangePassword)
	}

	notebooks := api.Group("/notebooks")
	{
		notebooks.Use(middleware.AuthMiddleware(h.Accounts, h.Logger))
		notebooks.POST("", h.Notebooks.CreateNotebook)
		notebooks.PUT("/:id", h.Notebooks.SaveNotebook)
		notebooks.DELETE("/:id", h.Notebooks.DeleteNotebook)
		notebooks.GET("/query", h.Notebooks.QueryNotebook)
	}

	admin := api.Group("/admin")
	{
		admin.Use(middleware.AuthMiddleware(h.Accounts, h.Logger), middleware.RequireRoles("admin"))

		// Quản lý người dùng
		admin.GET("/users", h.Users.ListUsers)
		admin.PUT("/users/:id", h.Users.UpdateUser)
		admin.DELETE("/users/:id", h.Users.DeleteUser)
	}

	// Trang công khai, ai cũng đọc được, user đăng nhập thì biết is_author
	public := r.Group("/")
	{
		public.Use(middleware.OptionalAuthMiddleware(h.Accounts, h.Logger))
		public.GET("/slug/:slug", h.Notebooks.PublicBySlug)
		public.GET("/id/:id", h.Notebooks.PublicByID)
	}

	r.GET("/ws/notebook/:id", ws.HandleNotebookWebSocket(h.Hub, h.Logger))
	r.GET("/ws/status", ws.HandleGlobalWebSocket(h.Hub, h.Logger))

	return r
}
