package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/alkemata/reasonreport-backend/accounts"
	"github.com/alkemata/reasonreport-backend/config"
	"github.com/alkemata/reasonreport-backend/controllers"
	"github.com/alkemata/reasonreport-backend/notebook"
	"github.com/alkemata/reasonreport-backend/routes"
	"github.com/alkemata/reasonreport-backend/services"
	"github.com/alkemata/reasonreport-backend/ws"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("Không tìm thấy file .env")
	}

	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET chưa được cấu hình")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	db, err := config.InitDB()
	if err != nil {
		log.Fatal("Không thể khởi tạo database: ", err)
	}
	defer func() {
		if err := config.CloseDB(db); err != nil {
			log.Println("Lỗi khi đóng database:", err)
		}
	}()

	rdb, err := config.NewRedisClient()
	if err != nil {
		log.Fatal("Không thể khởi tạo Redis: ", err)
	}
	if rdb == nil {
		log.Println("REDIS_ADDR trống, cache render bị tắt")
	}

	// Lắp ráp các service: mọi phụ thuộc tiêm tường minh, không global
	hub := ws.NewHub(logger)
	store := notebook.NewGormStore(db)
	notebookService := notebook.NewService(store, logger)
	accountService := accounts.NewService(db, notebookService, logger)
	renderer := services.NewPageRenderer(
		services.NewRenderClient(),
		services.NewRenderCache(rdb, logger),
	)

	r := gin.Default()

	// Bật CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r = routes.SetupRouter(r, &routes.Handlers{
		Auth:      controllers.NewAuthController(accountService, logger),
		Users:     controllers.NewUserController(accountService, logger),
		Notebooks: controllers.NewNotebookController(notebookService, renderer, hub, logger),
		Health:    controllers.NewHealthController(db, hub),
		Accounts:  accountService,
		Hub:       hub,
		Logger:    logger,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("Server running at Port:" + port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Không thể khởi động server: ", err)
	}
}
