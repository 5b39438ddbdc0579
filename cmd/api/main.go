package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/boltblitz-api/internal/config"
	"github.com/yourusername/boltblitz-api/internal/handler"
	"github.com/yourusername/boltblitz-api/internal/middleware"
	"github.com/yourusername/boltblitz-api/internal/repository/postgres"
	redisrepo "github.com/yourusername/boltblitz-api/internal/repository/redis"
	"github.com/yourusername/boltblitz-api/internal/service"
	"github.com/yourusername/boltblitz-api/internal/service/gameengine"
	"github.com/yourusername/boltblitz-api/internal/websocket"
	"github.com/yourusername/boltblitz-api/pkg/auth"
	"github.com/yourusername/boltblitz-api/pkg/database"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// База данных
	db, err := database.NewPostgresDB(cfg.Database.PostgresDSN(), cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		log.Fatalf("Ошибка подключения к PostgreSQL: %v", err)
	}
	if err := database.MigrateDB(db); err != nil {
		log.Fatalf("Ошибка применения миграций: %v", err)
	}

	// Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Ошибка подключения к Redis: %v", err)
	}
	defer redisClient.Close()

	// Репозитории
	questionRepo := postgres.NewQuestionRepo(db)
	gameRepo := postgres.NewGameRepo(db)
	userRepo := postgres.NewUserRepo(db)
	achievementRepo := postgres.NewAchievementRepo(db)
	cacheRepo, err := redisrepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Fatalf("Ошибка создания репозитория кеша: %v", err)
	}

	// JWT
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Fatalf("Ошибка создания сервиса JWT: %v", err)
	}

	// Websocket-хаб
	hub := websocket.NewHub()
	go hub.Run()

	// Сервисы
	questionService := service.NewQuestionService(questionRepo, cacheRepo, service.GenerationConfig{
		Enabled:    cfg.Generation.Enabled,
		APIKey:     cfg.Generation.APIKey,
		BaseURL:    cfg.Generation.BaseURL,
		ChatModel:  cfg.Generation.ChatModel,
		ImageModel: cfg.Generation.ImageModel,
		Timeout:    time.Duration(cfg.Generation.TimeoutSec) * time.Second,
	})
	statsService := service.NewStatsService(userRepo, achievementRepo)

	engineCfg := &gameengine.Config{
		PerQuestionSeconds:   cfg.Engine.PerQuestionSeconds,
		LeadInSeconds:        cfg.Engine.LeadInSeconds,
		ResultDisplaySeconds: cfg.Engine.ResultDisplaySeconds,
		TimeFreezeSeconds:    cfg.Engine.TimeFreezeSeconds,
		StrikeSeconds:        cfg.Engine.StrikeSeconds,
	}
	gameManager := service.NewGameManager(gameRepo, cacheRepo, questionService, statsService, hub, engineCfg)

	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()
	go gameManager.Run(appCtx)

	// Обработчики
	gameHandler := handler.NewGameHandler(gameManager)
	questionHandler := handler.NewQuestionHandler(questionService)
	userHandler := handler.NewUserHandler(statsService)
	wsHandler := handler.NewWSHandler(hub, gameManager, jwtService, cfg.CORS.AllowedOrigins)
	authMiddleware := middleware.NewAuthMiddleware(jwtService)

	// Маршрутизация
	router := gin.Default()
	if err := router.SetTrustedProxies(nil); err != nil {
		log.Fatalf("Ошибка настройки доверенных прокси: %v", err)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(authMiddleware.RequireAuth())
	{
		games := api.Group("/games")
		{
			games.POST("", gameHandler.CreateGame)
			games.GET("", gameHandler.ListGames)
			games.GET("/:id", gameHandler.GetGame)
			games.POST("/:id/start", gameHandler.StartGame)
			games.GET("/:id/state", gameHandler.GetState)
			games.POST("/:id/select", gameHandler.SelectAnswer)
			games.POST("/:id/submit", gameHandler.SubmitAnswer)
			games.POST("/:id/tools/:toolId", gameHandler.ActivateTool)
		}

		api.GET("/tools", gameHandler.GetToolCatalog)
		api.GET("/leaderboard", userHandler.GetLeaderboard)
		api.GET("/users/me/stats", userHandler.GetMyStats)
		api.GET("/achievements", userHandler.GetAchievements)
		api.GET("/questions/unseen", questionHandler.CountUnseen)

		admin := api.Group("/questions")
		admin.Use(authMiddleware.RequireAdmin())
		{
			admin.POST("/import", questionHandler.ImportQuestions)
			admin.POST("/generate", questionHandler.GenerateQuestion)
		}
	}

	router.GET("/ws", wsHandler.HandleConnection)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Сервер запущен на порту %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Остановка сервера...")

	cancelApp()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Ошибка остановки сервера: %v", err)
	}
	log.Println("Сервер остановлен")
}
