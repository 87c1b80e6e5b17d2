package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/social-platform/social-platform/internal/config"
	"github.com/social-platform/social-platform/internal/handlers"
	"github.com/social-platform/social-platform/internal/middleware"
	"github.com/social-platform/social-platform/internal/repository"
	"github.com/social-platform/social-platform/internal/services"
	"github.com/social-platform/social-platform/pkg/cache"
	"github.com/social-platform/social-platform/pkg/logger"
	"github.com/social-platform/social-platform/pkg/queue"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logger.NewLogger()
	logger.Info("Starting social platform API server...")

	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}

	redisClient := cache.NewRedisClient(
		cfg.Redis.Addr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
		cfg.Redis.MinIdleConns,
	)
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()); err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}

	userEventsProducer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.UserEvents)
	defer userEventsProducer.Close()

	contentEventsProducer := queue.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.ContentEvents)
	defer contentEventsProducer.Close()

	userRepo := repository.NewUserRepository(db.DB)
	followRepo := repository.NewFollowRepository(db.DB)
	postRepo := repository.NewPostRepository(db.DB)
	commentRepo := repository.NewCommentRepository(db.DB)
	likeRepo := repository.NewLikeRepository(db.DB)

	userService := services.NewUserService(userRepo, postRepo, commentRepo, likeRepo, followRepo, userEventsProducer, logger, cfg.JWT.Secret, cfg.JWT.ExpireTime)
	postService := services.NewPostService(postRepo, commentRepo, likeRepo, userRepo, contentEventsProducer, logger)

	userHandler := handlers.NewUserHandler(userService, cfg.Pagination)
	postHandler := handlers.NewPostHandler(postService, cfg.Pagination)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	jwtConfig := &middleware.JWTConfig{Secret: cfg.JWT.Secret, ExpireTime: cfg.JWT.ExpireTime}

	users := router.Group("/users")
	{
		users.GET("", userHandler.Search)
		users.POST("/register", userHandler.Register)
		users.POST("/login", userHandler.Login)
		users.POST("/search", userHandler.Search)
		users.GET("/:id", userHandler.GetUser)
		users.GET("/:id/followers", userHandler.GetFollowers)
		users.GET("/:id/following", userHandler.GetFollowing)

		protected := users.Group("")
		protected.Use(middleware.NewJWTAuth(jwtConfig))
		{
			protected.PUT("/:id", userHandler.UpdateUser)
			protected.DELETE("/:id", userHandler.DeleteUser)
			protected.POST("/:id/follow", userHandler.Follow)
		}
	}

	posts := router.Group("/posts")
	{
		posts.GET("", postHandler.ListPosts)
		posts.GET("/:id", postHandler.GetPost)
		posts.GET("/user/:userId", postHandler.ListPostsByUser)

		protected := posts.Group("")
		protected.Use(middleware.NewJWTAuth(jwtConfig))
		{
			protected.POST("", postHandler.CreatePost)
			protected.PUT("/:id", postHandler.UpdatePost)
			protected.DELETE("/:id", postHandler.DeletePost)
			protected.POST("/:id/comments", postHandler.AddComment)
			protected.POST("/:id/like", postHandler.LikePost)
			protected.POST("/search", postHandler.SearchPosts)
		}
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func init() {
	if err := os.MkdirAll("configs", 0755); err != nil {
		log.Printf("Failed to create configs directory: %v", err)
	}

	configPath := "configs/config.yaml"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := createDefaultConfig(configPath); err != nil {
			log.Printf("Failed to create default config: %v", err)
		}
	}
}

func createDefaultConfig(path string) error {
	defaultConfig := `server:
  port: ":8080"
  mode: "debug"
  read_timeout: 30s
  write_timeout: 30s

database:
  host: "localhost"
  port: 5432
  user: "socialuser"
  password: "socialpass"
  dbname: "socialplatform"
  sslmode: "disable"
  max_open_conns: 100
  max_idle_conns: 10

redis:
  host: "localhost"
  port: 6379
  password: ""
  db: 0
  pool_size: 100
  min_idle_conns: 10

kafka:
  brokers:
    - "localhost:9092"
  topics:
    user_events: "user-events"
    content_events: "content-events"

jwt:
  secret: "your-secret-key-change-in-production"
  expire_time: 24h

pagination:
  list_page_size: 3
  search_page_size: 10`

	return os.WriteFile(path, []byte(defaultConfig), 0644)
}
