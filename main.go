package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"civicpulse-be/config"
	"civicpulse-be/controllers"
	"civicpulse-be/middlewares"
	"civicpulse-be/routes"
	"civicpulse-be/services"
	"civicpulse-be/store"
	authUtils "civicpulse-be/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := cfg.NewLogger(os.Stdout)
	if !cfg.EnvFileLoaded {
		log.Info("No .env file found")
	}

	client, db, err := config.ConnectDB(cfg.Mongo, log)
	if err != nil {
		log.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}()
	if err := store.EnsureIndexes(db); err != nil {
		log.Error("Failed to create indexes", "error", err)
		os.Exit(1)
	}

	rdb, err := config.ConnectRedis(cfg.Redis, log)
	if err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	var media store.MediaStore
	if cfg.MediaEnabled() {
		m, err := store.NewMinioMedia(cfg.Media.Endpoint, cfg.Media.AccessKey, cfg.Media.SecretKey, cfg.Media.UseSSL)
		if err != nil {
			log.Warn("media storage unavailable, uploads disabled", "error", err)
		} else {
			media = m
		}
	} else {
		log.Warn("media storage not configured, uploads disabled")
	}
	mediaService := services.NewMediaService(media, cfg.Media.Bucket)
	if media != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := mediaService.Initialize(ctx); err != nil {
			log.Warn("media bucket check failed", "bucket", cfg.Media.Bucket, "error", err)
		}
		cancel()
	}

	issueRepo := store.NewIssueRepo(db)
	userRepo := store.NewUserRepo(db)
	commentRepo := store.NewCommentRepo(db)
	regionRepo := store.NewRegionRepo(db)

	issueService := services.NewIssueService(issueRepo, userRepo, regionRepo, log)
	commentService := services.NewCommentService(commentRepo, issueRepo, userRepo, log)
	userService := services.NewUserService(userRepo, issueRepo, regionRepo, log)
	verificationService := services.NewVerificationService(rdb, userRepo, log)

	tokens := authUtils.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	identity := authUtils.NewIdentityVerifier(cfg.Auth.IdPSecret, cfg.Auth.IdPIssuer)
	if cfg.Auth.IdPSecret == "" {
		log.Warn("IDP_SIGNING_SECRET is not set, register and login will reject every identity token")
	}

	authenticated := middlewares.AuthMiddleware(tokens, userService, log)
	issueLimiter := middlewares.IssueRateLimiter(rdb, cfg.Redis.IssueQueue, cfg.Redis.IssueDailyLimit, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middlewares.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middlewares.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.AuthRoutes(r, controllers.NewAuthController(userService, verificationService, identity, tokens, !cfg.IsProduction(), log), authenticated)
	routes.IssueRoutes(r, controllers.NewIssueController(issueService, mediaService, log), authenticated, issueLimiter)
	routes.CommentRoutes(r, controllers.NewCommentController(commentService, log), authenticated)
	routes.UserRoutes(r, controllers.NewUserController(userService, log), authenticated)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	log.Info("server listening", "port", cfg.Port, "env", cfg.Env)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Error("Failed to start server", "error", err)
		os.Exit(1)
	}
}
