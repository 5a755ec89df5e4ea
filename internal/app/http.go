package app

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/vanshpatelx/Opinex/internal/account"
	"github.com/vanshpatelx/Opinex/internal/auth"
	"github.com/vanshpatelx/Opinex/internal/auth/handler"
	"github.com/vanshpatelx/Opinex/internal/config"
	"github.com/vanshpatelx/Opinex/internal/middleware"
	"github.com/vanshpatelx/Opinex/internal/pubsub"
	"github.com/vanshpatelx/Opinex/internal/token"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	cache := account.NewRedisCache(infra.Redis.Client, cfg.CacheTTL)
	repo := account.NewPostgresRepository(infra.DB)
	store := account.NewStore(cache, repo)

	issuer, err := token.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, nil, err
	}

	publisher := pubsub.NewPublisher(cfg.BrokerURL, cfg.AuthExchange)
	go publisher.Run(ctx)

	authService := auth.NewService(store, publisher, issuer)
	authHandler := handler.NewHandler(authService)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())

	// ----------------------------
	// Public Routes
	// ----------------------------

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	api := router.Group("/api")
	api.Use(middleware.RequireAuth(issuer))

	api.GET("/me", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"id":    c.GetString("userID"),
			"email": c.GetString("email"),
			"type":  c.GetString("type"),
		})
	})

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		publisher.Close()
		if err := infra.Redis.Close(); err != nil {
			return err
		}
		return infra.DB.Close()
	}, nil
}
