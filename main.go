package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/itemhub/backend/internal/config"
	"github.com/itemhub/backend/internal/db"
	"github.com/itemhub/backend/internal/handler"
	"github.com/itemhub/backend/internal/service"
)

// @title itemhub API
// @version 1.0
// @description Token-gated CRUD over schema-less JSON documents.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.NewPostgresPool(ctx)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	store := db.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	authSvc, err := service.NewAuthService(store, cfg.Auth)
	if err != nil {
		log.Fatalf("failed to init auth service: %v", err)
	}
	itemSvc := service.NewItemService(store)

	authHandler := handler.NewAuthHandler(authSvc)
	itemHandler := handler.NewItemHandler(itemSvc)

	router := gin.Default()
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins))

	router.GET("/", handler.Root)
	router.GET("/ping", handler.Ping)
	router.GET("/openapi.json", handler.OpenAPIDoc)

	auth := router.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.GET("/me", handler.AuthMiddleware(authSvc), authHandler.Me)
	}

	api := router.Group("/api")
	api.Use(handler.AuthMiddleware(authSvc))
	{
		api.GET("/items", itemHandler.List)
		api.POST("/items", itemHandler.Create)
		api.GET("/items/:id", itemHandler.Get)
		api.PUT("/items/:id", itemHandler.Update)
		api.DELETE("/items/:id", itemHandler.Delete)
	}

	if err := router.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
