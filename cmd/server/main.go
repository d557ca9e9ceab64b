package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"sociogram/backend/internal/auth"
	"sociogram/backend/internal/config"
	"sociogram/backend/internal/database"
	"sociogram/backend/internal/handler"
	"sociogram/backend/internal/hub"
	"sociogram/backend/internal/notify"

	"github.com/gin-gonic/gin"

	// Swagger imports
	_ "sociogram/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           Sociogram API
// @version         1.0
// @description     This is the API for the Sociogram service: a social graph with realtime subscriptions.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	// Connect to the database
	database.Connect(config.AppConfig.DatabaseURL)

	// The event bus lives as long as the process and is passed by reference
	// to everything that publishes or subscribes.
	eventHub := hub.NewHub()
	notifier := notify.New(database.DB, eventHub)

	users := handler.NewUserHandler(notifier)
	friends := handler.NewFriendHandler(notifier)
	posts := handler.NewPostHandler(notifier)
	subscriptions := handler.NewSubscriptionHandler(eventHub)

	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := apiV1.Group("/auth")
		{
			authRoutes.POST("/signup", users.Signup)
			authRoutes.POST("/login", users.Login)
			authRoutes.POST("/recover", users.Recover)
			// Works with a recovery token or a session token.
			authRoutes.POST("/change-password", auth.OptionalAuthMiddleware(), users.ChangePassword)
		}

		// User routes (protected)
		userRoutes := apiV1.Group("/users")
		userRoutes.Use(auth.AuthMiddleware(), auth.ActiveUserMiddleware())
		{
			userRoutes.GET("", users.SearchUsers)
			userRoutes.GET("/me", users.GetMe)
			userRoutes.PUT("/me", users.UpdateMe)
			userRoutes.DELETE("/me", users.DeleteMe)
			userRoutes.POST("/:id/friend", friends.SendRequest)
		}

		// Friendship routes (protected)
		friendRoutes := apiV1.Group("/friends")
		friendRoutes.Use(auth.AuthMiddleware(), auth.ActiveUserMiddleware())
		{
			friendRoutes.GET("", friends.ListFriends)
			friendRoutes.GET("/requests", friends.ListRequests)
			friendRoutes.GET("/blocked", friends.ListBlocked)
			friendRoutes.PUT("/:id", friends.UpdateFriend)
		}

		// Post routes (protected)
		postRoutes := apiV1.Group("/posts")
		postRoutes.Use(auth.AuthMiddleware(), auth.ActiveUserMiddleware())
		{
			postRoutes.POST("", posts.CreatePost)
			postRoutes.GET("", posts.ListPosts)
			postRoutes.GET("/feed", posts.ListFeed)
			postRoutes.GET("/:id", posts.GetPost)
			postRoutes.PUT("/:id", posts.UpdatePost)
			postRoutes.DELETE("/:id", posts.DeletePost)
		}

		// Subscription routes (protected)
		subRoutes := apiV1.Group("")
		subRoutes.Use(auth.AuthMiddleware(), auth.ActiveUserMiddleware())
		{
			subRoutes.GET("/subscribe/:topic", subscriptions.Stream)
			subRoutes.GET("/ws", subscriptions.ServeWS)
		}
	}

	addr := ":" + config.AppConfig.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		fmt.Printf("Server is running on %s\n", addr)
		fmt.Printf("Swagger UI is available at http://localhost%s/swagger/index.html\n", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	// Closing the hub ends every SSE/WS stream, which lets the HTTP server
	// drain its connections.
	eventHub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
