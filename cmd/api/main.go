package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/microlearn/whatsapp-bot-backend/api/routes"
	"github.com/microlearn/whatsapp-bot-backend/internal/config"
	"github.com/microlearn/whatsapp-bot-backend/internal/handlers"
	mongorepo "github.com/microlearn/whatsapp-bot-backend/internal/repositories/mongodb"
	"github.com/microlearn/whatsapp-bot-backend/internal/services"
	"github.com/microlearn/whatsapp-bot-backend/internal/session"
	"github.com/microlearn/whatsapp-bot-backend/pkg/mongodb"
	"github.com/microlearn/whatsapp-bot-backend/pkg/scheduler"
	"github.com/microlearn/whatsapp-bot-backend/pkg/whatsapp"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	client, err := mongodb.NewClient(cfg.MongoDB.URI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.Printf("Failed to disconnect from MongoDB: %v", err)
		}
	}()
	db := client.Database(cfg.MongoDB.Database)

	userRepo := mongorepo.NewUserRepository(db)
	indexCtx, indexCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := userRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatalf("Failed to create user indexes: %v", err)
	}
	indexCancel()
	topicRepo := mongorepo.NewTopicRepository(db)
	contentRepo := mongorepo.NewContentRepository(db)
	messageLogRepo := mongorepo.NewMessageLogRepository(db)

	var gateway whatsapp.Gateway
	if cfg.WhatsApp.MockGateway || cfg.WhatsApp.AccountSID == "" || cfg.WhatsApp.AuthToken == "" {
		log.Println("Using mock WhatsApp gateway")
		gateway = whatsapp.NewMockGateway()
	} else {
		gateway = whatsapp.NewTwilioGateway(cfg)
	}

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := session.NewMemoryStore(cfg.Bot.SessionTTL)
	sessions.StartSweeping(rootCtx, time.Hour)

	authService, err := services.NewAuthService(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize auth service: %v", err)
	}
	botService, err := services.NewBotService(userRepo, topicRepo, messageLogRepo, sessions, gateway, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize bot service: %v", err)
	}
	userService := services.NewUserService(userRepo, topicRepo)
	contentService := services.NewContentService(topicRepo, contentRepo)
	lessonService := services.NewLessonService(userRepo, topicRepo, contentRepo, messageLogRepo, gateway, clockwork.NewRealClock(), cfg)

	sched := scheduler.New(clockwork.NewRealClock())
	lessonService.RegisterJobs(sched)
	sched.Start(rootCtx)

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	contentHandler := handlers.NewContentHandler(contentService)
	botHandler := handlers.NewBotHandler(botService, cfg)

	router := routes.SetupRouter(cfg, authHandler, userHandler, contentHandler, botHandler)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancel()
	sched.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
