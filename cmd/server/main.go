package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"green-map/internal/config"
	"green-map/internal/database"
	"green-map/internal/engine"
	"green-map/internal/handlers"
	"green-map/internal/middleware"
	"green-map/internal/utils"
	"green-map/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close(context.Background())

	metrics := utils.NewMetricsCollector()

	// WebSocket hub pushes trust-score updates to subscribed clients
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize actor system and engine
	system := actor.NewActorSystem()
	appEngine := engine.NewEngine(system, store, metrics, hub)

	server := handlers.NewServer(system, system.Root, appEngine, metrics, store, hub)

	corsConfig := &middleware.CORSConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}

	mux := http.NewServeMux()

	route := func(path string, handler http.HandlerFunc) {
		mux.Handle(path, middleware.AuthMiddleware(middleware.CORSMiddleware(handler, corsConfig)))
	}

	route("/health", server.HandleHealth())
	route("/stats", server.HandleStats())

	route("/user/register", server.HandleUserRegistration())
	route("/user/login", server.HandleUserLogin())
	route("/user/profile", server.HandleUserProfile())

	route("/locations", server.HandleLocations())
	route("/location", server.HandleLocation())

	route("/vote", server.HandleVote())
	route("/vote/mine", server.HandleMyVote())

	route("/reviews", server.HandleReviews())
	route("/visit", server.HandleVisit())

	// WebSocket endpoint authenticates via query parameter itself
	mux.Handle("/ws", middleware.CORSMiddleware(server.HandleWebSocket(), corsConfig))

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Starting GreenMap server on %s (db=%s)", serverAddr, cfg.Database.Type)
	if err := http.ListenAndServe(serverAddr, mux); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// openStore connects to the configured backing store and prepares its schema.
func openStore(cfg *config.Config) (database.Store, error) {
	switch cfg.Database.Type {
	case "postgres":
		db, err := database.NewPostgresDB(cfg.Database.URI)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := db.InitializeTables(ctx); err != nil {
			db.Close(ctx)
			return nil, fmt.Errorf("failed to initialize tables: %w", err)
		}
		return db, nil
	case "mongo":
		return database.NewMongoDB(cfg.Database.URI)
	case "memory":
		log.Println("Using in-memory store: all data is lost on restart")
		return database.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
}
