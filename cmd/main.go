package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sitechat/sitechat/internal/config"
	"github.com/sitechat/sitechat/internal/events"
	"github.com/sitechat/sitechat/internal/handler"
	"github.com/sitechat/sitechat/internal/hub"
	"github.com/sitechat/sitechat/internal/presence"
	"github.com/sitechat/sitechat/internal/registry"
	"github.com/sitechat/sitechat/internal/service"
	"github.com/sitechat/sitechat/internal/storage"
	"github.com/sitechat/sitechat/pkg/database"
	"github.com/sitechat/sitechat/pkg/jwt"
	"github.com/sitechat/sitechat/pkg/log"
	"github.com/sitechat/sitechat/pkg/middleware"
)

// roomEmitter adapts the hub to the presence tracker's Emitter.
type roomEmitter struct {
	h *hub.Hub
}

func (e roomEmitter) ToRoom(room string, message interface{}) {
	if err := e.h.BroadcastToChannel(hub.RoomChannel(room), message, ""); err != nil {
		l := log.L()
		l.Warn().Err(err).Str(log.FieldRoom, room).Msg("presence broadcast failed")
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(log.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: "sitechat",
	})
	l := log.L()
	l.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting sitechat coordinator")

	// Database
	db, err := database.New(&cfg.Database)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to connect to database")
	}
	store, err := storage.NewGormStore(db)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to migrate schema")
	}
	l.Info().Str("driver", cfg.Database.Driver).Msg("database ready")

	// Live-conversation registry
	reg, err := registry.NewRedisRegistry(cfg.Redis)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to initialize redis registry")
	}
	defer reg.Close()
	l.Info().Str("address", cfg.Redis.Address).Msg("connected to redis")

	// Event export
	var producer events.Producer = events.NopProducer{}
	if cfg.Kafka.Brokers != "" {
		producer, err = events.NewConfluentProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to initialize kafka producer")
		}
		l.Info().Str("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("event export enabled")
	}

	// Hub
	wsHub := hub.NewHub(cfg.WebSocket)
	go wsHub.Run()

	// Presence tracker + sweeper
	tracker := presence.NewTracker(roomEmitter{h: wsHub}, store, reg, producer, presence.Config{
		SweepInterval: cfg.Presence.SweepInterval,
		AdminTTL:      cfg.Presence.AdminTTL,
	})

	chatSvc := service.NewChatService(wsHub, tracker, store, producer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := chatSvc.Start(ctx); err != nil {
		l.Fatal().Err(err).Msg("failed to start chat service")
	}
	defer chatSvc.Stop()

	if err := reg.StartHeartbeat(ctx); err != nil {
		l.Fatal().Err(err).Msg("failed to start registry heartbeat")
	}

	// Dashboard REST surface
	jwtManager := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTDuration)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager)
	httpHandler := handler.NewHTTPHandler(store, authMiddleware)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), log.GinMiddleware(l))
	httpHandler.RegisterRoutes(engine)

	// WebSocket endpoint
	wsHandler := handler.NewWSHandler(wsHub, chatSvc, cfg.WebSocket)

	mux := http.NewServeMux()
	wsHandler.RegisterRoutes(mux)
	mux.Handle("/api/", engine)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		l.Info().Str("addr", server.Addr).Msg("coordinator listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Warn().Err(err).Msg("server forced to shutdown")
	}

	l.Info().Msg("coordinator stopped")
}
