package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ExpertVagabond/purplesquirrel-media-app/adapters/events"
	"github.com/ExpertVagabond/purplesquirrel-media-app/adapters/store"
	"github.com/ExpertVagabond/purplesquirrel-media-app/adapters/tokenizer"
	"github.com/ExpertVagabond/purplesquirrel-media-app/config"
	"github.com/ExpertVagabond/purplesquirrel-media-app/ports"
	"github.com/ExpertVagabond/purplesquirrel-media-app/service"
	transport "github.com/ExpertVagabond/purplesquirrel-media-app/transport/http"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.toml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Warning: failed to load config from %s: %v", configPath, err)
		log.Println("Using default configuration")
		cfg = config.DefaultConfig()
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	var (
		nonceStore ports.NonceStore
		tokenStore ports.TokenStore
		publisher  message.Publisher
	)

	wmLogger := watermill.NewStdLogger(false, false)
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Fatal("failed to parse redis url", zap.Error(err))
		}
		redisClient := redis.NewClient(opts)

		nonceStore = store.NewRedisNonceStore(redisClient)
		tokenStore = store.NewRedisTokenStore(redisClient)
		publisher, err = redisstream.NewPublisher(redisstream.PublisherConfig{Client: redisClient}, wmLogger)
		if err != nil {
			logger.Fatal("failed to create redis publisher", zap.Error(err))
		}
	} else {
		nonceStore = store.NewMemoryNonceStore()
		tokenStore = store.NewMemoryTokenStore()
		publisher = gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
	}

	jwtTokenizer := tokenizer.NewJWTTokenizer(cfg.Auth.JWTSecret)
	eventPub := events.NewWatermillPublisher(publisher)

	authService := service.NewAuthService(nonceStore, tokenStore, jwtTokenizer, eventPub, logger)
	videoService := service.NewVideoService(
		authService,
		eventPub,
		logger,
		cfg.Server.PublicBaseURL,
		cfg.Uploads.ProcessingDelay(),
	)
	videoService.SeedDemo(authService)
	defer videoService.Stop()

	gin.SetMode(gin.ReleaseMode)
	router := transport.SetupRouter(authService, videoService)

	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("server forced to shutdown", zap.Error(err))
		}
	}()

	logger.Info("psm dev server starting",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("public_base_url", cfg.Server.PublicBaseURL))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
