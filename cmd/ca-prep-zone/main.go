package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/auth"
	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/config"
	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/notify"
	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/resource"
	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/room"
	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/server"
	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/storage/postgres"
	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/storage/s3"
	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/user"
	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/voice"
	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/internal/ws"
	"github.com/Vikas07-unfiltered/ca-prep-zone-sub000/pkg/logger"
)

const dbTimeout = time.Second * 5

func main() {
	// Initializing and validating config
	cm, err := config.NewConfigManager("internal/config/config.yaml")
	if err != nil {
		fmt.Printf("Error getting config file: %v\n", err)
		os.Exit(1)
	}
	c := cm.GetConfig()
	if err := c.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initializing logger
	log := logger.Must(logger.New(logger.Config{
		Env:       c.GeneralParams.Env,
		AddSource: false,
	}))

	log.Info(
		"Config loaded successfully!",
		"env", c.GeneralParams.Env,
		"http_server_port", c.HttpServerParams.Port,
		"http_server_address", c.HttpServerParams.Address,
		"database", c.DBParams.Name,
	)

	// Global context with cancel
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Creating database connection and init Postgres
	pool, err := postgres.NewPool(ctx, c.DBParams.GetDSN())
	if err != nil {
		log.Error(
			"Failed to create postgres pool",
			"error", err,
			"db", c.DBParams.Name,
		)
		os.Exit(1)
	}
	defer pool.Close()

	log.Info("Database connection established", "db", c.DBParams.Name)

	// Redis backs the room change feed
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.RedisParams.Addr,
		Password: c.RedisParams.Password,
		DB:       c.RedisParams.DB,
	})
	defer rdb.Close()

	pingCtx, pingCancel := context.WithTimeout(ctx, time.Second*3)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		log.Error("Failed to connect to redis", "error", err, "addr", c.RedisParams.Addr)
		os.Exit(1)
	}
	pingCancel()

	log.Info("Redis connection established", "addr", c.RedisParams.Addr)

	// MinIO holds the resource library files
	s3Client, err := s3.NewClient(
		c.S3Params.Endpoint,
		c.S3Params.AccessKeyID,
		c.S3Params.SecretAccessKey,
		c.S3Params.UseSSL,
	)
	if err != nil {
		log.Error("Failed to create minio client", "error", err)
		os.Exit(1)
	}
	if err := s3.EnsureBucket(ctx, s3Client, c.S3Params.BucketName); err != nil {
		log.Error("Failed to ensure bucket", "error", err, "bucket", c.S3Params.BucketName)
		os.Exit(1)
	}

	// JWT Service initialization
	authService := auth.NewService(
		c.GeneralParams.SecretKey,
		time.Minute*15,
		time.Hour*24*7,
	)

	voiceClient := voice.NewClient(c.VoiceParams)
	if !voiceClient.Enabled() {
		log.Warn("Voice provider not configured, rooms will be created without voice URLs")
	}

	// Change notifier and websocket feed
	notifier := notify.NewRedisNotifier(rdb, log.Logger)

	hub := ws.NewHub(log.Logger)
	go hub.Run()

	go func() {
		if err := notifier.Subscribe(ctx, hub.Broadcast); err != nil && ctx.Err() == nil {
			log.Error("Room change subscription stopped", "error", err)
		}
	}()

	// Stores and handlers
	userStore := user.NewPostgresStore(pool)
	roomStore := room.NewPostgresStore(pool)
	resourceStore := resource.NewPostgresStore(pool)
	objectStore := resource.NewMinIOObjectStore(s3Client, c.S3Params.BucketName)

	roomService := room.NewService(roomStore, voiceClient, notifier, log.Logger)

	router := server.NewRouter(server.RouterConfig{
		Log:             log.Logger,
		AuthService:     authService,
		UserHandler:     user.NewHandler(userStore, authService, log.Logger, dbTimeout),
		RoomHandler:     room.NewHandler(roomService, log.Logger, dbTimeout),
		ResourceHandler: resource.NewHandler(resourceStore, objectStore, log.Logger, dbTimeout),
		WSHandler:       ws.NewHandler(hub, log.Logger),
	})

	srv := server.New(c.HttpServerParams.GetAddress(), router, log.Logger)

	serverErrors := make(chan error, 1)

	go func() {
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or error
	select {
	case err := <-serverErrors:
		log.Error("Server error", "error", err)
		os.Exit(1)

	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		log.Info("Shutting down HTTP server...")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Graceful shutdown failed", "error", err)
		}

		hub.Shutdown()
		cancel()
	}
}
