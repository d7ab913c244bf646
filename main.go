package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"chattat-service/internal/cache"
	"chattat-service/internal/config"
	"chattat-service/internal/db"
	"chattat-service/internal/handlers"
	"chattat-service/internal/middleware"
	"chattat-service/internal/observability"
	"chattat-service/internal/rabbitmq"
	"chattat-service/internal/repositories"
	"chattat-service/internal/storage"
	"chattat-service/internal/telemetry"
	"chattat-service/internal/ws"
)

const snapshotCacheTTL = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := observability.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OTLPEndpoint, cfg.Env)
	if err != nil {
		logger.Fatal("tracing setup failed", zap.Error(err))
	}

	database, err := db.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer database.Close()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("invalid redis url", zap.Error(err))
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, logger)
	defer publisher.Close()
	logger.Info("event publisher ready",
		zap.String("mode", rabbitmq.PublisherMode(publisher)),
		zap.String("noop_reason", rabbitmq.PublisherNoopReason(publisher)))

	if eventPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err != nil {
		logger.Warn("ws event publishing disabled", zap.Error(err))
	} else {
		observability.SetPublisher(eventPublisher)
		defer eventPublisher.Close()
	}

	audit := telemetry.NewAuditEmitter(publisher, cfg.AuditRouting, cfg.Env, logger)

	profileRepo := repositories.NewProfileRepo(database)
	connectionRepo := repositories.NewConnectionRepo(database)
	dmRepo := repositories.NewDirectMessageRepo(database)
	roomRepo := repositories.NewRoomRepo(database)
	memberRepo := repositories.NewRoomMemberRepo(database)
	roomMessageRepo := repositories.NewRoomMessageRepo(database)

	snapshotCache := cache.NewProfileCache(profileRepo, redisClient, snapshotCacheTTL, logger)

	avatars, err := storage.NewAvatarStore(cfg.AvatarDir, cfg.PublicBaseURL)
	if err != nil {
		logger.Fatal("avatar store setup failed", zap.Error(err))
	}

	hub := ws.NewHub(logger)
	tracker := ws.NewActivityTracker(ws.BannerLifetime)

	profileHandler := handlers.NewProfileHandler(profileRepo, snapshotCache, avatars, audit)
	friendHandler := handlers.NewFriendHandler(connectionRepo, profileRepo, snapshotCache, audit)
	dmHandler := handlers.NewDMHandler(dmRepo, connectionRepo, profileRepo, hub, audit, cfg.CharmsPerMessage)
	roomHandler := handlers.NewRoomHandler(roomRepo, memberRepo, roomMessageRepo, profileRepo, snapshotCache, hub, tracker, audit, cfg.RoomMessageWindow, cfg.CharmsPerMessage)

	roomWS := ws.NewRoomWSHandler(hub, memberRepo, tracker, cfg.JWTSecret)
	dmWS := ws.NewDirectWSHandler(hub, cfg.JWTSecret)

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("chattat-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.Static(storage.PublicPath, avatars.Dir())

	authed := router.Group("/", middleware.Auth(cfg.JWTSecret))

	authed.POST("/profiles", profileHandler.Bootstrap)
	authed.GET("/profiles/me", profileHandler.Me)
	authed.PATCH("/profiles/me", profileHandler.UpdateMe)
	authed.GET("/profiles/me/progress", profileHandler.Progress)
	authed.POST("/profiles/me/avatar", profileHandler.UploadAvatar)
	authed.GET("/profiles/lookup", profileHandler.Lookup)
	authed.GET("/rankings", profileHandler.Rankings)

	authed.GET("/friends", friendHandler.ListFriends)
	authed.GET("/friends/requests", friendHandler.ListRequests)
	authed.POST("/friends/requests", friendHandler.CreateRequest)
	authed.POST("/friends/requests/:id/accept", friendHandler.Accept)
	authed.POST("/friends/requests/:id/reject", friendHandler.Reject)
	authed.DELETE("/friends/:friend_id", friendHandler.Unfriend)

	authed.GET("/dm/:friend_id/messages", dmHandler.ListMessages)
	authed.POST("/dm/:friend_id/messages", dmHandler.PostMessage)

	authed.GET("/rooms", roomHandler.ListRooms)
	authed.POST("/rooms", roomHandler.CreateRoom)
	authed.POST("/rooms/join", roomHandler.JoinByCode)
	authed.POST("/rooms/:room_id/join", roomHandler.Join)
	authed.POST("/rooms/:room_id/leave", roomHandler.Leave)
	authed.GET("/rooms/:room_id/messages", roomHandler.ListMessages)
	authed.POST("/rooms/:room_id/messages", roomHandler.PostMessage)

	// Websocket handshakes carry their own token, header or query.
	router.GET("/ws/dm", dmWS.Handle)
	router.GET("/ws/rooms/:room_id/messages", roomWS.Messages)
	router.GET("/ws/rooms/:room_id/members", roomWS.Members)

	handlers.RegisterDebugRoutes(router, audit, cfg.DebugEndpoint)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing shutdown failed", zap.Error(err))
	}
}
