package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blog_api/internal/domain/user/repository"
	userService "blog_api/internal/domain/user/service"
	"blog_api/internal/pkg/config"
	"blog_api/internal/pkg/middleware"
	"blog_api/internal/pkg/registry"
	"blog_api/internal/pkg/uploader"
	"blog_api/internal/pkg/worker"
	"blog_api/pkg/cache"
	"blog_api/pkg/database"
	"blog_api/pkg/logger"
	"blog_api/pkg/metrics"
	"blog_api/pkg/security"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	// 业务模块通过 init() 注册
	_ "blog_api/internal/domain/admin"
	_ "blog_api/internal/domain/comment"
	_ "blog_api/internal/domain/common"
	_ "blog_api/internal/domain/post"
	_ "blog_api/internal/domain/search"
	_ "blog_api/internal/domain/tag"
	_ "blog_api/internal/domain/user"
)

func main() {
	config.LoadConfig()
	cfg := &config.GlobalConfig

	if err := logger.Init(cfg.App.Env); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.InitDatabase(cfg.Database, cfg.App.Env)
	if err != nil {
		logger.Log.Fatal("database unavailable", zap.Error(err))
	}
	rdb, err := database.InitRedis(cfg.Redis)
	if err != nil {
		logger.Log.Fatal("redis unavailable", zap.Error(err))
	}

	var up uploader.Uploader
	if cfg.OSS.Enabled() {
		oss, err := uploader.NewAliyunOSSUploader(cfg.OSS)
		if err != nil {
			logger.Log.Fatal("init oss uploader", zap.Error(err))
		}
		up = oss
	} else {
		logger.Log.Warn("oss is not configured, uploads are disabled")
	}

	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	collector := metrics.GetGlobalCollector()
	tokens := security.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.Expire)*time.Hour)

	engine.Use(
		middleware.RecoveryMiddleware(),
		middleware.TraceMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.MetricsMiddleware(collector),
		middleware.SecurityHeadersMiddleware(),
		cors.New(corsConfig(cfg.App.CORSOrigins)),
	)

	jobs := worker.NewPool(worker.Options{
		Workers:    cfg.Worker.Count,
		BufferSize: cfg.Worker.QueueSize,
		MaxRetry:   cfg.Worker.MaxRetry,
	}, collector)
	jobs.Start()

	api := engine.Group("/api", middleware.Authenticate(tokens, userService.NewAccountLoader(repository.NewUserRepository(db))))

	err = registry.InitModules(&registry.ModuleContext{
		DB:       db,
		Redis:    rdb,
		Engine:   engine,
		Router:   api,
		Config:   cfg,
		Tokens:   tokens,
		Hasher:   security.NewBcryptHasher(bcrypt.DefaultCost),
		Cache:    cache.NewRedisCache(rdb, "blog:"),
		Metrics:  collector,
		Uploader: up,
		Jobs:     jobs,
	})
	if err != nil {
		logger.Log.Fatal("init modules", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("server stopped unexpectedly", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("server shutdown", zap.Error(err))
	}
	jobs.Stop()
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = rdb.Close()
	logger.Log.Info("server exited")
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, "Authorization", "X-Trace-ID")
	c.ExposeHeaders = []string{"X-Trace-ID"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
