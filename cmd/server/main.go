package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mailhub/backend/internal/config"
	"mailhub/backend/internal/health"
	"mailhub/backend/internal/logger"
	"mailhub/backend/internal/mailfetch"
	"mailhub/backend/internal/mailsend"
	"mailhub/backend/internal/monitoring"
	"mailhub/backend/internal/service"
	"mailhub/backend/internal/storage"
	"mailhub/backend/internal/storage/memory"
	sqlstore "mailhub/backend/internal/storage/sql"
	httptransport "mailhub/backend/internal/transport/http"
)

// main 启动多账号邮件聚合服务。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 设置 Gin 模式（基于开发环境标志）
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 初始化日志系统
	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		File:        cfg.Log.File,
		MaxSizeMB:   100,
		MaxBackups:  3,
		MaxAgeDays:  28,
		Compress:    true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	log.Info("starting mailhub server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	// 初始化账号注册表存储
	var accounts storage.AccountRepository
	if cfg.Database.Type != "" && cfg.Database.DSN != "" {
		accounts, err = sqlstore.NewStore(
			cfg.Database.Type,
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
		)
		if err != nil {
			panic(fmt.Sprintf("failed to initialize database storage: %v", err))
		}
		log.Info("using database storage", zap.String("type", cfg.Database.Type))
	} else {
		accounts = memory.NewStore()
		log.Info("using memory storage (development mode)")
	}
	defer accounts.Close()

	// 初始化监控系统
	metrics := monitoring.NewMetrics()

	// 初始化健康检查
	healthChecker := health.NewHealthChecker(accounts, log)

	// 初始化拉取器、投递器
	fetcher := mailfetch.NewFetcher(mailfetch.Options{
		Mailbox:            cfg.Mail.Mailbox,
		Window:             cfg.Mail.FetchWindow,
		ConnectTimeout:     cfg.Mail.ConnectTimeout,
		AuthTimeout:        cfg.Mail.AuthTimeout,
		CommandTimeout:     cfg.Mail.CommandTimeout,
		InsecureSkipVerify: cfg.Mail.InsecureSkipVerify,
	}, metrics, log)

	sender := mailsend.NewSender(mailsend.Options{
		ConnectTimeout:     cfg.Send.ConnectTimeout,
		CommandTimeout:     cfg.Send.CommandTimeout,
		InsecureSkipVerify: cfg.Mail.InsecureSkipVerify,
	}, log)

	if cfg.Mail.InsecureSkipVerify {
		log.Warn("TLS certificate verification is disabled for mail servers")
	}

	// 初始化服务层
	mailService := service.NewMailService(accounts, fetcher, sender, fetcher, cfg.Send.RatePerMinute, metrics, log)
	accountService := service.NewAccountService(accounts, log)

	// 创建 HTTP 服务器
	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:         cfg,
		MailService:    mailService,
		AccountService: accountService,
		HealthChecker:  healthChecker,
		Metrics:        metrics,
		Logger:         log,
	})

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	// HTTP 服务器 goroutine
	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// 优雅关闭 goroutine
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}

		log.Info("server stopped")
		return nil
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server exited cleanly")
}
