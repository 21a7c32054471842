package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/config"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/db"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/logging"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/notify"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/realtime"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/server"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/accounts"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/jobs"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/ledger"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/services/pages"
	"github.com/Windi-Fikriyansyah/jobshare_be/internal/storage"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := logging.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Connect(cfg.DBDSN, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	if err := db.Migrate(gdb); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	hub := realtime.NewHub(logger)
	go hub.Run(ctx)

	// Without Redis the hub delivers directly, which only reaches clients of
	// this instance.
	var publisher notify.Publisher = hub
	rdb := realtime.NewRedis(cfg, logger)
	if rdb != nil {
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis unreachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		publisher = rdb
		go realtime.NewBridge(rdb, hub, logger).Run(ctx)
	}

	mailer, err := notify.NewMailer(ctx, cfg.Mail, logger)
	if err != nil {
		logger.Fatal("mailer setup failed", zap.String("service", cfg.Mail.Service), zap.Error(err))
	}
	dispatcher := notify.NewDispatcher(mailer, publisher, cfg.FrontendBaseURL, logger)

	store := storage.NewLocalStore(filepath.Join(cfg.UploadDir, "resumes"))

	app := server.New(server.Deps{
		Config:   cfg,
		Logger:   logger,
		DB:       gdb,
		Redis:    rdb,
		Hub:      hub,
		Accounts: accounts.NewAccountService(gdb, cfg.JWTSecret, cfg.JWTExpiresMin, logger),
		Jobs:     jobs.NewJobService(gdb, logger),
		Ledger:   ledger.NewLedgerService(gdb, store, dispatcher, logger, int64(cfg.MaxResumeMB)<<20),
		Pages:    pages.NewPageService(gdb, logger),
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
		errCh <- app.Listen(":" + cfg.AppPort)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("shutdown failed", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
