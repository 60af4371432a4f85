package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"

	"zentask/assistant"
	"zentask/config"
	"zentask/db"
	"zentask/kvstore"
	"zentask/reminder"
	"zentask/task"
	"zentask/tgbot"
	"zentask/web"
)

const shutdownTimeout = 10 * time.Second

// getLogger creates a logger in global namespace
func getLogger() (*zap.SugaredLogger, func() error) {
	logger, _ := zap.NewDevelopment(zap.Fields(zap.String("ns", "ZenTask")))

	log := logger.Sugar()
	return log, logger.Sync
}

// ZenTask entry point
func main() {
	logger, syncLogs := getLogger()
	defer syncLogs()

	cfgFile, ok := os.LookupEnv("CONFIG_FILE")
	if !ok {
		logger.Fatalf("Configuration file name isn't set")
	}

	cfg, err := config.Read(cfgFile)
	if err != nil {
		logger.Fatalw("couldn't read configuration", "file", cfgFile, "err", err)
	}

	kv, err := kvstore.Open(cfg.DataFile)
	if err != nil {
		logger.Fatalw("failed opening state file", "err", err)
	}

	clk := clock.New()
	store := task.NewStore(kv, clk)

	ctx := context.Background()
	d, err := db.NewDatabase(ctx, cfg.DBConnStr)
	if err != nil {
		logger.Fatalw("failed to initialize database", "err", err)
	}
	defer d.Close()

	ai := assistant.NewClient(cfg.AIGatewayURL, cfg.AIAPIKey, cfg.AIModel, logger)

	sender, err := tgbot.NewTgSender(cfg.TgToken, logger)
	if err != nil {
		logger.Fatalw("failed to initialize Telegram Bot", "err", err)
	}
	handler := tgbot.NewHandler(d, ai, sender, logger)

	notifier := &reminder.LogNotifier{Logger: logger}
	poller := reminder.NewManager(store, notifier, clk, logger)
	go poller.Run()
	defer poller.Stop()

	server := web.NewServer(store, kv, poller, ai, handler, cfg.TgWebhookSecret, logger)
	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Handler(),
	}

	go func() {
		logger.Infof("listening on %s", cfg.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("server failed", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("failed shutting down cleanly", "err", err)
	}
}
