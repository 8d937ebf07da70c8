// Command kinezumiko runs the chat bot: a go-cqhttp event sink on one side,
// the go-cqhttp HTTP API on the other, and an ordered plugin pipeline in
// between.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/satgo1546/pykinezumiko/internal/bot"
	"github.com/satgo1546/pykinezumiko/internal/config"
	"github.com/satgo1546/pykinezumiko/internal/docstore"
	"github.com/satgo1546/pykinezumiko/internal/onebot"
	"github.com/satgo1546/pykinezumiko/internal/plugins/clock"
	"github.com/satgo1546/pykinezumiko/internal/plugins/console"
	"github.com/satgo1546/pykinezumiko/internal/plugins/demo"
	"github.com/satgo1546/pykinezumiko/internal/plugins/gate"
	"github.com/satgo1546/pykinezumiko/internal/plugins/help"
	"github.com/satgo1546/pykinezumiko/internal/plugins/namecache"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(".")
	if err != nil {
		logger.Fatal("configuration failed", zap.Error(err))
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Fatal("data directory unavailable", zap.Error(err))
	}

	// --- Gateway Client ---
	client := onebot.NewClient(cfg.GatewayURL, cfg.HTTPTimeout, logger)
	names := onebot.NewNames(client)

	// --- Plugins (ordered, first handler wins) ---
	clockPlugin, err := clock.New(client, cfg.DataDir, logger)
	if err != nil {
		logger.Fatal("clock plugin failed", zap.Error(err))
	}
	ordered := []bot.Plugin{
		namecache.New(names),
		console.New(logger),
		gate.New(gate.ApproveAll),
		clockPlugin,
		demo.New(client),
	}
	ordered = append(ordered, help.New(help.Index("下面列出可用的命令。", ordered...)))

	// --- Workbook Databases ---
	var databases []*docstore.Database
	for _, p := range ordered {
		if dp, ok := p.(bot.DatabaseProvider); ok {
			databases = append(databases, dp.Databases()...)
		}
	}

	dispatchers := make([]*bot.Dispatcher, len(ordered))
	for i, p := range ordered {
		dispatchers[i] = bot.NewDispatcher(p, bot.NewFlows(cfg.FlowRetention), client, logger)
	}

	// --- Ingestion Server ---
	host := bot.NewHost(cfg, client, dispatchers, databases, logger)
	go func() {
		if err := host.Start(); err != nil {
			logger.Fatal("HTTP server failure", zap.Error(err))
		}
	}()
	logger.Info("pykinezumiko started",
		zap.String("listen", cfg.Listen),
		zap.String("gateway", cfg.GatewayURL),
		zap.Int("plugins", len(ordered)),
	)

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := host.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	logger.Info("shut down cleanly")
}
