// Command audit-consumer drains the audit queue into the rotating user
// actions log.  Run it when the API uses AUDIT_SINK=broker.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/interatlas/management-system/internal/audit"
	"github.com/interatlas/management-system/internal/config"
	"github.com/interatlas/management-system/internal/logger"
	"github.com/interatlas/management-system/internal/queue"
)

func main() {
	_ = godotenv.Load()

	logCfg := config.LoadLogConfig()
	zl, err := logger.New(logCfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	sugar := zl.Sugar()

	w, err := logger.RotatingFile(logCfg.Dir, "user_actions")
	if err != nil {
		sugar.Fatalw("open user actions log", "err", err)
	}
	sink := audit.NewFileSink(logger.LineLogger(w))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	url := config.AMQPURL()
	sugar.Infow("audit-consumer: started")
	if err := queue.Consume(ctx, url, sink.Write, sugar); err != nil && !errors.Is(err, context.Canceled) {
		sugar.Fatalw("audit-consumer", "err", err)
	}
	sugar.Infow("audit-consumer: stopped")
}
