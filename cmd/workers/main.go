package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/tdewolff/argp"
	"go.uber.org/zap"

	"contract961/signing-backend/internal/config"
	"contract961/signing-backend/internal/documents"
	"contract961/signing-backend/pkg/workflows"
)

func main() {
	root := argp.New("Background workers for Contract 961")
	root.AddCmd(&Expiry{}, "expiry", "Expire signing requests past their deadline")
	root.Parse()
	root.PrintHelp()
}

type Expiry struct {
	Config string `short:"c" default:"config.json" desc:"Config file"`
}

func (cmd *Expiry) Run() error {
	cfg, err := config.LoadConfig(cmd.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync()

	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxConnections)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	logger.Info("Connected to database")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	expiry := documents.NewExpiryService(
		documents.NewRepository(db),
		documents.NewWorkflowService(workflows.NewStateMachine()),
		logger,
	)
	worker, err := NewExpiryWorker(ctx, expiry, cfg.Expiry.Schedule, logger)
	if err != nil {
		return err
	}

	worker.Run(ctx)
	logger.Info("Expiry worker stopped")
	return nil
}
