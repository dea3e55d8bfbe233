package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"contract961/signing-backend/internal/config"
	"contract961/signing-backend/internal/documents"
	"contract961/signing-backend/internal/stamping"
	"contract961/signing-backend/pkg/qr"
	"contract961/signing-backend/pkg/security"
	"contract961/signing-backend/pkg/storage"
	"contract961/signing-backend/pkg/workflows"
)

// app holds the wired dependencies shared by the commands.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	storage *storage.Provider
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	var s3 storage.S3Client
	if cfg.Storage.ObjectStorageEnabled() {
		s3, err = storage.LoadS3Client(ctx, storage.S3Options{
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Endpoint:        cfg.Storage.Endpoint,
		})
		if err != nil {
			return nil, err
		}
	}
	provider := storage.NewProvider(storage.NewLocalClient(), s3, storage.Policy{
		UploadDir:     cfg.App.UploadDir,
		Bucket:        cfg.Storage.Bucket,
		ObjectStorage: cfg.Storage.ObjectStorageEnabled(),
	}, logger)

	return &app{cfg: cfg, logger: logger, storage: provider}, nil
}

func (a *app) engine() (*stamping.Engine, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, err
	}
	var fonts fs.FS
	if a.cfg.Stamp.FontsDir != "" {
		fonts = os.DirFS(a.cfg.Stamp.FontsDir)
	}
	opts := stamping.Options{
		PublicURL: a.cfg.App.PublicURL,
		Issuer: stamping.Issuer{
			Name:     a.cfg.Issuer.Name,
			BIN:      a.cfg.Issuer.BIN,
			Phone:    a.cfg.Issuer.Phone,
			Platform: a.cfg.Issuer.Platform,
		},
		Labels:      stamping.DefaultLabels(),
		Layout:      stamping.DefaultLayout(),
		Location:    loc,
		Fonts:       fonts,
		RegularFont: a.cfg.Stamp.RegularFont,
		BoldFont:    a.cfg.Stamp.BoldFont,
	}
	return stamping.NewEngine(a.storage, qr.NewGenerator(), opts, a.logger), nil
}

func (a *app) documents(db *sqlx.DB) (documents.Service, error) {
	engine, err := a.engine()
	if err != nil {
		return nil, err
	}
	return documents.NewService(
		documents.NewRepository(db),
		a.storage,
		documents.NewStampService(engine),
		documents.NewSignatureService(security.NewValidator()),
		documents.NewWorkflowService(workflows.NewStateMachine()),
		documents.ServiceOptions{RequireVisualStamp: a.cfg.Signing.RequireVisualStamp},
		a.logger,
	), nil
}

func (a *app) connect() (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", a.cfg.Database.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	db.SetMaxOpenConns(a.cfg.Database.MaxConnections)
	db.SetMaxIdleConns(a.cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(a.cfg.Database.MaxLifetime)
	return db, nil
}
