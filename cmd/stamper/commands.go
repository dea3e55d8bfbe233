package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/tdewolff/argp"
	"go.uber.org/zap"

	"contract961/signing-backend/internal/stamping"
	"contract961/signing-backend/pkg/security"
)

type Stamp struct {
	Config    string `short:"c" default:"config.json" desc:"Config file"`
	Input     string `short:"i" desc:"Original PDF, local path or s3://bucket/key"`
	DisplayID string `name:"display-id" desc:"Request display ID, e.g. REQ-2026-001"`
	Token     string `desc:"Verification token, generated when empty"`
	Name      string `desc:"Signer name"`
	Contact   string `desc:"Signer phone number"`
	Org       string `desc:"Sender organization"`
	SignedAt  string `name:"signed-at" desc:"Signing time in RFC 3339, defaults to now"`
}

func (cmd *Stamp) Run() error {
	if cmd.Input == "" || cmd.DisplayID == "" {
		return argp.ShowUsage
	}
	ctx := context.Background()

	a, err := newApp(ctx, cmd.Config)
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	signedAt := time.Now()
	if cmd.SignedAt != "" {
		if signedAt, err = time.Parse(time.RFC3339, cmd.SignedAt); err != nil {
			return fmt.Errorf("signed-at: %w", err)
		}
	}
	token := cmd.Token
	if token == "" {
		token = security.NewVerificationToken()
	}

	engine, err := a.engine()
	if err != nil {
		return err
	}
	res, err := engine.Stamp(ctx, stamping.Request{
		OriginalRef:       cmd.Input,
		DisplayID:         cmd.DisplayID,
		VerificationToken: token,
		SignerName:        cmd.Name,
		SignerContact:     cmd.Contact,
		SignedAt:          signedAt,
		OrganizationName:  cmd.Org,
	})
	if err != nil {
		a.logger.Error("Stamping failed", zap.Error(err))
		return err
	}
	return printJSON(struct {
		*stamping.SignedResult
		VerificationToken string `json:"verification_token"`
	}{res, token})
}

type Verify struct {
	Config string `short:"c" default:"config.json" desc:"Config file"`
	Ref    string `index:"0" desc:"Storage reference"`
	Hash   string `index:"1" desc:"Expected SHA-256 hash"`
}

func (cmd *Verify) Run() error {
	if cmd.Ref == "" || cmd.Hash == "" {
		return argp.ShowUsage
	}
	ctx := context.Background()

	a, err := newApp(ctx, cmd.Config)
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	rc, err := a.storage.Open(ctx, cmd.Ref)
	if err != nil {
		return err
	}
	defer rc.Close()

	info, err := security.NewValidator().ValidateHash(ctx, rc, cmd.Hash)
	if err != nil {
		return err
	}
	if err := printJSON(info); err != nil {
		return err
	}
	if !info.IsValid {
		return fmt.Errorf("hash mismatch for %s", cmd.Ref)
	}
	return nil
}

type Complete struct {
	Config    string `short:"c" default:"config.json" desc:"Config file"`
	RequestID string `index:"0" desc:"Signing request UUID"`
}

func (cmd *Complete) Run() error {
	id, err := uuid.Parse(cmd.RequestID)
	if err != nil {
		return argp.ShowUsage
	}
	ctx := context.Background()

	a, err := newApp(ctx, cmd.Config)
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	db, err := a.connect()
	if err != nil {
		return err
	}
	defer db.Close()

	service, err := a.documents(db)
	if err != nil {
		return err
	}
	outcome, err := service.CompleteSigning(ctx, id, time.Now())
	if err != nil {
		return err
	}
	return printJSON(outcome)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
