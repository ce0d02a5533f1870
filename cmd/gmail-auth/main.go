// Command gmail-auth runs the one-time OAuth consent flow and stores the
// token the API uses to send notification emails.
package main

import (
	"context"
	"os"

	"github.com/justsurfingit/job-board/internal/auth"
	"github.com/justsurfingit/job-board/internal/config"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("loading config", zap.Error(err))
	}
	if cfg.GmailCredentialsFile == "" {
		logger.Fatal("GMAIL_CREDENTIALS_FILE is not set")
	}

	oauthCfg, err := auth.GmailConfig(cfg.GmailCredentialsFile)
	if err != nil {
		logger.Fatal("reading credentials", zap.Error(err))
	}
	tok, err := auth.TokenFromWeb(context.Background(), oauthCfg, os.Stdin, os.Stdout)
	if err != nil {
		logger.Fatal("authorizing", zap.Error(err))
	}
	if err := auth.SaveToken(cfg.GmailTokenFile, tok); err != nil {
		logger.Fatal("saving token", zap.Error(err))
	}
	logger.Info("token saved", zap.String("path", cfg.GmailTokenFile))
}
