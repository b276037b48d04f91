// Command gmailtoken runs the one-time OAuth consent flow and writes the token file the API uses to
// send mail through Gmail.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/justsurfingit/connect-jobs/internal/auth"
	"github.com/justsurfingit/connect-jobs/internal/config"
	"github.com/justsurfingit/connect-jobs/internal/logging"
)

func main() {
	cfg, err := config.Load()
	logger := logging.New("info", false)
	if err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	credentials := flag.String("credentials", cfg.GmailCredentialsFile, "OAuth client secret file")
	token := flag.String("token", cfg.GmailTokenFile, "where to write the token")
	flag.Parse()

	oauthConfig, err := auth.GmailConfig(*credentials)
	if err != nil {
		logger.WithError(err).Fatal("unable to read client secret")
	}
	if err := auth.Authorize(context.Background(), oauthConfig, *token, os.Stdin, os.Stdout); err != nil {
		logger.WithError(err).Fatal("authorization failed")
	}
	logger.WithField("token_file", *token).Info("Gmail token saved")
}
