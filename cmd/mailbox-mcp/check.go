package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/hal9000y/mailbox-mcp/internal/auth"
	"github.com/hal9000y/mailbox-mcp/internal/config"
	"github.com/hal9000y/mailbox-mcp/internal/logging"
	"github.com/hal9000y/mailbox-mcp/internal/mailbox"
)

func newCheckCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and log in to the mailbox",
		Long: `Loads the configuration, logs the effective settings to stderr with
secrets masked, and logs in to the store and submission servers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}

			logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			logConfig(logger, cfg)

			var ts oauth2.TokenSource
			if cfg.Account.AuthMethod == config.AuthOAuth2 {
				tok, _, err := setupOAuth(cfg, cfg.HTTP.Addr, logger)
				if err != nil {
					return err
				}
				if _, err := tok.OAuthToken(); errors.Is(err, auth.ErrTokenNotSet) {
					return errors.New("no oauth token stored yet, run serve and authorize first")
				}
				defer func() {
					if err := tok.Persist(); err != nil {
						logger.Error("tok.Persist failed", logging.Err(err))
					}
				}()
				ts = tok
			}

			res := newService(cfg, logger, nil, ts).TestConnection(cmd.Context())
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return fmt.Errorf("enc.Encode failed: %w", err)
			}
			if res.Status != mailbox.StatusSuccess {
				return fmt.Errorf("connection check failed: %s", res.Message)
			}
			return nil
		},
	}
}
