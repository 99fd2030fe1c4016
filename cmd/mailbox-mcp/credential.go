package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hal9000y/mailbox-mcp/internal/config"
)

func newCredentialCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage the account password stored in the system keyring",
	}
	cmd.AddCommand(newCredentialSetCmd(root))
	cmd.AddCommand(newCredentialDeleteCmd(root))
	return cmd
}

func newCredentialSetCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set [username]",
		Short: "Store the account password read from stdin",
		Long: `Reads the password from the first line of stdin and stores it in the
system keyring. The username defaults to account.username from the config.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, err := credentialUser(root, args)
			if err != nil {
				return err
			}

			password, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}

			store, err := openKeyring()
			if err != nil {
				return err
			}
			if err := store.SetPassword(username, password); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stored password for %s\n", username)
			return nil
		},
	}
}

func newCredentialDeleteCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [username]",
		Short: "Remove the stored account password",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, err := credentialUser(root, args)
			if err != nil {
				return err
			}

			store, err := openKeyring()
			if err != nil {
				return err
			}
			if err := store.Delete(username); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted password for %s\n", username)
			return nil
		},
	}
}

func credentialUser(root *rootOptions, args []string) (string, error) {
	if len(args) == 1 && args[0] != "" {
		return args[0], nil
	}

	cfg, err := config.Load(root.configPath, root.envFile)
	if err != nil {
		return "", fmt.Errorf("config.Load failed: %w", err)
	}
	if cfg.Account.Username == "" {
		return "", errors.New("username argument or account.username is required")
	}
	return cfg.Account.Username, nil
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password failed: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("empty password on stdin")
	}
	return password, nil
}
