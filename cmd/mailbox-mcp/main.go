// Mailbox MCP server provides IMAP/SMTP mailbox access through Model Context Protocol.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const appName = "mailbox-mcp"

// version is set at build time.
var version = "dev"

type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   appName,
		Short: "Expose an IMAP/SMTP mailbox as MCP tools",
		Long: `mailbox-mcp connects to a mailbox over IMAP and SMTP and serves
folder listing, reading, flagging, moving and sending as MCP tools.

Settings come from a YAML config file, an optional env file and
MAILBOX_* environment variables (e.g. MAILBOX_ACCOUNT_USERNAME).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{printf "mailbox-mcp version %s\n" .Version}}`)

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to YAML config file")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Path to env file")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newCheckCmd(opts))
	root.AddCommand(newCredentialCmd(opts))
	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
