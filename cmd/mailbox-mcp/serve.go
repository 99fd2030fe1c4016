package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/hal9000y/mailbox-mcp/internal/auth"
	"github.com/hal9000y/mailbox-mcp/internal/config"
	"github.com/hal9000y/mailbox-mcp/internal/logging"
	"github.com/hal9000y/mailbox-mcp/internal/metrics"
	"github.com/hal9000y/mailbox-mcp/internal/tool"
)

type serveOptions struct {
	*rootOptions
	httpAddr  string
	stdio     bool
	logFile   string
	logLevel  string
	logFormat string
	metrics   bool
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over HTTP and optionally stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", "", "HTTP server listen addr (overrides http.addr)")
	cmd.Flags().BoolVar(&opts.stdio, "stdio", false, "Enable stdio transport for MCP (disables stdout logging)")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "Path to log file (overrides log.file)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "", "Log format: text or json")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Expose Prometheus metrics on /metrics")

	return cmd
}

func (o *serveOptions) apply(cfg *config.Config) {
	if o.httpAddr != "" {
		cfg.HTTP.Addr = o.httpAddr
	}
	if o.logFile != "" {
		cfg.Log.File = o.logFile
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if o.metrics {
		cfg.HTTP.Metrics = true
	}
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	cfg, err := loadConfig(opts.rootOptions)
	if err != nil {
		return err
	}
	opts.apply(cfg)

	logger, closeLog, err := setupLogger(cfg.Log, opts.stdio, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeLog()
	logConfig(logger, cfg)

	ln, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("net.Listen failed: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.New(reg)

	var (
		ts          oauth2.TokenSource
		oauthHandle http.Handler
	)
	if cfg.Account.AuthMethod == config.AuthOAuth2 {
		tok, redirectURL, err := setupOAuth(cfg, ln.Addr().String(), logger)
		if err != nil {
			_ = ln.Close()
			return err
		}
		defer func() {
			logger.Info("persisting token if exists")
			if err := tok.Persist(); err != nil {
				logger.Error("tok.Persist failed", logging.Err(err))
			}
		}()

		ts = tok
		oauthHandle = auth.NewHTTPHandler(tok, logger)
		if _, err := tok.OAuthToken(); errors.Is(err, auth.ErrTokenNotSet) {
			openBrowser(redirectURL, logger)
		}
	}

	svc := newService(cfg, logger, rec, ts)
	server := tool.NewServer(svc, appName, version)

	var metricsHandle http.Handler
	if cfg.HTTP.Metrics {
		metricsHandle = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}
	srv := &http.Server{
		Handler:           newMux(server, oauthHandle, metricsHandle),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(shutdown)

	stopHTTP, errHTTPCh := serveHTTP(srv, ln, logger)
	defer stopHTTP()

	var errStdioCh <-chan error
	if opts.stdio {
		var stopStdio func()
		stopStdio, errStdioCh = serveStdio(server, logger)
		defer stopStdio()
	}

	select {
	case err := <-errHTTPCh:
		logger.Error("http server stopped", logging.Err(err))
		return err
	case err := <-errStdioCh:
		if err != nil {
			logger.Error("stdio transport stopped", logging.Err(err))
		}
		return err
	case <-shutdown:
		logger.Info("shutdown signal received")
	}
	return nil
}

func setupOAuth(cfg *config.Config, lnAddr string, logger *slog.Logger) (*auth.Token, string, error) {
	redirectURL := cfg.OAuth.RedirectURL
	if redirectURL == "" {
		redirectURL = fmt.Sprintf("http://%s/oauth", lnAddr)
	}

	oauthCfg := auth.NewGoogleConfig(cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, redirectURL)
	if cfg.OAuth.AuthURL != "" {
		oauthCfg.Endpoint.AuthURL = cfg.OAuth.AuthURL
	}
	if cfg.OAuth.TokenURL != "" {
		oauthCfg.Endpoint.TokenURL = cfg.OAuth.TokenURL
	}
	tok, err := auth.NewToken(oauthCfg, cfg.OAuth.TokenFile, logger)
	if err != nil {
		return nil, "", fmt.Errorf("auth.NewToken failed: %w", err)
	}
	return tok, redirectURL, nil
}

// newMux routes /mcp, /healthz and the optional /oauth and /metrics handlers.
func newMux(server *mcp.Server, oauthHandle, metricsHandle http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server { return server }, nil))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"server":  appName,
			"version": version,
		})
	})
	if oauthHandle != nil {
		mux.Handle("/oauth", oauthHandle)
	}
	if metricsHandle != nil {
		mux.Handle("/metrics", metricsHandle)
	}
	return mux
}

func serveStdio(srv *mcp.Server, logger *slog.Logger) (func(), <-chan error) {
	errStdioCh := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(errStdioCh)
		logger.Info("starting stdio transport")

		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			errStdioCh <- fmt.Errorf("srv.Run failed: %w", err)
		}
	}()

	return func() {
		cancel()

		<-errStdioCh
		logger.Info("stdio transport stopped")
	}, errStdioCh
}

func serveHTTP(srv *http.Server, ln net.Listener, logger *slog.Logger) (func(), <-chan error) {
	errHTTPCh := make(chan error, 1)
	go func() {
		defer close(errHTTPCh)

		logger.Info("starting http server", slog.String("addr", ln.Addr().String()))

		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errHTTPCh <- fmt.Errorf("srv.Serve failed: %w", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("srv.Shutdown failed", logging.Err(err))
		}

		<-errHTTPCh
		logger.Info("http server stopped")
	}, errHTTPCh
}

func openBrowser(url string, logger *slog.Logger) {
	url = fmt.Sprintf("%s?redirect=1", url)
	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform")
	}

	if err != nil {
		logger.Warn("could not open browser automatically, open the link manually",
			slog.String("url", url), logging.Err(err))
	}
}
