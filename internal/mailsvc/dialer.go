package mailsvc

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"golang.org/x/oauth2"

	"github.com/hal9000y/mailbox-mcp/internal/logging"
)

const (
	SecurityTLS      = "tls"
	SecurityStartTLS = "starttls"
	SecurityNone     = "none"
)

const DefaultTimeout = 30 * time.Second

type Endpoint struct {
	Host     string
	Port     int
	Security string
}

func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Credentials authenticate both connection kinds. When TokenSource is set
// OAUTHBEARER is used instead of the password.
type Credentials struct {
	Username    string
	Password    string
	TokenSource oauth2.TokenSource
}

// NetDialer opens real store and submission connections.
type NetDialer struct {
	Store      Endpoint
	Submission Endpoint
	Creds      Credentials
	Timeout    time.Duration
	TLSConfig  *tls.Config
	Logger     *slog.Logger
}

func (d *NetDialer) DialStore(ctx context.Context) (Store, error) {
	conn, err := d.dial(ctx, d.Store)
	if err != nil {
		return nil, err
	}

	timeout := d.timeout()
	_ = conn.SetDeadline(deadline(ctx, timeout))

	var client *imapclient.Client
	switch d.Store.Security {
	case SecurityStartTLS:
		client, err = imapclient.NewStartTLS(conn, &imapclient.Options{TLSConfig: d.tlsConfig(d.Store.Host)})
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("imapclient.NewStartTLS failed: %w", err)
		}
	default:
		client = imapclient.New(conn, nil)
	}

	if err := d.authenticateStore(client); err != nil {
		_ = client.Close()
		return nil, err
	}

	d.logger().Debug("store authenticated", logging.UserHash(d.Creds.Username))
	return &imapStore{conn: conn, client: client, timeout: timeout}, nil
}

func (d *NetDialer) authenticateStore(client *imapclient.Client) error {
	if d.Creds.TokenSource != nil {
		saslClient, err := d.oauthClient(d.Store)
		if err != nil {
			return err
		}
		if err := client.Authenticate(saslClient); err != nil {
			return fmt.Errorf("imap authenticate failed: %w", err)
		}
		return nil
	}

	if err := client.Login(d.Creds.Username, d.Creds.Password).Wait(); err != nil {
		return fmt.Errorf("imap login failed: %w", err)
	}
	return nil
}

func (d *NetDialer) DialSubmission(ctx context.Context) (Submitter, error) {
	conn, err := d.dial(ctx, d.Submission)
	if err != nil {
		return nil, err
	}

	timeout := d.timeout()

	var client *smtp.Client
	switch d.Submission.Security {
	case SecurityStartTLS:
		client, err = smtp.NewClientStartTLS(conn, d.tlsConfig(d.Submission.Host))
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("smtp.NewClientStartTLS failed: %w", err)
		}
	default:
		client = smtp.NewClient(conn)
	}
	client.CommandTimeout = timeout
	client.SubmissionTimeout = timeout

	saslClient, err := d.submissionAuth()
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := client.Auth(saslClient); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("smtp auth failed: %w", err)
	}

	d.logger().Debug("submission authenticated", logging.UserHash(d.Creds.Username))
	return &smtpSubmitter{client: client}, nil
}

func (d *NetDialer) submissionAuth() (sasl.Client, error) {
	if d.Creds.TokenSource != nil {
		return d.oauthClient(d.Submission)
	}
	return sasl.NewPlainClient("", d.Creds.Username, d.Creds.Password), nil
}

func (d *NetDialer) oauthClient(ep Endpoint) (sasl.Client, error) {
	tok, err := d.Creds.TokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("TokenSource.Token failed: %w", err)
	}
	return sasl.NewOAuthBearerClient(&sasl.OAuthBearerOptions{
		Username: d.Creds.Username,
		Token:    tok.AccessToken,
		Host:     ep.Host,
		Port:     ep.Port,
	}), nil
}

func (d *NetDialer) dial(ctx context.Context, ep Endpoint) (net.Conn, error) {
	nd := &net.Dialer{Timeout: d.timeout()}

	var (
		conn net.Conn
		err  error
	)
	switch ep.Security {
	case SecurityTLS:
		td := &tls.Dialer{NetDialer: nd, Config: d.tlsConfig(ep.Host)}
		conn, err = td.DialContext(ctx, "tcp", ep.Addr())
	case SecurityStartTLS, SecurityNone:
		conn, err = nd.DialContext(ctx, "tcp", ep.Addr())
	default:
		return nil, fmt.Errorf("unknown connection security %q", ep.Security)
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s failed: %w", ep.Addr(), err)
	}
	return conn, nil
}

func (d *NetDialer) tlsConfig(host string) *tls.Config {
	if d.TLSConfig != nil {
		cfg := d.TLSConfig.Clone()
		if cfg.ServerName == "" {
			cfg.ServerName = host
		}
		return cfg
	}
	return &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
}

func (d *NetDialer) timeout() time.Duration {
	if d.Timeout <= 0 {
		return DefaultTimeout
	}
	return d.Timeout
}

func (d *NetDialer) logger() *slog.Logger {
	if d.Logger == nil {
		return logging.Discard()
	}
	return d.Logger
}

func deadline(ctx context.Context, timeout time.Duration) time.Time {
	dl := time.Now().Add(timeout)
	if ctxDl, ok := ctx.Deadline(); ok && ctxDl.Before(dl) {
		return ctxDl
	}
	return dl
}
