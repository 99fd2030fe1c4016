// Package config loads server settings from a YAML file, an optional env file
// and MAILBOX_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/hal9000y/mailbox-mcp/internal/mailsvc"
	"github.com/hal9000y/mailbox-mcp/internal/message"
)

const EnvPrefix = "MAILBOX"

const (
	AuthPassword = "password"
	AuthOAuth2   = "oauth2"
)

// AccountConfig identifies the mailbox owner.
type AccountConfig struct {
	Username   string `mapstructure:"username" yaml:"username"`
	Password   string `mapstructure:"password" yaml:"password"`
	From       string `mapstructure:"from" yaml:"from"`
	AuthMethod string `mapstructure:"auth_method" yaml:"auth_method"`
}

type IMAPConfig struct {
	Host            string `mapstructure:"host" yaml:"host"`
	Port            int    `mapstructure:"port" yaml:"port"`
	Security        string `mapstructure:"security" yaml:"security"`
	FolderSeparator string `mapstructure:"folder_separator" yaml:"folder_separator"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Security string `mapstructure:"security" yaml:"security"`
}

// OAuthConfig is only read when AuthMethod is oauth2.
type OAuthConfig struct {
	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url" yaml:"redirect_url"`
	TokenFile    string `mapstructure:"token_file" yaml:"token_file"`
	// AuthURL and TokenURL replace the Google endpoints when set.
	AuthURL  string `mapstructure:"auth_url" yaml:"auth_url"`
	TokenURL string `mapstructure:"token_url" yaml:"token_url"`
}

type HTTPConfig struct {
	Addr    string `mapstructure:"addr" yaml:"addr"`
	Metrics bool   `mapstructure:"metrics" yaml:"metrics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// Config is the top-level server configuration.
type Config struct {
	Account            AccountConfig `mapstructure:"account" yaml:"account"`
	IMAP               IMAPConfig    `mapstructure:"imap" yaml:"imap"`
	SMTP               SMTPConfig    `mapstructure:"smtp" yaml:"smtp"`
	OAuth              OAuthConfig   `mapstructure:"oauth" yaml:"oauth"`
	HTTP               HTTPConfig    `mapstructure:"http" yaml:"http"`
	Log                LogConfig     `mapstructure:"log" yaml:"log"`
	Timeout            time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxAttachmentBytes int64         `mapstructure:"max_attachment_bytes" yaml:"max_attachment_bytes"`
}

var defaults = map[string]any{
	"account.username":      "",
	"account.password":      "",
	"account.from":          "",
	"account.auth_method":   AuthPassword,
	"imap.host":             "imap.mail.me.com",
	"imap.port":             993,
	"imap.security":         mailsvc.SecurityTLS,
	"imap.folder_separator": mailsvc.DefaultSeparator,
	"smtp.host":             "smtp.mail.me.com",
	"smtp.port":             587,
	"smtp.security":         mailsvc.SecurityStartTLS,
	"oauth.client_id":       "",
	"oauth.client_secret":   "",
	"oauth.redirect_url":    "",
	"oauth.token_file":      "./data/mailbox-mcp-token.json",
	"oauth.auth_url":        "",
	"oauth.token_url":       "",
	"http.addr":             "localhost:8080",
	"http.metrics":          false,
	"log.level":             "info",
	"log.format":            "text",
	"log.file":              "",
	"timeout":               mailsvc.DefaultTimeout,
	"max_attachment_bytes":  int64(message.MaxAttachmentSize),
}

// legacyEnv maps keys to extra variable names accepted besides MAILBOX_*.
var legacyEnv = map[string][]string{
	"account.username":    {"ICLOUD_USERNAME"},
	"account.password":    {"ICLOUD_APP_PASSWORD"},
	"oauth.client_id":     {"OAUTH_GOOGLE_CLIENT_ID"},
	"oauth.client_secret": {"OAUTH_GOOGLE_CLIENT_SECRET"},
}

// Load reads path (optional) and envFile (optional) and applies environment
// overrides. A missing config file is not an error.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("godotenv.Load failed: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	for key, names := range legacyEnv {
		env := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, env}, names...)...); err != nil {
			return nil, fmt.Errorf("v.BindEnv %s failed: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Account.AuthMethod = strings.ToLower(strings.TrimSpace(cfg.Account.AuthMethod))
	cfg.IMAP.Security = strings.ToLower(strings.TrimSpace(cfg.IMAP.Security))
	cfg.SMTP.Security = strings.ToLower(strings.TrimSpace(cfg.SMTP.Security))

	return cfg, nil
}

type passwordStore interface {
	Password(username string) (string, error)
}

// ResolvePassword fills an empty password from store. It is a no-op for
// oauth2 accounts and when a password is already configured.
func (c *Config) ResolvePassword(store passwordStore) error {
	if c.Account.AuthMethod != AuthPassword || c.Account.Password != "" || c.Account.Username == "" {
		return nil
	}
	pw, err := store.Password(c.Account.Username)
	if err != nil {
		return fmt.Errorf("store.Password failed: %w", err)
	}
	c.Account.Password = pw
	return nil
}

// Validate reports every missing or invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Account.Username == "" {
		errs = append(errs, errors.New("account.username is required"))
	}
	switch c.Account.AuthMethod {
	case AuthPassword:
		if c.Account.Password == "" {
			errs = append(errs, errors.New("account.password is required (config, MAILBOX_ACCOUNT_PASSWORD or keyring)"))
		}
	case AuthOAuth2:
		if c.OAuth.ClientID == "" || c.OAuth.ClientSecret == "" {
			errs = append(errs, errors.New("oauth.client_id and oauth.client_secret are required for oauth2"))
		}
	default:
		errs = append(errs, fmt.Errorf("account.auth_method %q is not one of %s, %s", c.Account.AuthMethod, AuthPassword, AuthOAuth2))
	}

	errs = append(errs, validateEndpoint("imap", c.IMAP.Host, c.IMAP.Port, c.IMAP.Security)...)
	errs = append(errs, validateEndpoint("smtp", c.SMTP.Host, c.SMTP.Port, c.SMTP.Security)...)

	if c.IMAP.FolderSeparator == "" {
		errs = append(errs, errors.New("imap.folder_separator must not be empty"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	if c.MaxAttachmentBytes <= 0 {
		errs = append(errs, errors.New("max_attachment_bytes must be positive"))
	}

	return errors.Join(errs...)
}

func validateEndpoint(name, host string, port int, security string) []error {
	var errs []error
	if host == "" {
		errs = append(errs, fmt.Errorf("%s.host is required", name))
	}
	if port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("%s.port %d is out of range", name, port))
	}
	switch security {
	case mailsvc.SecurityTLS, mailsvc.SecurityStartTLS, mailsvc.SecurityNone:
	default:
		errs = append(errs, fmt.Errorf("%s.security %q is not one of tls, starttls, none", name, security))
	}
	return errs
}

func (c *Config) StoreEndpoint() mailsvc.Endpoint {
	return mailsvc.Endpoint{Host: c.IMAP.Host, Port: c.IMAP.Port, Security: c.IMAP.Security}
}

func (c *Config) SubmissionEndpoint() mailsvc.Endpoint {
	return mailsvc.Endpoint{Host: c.SMTP.Host, Port: c.SMTP.Port, Security: c.SMTP.Security}
}

// From returns the sender identity, defaulting to the username.
func (c *Config) From() string {
	if c.Account.From != "" {
		return c.Account.From
	}
	return c.Account.Username
}
