package logging_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/mailbox-mcp/internal/logging"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
		want    string
	}{
		{name: "text", level: "info", format: "text", want: "msg=hello"},
		{name: "json", level: "debug", format: "json", want: `"msg":"hello"`},
		{name: "default format", level: "warn", format: "", want: ""},
		{name: "bad level", level: "loud", format: "text", wantErr: true},
		{name: "bad format", level: "info", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := logging.New(&buf, tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			logger.Info("hello")
			if tt.want == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestErr(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "info", "text")
	require.NoError(t, err)

	logger.Info("nil", logging.Err(nil))
	assert.NotContains(t, buf.String(), "error=")

	logger.Info("set", logging.Err(errors.New("boom")))
	assert.Contains(t, buf.String(), "error=boom")
}

func TestAnonymizeEmail(t *testing.T) {
	assert.Empty(t, logging.AnonymizeEmail(""))

	a := logging.AnonymizeEmail("User@Example.com")
	assert.True(t, strings.HasPrefix(a, "user:"))
	assert.Equal(t, a, logging.AnonymizeEmail("user@example.com"))
	assert.NotContains(t, a, "example")
}

func TestSanitizeSecret(t *testing.T) {
	assert.Equal(t, "<empty>", logging.SanitizeSecret(""))
	assert.Equal(t, "[secret:6 chars]", logging.SanitizeSecret("hunter"))
}
