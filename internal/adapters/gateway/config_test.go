package gateway

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"judokit/internal/config"
)

func TestNewSessionFromConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := NewSessionFromConfig(config.GatewayConfig{
		Sandboxed:  true,
		Token:      "tok",
		Secret:     "sec",
		SandboxURL: "http://localhost:9000",
	}, logger)

	assert.True(t, s.Sandboxed())
	assert.True(t, s.HasCredentials())
	assert.Equal(t, "http://localhost:9000/", s.Endpoint())
}

func TestNewSessionFromConfig_NoCredentials(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := NewSessionFromConfig(config.GatewayConfig{Token: "tok"}, logger)

	assert.False(t, s.HasCredentials())
	assert.Equal(t, LiveEndpoint, s.Endpoint())
}
