package gateway

import (
	"log/slog"

	"judokit/internal/config"
)

// NewSessionFromConfig builds a session and applies the configured
// environment, credentials and client mode.
func NewSessionFromConfig(cfg config.GatewayConfig, logger *slog.Logger) *Session {
	opts := []Option{
		WithTimeout(cfg.Timeout),
		WithAPIVersion(cfg.APIVersion),
		WithLogger(logger),
	}
	if cfg.LiveURL != "" || cfg.SandboxURL != "" {
		live, sandbox := cfg.LiveURL, cfg.SandboxURL
		if live == "" {
			live = LiveEndpoint
		}
		if sandbox == "" {
			sandbox = SandboxEndpoint
		}
		opts = append(opts, WithEndpoints(live, sandbox))
	}

	s := NewSession(opts...)
	s.SetSandboxed(cfg.Sandboxed)
	if cfg.Token != "" && cfg.Secret != "" {
		s.SetCredentials(cfg.Token, cfg.Secret)
	}
	if cfg.UIClientMode != "" {
		s.SetUIClientMode(UIClientMode(cfg.UIClientMode))
	}
	return s
}
