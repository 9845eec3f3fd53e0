package httpserver

import (
	"net/http"
	"time"

	"studbook/internal/platform/config"
)

// Defaults applied when a timeout is left zero, so a partially filled config
// never produces a server without slow-client protection.
const (
	defaultReadHeaderTimeout = 5 * time.Second
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 60 * time.Second
)

// New builds the HTTP server from the configured connection limits.
func New(addr string, cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: timeoutOr(cfg.ReadHeaderTimeout, defaultReadHeaderTimeout),
		ReadTimeout:       timeoutOr(cfg.ReadTimeout, defaultReadTimeout),
		WriteTimeout:      timeoutOr(cfg.WriteTimeout, defaultWriteTimeout),
		IdleTimeout:       timeoutOr(cfg.IdleTimeout, defaultIdleTimeout),
	}
}

func timeoutOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
