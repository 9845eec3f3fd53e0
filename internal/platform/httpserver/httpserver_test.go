package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"studbook/internal/platform/config"
)

func TestNewAppliesConfiguredTimeouts(t *testing.T) {
	srv := New(":9090", config.HTTPConfig{
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       4 * time.Second,
		WriteTimeout:      8 * time.Second,
		IdleTimeout:       16 * time.Second,
	}, http.NotFoundHandler())

	assert.Equal(t, ":9090", srv.Addr)
	assert.Equal(t, 2*time.Second, srv.ReadHeaderTimeout)
	assert.Equal(t, 4*time.Second, srv.ReadTimeout)
	assert.Equal(t, 8*time.Second, srv.WriteTimeout)
	assert.Equal(t, 16*time.Second, srv.IdleTimeout)
}

func TestNewFallsBackOnZeroTimeouts(t *testing.T) {
	srv := New(":9090", config.HTTPConfig{}, http.NotFoundHandler())

	assert.Equal(t, defaultReadHeaderTimeout, srv.ReadHeaderTimeout)
	assert.Equal(t, defaultReadTimeout, srv.ReadTimeout)
	assert.Equal(t, defaultWriteTimeout, srv.WriteTimeout)
	assert.Equal(t, defaultIdleTimeout, srv.IdleTimeout)
}
