package server

import (
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultListen            = "127.0.0.1:8080"
	defaultReadHeaderTimeout = 10 * time.Second
)

type Config struct {
	Listen            string
	ReadHeaderTimeout time.Duration
}

func (c Config) listen() string {
	if strings.TrimSpace(c.Listen) == "" {
		return DefaultListen
	}
	return c.Listen
}

func (c Config) readHeaderTimeout() time.Duration {
	if c.ReadHeaderTimeout <= 0 {
		return defaultReadHeaderTimeout
	}
	return c.ReadHeaderTimeout
}

// New returns an HTTP server for svc. It should be started with
// http.Server's ListenAndServe.
func New(cfg Config, svc BuildService) *http.Server {
	subLogger := log.Logger.With().Str("component", "server").Logger()
	return &http.Server{
		Addr:              cfg.listen(),
		ErrorLog:          stdlog.New(subLogger, "", 0),
		Handler:           NewHandler(svc),
		ReadHeaderTimeout: cfg.readHeaderTimeout(),
	}
}
