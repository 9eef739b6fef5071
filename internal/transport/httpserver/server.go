package httpserver

import (
	"net/http"
	"time"

	"ronda-app-go/internal/config"
)

const (
	// A full sync batch with photo urls stays well below this.
	maxRequestBodyBytes = 4 << 20

	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	// Longer than the router's 30s request timeout so the timeout response
	// can still be written.
	writeTimeout = 35 * time.Second
	idleTimeout  = 2 * time.Minute
)

func New(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           http.MaxBytesHandler(handler, maxRequestBodyBytes),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
