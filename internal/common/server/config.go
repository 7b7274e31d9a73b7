package server

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/AlibekovAA/authify/backend/internal/common/constants"
)

// Config holds the listener settings of the authify HTTP server.
type Config struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
}

// NewConfig accepts a bare port, ":port" or "host:port". The write timeout
// stays above requestTimeout so a handler that hits its deadline can still
// send the error response.
func NewConfig(listen string, requestTimeout time.Duration) Config {
	write := constants.ServerWriteTimeout
	if floor := requestTimeout + constants.ServerWriteGrace; requestTimeout > 0 && write < floor {
		write = floor
	}

	return Config{
		Addr:              listenAddr(listen),
		ReadHeaderTimeout: constants.ServerReadHeaderTimeout,
		ReadTimeout:       constants.ServerReadTimeout,
		WriteTimeout:      write,
		IdleTimeout:       constants.ServerIdleTimeout,
		MaxHeaderBytes:    constants.ServerMaxHeaderBytes,
	}
}

func listenAddr(listen string) string {
	listen = strings.TrimSpace(listen)
	if listen == "" {
		return ":" + constants.DefaultBackendPort
	}
	if _, _, err := net.SplitHostPort(listen); err == nil {
		return listen
	}
	return net.JoinHostPort("", listen)
}

func New(cfg Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
}
