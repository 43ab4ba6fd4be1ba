package server

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/Brownie44l1/fileserve/internal/request"
)

// listenHost is fixed: the server only ever binds loopback.
const listenHost = "127.0.0.1"

var ErrInvalidConfig = errors.New("invalid config")

// Config is read once at startup and never modified afterwards. Server
// keeps its own copy.
type Config struct {
	// IndexName is served for the target "/".
	IndexName string
	// DocumentRoot is prefixed to every target.
	DocumentRoot string
	// Port 0 picks a free port.
	Port uint16

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// MaxHeaderBytes bounds the header block of a request.
	MaxHeaderBytes int
	// MaxConcurrentConns caps connections being handled at once. The accept
	// loop waits for a free slot before accepting again.
	MaxConcurrentConns int64
}

func DefaultConfig() Config {
	return Config{
		IndexName:          "index.html",
		DocumentRoot:       ".",
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       30 * time.Second,
		MaxHeaderBytes:     request.DefaultMaxHeaderBytes,
		MaxConcurrentConns: 1024,
	}
}

func (c Config) Validate() error {
	switch {
	case c.IndexName == "":
		return fmt.Errorf("%w: index name is empty", ErrInvalidConfig)
	case c.DocumentRoot == "":
		return fmt.Errorf("%w: document root is empty", ErrInvalidConfig)
	case c.MaxHeaderBytes <= 0:
		return fmt.Errorf("%w: max header bytes must be positive, got %d", ErrInvalidConfig, c.MaxHeaderBytes)
	case c.MaxConcurrentConns <= 0:
		return fmt.Errorf("%w: max concurrent connections must be positive, got %d", ErrInvalidConfig, c.MaxConcurrentConns)
	case c.ReadTimeout < 0 || c.WriteTimeout < 0:
		return fmt.Errorf("%w: timeouts cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Addr is the loopback address the server binds.
func (c Config) Addr() string {
	return net.JoinHostPort(listenHost, strconv.Itoa(int(c.Port)))
}
