package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/Brownie44l1/fileserve/internal/static"
)

var (
	ErrServerClosed = errors.New("server closed")
	ErrNotListening = errors.New("server is not listening")
)

// Server accepts connections on loopback and serves one file per
// connection.
type Server struct {
	Logger Logger

	config   Config
	resolver static.Resolver
	builder  *static.Builder
	metrics  *Metrics

	sem         *semaphore.Weighted
	middlewares []Middleware
	handler     Handler

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
	closed   atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
	nextID   atomic.Uint64
}

type Option func(*Server)

func WithLogger(l Logger) Option {
	return func(s *Server) {
		s.Logger = l
	}
}

// WithFileSystem replaces the disk as the source of served files.
func WithFileSystem(fs static.FileSystem) Option {
	return func(s *Server) {
		s.builder.FS = fs
	}
}

func New(config Config, opts ...Option) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		Logger:   NewDefaultLogger(),
		config:   config,
		resolver: static.NewResolver(config.DocumentRoot, config.IndexName),
		builder:  static.NewBuilder(),
		metrics:  NewMetrics(),
		sem:      semaphore.NewWeighted(config.MaxConcurrentConns),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Use adds middleware around the connection handler. It must be called
// before Serve.
func (s *Server) Use(mw Middleware) {
	s.middlewares = append(s.middlewares, mw)
}

// Listen binds the configured loopback address.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Addr(), err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Serve runs the accept loop until Shutdown or Close and then returns
// ErrServerClosed. Accept errors are logged and the loop keeps going.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return ErrNotListening
	}

	mws := append([]Middleware{
		LoggingMiddleware(s.Logger),
		MetricsMiddleware(s.metrics),
		RecoveryMiddleware(s.Logger),
	}, s.middlewares...)
	s.handler = chain(HandlerFunc(s.handleConn), mws...)

	s.Logger.Info("listening",
		Field{"addr", ln.Addr().String()},
		Field{"root", s.config.DocumentRoot},
		Field{"index", s.config.IndexName},
		Field{"max_conns", s.config.MaxConcurrentConns},
	)

	var tempDelay time.Duration
	for {
		if err := s.sem.Acquire(s.ctx, 1); err != nil {
			return ErrServerClosed
		}

		conn, err := ln.Accept()
		if err != nil {
			s.sem.Release(1)
			if s.closed.Load() {
				return ErrServerClosed
			}

			s.metrics.AcceptErrors.Add(1)
			s.Logger.Error("accept failed", Field{"error", err.Error()})

			// Back off so a listener stuck in an error state does not spin.
			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else {
				tempDelay = min(2*tempDelay, time.Second)
			}
			time.Sleep(tempDelay)
			continue
		}
		tempDelay = 0

		s.mu.Lock()
		if s.closed.Load() {
			s.mu.Unlock()
			conn.Close()
			s.sem.Release(1)
			return ErrServerClosed
		}
		s.wg.Add(1)
		s.mu.Unlock()

		s.metrics.ConnectionsAccepted.Add(1)
		go s.serveConn(conn, s.nextID.Add(1))
	}
}

// Close stops accepting without waiting for in-flight connections.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Swap(true) {
		return nil
	}
	s.cancel()
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

// Shutdown stops accepting and waits for in-flight connections until ctx
// is done.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.Close(); err != nil {
		s.Logger.Warn("closing listener", Field{"error", err.Error()})
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the server metrics.
func (s *Server) Stats() MetricsSnapshot {
	return s.metrics.Snapshot()
}

func (s *Server) Config() Config {
	return s.config
}
