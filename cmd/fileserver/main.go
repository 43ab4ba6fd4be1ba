package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Brownie44l1/fileserve/internal/server"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fileserver: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	config := server.DefaultConfig()

	fs := flag.NewFlagSet("fileserver", flag.ContinueOnError)
	fs.StringVar(&config.IndexName, "index", config.IndexName, "file served for /")
	fs.StringVar(&config.DocumentRoot, "dir", config.DocumentRoot, "directory to serve")
	port := fs.Uint("port", 0, "port to listen on (required)")
	fs.DurationVar(&config.ReadTimeout, "read-timeout", config.ReadTimeout, "deadline for receiving the request headers")
	fs.DurationVar(&config.WriteTimeout, "write-timeout", config.WriteTimeout, "deadline for writing the response")
	fs.IntVar(&config.MaxHeaderBytes, "max-header-bytes", config.MaxHeaderBytes, "largest accepted request header block")
	fs.Int64Var(&config.MaxConcurrentConns, "max-conns", config.MaxConcurrentConns, "connections handled at once")
	logLevel := fs.String("log-level", "info", "debug, info, warn or error")
	shutdownTimeout := fs.Duration("shutdown-timeout", 30*time.Second, "how long to wait for in-flight connections on exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if *port == 0 || *port > 65535 {
		return fmt.Errorf("--port must be between 1 and 65535")
	}
	config.Port = uint16(*port)

	level, err := server.ParseLevel(*logLevel)
	if err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	logger := server.NewLogger(os.Stdout, level)

	if info, err := os.Stat(config.DocumentRoot); err != nil || !info.IsDir() {
		logger.Warn("document root is not a readable directory, every request will 404",
			server.Field{Key: "dir", Value: config.DocumentRoot})
	}

	srv, err := server.New(config, server.WithLogger(logger))
	if err != nil {
		return err
	}

	// Bind before going to the background so a bad port fails the process.
	if err := srv.Listen(); err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return err
	case sig := <-sigChan:
		logger.Info("shutting down", server.Field{Key: "signal", Value: sig.String()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, server.ErrServerClosed) {
		return err
	}

	stats := srv.Stats()
	logger.Info("server stopped",
		server.Field{Key: "connections", Value: stats.ConnectionsAccepted},
		server.Field{Key: "responses", Value: stats.ResponsesTotal},
		server.Field{Key: "errors_4xx", Value: stats.Errors4xx},
		server.Field{Key: "errors_5xx", Value: stats.Errors5xx},
		server.Field{Key: "no_response", Value: stats.NoResponse},
		server.Field{Key: "accept_errors", Value: stats.AcceptErrors},
		server.Field{Key: "bytes_written", Value: stats.BytesWritten},
		server.Field{Key: "avg_latency", Value: stats.AverageLatency.String()},
	)
	return nil
}
