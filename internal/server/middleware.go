package server

import (
	"fmt"
	"runtime/debug"

	"github.com/Brownie44l1/fileserve/internal/response"
)

// Handler serves one accepted connection.
type Handler interface {
	ServeConn(c *Conn)
}

type HandlerFunc func(c *Conn)

func (f HandlerFunc) ServeConn(c *Conn) {
	f(c)
}

type Middleware func(next Handler) Handler

// chain wraps h so that mws[0] is the outermost layer.
func chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// LoggingMiddleware logs one line per connection once it is handled.
func LoggingMiddleware(logger Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(c *Conn) {
			next.ServeConn(c)

			fields := []Field{
				{"conn_id", c.ID},
				{"remote", c.RemoteAddr()},
				{"method", c.Method()},
				{"target", c.Target()},
				{"path", c.Path},
				{"status", int(c.Status())},
				{"bytes", c.BytesWritten()},
				{"duration_ms", c.Duration().Milliseconds()},
			}
			if c.Request != nil {
				fields = append(fields,
					Field{"host", c.Request.Header("Host")},
					Field{"user_agent", c.Request.Header("User-Agent")},
				)
				if c.Request.MalformedHeaders > 0 {
					fields = append(fields, Field{"malformed_headers", c.Request.MalformedHeaders})
				}
			}

			if c.Err != nil {
				fields = append(fields, Field{"error", c.Err.Error()})
				logger.Warn("connection failed", fields...)
				return
			}
			logger.Info("connection served", fields...)
		})
	}
}

// RecoveryMiddleware turns a panic into a 500 for that connection only.
func RecoveryMiddleware(logger Logger) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(c *Conn) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("panic recovered",
						Field{"error", r},
						Field{"stack", string(debug.Stack())},
						Field{"conn_id", c.ID},
						Field{"target", c.Target()},
					)

					c.fail(fmt.Errorf("panic: %v", r))
					// Can't send a status line twice
					if !c.Responded() {
						if err := c.Error(response.StatusInternalServerError, ""); err != nil {
							logger.Debug("error response not delivered", Field{"conn_id", c.ID}, Field{"error", err})
						}
					}
				}
			}()

			next.ServeConn(c)
		})
	}
}

// MetricsMiddleware records every finished connection.
func MetricsMiddleware(metrics *Metrics) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(c *Conn) {
			next.ServeConn(c)
			metrics.RecordConnection(c.Status(), c.BytesWritten(), c.Duration())
		})
	}
}
