package server

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/Brownie44l1/fileserve/internal/request"
	"github.com/Brownie44l1/fileserve/internal/response"
)

const (
	// lingerTimeout and maxLingerBytes bound how long and how much unread
	// input is drained after an error response, so the close does not turn
	// into a reset that eats the response.
	lingerTimeout  = 500 * time.Millisecond
	maxLingerBytes = 256 << 10
)

// serveConn runs on its own goroutine for every accepted connection.
func (s *Server) serveConn(nc net.Conn, id uint64) {
	defer s.wg.Done()
	defer s.sem.Release(1)

	s.metrics.ActiveConnections.Add(1)
	defer s.metrics.ActiveConnections.Add(-1)

	c := newConn(id, nc, s.config.WriteTimeout)
	s.handler.ServeConn(c)
	c.finish()

	if err := nc.Close(); err != nil {
		s.Logger.Debug("close failed", Field{"conn_id", id}, Field{"error", err})
	}
}

// handleConn reads one request and writes one response.
func (s *Server) handleConn(c *Conn) {
	c.setState(StateReadingHeaders)
	if s.config.ReadTimeout > 0 {
		if err := c.netConn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout)); err != nil {
			c.fail(err)
			return
		}
	}

	req, err := request.RequestFromReader(c.netConn, s.config.MaxHeaderBytes)
	if err != nil {
		s.rejectRequest(c, err)
		return
	}
	c.Request = req
	c.setState(StateParsed)

	c.Path = s.resolver.Resolve(req.Target())
	c.setState(StateResolved)

	resp, err := s.builder.Build(c.Path)
	if err != nil {
		c.fail(err)
		if werr := c.Error(response.StatusInternalServerError, ""); werr != nil {
			s.Logger.Debug("error response not delivered", Field{"conn_id", c.ID}, Field{"error", werr})
		}
		return
	}

	if err := c.Respond(resp); err != nil {
		c.fail(err)
	}
}

// rejectRequest answers a request that could not be framed or parsed.
func (s *Server) rejectRequest(c *Conn, err error) {
	c.fail(err)

	var code response.StatusCode
	switch {
	case errors.Is(err, request.ErrMalformedRequestLine):
		code = response.StatusBadRequest
	case errors.Is(err, request.ErrHeaderTooLarge):
		code = response.StatusRequestHeaderFieldsTooLarge
	case isTimeout(err):
		code = response.StatusRequestTimeout
	default:
		// Peer went away or the connection broke: nobody to answer.
		return
	}

	if werr := c.Error(code, ""); werr != nil {
		s.Logger.Debug("error response not delivered", Field{"conn_id", c.ID}, Field{"error", werr})
		return
	}
	lingerClose(c.netConn)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// lingerClose half-closes the write side and drains what the client is
// still sending.
func lingerClose(nc net.Conn) {
	tc, ok := nc.(interface{ CloseWrite() error })
	if !ok {
		return
	}
	if err := tc.CloseWrite(); err != nil {
		return
	}
	if err := nc.SetReadDeadline(time.Now().Add(lingerTimeout)); err != nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(nc, maxLingerBytes))
}
