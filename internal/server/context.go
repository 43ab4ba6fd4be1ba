package server

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/Brownie44l1/fileserve/internal/request"
	"github.com/Brownie44l1/fileserve/internal/response"
)

var ErrAlreadyResponded = errors.New("response already written")

// ConnState is where a connection is in its single request/response cycle.
type ConnState int

const (
	StateAccepted ConnState = iota
	StateReadingHeaders
	StateParsed
	StateResolved
	StateResponding
	StateClosed
	StateFailed
)

var connStateNames = [...]string{
	StateAccepted:       "accepted",
	StateReadingHeaders: "reading-headers",
	StateParsed:         "parsed",
	StateResolved:       "resolved",
	StateResponding:     "responding",
	StateClosed:         "closed",
	StateFailed:         "failed",
}

func (s ConnState) String() string {
	if s >= 0 && int(s) < len(connStateNames) {
		return connStateNames[s]
	}
	return fmt.Sprintf("ConnState(%d)", int(s))
}

// Conn carries one accepted connection through the pipeline. It is owned
// by a single goroutine and needs no locking.
type Conn struct {
	ID      uint64
	Request *request.Request
	// Path is the resolved filesystem path, set once the target is resolved.
	Path string
	// Err is the first error that made the connection fail.
	Err error

	netConn      net.Conn
	writeTimeout time.Duration
	state        ConnState
	start        time.Time
	status       response.StatusCode
	written      int64
	responded    bool
}

func newConn(id uint64, nc net.Conn, writeTimeout time.Duration) *Conn {
	return &Conn{
		ID:           id,
		netConn:      nc,
		writeTimeout: writeTimeout,
		state:        StateAccepted,
		start:        time.Now(),
	}
}

// NetConn exposes the underlying connection.
func (c *Conn) NetConn() net.Conn {
	return c.netConn
}

func (c *Conn) RemoteAddr() string {
	if addr := c.netConn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// Target returns the request target, or "" before the request is parsed.
func (c *Conn) Target() string {
	if c.Request == nil {
		return ""
	}
	return c.Request.Target()
}

func (c *Conn) Method() string {
	if c.Request == nil {
		return ""
	}
	return c.Request.Method()
}

func (c *Conn) State() ConnState {
	return c.state
}

func (c *Conn) setState(s ConnState) {
	if c.state == StateFailed {
		return
	}
	c.state = s
}

// fail marks the connection failed, keeping the first error.
func (c *Conn) fail(err error) {
	if c.Err == nil {
		c.Err = err
	}
	c.state = StateFailed
}

// finish moves a connection that did not fail to its terminal state.
func (c *Conn) finish() {
	if c.state != StateFailed {
		c.state = StateClosed
	}
}

func (c *Conn) Responded() bool {
	return c.responded
}

// Status is the status code written, or 0 if nothing was written.
func (c *Conn) Status() response.StatusCode {
	return c.status
}

func (c *Conn) BytesWritten() int64 {
	return c.written
}

func (c *Conn) Duration() time.Duration {
	return time.Since(c.start)
}

// Respond writes resp and flushes it. Only the first call writes; later
// calls return ErrAlreadyResponded.
func (c *Conn) Respond(resp *response.Response) error {
	if c.responded {
		return ErrAlreadyResponded
	}
	c.responded = true
	c.setState(StateResponding)

	if c.writeTimeout > 0 {
		if err := c.netConn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}

	bw := bufio.NewWriter(c.netConn)
	w := response.NewWriter(bw)
	err := resp.Send(w)
	if err == nil {
		err = bw.Flush()
	}
	c.written = w.Written() - int64(bw.Buffered())
	if c.written > 0 {
		c.status = w.StatusCode()
	}
	if err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// Error writes a plain-text error response.
func (c *Conn) Error(code response.StatusCode, message string) error {
	return c.Respond(response.Error(code, message))
}
