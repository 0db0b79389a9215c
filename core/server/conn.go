package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/soloweb/core/logger"
	"github.com/dmitrymomot/soloweb/core/request"
	"github.com/dmitrymomot/soloweb/core/response"
)

// conn is one accepted connection and its request loop.
type conn struct {
	srv     *Server
	nc      net.Conn
	handler Handler

	ctx    context.Context
	cancel context.CancelFunc

	idle      atomic.Bool
	closeOnce sync.Once
}

func (s *Server) newConn(ctx context.Context, nc net.Conn, handler Handler) *conn {
	// In-flight requests survive graceful shutdown; they are cancelled only
	// when their own connection goes away.
	cctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c := &conn{
		srv:     s,
		nc:      nc,
		handler: handler,
		ctx:     cctx,
		cancel:  cancel,
	}
	c.idle.Store(true)
	return c
}

func (c *conn) isIdle() bool {
	return c.idle.Load()
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		_ = c.nc.Close()
	})
}

// serve runs request/response cycles until the connection closes, the client
// asks to close, or an unrecoverable error occurs.
func (c *conn) serve() {
	log := c.srv.logger.With(logger.ClientIP(c.nc.RemoteAddr().String()))

	defer func() {
		if p := recover(); p != nil {
			log.Error("panic serving connection",
				slog.Any("panic", p),
				logger.Stack())
		}
		c.close()
	}()

	br := bufio.NewReader(c.nc)
	bw := bufio.NewWriter(c.nc)

	for first := true; ; first = false {
		if !first {
			// Wait for the first byte of the next request under the idle timeout.
			c.setReadDeadline(c.srv.idleTimeout)
			if _, err := br.Peek(1); err != nil {
				return
			}
		}

		c.idle.Store(false)
		c.setReadDeadline(c.srv.readTimeout)

		req, err := request.ReadHead(c.ctx, br, c.srv.limits)
		if err != nil {
			c.failHead(log, bw, err)
			return
		}
		req.RemoteAddr = c.nc.RemoteAddr().String()

		var resp *response.Response
		keepAlive := req.KeepAlive()

		err = req.CheckLength(c.srv.limits)
		if err == nil && req.ExpectsContinue() {
			c.setWriteDeadline(c.srv.writeTimeout)
			if err := response.WriteContinue(bw); err != nil {
				return
			}
		}
		if err == nil {
			err = req.ReadBody(br, c.srv.limits)
		}

		if err != nil {
			switch {
			case isTimeout(err):
				c.writeStatus(bw, http.StatusRequestTimeout)
				return
			case request.StatusCode(err) != 0:
				// The rest of the body is unread, so the connection cannot be reused.
				resp = c.handler.ServeError(req, err)
				keepAlive = false
			default:
				log.Debug("read body failed", logger.Error(err))
				return
			}
		} else {
			c.setReadDeadline(0)
			resp = c.handler.ServeRequest(req)
		}

		if resp == nil {
			resp = response.Text(http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		if c.srv.isClosing() || hasCloseToken(resp.Header) {
			keepAlive = false
		}

		c.setWriteDeadline(c.srv.writeTimeout)
		err = response.Write(bw, resp, response.WriteOptions{
			Head:      req.Method == http.MethodHead,
			KeepAlive: keepAlive,
		})
		if err != nil {
			log.Debug("write response failed", logger.Error(err))
			return
		}

		if !keepAlive {
			return
		}
		c.idle.Store(true)
		if c.srv.isClosing() {
			return
		}
	}
}

// failHead answers a request whose head could not be parsed, then the caller
// closes the connection.
func (c *conn) failHead(log *slog.Logger, bw *bufio.Writer, err error) {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
		// client went away between requests
	case isTimeout(err):
		c.writeStatus(bw, http.StatusRequestTimeout)
	case request.StatusCode(err) != 0:
		log.Debug("malformed request", logger.Error(err))
		c.writeStatus(bw, request.StatusCode(err))
	default:
		log.Debug("read request failed", logger.Error(err))
	}
}

func (c *conn) writeStatus(bw *bufio.Writer, status int) {
	c.setWriteDeadline(c.srv.writeTimeout)
	if err := response.WriteStatus(bw, status); err != nil {
		c.srv.logger.Debug("write status failed", logger.Error(err), logger.StatusCode(status))
	}
}

func (c *conn) setReadDeadline(d time.Duration) {
	var t time.Time
	if d > 0 {
		t = time.Now().Add(d)
	}
	_ = c.nc.SetReadDeadline(t)
}

func (c *conn) setWriteDeadline(d time.Duration) {
	var t time.Time
	if d > 0 {
		t = time.Now().Add(d)
	}
	_ = c.nc.SetWriteDeadline(t)
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func hasCloseToken(h http.Header) bool {
	for _, v := range h.Values("Connection") {
		if v == "close" {
			return true
		}
	}
	return false
}
