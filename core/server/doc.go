// Package server implements the connection and dispatch loop: it accepts TCP
// connections, parses HTTP/1.x requests off each one, hands them to a Handler
// and writes the responses back.
//
// Each connection runs on its own goroutine, so a slow client only blocks its
// own connection. Within a connection requests are answered strictly in order.
// Persistent connections follow the Connection header: HTTP/1.1 stays open
// unless the client or the response says "close", HTTP/1.0 closes unless the
// client asks for keep-alive.
//
// Failures are contained per connection:
//
//   - a request that does not arrive within the read timeout gets 408 and the
//     connection is closed
//   - a malformed request line or header block gets 400 (431, 505 where they
//     apply) and the connection is closed
//   - an oversized body is passed to Handler.ServeError, whose response is sent
//     before the connection is closed
//   - a panic on a connection goroutine is recovered and logged
//
// The per-request context is cancelled when the connection goes away. It is
// not cancelled by graceful shutdown; Stop waits for in-flight requests up to
// the shutdown timeout and then closes what is left.
//
// Lifecycle follows the errgroup pattern:
//
//	srv := server.New("127.0.0.1:5000", server.WithLogger(log))
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, app))
//	if err := g.Wait(); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
package server
