package response

import (
	"bufio"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

// WriteOptions controls how a response is framed on the wire.
type WriteOptions struct {
	// Head omits the body while keeping Content-Length, as HEAD requires.
	Head bool
	// KeepAlive selects the Connection header value.
	KeepAlive bool
	// Now stamps the Date header. Zero means time.Now.
	Now time.Time
}

// Write serializes resp as an HTTP/1.1 message and flushes w.
// Content-Length and Date are computed here; Set-Cookie lines follow the
// regular headers in the order the cookies were added.
func Write(w *bufio.Writer, resp *Response, opts WriteOptions) error {
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}

	text := http.StatusText(status)
	if text == "" {
		text = "status code " + strconv.Itoa(status)
	}
	fmt.Fprintf(w, "HTTP/1.1 %03d %s\r\n", status, text)

	header := resp.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Del("Content-Length")
	header.Del("Transfer-Encoding")
	header.Del("Set-Cookie")

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	if header.Get("Date") == "" {
		header.Set("Date", now.UTC().Format(http.TimeFormat))
	}

	if opts.KeepAlive {
		header.Set("Connection", "keep-alive")
	} else {
		header.Set("Connection", "close")
	}

	body := resp.Body
	if bodyAllowed(status) {
		header.Set("Content-Length", strconv.Itoa(len(body)))
		if len(body) > 0 && header.Get("Content-Type") == "" {
			header.Set("Content-Type", http.DetectContentType(body))
		}
	} else {
		body = nil
	}
	if opts.Head {
		body = nil
	}

	keys := make([]string, 0, len(header))
	for k := range header {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		for _, v := range header[k] {
			fmt.Fprintf(w, "%s: %s\r\n", k, sanitizeHeaderValue(v))
		}
	}

	for _, c := range resp.Cookies {
		if v := c.String(); v != "" {
			fmt.Fprintf(w, "Set-Cookie: %s\r\n", v)
		}
	}

	w.WriteString("\r\n")
	if len(body) > 0 {
		w.Write(body)
	}
	return w.Flush()
}

// WriteStatus writes a bare response carrying only the status text.
// It is used when no request could be parsed to build a full response.
func WriteStatus(w *bufio.Writer, status int) error {
	return Write(w, Text(http.StatusText(status), status), WriteOptions{})
}

// WriteContinue writes the interim 100 Continue response.
func WriteContinue(w *bufio.Writer) error {
	w.WriteString("HTTP/1.1 100 Continue\r\n\r\n")
	return w.Flush()
}

// bodyAllowed reports whether status may carry a body (RFC 9110 section 6.4.1).
func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}

// sanitizeHeaderValue drops CR and LF so a value cannot inject extra header lines.
func sanitizeHeaderValue(v string) string {
	if !strings.ContainsAny(v, "\r\n") {
		return v
	}
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return -1
		}
		return r
	}, v)
}
