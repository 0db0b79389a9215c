package request

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httputil"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrymomot/soloweb/core/cookie"
)

// Parse reads one request (head and body) from br.
//
// It returns io.EOF when the reader is exhausted before any byte of a new
// request arrives. When the body exceeds limits.MaxBodyBytes the parsed head is
// returned together with ErrPayloadTooLarge so the caller can answer with 413.
func Parse(ctx context.Context, br *bufio.Reader, limits Limits) (*Request, error) {
	req, err := ReadHead(ctx, br, limits)
	if err != nil {
		return nil, err
	}
	if err := req.ReadBody(br, limits); err != nil {
		return req, err
	}
	return req, nil
}

// ReadHead reads the start line and the header block. The body is left unread
// so a server can answer "Expect: 100-continue" before calling ReadBody.
func ReadHead(ctx context.Context, br *bufio.Reader, limits Limits) (*Request, error) {
	limit := limits.headerBytes()
	read := 0

	var line []byte
	for {
		l, err := readLine(br, &read, limit)
		if err != nil {
			if errors.Is(err, io.EOF) && read == 0 {
				return nil, io.EOF
			}
			return nil, err
		}
		// Leading empty lines before the request line are ignored.
		if len(l) > 0 {
			line = l
			break
		}
	}

	req := &Request{ctx: ctx}
	if err := req.parseRequestLine(string(line)); err != nil {
		return nil, err
	}

	var block bytes.Buffer
	for {
		l, err := readLine(br, &read, limit)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: unexpected end of header block", ErrMalformedRequest)
			}
			return nil, err
		}
		if len(l) == 0 {
			break
		}
		block.Write(l)
		block.WriteString("\r\n")
	}
	block.WriteString("\r\n")

	hdr, err := textproto.NewReader(bufio.NewReader(&block)).ReadMIMEHeader()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	req.Header = http.Header(hdr)
	req.Cookies = cookie.Parse(req.Header.Values("Cookie")...)

	if req.ProtoMinor >= 1 && req.Header.Get("Host") == "" {
		return nil, fmt.Errorf("%w: missing Host header", ErrMalformedRequest)
	}

	return req, nil
}

// CheckLength validates a declared Content-Length against the body limit
// without reading anything, so an oversized upload can be refused before the
// client is told to send it. Chunked bodies are checked while they are read.
func (r *Request) CheckLength(limits Limits) error {
	cl := r.Header.Values("Content-Length")
	if len(cl) == 0 || r.Header.Get("Transfer-Encoding") != "" {
		return nil
	}
	n, err := parseContentLength(cl)
	if err != nil {
		return err
	}
	if limit := limits.bodyBytes(); n > limit {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrPayloadTooLarge, n, limit)
	}
	return nil
}

// ReadBody reads the body announced by the head and decodes it by content type.
func (r *Request) ReadBody(br *bufio.Reader, limits Limits) error {
	limit := limits.bodyBytes()

	te := r.Header.Get("Transfer-Encoding")
	cl := r.Header.Values("Content-Length")

	switch {
	case te != "":
		if len(cl) > 0 {
			return ErrConflictingBodyFraming
		}
		if !strings.EqualFold(strings.TrimSpace(te), "chunked") {
			return fmt.Errorf("%w: %q", ErrUnsupportedTransfer, te)
		}
		r.ContentLength = -1
		body, err := readChunked(br, limit)
		if err != nil {
			return err
		}
		r.Body = body

	case len(cl) > 0:
		n, err := parseContentLength(cl)
		if err != nil {
			return err
		}
		r.ContentLength = n
		if n > limit {
			return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrPayloadTooLarge, n, limit)
		}
		if n > 0 {
			body := make([]byte, n)
			if _, err := io.ReadFull(br, body); err != nil {
				return fmt.Errorf("request: read body: %w", err)
			}
			r.Body = body
		}
	}

	r.decodeBody()
	return nil
}

func (r *Request) parseRequestLine(line string) error {
	method, rest, ok1 := strings.Cut(line, " ")
	target, proto, ok2 := strings.Cut(rest, " ")
	if !ok1 || !ok2 || !isToken(method) || strings.Contains(proto, " ") {
		return fmt.Errorf("%w: bad request line %q", ErrMalformedRequest, line)
	}

	major, minor, ok := http.ParseHTTPVersion(proto)
	if !ok {
		return fmt.Errorf("%w: bad protocol %q", ErrMalformedRequest, proto)
	}
	if major != 1 {
		return fmt.Errorf("%w: %s", ErrVersionNotSupported, proto)
	}

	r.Method = method
	r.Proto = proto
	r.ProtoMajor = major
	r.ProtoMinor = minor
	return r.setTarget(target)
}

// decodeBody fills Form, Files and the JSON payload. Decoding failures leave
// the corresponding fields empty instead of failing the request.
func (r *Request) decodeBody() {
	if r.Query == nil {
		r.Query = make(url.Values)
	}
	r.Form = make(url.Values)
	r.Files = make(map[string][]*File)
	if r.Cookies == nil {
		r.Cookies = cookie.Parse(r.Header.Values("Cookie")...)
	}

	if len(r.Body) == 0 {
		return
	}

	ct := r.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return
	}

	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		var v any
		if err := json.Unmarshal(r.Body, &v); err == nil {
			r.json = v
		}

	case mediaType == "application/x-www-form-urlencoded":
		// Malformed pairs are dropped; the well-formed ones are kept.
		form, _ := url.ParseQuery(string(r.Body))
		r.Form = form

	case mediaType == "multipart/form-data":
		if boundary := params["boundary"]; boundary != "" {
			r.parseMultipart(boundary)
		}
	}
}

func (r *Request) parseMultipart(boundary string) {
	mr := multipart.NewReader(bytes.NewReader(r.Body), boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			// io.EOF ends the body; anything else leaves what was parsed so far.
			return
		}

		content, err := io.ReadAll(part)
		if err != nil {
			part.Close()
			return
		}

		name := part.FormName()
		if name == "" {
			part.Close()
			continue
		}

		if filename := part.FileName(); filename != "" {
			r.Files[name] = append(r.Files[name], &File{
				Field:       name,
				Filename:    filename,
				ContentType: part.Header.Get("Content-Type"),
				Header:      part.Header,
				Content:     content,
			})
		} else {
			r.Form.Add(name, string(content))
		}
		part.Close()
	}
}

// readLine reads a CRLF or LF terminated line, counting bytes against limit.
func readLine(br *bufio.Reader, read *int, limit int) ([]byte, error) {
	var line []byte
	for {
		chunk, err := br.ReadSlice('\n')
		*read += len(chunk)
		if *read > limit {
			return nil, ErrHeaderTooLarge
		}
		line = append(line, chunk...)
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return nil, fmt.Errorf("%w: unexpected end of request head", ErrMalformedRequest)
		}
		return nil, err
	}
	return bytes.TrimRight(line, "\r\n"), nil
}

func readChunked(br *bufio.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(httputil.NewChunkedReader(br), limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: chunked body: %w", ErrMalformedRequest, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: chunked body exceeds limit of %d", ErrPayloadTooLarge, limit)
	}

	// Discard trailer fields up to the terminating empty line.
	for {
		line, err := br.ReadSlice('\n')
		if err != nil {
			return nil, fmt.Errorf("%w: chunked trailer: %w", ErrMalformedRequest, err)
		}
		if len(bytes.TrimRight(line, "\r\n")) == 0 {
			break
		}
	}
	return body, nil
}

func parseContentLength(values []string) (int64, error) {
	first := strings.TrimSpace(values[0])
	for _, v := range values[1:] {
		if strings.TrimSpace(v) != first {
			return 0, ErrConflictingBodyFraming
		}
	}
	if first == "" || first[0] == '+' || first[0] == '-' {
		return 0, fmt.Errorf("%w: bad Content-Length %q", ErrMalformedRequest, first)
	}
	n, err := strconv.ParseInt(first, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad Content-Length %q", ErrMalformedRequest, first)
	}
	return n, nil
}

func isToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= ' ' || c >= 0x7f || strings.IndexByte("()<>@,;:\\\"/[]?={}", c) >= 0 {
			return false
		}
	}
	return true
}
