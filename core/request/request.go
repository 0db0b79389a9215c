package request

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
)

// File is a file part of a multipart/form-data body.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Header      textproto.MIMEHeader
	Content     []byte
}

// Size returns the file size in bytes.
func (f *File) Size() int64 {
	return int64(len(f.Content))
}

// Request is a parsed HTTP/1.x request.
// Parsed fields must be treated as read-only once Parse returns; per-request
// data produced by middleware goes through SetValue.
type Request struct {
	Method     string
	Target     string // request-target exactly as sent
	Path       string // percent-decoded path
	RawPath    string // path with its original percent-encoding
	RawQuery   string
	Proto      string
	ProtoMajor int
	ProtoMinor int

	Header  http.Header
	Query   url.Values
	Form    url.Values
	Files   map[string][]*File
	Cookies map[string]string
	Body    []byte

	// ContentLength is the declared body length, or -1 for chunked bodies.
	ContentLength int64
	RemoteAddr    string

	json any
	ctx  context.Context

	mu     sync.RWMutex
	values map[any]any
}

// New builds a request without reading from the wire.
// It is mostly useful in tests and for adapting other request sources.
func New(method, target string, header http.Header, body []byte) (*Request, error) {
	if header == nil {
		header = make(http.Header)
	}
	r := &Request{
		Method:        strings.ToUpper(method),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          body,
		ContentLength: int64(len(body)),
		ctx:           context.Background(),
	}
	if err := r.setTarget(target); err != nil {
		return nil, err
	}
	r.decodeBody()
	return r, nil
}

// Context returns the request context. It is cancelled when the connection
// that carried the request goes away.
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// WithContext replaces the request context. ctx must be non-nil.
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx == nil {
		panic("request: nil context")
	}
	r.ctx = ctx
	return r
}

// JSON returns the decoded JSON payload. It is nil when the body was not
// declared as JSON or could not be decoded.
func (r *Request) JSON() any {
	return r.json
}

// DecodeJSON unmarshals the raw body into v.
func (r *Request) DecodeJSON(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("%w: empty body", ErrMalformedRequest)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	return nil
}

// Arg returns the first query value for name.
func (r *Request) Arg(name string) string {
	return r.Query.Get(name)
}

// FormValue returns the first form value for name.
func (r *Request) FormValue(name string) string {
	return r.Form.Get(name)
}

// File returns the first uploaded file for field.
func (r *Request) File(field string) (*File, bool) {
	files := r.Files[field]
	if len(files) == 0 {
		return nil, false
	}
	return files[0], true
}

// Cookie returns the named request cookie.
func (r *Request) Cookie(name string) (string, bool) {
	v, ok := r.Cookies[name]
	return v, ok
}

// ContentType returns the media type of the body without parameters.
func (r *Request) ContentType() string {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
	}
	return mediaType
}

// IsJSON reports whether the body is declared as JSON.
func (r *Request) IsJSON() bool {
	ct := r.ContentType()
	return ct == "application/json" || strings.HasSuffix(ct, "+json")
}

// Host returns the Host header.
func (r *Request) Host() string {
	return r.Header.Get("Host")
}

// KeepAlive reports whether the client wants the connection kept open.
// HTTP/1.1 defaults to persistent connections, HTTP/1.0 to closing.
func (r *Request) KeepAlive() bool {
	if r.hasConnectionToken("close") {
		return false
	}
	if r.ProtoMajor == 1 && r.ProtoMinor >= 1 {
		return true
	}
	return r.hasConnectionToken("keep-alive")
}

// ExpectsContinue reports whether the client sent "Expect: 100-continue".
func (r *Request) ExpectsContinue() bool {
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("Expect")), "100-continue")
}

// SetValue attaches a per-request value. Safe for concurrent use.
func (r *Request) SetValue(key, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.values == nil {
		r.values = make(map[any]any)
	}
	r.values[key] = value
}

// Value returns a value attached with SetValue.
func (r *Request) Value(key any) any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.values[key]
}

func (r *Request) hasConnectionToken(token string) bool {
	for _, v := range r.Header.Values("Connection") {
		for _, t := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(t), token) {
				return true
			}
		}
	}
	return false
}

// EscapedPath returns the path as sent, falling back to Path for requests
// built by hand without RawPath.
func (r *Request) EscapedPath() string {
	if r.RawPath != "" {
		return r.RawPath
	}
	return r.Path
}

// setTarget parses the request-target into Path, RawPath, RawQuery and Query.
func (r *Request) setTarget(target string) error {
	if target == "" {
		return fmt.Errorf("%w: empty request target", ErrMalformedRequest)
	}
	r.Target = target

	if target == "*" {
		r.Path = "*"
		r.RawPath = "*"
		r.Query = url.Values{}
		return nil
	}

	u, err := url.ParseRequestURI(target)
	if err != nil {
		return fmt.Errorf("%w: request target %q: %w", ErrMalformedRequest, target, err)
	}

	r.Path = u.Path
	r.RawPath = u.EscapedPath()
	if r.Path == "" {
		r.Path = "/"
		r.RawPath = "/"
	}
	r.RawQuery = u.RawQuery
	// Malformed pairs are dropped; the well-formed ones are kept.
	r.Query, _ = url.ParseQuery(u.RawQuery)
	return nil
}
