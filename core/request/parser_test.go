package request_test

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/soloweb/core/request"
)

func parse(t *testing.T, raw string, limits request.Limits) (*request.Request, error) {
	t.Helper()
	return request.Parse(context.Background(), bufio.NewReader(strings.NewReader(raw)), limits)
}

func TestParseSimpleGet(t *testing.T) {
	t.Parallel()

	raw := "GET /users/42?tag=a&tag=b&q=hello%20world HTTP/1.1\r\n" +
		"Host: example.com\r\n" +
		"User-Agent: test\r\n" +
		"Cookie: a=1; b=2\r\n" +
		"Cookie: a=3\r\n" +
		"\r\n"

	req, err := parse(t, raw, request.Limits{})
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/users/42", req.Path)
	assert.Equal(t, "/users/42", req.EscapedPath())
	assert.Equal(t, "HTTP/1.1", req.Proto)
	assert.Equal(t, "example.com", req.Host())
	assert.Equal(t, "test", req.Header.Get("user-agent"))
	assert.Equal(t, []string{"a", "b"}, req.Query["tag"])
	assert.Equal(t, "hello world", req.Arg("q"))
	assert.Equal(t, map[string]string{"a": "3", "b": "2"}, req.Cookies)
	assert.Empty(t, req.Body)
	assert.Nil(t, req.JSON())
	assert.True(t, req.KeepAlive())
}

func TestParseJSONBody(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		body := `{"a":1,"tags":["x"]}`
		raw := "POST /items HTTP/1.1\r\nHost: x\r\nContent-Type: application/json; charset=utf-8\r\n" +
			"Content-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body

		req, err := parse(t, raw, request.Limits{})
		require.NoError(t, err)
		assert.True(t, req.IsJSON())
		assert.Equal(t, map[string]any{"a": float64(1), "tags": []any{"x"}}, req.JSON())

		var v struct {
			A int `json:"a"`
		}
		require.NoError(t, req.DecodeJSON(&v))
		assert.Equal(t, 1, v.A)
	})

	t.Run("malformed leaves payload nil", func(t *testing.T) {
		t.Parallel()

		body := `{"a":`
		raw := "POST /items HTTP/1.1\r\nHost: x\r\nContent-Type: application/json\r\n" +
			"Content-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body

		req, err := parse(t, raw, request.Limits{})
		require.NoError(t, err)
		assert.Nil(t, req.JSON())
		assert.Equal(t, []byte(body), req.Body)
		assert.ErrorIs(t, req.DecodeJSON(&map[string]any{}), request.ErrMalformedRequest)
	})
}

func TestParseFormBody(t *testing.T) {
	t.Parallel()

	body := "name=Alice&lang=go&lang=c%2B%2B"
	raw := "POST /form HTTP/1.1\r\nHost: x\r\nContent-Type: application/x-www-form-urlencoded\r\n" +
		"Content-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body

	req, err := parse(t, raw, request.Limits{})
	require.NoError(t, err)
	assert.Equal(t, "Alice", req.FormValue("name"))
	assert.Equal(t, []string{"go", "c++"}, req.Form["lang"])
	assert.Nil(t, req.JSON())
}

func TestParseMultipartBody(t *testing.T) {
	t.Parallel()

	body := "--XYZ\r\n" +
		"Content-Disposition: form-data; name=\"title\"\r\n\r\n" +
		"hello\r\n" +
		"--XYZ\r\n" +
		"Content-Disposition: form-data; name=\"upload\"; filename=\"a.txt\"\r\n" +
		"Content-Type: text/plain\r\n\r\n" +
		"file contents\r\n" +
		"--XYZ--\r\n"
	raw := "POST /upload HTTP/1.1\r\nHost: x\r\nContent-Type: multipart/form-data; boundary=XYZ\r\n" +
		"Content-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body

	req, err := parse(t, raw, request.Limits{})
	require.NoError(t, err)
	assert.Equal(t, "hello", req.FormValue("title"))

	f, ok := req.File("upload")
	require.True(t, ok)
	assert.Equal(t, "a.txt", f.Filename)
	assert.Equal(t, "text/plain", f.ContentType)
	assert.Equal(t, "file contents", string(f.Content))
	assert.Equal(t, int64(13), f.Size())
}

func TestParseChunkedBody(t *testing.T) {
	t.Parallel()

	raw := "POST /c HTTP/1.1\r\nHost: x\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5\r\nhello\r\n" +
		"6\r\n world\r\n" +
		"0\r\n" +
		"X-Trailer: v\r\n" +
		"\r\n" +
		"GET /next HTTP/1.1\r\nHost: x\r\n\r\n"

	br := bufio.NewReader(strings.NewReader(raw))
	req, err := request.Parse(context.Background(), br, request.Limits{})
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(req.Body))
	assert.Equal(t, int64(-1), req.ContentLength)

	next, err := request.Parse(context.Background(), br, request.Limits{})
	require.NoError(t, err)
	assert.Equal(t, "/next", next.Path)

	_, err = request.Parse(context.Background(), br, request.Limits{})
	assert.ErrorIs(t, err, io.EOF)
}

func TestParseLimits(t *testing.T) {
	t.Parallel()

	t.Run("content length over limit keeps the head", func(t *testing.T) {
		t.Parallel()

		raw := "POST /big HTTP/1.1\r\nHost: x\r\nContent-Length: 100\r\n\r\n" + strings.Repeat("a", 100)
		req, err := parse(t, raw, request.Limits{MaxBodyBytes: 10})
		require.ErrorIs(t, err, request.ErrPayloadTooLarge)
		require.NotNil(t, req)
		assert.Equal(t, "/big", req.Path)
		assert.Equal(t, http.StatusRequestEntityTooLarge, request.StatusCode(err))
	})

	t.Run("chunked over limit", func(t *testing.T) {
		t.Parallel()

		raw := "POST /big HTTP/1.1\r\nHost: x\r\nTransfer-Encoding: chunked\r\n\r\n" +
			"14\r\n" + strings.Repeat("a", 20) + "\r\n0\r\n\r\n"
		_, err := parse(t, raw, request.Limits{MaxBodyBytes: 10})
		assert.ErrorIs(t, err, request.ErrPayloadTooLarge)
	})

	t.Run("header block over limit", func(t *testing.T) {
		t.Parallel()

		raw := "GET / HTTP/1.1\r\nHost: x\r\nX-Big: " + strings.Repeat("b", 200) + "\r\n\r\n"
		_, err := parse(t, raw, request.Limits{MaxHeaderBytes: 64})
		require.ErrorIs(t, err, request.ErrHeaderTooLarge)
		assert.Equal(t, http.StatusRequestHeaderFieldsTooLarge, request.StatusCode(err))
	})
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		want   error
		status int
	}{
		{"garbage start line", "HELLO\r\n\r\n", request.ErrMalformedRequest, http.StatusBadRequest},
		{"bad protocol", "GET / FTP/1.0\r\n\r\n", request.ErrMalformedRequest, http.StatusBadRequest},
		{"http2", "GET / HTTP/2.0\r\nHost: x\r\n\r\n", request.ErrVersionNotSupported, http.StatusHTTPVersionNotSupported},
		{"missing host", "GET / HTTP/1.1\r\n\r\n", request.ErrMalformedRequest, http.StatusBadRequest},
		{"bad header line", "GET / HTTP/1.1\r\nHost: x\r\nnocolon\r\n\r\n", request.ErrMalformedRequest, http.StatusBadRequest},
		{"truncated head", "GET / HTTP/1.1\r\nHost: x\r\n", request.ErrMalformedRequest, http.StatusBadRequest},
		{"negative length", "POST / HTTP/1.1\r\nHost: x\r\nContent-Length: -1\r\n\r\n", request.ErrMalformedRequest, http.StatusBadRequest},
		{"conflicting lengths", "POST / HTTP/1.1\r\nHost: x\r\nContent-Length: 1\r\nContent-Length: 2\r\n\r\nab", request.ErrConflictingBodyFraming, http.StatusBadRequest},
		{"gzip transfer", "POST / HTTP/1.1\r\nHost: x\r\nTransfer-Encoding: gzip\r\n\r\n", request.ErrUnsupportedTransfer, http.StatusNotImplemented},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := parse(t, tt.raw, request.Limits{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.status, request.StatusCode(err))
		})
	}

	t.Run("empty input is EOF", func(t *testing.T) {
		t.Parallel()

		_, err := parse(t, "", request.Limits{})
		assert.ErrorIs(t, err, io.EOF)
		assert.Equal(t, 0, request.StatusCode(err))
	})
}

func TestKeepAlive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		proto      string
		connection string
		want       bool
	}{
		{"HTTP/1.1", "", true},
		{"HTTP/1.1", "close", false},
		{"HTTP/1.1", "Keep-Alive, Close", false},
		{"HTTP/1.0", "", false},
		{"HTTP/1.0", "keep-alive", true},
	}

	for _, tt := range tests {
		raw := "GET / " + tt.proto + "\r\nHost: x\r\n"
		if tt.connection != "" {
			raw += "Connection: " + tt.connection + "\r\n"
		}
		raw += "\r\n"

		req, err := parse(t, raw, request.Limits{})
		require.NoError(t, err)
		assert.Equal(t, tt.want, req.KeepAlive(), "%s Connection=%q", tt.proto, tt.connection)
	}
}

func TestExpectContinue(t *testing.T) {
	t.Parallel()

	raw := "POST / HTTP/1.1\r\nHost: x\r\nExpect: 100-continue\r\nContent-Length: 2\r\n\r\nok"
	br := bufio.NewReader(strings.NewReader(raw))

	req, err := request.ReadHead(context.Background(), br, request.Limits{})
	require.NoError(t, err)
	assert.True(t, req.ExpectsContinue())
	assert.Empty(t, req.Body)

	require.NoError(t, req.ReadBody(br, request.Limits{}))
	assert.Equal(t, "ok", string(req.Body))
}

func TestRequestValues(t *testing.T) {
	t.Parallel()

	req, err := request.New(http.MethodGet, "/x?a=1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "/x", req.Path)
	assert.Equal(t, "1", req.Arg("a"))
	assert.NotNil(t, req.Context())

	type key struct{}
	assert.Nil(t, req.Value(key{}))
	req.SetValue(key{}, "v")
	assert.Equal(t, "v", req.Value(key{}))

	_, err = request.New(http.MethodGet, "", nil, nil)
	assert.ErrorIs(t, err, request.ErrMalformedRequest)
}

func TestCheckLength(t *testing.T) {
	t.Parallel()

	head := func(t *testing.T, raw string) *request.Request {
		t.Helper()
		req, err := request.ReadHead(context.Background(), bufio.NewReader(strings.NewReader(raw)), request.Limits{})
		require.NoError(t, err)
		return req
	}
	limits := request.Limits{MaxBodyBytes: 4}

	t.Run("declared length over limit", func(t *testing.T) {
		t.Parallel()

		req := head(t, "POST / HTTP/1.1\r\nHost: x\r\nExpect: 100-continue\r\nContent-Length: 100\r\n\r\n")
		err := req.CheckLength(limits)
		require.ErrorIs(t, err, request.ErrPayloadTooLarge)
		assert.Equal(t, http.StatusRequestEntityTooLarge, request.StatusCode(err))
	})

	t.Run("declared length within limit", func(t *testing.T) {
		t.Parallel()

		req := head(t, "POST / HTTP/1.1\r\nHost: x\r\nContent-Length: 4\r\n\r\n")
		assert.NoError(t, req.CheckLength(limits))
	})

	t.Run("bad length", func(t *testing.T) {
		t.Parallel()

		req := head(t, "POST / HTTP/1.1\r\nHost: x\r\nContent-Length: nope\r\n\r\n")
		assert.ErrorIs(t, req.CheckLength(limits), request.ErrMalformedRequest)
	})

	t.Run("chunked and bodiless requests pass", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, head(t, "POST / HTTP/1.1\r\nHost: x\r\nTransfer-Encoding: chunked\r\n\r\n").CheckLength(limits))
		assert.NoError(t, head(t, "GET / HTTP/1.1\r\nHost: x\r\n\r\n").CheckLength(limits))
	})
}

func TestEncodedPath(t *testing.T) {
	t.Parallel()

	req, err := parse(t, "GET /files/a%2Fb%20c HTTP/1.1\r\nHost: x\r\n\r\n", request.Limits{})
	require.NoError(t, err)
	assert.Equal(t, "/files/a/b c", req.Path)
	assert.Equal(t, "/files/a%2Fb%20c", req.EscapedPath())

	// hand-built requests fall back to the decoded path
	manual := &request.Request{Path: "/plain"}
	assert.Equal(t, "/plain", manual.EscapedPath())
}
