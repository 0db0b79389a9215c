package response

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
)

const (
	contentTypeJSON = "application/json"
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeHTML = "text/html; charset=utf-8"
)

// JSON serializes v into an application/json response with 200 OK status.
func JSON(v any) (*Response, error) {
	return JSONWithStatus(v, http.StatusOK)
}

// JSONWithStatus serializes v into an application/json response with a custom status.
func JSONWithStatus(v any, status int) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("response: encode json: %w", err)
	}
	return New(body, status).WithHeader("Content-Type", contentTypeJSON), nil
}

// Text creates a text/plain response.
func Text(content string, status ...int) *Response {
	return New([]byte(content), statusOr(status, http.StatusOK)).WithHeader("Content-Type", contentTypeText)
}

// HTML creates a text/html response.
func HTML(content string, status ...int) *Response {
	return New([]byte(content), statusOr(status, http.StatusOK)).WithHeader("Content-Type", contentTypeHTML)
}

// Bytes creates a response with a custom content type.
func Bytes(content []byte, contentType string) *Response {
	resp := New(content, http.StatusOK)
	if contentType != "" {
		resp.Header.Set("Content-Type", contentType)
	}
	return resp
}

// NoContent creates an empty 204 response.
func NoContent() *Response {
	return New(nil, http.StatusNoContent)
}

// Redirect creates a redirect to location. The status defaults to 302 Found.
func Redirect(location string, status ...int) *Response {
	code := statusOr(status, http.StatusFound)
	resp := New(nil, code).WithHeader("Location", location)
	if code != http.StatusNotModified {
		resp.Header.Set("Content-Type", contentTypeHTML)
		resp.Body = fmt.Appendf(nil, "<a href=\"%s\">%s</a>.\n", html.EscapeString(location), http.StatusText(code))
	}
	return resp
}

func statusOr(status []int, def int) int {
	if len(status) > 0 && status[0] != 0 {
		return status[0]
	}
	return def
}
