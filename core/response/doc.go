// Package response builds outgoing HTTP responses and serializes them onto
// a connection.
//
// Handlers return a *Response built directly or with a helper:
//
//	resp, err := response.JSON(map[string]any{"a": 1}) // application/json
//	resp := response.Text("hello")                     // text/plain
//	resp := response.Redirect("/login")                // 302 Found
//	resp := response.Redirect("/new", http.StatusMovedPermanently)
//
// Cookies are appended as Set-Cookie directives and emitted in order:
//
//	_ = resp.SetCookie("theme", "dark", cookie.WithMaxAge(3600), cookie.WithHTTPOnly(true))
//
// HTTPError values carry a status code through the error chain. FromStatus and
// StatusOf translate between errors and statuses.
//
// Write frames a response as HTTP/1.1. It computes Content-Length, adds Date
// and Connection headers, and drops the body for HEAD requests and for statuses
// that cannot carry one.
package response
