// Package request parses HTTP/1.x requests read from a connection into a
// structured Request.
//
// Parse reads the start line, the header block and the body (Content-Length or
// chunked framing) and decodes the body by content type:
//
//   - application/json (and +json types): JSON() returns the decoded value,
//     or nil when the body is not valid JSON
//   - application/x-www-form-urlencoded: Form
//   - multipart/form-data: Form for plain fields, Files for file parts
//
// Query arguments are percent-decoded into an ordered multi-valued map and
// cookies into a single-valued map where the last duplicate wins.
//
// Size limits are enforced while reading. A header block larger than
// Limits.MaxHeaderBytes fails with ErrHeaderTooLarge; a body larger than
// Limits.MaxBodyBytes fails with ErrPayloadTooLarge and the parsed head is
// still returned. StatusCode maps parse errors to HTTP status codes.
//
// Servers that honour "Expect: 100-continue" call ReadHead, write the interim
// response, then call Request.ReadBody.
package request
