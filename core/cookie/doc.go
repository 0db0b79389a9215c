// Package cookie renders Set-Cookie directives, parses Cookie request headers,
// and signs cookie values.
//
// Directives are built with functional options layered over a Path of "/":
//
//	d, err := cookie.New("session_id", token,
//		cookie.WithMaxAge(3600),
//		cookie.WithHTTPOnly(true),
//		cookie.WithSecure(true),
//		cookie.WithSameSite(http.SameSiteLaxMode),
//	)
//	header := d.String() // session_id=...; Path=/; Max-Age=3600; HttpOnly; Secure; SameSite=Lax
//
// Request cookies parse into a single-valued map where the last value of a
// repeated name wins:
//
//	cookies := cookie.Parse("a=1; b=2; a=3") // map[a:3 b:2]
//
// Signer adds an HMAC-SHA256 signature so values can be checked for tampering.
// Secrets rotate by prepending the new secret; older ones still verify:
//
//	s, err := cookie.NewSigner(newSecret, oldSecret)
//	signed := s.Sign("value")
//	value, err := s.Verify(signed)
package cookie
