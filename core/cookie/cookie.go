package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// minSecretLength is the minimum secret length accepted by the signer.
const minSecretLength = 32

// Directive is a single Set-Cookie instruction carried by a response.
type Directive struct {
	Name  string
	Value string
	Options
}

// New builds a directive with Path "/" unless overridden by opts.
func New(name, value string, opts ...Option) (Directive, error) {
	if !isToken(name) {
		return Directive{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return Directive{
		Name:    name,
		Value:   value,
		Options: applyOptions(Options{Path: "/"}, opts),
	}, nil
}

// Expired builds a directive that deletes the named cookie on the client.
func Expired(name string, opts ...Option) (Directive, error) {
	return New(name, "", append(opts, WithMaxAge(-1))...)
}

// String renders the Set-Cookie header value.
// Values are sanitized the same way net/http does.
func (d Directive) String() string {
	c := &http.Cookie{
		Name:     d.Name,
		Value:    d.Value,
		Path:     d.Path,
		Domain:   d.Domain,
		Expires:  d.Expires,
		MaxAge:   d.MaxAge,
		Secure:   d.Secure,
		HttpOnly: d.HttpOnly,
		SameSite: d.SameSite,
	}
	return c.String()
}

// Parse parses Cookie request header values into a single-valued map.
// When a name repeats, the last value wins.
func Parse(headers ...string) map[string]string {
	cookies := make(map[string]string)

	for _, header := range headers {
		for _, pair := range strings.Split(header, ";") {
			name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok {
				continue
			}
			name = strings.TrimSpace(name)
			if !isToken(name) {
				continue
			}
			value = strings.TrimSpace(value)
			if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
				value = value[1 : len(value)-1]
			}
			cookies[name] = value
		}
	}

	return cookies
}

// Signer produces and verifies HMAC-SHA256 signed cookie values.
// The first secret signs; every secret verifies, which allows key rotation.
type Signer struct {
	secrets []string
}

// NewSigner creates a signer. Empty secrets are dropped; the rest must be at
// least 32 characters long.
func NewSigner(secrets ...string) (*Signer, error) {
	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}

	for i := range len(secrets) {
		if len(secrets[i]) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d",
				ErrSecretTooShort, i, len(secrets[i]), minSecretLength)
		}
	}

	return &Signer{secrets: secrets}, nil
}

// Sign returns value encoded together with its signature.
func (s *Signer) Sign(value string) string {
	return base64.URLEncoding.EncodeToString([]byte(value)) + "|" + signature(s.secrets[0], []byte(value))
}

// Verify checks the signature of a signed value and returns the original value.
func (s *Signer) Verify(signed string) (string, error) {
	encodedValue, sig, ok := strings.Cut(signed, "|")
	if !ok {
		return "", ErrInvalidFormat
	}

	value, err := base64.URLEncoding.DecodeString(encodedValue)
	if err != nil {
		return "", ErrInvalidFormat
	}

	valid := slices.ContainsFunc(s.secrets, func(secret string) bool {
		return subtle.ConstantTimeCompare([]byte(sig), []byte(signature(secret, value))) == 1
	})
	if !valid {
		return "", ErrInvalidSignature
	}

	return string(value), nil
}

func signature(secret string, value []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(value)
	return base64.URLEncoding.EncodeToString(mac.Sum(nil))
}

// isToken reports whether s is a valid RFC 7230 token.
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
