package router

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Converter is the type tag attached to a parameter segment at registration time.
type Converter uint8

const (
	ConvString Converter = iota // <name>, <string:name>, <str:name>
	ConvInt                     // <int:name>
	ConvFloat                   // <float:name>
	ConvPath                    // <path:name>, may contain '/'
)

var converterNames = map[string]Converter{
	"string": ConvString,
	"str":    ConvString,
	"int":    ConvInt,
	"float":  ConvFloat,
	"path":   ConvPath,
}

// String returns the converter name used in patterns.
func (c Converter) String() string {
	switch c {
	case ConvInt:
		return "int"
	case ConvFloat:
		return "float"
	case ConvPath:
		return "path"
	default:
		return "string"
	}
}

// convert applies the converter to a raw segment value.
// A false result is a non-match, never an error.
func (c Converter) convert(raw string) (any, bool) {
	if raw == "" {
		return nil, false
	}

	switch c {
	case ConvInt:
		for i := 0; i < len(raw); i++ {
			if raw[i] < '0' || raw[i] > '9' {
				return nil, false
			}
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, false
		}
		return n, true
	case ConvFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		// Reject hex floats and exponents that ParseFloat accepts.
		if strings.ContainsAny(raw, "xXpPeEnN") {
			return nil, false
		}
		return f, true
	default:
		return raw, true
	}
}

// segment is a single compiled pattern component: a literal or a parameter capture.
type segment struct {
	literal string
	name    string
	conv    Converter
	param   bool
}

// compilePattern splits a pattern like /users/<int:id>/files/<path:rest>
// into an ordered list of segment matchers.
func compilePattern(pattern string) ([]segment, error) {
	if len(pattern) == 0 || pattern[0] != '/' {
		return nil, fmt.Errorf("%w: %w: %q", ErrConfiguration, ErrInvalidPattern, pattern)
	}

	parts := splitPath(pattern)
	segments := make([]segment, 0, len(parts))
	seen := make(map[string]bool, len(parts))

	for i, part := range parts {
		if !strings.ContainsAny(part, "<>") {
			segments = append(segments, segment{literal: part})
			continue
		}

		if part[0] != '<' || part[len(part)-1] != '>' || strings.Count(part, "<") != 1 || strings.Count(part, ">") != 1 {
			return nil, fmt.Errorf("%w: %w: segment %q in %q", ErrConfiguration, ErrInvalidPattern, part, pattern)
		}

		body := part[1 : len(part)-1]
		conv := ConvString
		name := body
		if convName, paramName, ok := strings.Cut(body, ":"); ok {
			c, known := converterNames[convName]
			if !known {
				return nil, fmt.Errorf("%w: %w: %q in %q", ErrConfiguration, ErrUnknownConverter, convName, pattern)
			}
			conv = c
			name = paramName
		}

		if !isIdentifier(name) {
			return nil, fmt.Errorf("%w: %w: parameter name %q in %q", ErrConfiguration, ErrInvalidPattern, name, pattern)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %w: %q in %q", ErrConfiguration, ErrDuplicateParam, name, pattern)
		}
		if conv == ConvPath && i != len(parts)-1 {
			return nil, fmt.Errorf("%w: %w: %q in %q", ErrConfiguration, ErrPathPosition, name, pattern)
		}
		seen[name] = true

		segments = append(segments, segment{name: name, conv: conv, param: true})
	}

	return segments, nil
}

// match walks the request path segments against the compiled pattern.
// Segment counts must be equal unless the last pattern segment is a path capture,
// which swallows the remainder.
func match(segments []segment, parts []string) (Params, bool) {
	var params Params

	for i, seg := range segments {
		if i >= len(parts) {
			return nil, false
		}

		if !seg.param {
			if seg.literal != parts[i] {
				return nil, false
			}
			continue
		}

		raw := parts[i]
		if seg.conv == ConvPath {
			raw = strings.Join(parts[i:], "/")
		}

		value, ok := seg.conv.convert(raw)
		if !ok {
			return nil, false
		}

		if params == nil {
			params = make(Params, len(segments))
		}
		params[seg.name] = value

		if seg.conv == ConvPath {
			return params, true
		}
	}

	if len(parts) != len(segments) {
		return nil, false
	}

	return params, true
}

// build renders a concrete path from compiled segments and parameter values.
func build(segments []segment, values map[string]any) (string, error) {
	var b strings.Builder

	if len(segments) == 0 {
		return "/", nil
	}

	for _, seg := range segments {
		b.WriteByte('/')
		if !seg.param {
			b.WriteString(seg.literal)
			continue
		}

		v, ok := values[seg.name]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrMissingParam, seg.name)
		}

		raw := fmt.Sprint(v)
		if _, ok := seg.conv.convert(raw); !ok {
			return "", fmt.Errorf("%w: %q=%q is not a valid %s", ErrInvalidParamValue, seg.name, raw, seg.conv)
		}

		if seg.conv == ConvPath {
			parts := strings.Split(raw, "/")
			for i := range parts {
				parts[i] = url.PathEscape(parts[i])
			}
			b.WriteString(strings.Join(parts, "/"))
			continue
		}
		b.WriteString(url.PathEscape(raw))
	}

	return b.String(), nil
}

// splitPath turns "/a/b" into ["a", "b"]. The root path yields no segments;
// a trailing slash yields a trailing empty segment so "/a/" and "/a" stay distinct.
func splitPath(path string) []string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// splitEscapedPath splits a percent-encoded request path on '/' and only then
// decodes each segment, so an encoded slash stays inside its segment.
// Segments that fail to decode are kept as sent.
func splitEscapedPath(path string) []string {
	parts := splitPath(path)
	for i, p := range parts {
		if s, err := url.PathUnescape(p); err == nil {
			parts[i] = s
		}
	}
	return parts
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
