package middleware

import (
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrymomot/soloweb"
	"github.com/dmitrymomot/soloweb/core/request"
	"github.com/dmitrymomot/soloweb/core/response"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(req *request.Request) bool
	// AllowOrigins lists allowed origins. Empty or "*" allows any origin.
	AllowOrigins []string
	// AllowMethods lists methods accepted in preflight requests
	AllowMethods []string
	// AllowHeaders lists request headers accepted in preflight requests
	AllowHeaders []string
	// ExposeHeaders lists response headers readable by the browser
	ExposeHeaders []string
	// AllowCredentials enables Access-Control-Allow-Credentials. Ignored for "*".
	AllowCredentials bool
	// MaxAge is how long, in seconds, a preflight result may be cached
	MaxAge int
	// AllowOriginFunc decides dynamically and returns the origin to echo.
	// It takes precedence over AllowOrigins.
	AllowOriginFunc func(origin string) (string, bool)
}

type cors struct {
	cfg           CORSConfig
	origins       map[string]bool
	allowMethods  string
	allowHeaders  string
	exposeHeaders string
}

// CORS creates a CORS middleware that allows any origin.
func CORS() soloweb.Middleware {
	return CORSWithConfig(CORSConfig{})
}

// CORSWithConfig creates a CORS middleware.
// Preflight requests are answered directly: 204 when the origin and method are
// allowed, 403 otherwise. Other responses get the allow-origin headers on the
// way out, error responses included.
func CORSWithConfig(cfg CORSConfig) soloweb.Middleware {
	if len(cfg.AllowMethods) == 0 {
		cfg.AllowMethods = []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPut,
			http.MethodPatch,
			http.MethodPost,
			http.MethodDelete,
		}
	}

	if len(cfg.AllowHeaders) == 0 {
		cfg.AllowHeaders = []string{
			"Accept",
			"Accept-Language",
			"Content-Language",
			"Content-Type",
			"Origin",
			"Authorization",
			"X-Request-ID",
		}
	}

	c := &cors{
		cfg:           cfg,
		origins:       make(map[string]bool, len(cfg.AllowOrigins)),
		allowMethods:  strings.Join(cfg.AllowMethods, ","),
		allowHeaders:  strings.Join(cfg.AllowHeaders, ","),
		exposeHeaders: strings.Join(cfg.ExposeHeaders, ","),
	}
	for _, origin := range cfg.AllowOrigins {
		c.origins[origin] = true
	}
	return c
}

func (c *cors) ProcessRequest(req *request.Request) (*response.Response, error) {
	if c.cfg.Skip != nil && c.cfg.Skip(req) {
		return nil, nil
	}
	if !isPreflight(req) {
		return nil, nil
	}

	origin, allowed := c.allowOrigin(req.Header.Get("Origin"))
	if !allowed || !slices.Contains(c.cfg.AllowMethods, req.Header.Get("Access-Control-Request-Method")) {
		return response.New(nil, http.StatusForbidden), nil
	}

	resp := response.NoContent()
	h := resp.Header
	h.Set("Access-Control-Allow-Origin", origin)
	h.Set("Access-Control-Allow-Methods", c.allowMethods)
	if req.Header.Get("Access-Control-Request-Headers") != "" {
		h.Set("Access-Control-Allow-Headers", c.allowHeaders)
	}
	if c.cfg.AllowCredentials && origin != "*" {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
	if c.cfg.MaxAge > 0 {
		h.Set("Access-Control-Max-Age", strconv.Itoa(c.cfg.MaxAge))
	}
	h.Add("Vary", "Origin")
	h.Add("Vary", "Access-Control-Request-Method")
	h.Add("Vary", "Access-Control-Request-Headers")
	return resp, nil
}

func (c *cors) ProcessResponse(req *request.Request, resp *response.Response) (*response.Response, error) {
	if c.cfg.Skip != nil && c.cfg.Skip(req) {
		return resp, nil
	}
	// Preflight responses were built complete in ProcessRequest.
	if isPreflight(req) {
		return resp, nil
	}

	origin, allowed := c.allowOrigin(req.Header.Get("Origin"))
	if !allowed {
		return resp, nil
	}

	resp.WithHeader("Access-Control-Allow-Origin", origin)
	if c.cfg.AllowCredentials && origin != "*" {
		resp.Header.Set("Access-Control-Allow-Credentials", "true")
	}
	if c.exposeHeaders != "" {
		resp.Header.Set("Access-Control-Expose-Headers", c.exposeHeaders)
	}
	resp.Header.Add("Vary", "Origin")
	return resp, nil
}

func (c *cors) allowOrigin(origin string) (string, bool) {
	switch {
	case c.cfg.AllowOriginFunc != nil:
		return c.cfg.AllowOriginFunc(origin)
	case len(c.cfg.AllowOrigins) == 0 || c.origins["*"]:
		return "*", true
	case c.origins[origin]:
		return origin, true
	}
	return "", false
}

func isPreflight(req *request.Request) bool {
	return req.Method == http.MethodOptions && req.Header.Get("Access-Control-Request-Method") != ""
}

// AllowOriginWildcard echoes back any non-empty origin. Unlike "*" it works
// together with AllowCredentials.
func AllowOriginWildcard() func(origin string) (string, bool) {
	return func(origin string) (string, bool) {
		if origin == "" {
			return "", false
		}
		return origin, true
	}
}

// AllowOriginSubdomain allows domain itself and any of its subdomains, on any
// scheme and port. A leading "*." or "." in domain is ignored.
func AllowOriginSubdomain(domain string) func(origin string) (string, bool) {
	domain = strings.TrimPrefix(domain, "*.")
	domain = strings.TrimPrefix(domain, ".")
	domain = strings.ToLower(domain)
	suffix := "." + domain

	return func(origin string) (string, bool) {
		if origin == "" {
			return "", false
		}

		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return "", false
		}

		host := strings.ToLower(u.Hostname())
		if host == domain || strings.HasSuffix(host, suffix) {
			return origin, true
		}
		return "", false
	}
}
