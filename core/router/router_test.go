package router_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/soloweb/core/router"
)

// handlers in tests are plain strings so resolved values are easy to compare
func newTable(t *testing.T, routes ...[3]string) *router.Table[string] {
	t.Helper()

	tbl := router.New[string]()
	for _, r := range routes {
		var methods []string
		if r[1] != "" {
			methods = strings.Split(r[1], ",")
		}
		require.NoError(t, tbl.Register(r[0], methods, r[2]))
	}
	return tbl
}

func TestTableStaticRoutes(t *testing.T) {
	t.Parallel()

	paths := []string{
		"/",
		"/users",
		"/users/profile",
		"/admin/users",
		"/api/v1/posts",
	}

	tbl := router.New[string]()
	for _, p := range paths {
		require.NoError(t, tbl.Register(p, nil, p))
	}

	for _, p := range paths {
		t.Run(strings.ReplaceAll(p, "/", "_"), func(t *testing.T) {
			t.Parallel()

			h, params, err := tbl.Resolve(http.MethodGet, p)
			require.NoError(t, err)
			assert.Equal(t, p, h)
			assert.Empty(t, params)
		})
	}
}

func TestTableTypedParameters(t *testing.T) {
	t.Parallel()

	tbl := newTable(t,
		[3]string{"/users/<int:id>", "", "user-by-id"},
		[3]string{"/prices/<float:value>", "", "price"},
		[3]string{"/hello/<name>", "", "hello"},
		[3]string{"/tags/<str:tag>", "", "tag"},
		[3]string{"/files/<path:rest>", "", "files"},
		[3]string{"/users/<int:uid>/posts/<slug>", "", "post"},
	)

	t.Run("int converter binds an int", func(t *testing.T) {
		t.Parallel()

		h, params, err := tbl.Resolve(http.MethodGet, "/users/42")
		require.NoError(t, err)
		assert.Equal(t, "user-by-id", h)
		assert.Equal(t, 42, params["id"])

		id, ok := params.Int("id")
		assert.True(t, ok)
		assert.Equal(t, 42, id)
	})

	t.Run("float converter binds a float64", func(t *testing.T) {
		t.Parallel()

		h, params, err := tbl.Resolve(http.MethodGet, "/prices/19.99")
		require.NoError(t, err)
		assert.Equal(t, "price", h)
		v, ok := params.Float("value")
		assert.True(t, ok)
		assert.InDelta(t, 19.99, v, 1e-9)
	})

	t.Run("default and str converters bind strings", func(t *testing.T) {
		t.Parallel()

		_, params, err := tbl.Resolve(http.MethodGet, "/hello/Alice")
		require.NoError(t, err)
		assert.Equal(t, "Alice", params["name"])

		_, params, err = tbl.Resolve(http.MethodGet, "/tags/go")
		require.NoError(t, err)
		assert.Equal(t, "go", params.String("tag"))
	})

	t.Run("path converter swallows the remainder", func(t *testing.T) {
		t.Parallel()

		h, params, err := tbl.Resolve(http.MethodGet, "/files/docs/2024/report.pdf")
		require.NoError(t, err)
		assert.Equal(t, "files", h)
		assert.Equal(t, "docs/2024/report.pdf", params["rest"])
	})

	t.Run("multiple parameters", func(t *testing.T) {
		t.Parallel()

		h, params, err := tbl.Resolve(http.MethodGet, "/users/7/posts/hello-world")
		require.NoError(t, err)
		assert.Equal(t, "post", h)
		assert.Equal(t, router.Params{"uid": 7, "slug": "hello-world"}, params)
	})
}

func TestTableEncodedSegments(t *testing.T) {
	t.Parallel()

	tbl := newTable(t,
		[3]string{"/files/<name>", "", "file"},
		[3]string{"/raw/<path:rest>", "", "raw"},
	)

	h, params, err := tbl.Resolve(http.MethodGet, "/files/a%2Fb")
	require.NoError(t, err)
	assert.Equal(t, "file", h)
	assert.Equal(t, "a/b", params.String("name"))

	_, params, err = tbl.Resolve(http.MethodGet, "/files/a%20b")
	require.NoError(t, err)
	assert.Equal(t, "a b", params.String("name"))

	// a literal slash still separates segments
	_, _, err = tbl.Resolve(http.MethodGet, "/files/a/b")
	assert.ErrorIs(t, err, router.ErrNotFound)

	// undecodable segments are matched as sent
	_, params, err = tbl.Resolve(http.MethodGet, "/files/100%")
	require.NoError(t, err)
	assert.Equal(t, "100%", params.String("name"))

	_, params, err = tbl.Resolve(http.MethodGet, "/raw/x%2Fy/z")
	require.NoError(t, err)
	assert.Equal(t, "x/y/z", params.String("rest"))
}

func TestTableConversionFailureFallsThrough(t *testing.T) {
	t.Parallel()

	t.Run("non numeric id is not found", func(t *testing.T) {
		t.Parallel()

		tbl := newTable(t, [3]string{"/users/<int:id>", "", "by-id"})

		_, _, err := tbl.Resolve(http.MethodGet, "/users/abc")
		assert.ErrorIs(t, err, router.ErrNotFound)

		_, _, err = tbl.Resolve(http.MethodGet, "/users/-1")
		assert.ErrorIs(t, err, router.ErrNotFound)
	})

	t.Run("later pattern catches conversion failure", func(t *testing.T) {
		t.Parallel()

		tbl := newTable(t,
			[3]string{"/users/<int:id>", "", "by-id"},
			[3]string{"/users/<name>", "", "by-name"},
		)

		h, params, err := tbl.Resolve(http.MethodGet, "/users/abc")
		require.NoError(t, err)
		assert.Equal(t, "by-name", h)
		assert.Equal(t, "abc", params["name"])
	})

	t.Run("float rejects special values", func(t *testing.T) {
		t.Parallel()

		tbl := newTable(t, [3]string{"/v/<float:x>", "", "v"})
		for _, raw := range []string{"NaN", "Inf", "1e5", "0x10", "abc"} {
			_, _, err := tbl.Resolve(http.MethodGet, "/v/"+raw)
			assert.ErrorIs(t, err, router.ErrNotFound, raw)
		}
	})
}

func TestTableRegistrationOrderWins(t *testing.T) {
	t.Parallel()

	tbl := newTable(t,
		[3]string{"/items/<name>", "", "generic"},
		[3]string{"/items/special", "", "special"},
	)

	h, _, err := tbl.Resolve(http.MethodGet, "/items/special")
	require.NoError(t, err)
	assert.Equal(t, "generic", h)
}

func TestTableNotFound(t *testing.T) {
	t.Parallel()

	tbl := newTable(t,
		[3]string{"/users", "", "list"},
		[3]string{"/users/<int:id>", "", "show"},
	)

	cases := []string{
		"/nope",
		"/users/1/extra",
		"/users/",
		"/users/1.5",
		"",
	}

	for _, path := range cases {
		_, _, err := tbl.Resolve(http.MethodGet, path)
		assert.ErrorIs(t, err, router.ErrNotFound, "path %q", path)
	}
}

func TestTableMethodNotAllowed(t *testing.T) {
	t.Parallel()

	tbl := newTable(t,
		[3]string{"/users", "GET", "list"},
		[3]string{"/users", "POST", "create"},
	)

	h, _, err := tbl.Resolve(http.MethodPost, "/users")
	require.NoError(t, err)
	assert.Equal(t, "create", h)

	_, _, err = tbl.Resolve(http.MethodDelete, "/users")
	require.Error(t, err)
	assert.ErrorIs(t, err, router.ErrMethodNotAllowed)
	assert.NotErrorIs(t, err, router.ErrNotFound)

	var mna *router.MethodNotAllowedError
	require.True(t, errors.As(err, &mna))
	assert.Equal(t, []string{"GET", "POST", "HEAD"}, mna.Allowed)
	assert.Equal(t, "GET, POST, HEAD", mna.AllowHeader())
	assert.Equal(t, http.StatusMethodNotAllowed, mna.StatusCode())
}

func TestTableHeadFallsBackToGet(t *testing.T) {
	t.Parallel()

	tbl := newTable(t,
		[3]string{"/page", "GET", "page"},
		[3]string{"/explicit", "GET", "get"},
		[3]string{"/explicit", "HEAD", "head"},
	)

	h, _, err := tbl.Resolve(http.MethodHead, "/page")
	require.NoError(t, err)
	assert.Equal(t, "page", h)

	h, _, err = tbl.Resolve(http.MethodHead, "/explicit")
	require.NoError(t, err)
	assert.Equal(t, "head", h)
}

func TestTableMethodNormalization(t *testing.T) {
	t.Parallel()

	tbl := newTable(t, [3]string{"/x", "get, post", "x"})

	_, _, err := tbl.Resolve("post", "/x")
	require.NoError(t, err)

	routes := tbl.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, router.Route{Method: "GET", Pattern: "/x"}, routes[0])
	assert.Equal(t, router.Route{Method: "POST", Pattern: "/x"}, routes[1])
}

func TestTableRegisterErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		methods []string
		want    error
	}{
		{"duplicate parameter", "/a/<id>/b/<int:id>", nil, router.ErrDuplicateParam},
		{"missing leading slash", "users", nil, router.ErrInvalidPattern},
		{"empty pattern", "", nil, router.ErrInvalidPattern},
		{"mixed segment", "/file-<id>", nil, router.ErrInvalidPattern},
		{"unclosed placeholder", "/a/<id", nil, router.ErrInvalidPattern},
		{"bad identifier", "/a/<1x>", nil, router.ErrInvalidPattern},
		{"unknown converter", "/a/<uuid:id>", nil, router.ErrUnknownConverter},
		{"path not last", "/a/<path:p>/b", nil, router.ErrPathPosition},
		{"invalid method", "/a", []string{"FETCH"}, router.ErrInvalidMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tbl := router.New[string]()
			err := tbl.Register(tt.pattern, tt.methods, "h")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, router.ErrConfiguration)
			assert.Equal(t, 0, tbl.Len())
		})
	}

	t.Run("nil handler", func(t *testing.T) {
		t.Parallel()

		tbl := router.New[func()]()
		err := tbl.Register("/a", nil, nil)
		assert.ErrorIs(t, err, router.ErrNilHandler)
	})
}

func TestTableURL(t *testing.T) {
	t.Parallel()

	tbl := router.New[string]()
	require.NoError(t, tbl.Register("/", nil, "index", router.WithName("index")))
	require.NoError(t, tbl.Register("/users/<int:id>", nil, "user", router.WithName("user")))
	require.NoError(t, tbl.Register("/files/<path:p>", nil, "files", router.WithName("files")))

	u, err := tbl.URL("index", nil)
	require.NoError(t, err)
	assert.Equal(t, "/", u)

	u, err = tbl.URL("user", map[string]any{"id": 42})
	require.NoError(t, err)
	assert.Equal(t, "/users/42", u)

	u, err = tbl.URL("files", map[string]any{"p": "a b/c"})
	require.NoError(t, err)
	assert.Equal(t, "/files/a%20b/c", u)

	_, err = tbl.URL("user", map[string]any{"id": "abc"})
	assert.ErrorIs(t, err, router.ErrInvalidParamValue)

	_, err = tbl.URL("user", nil)
	assert.ErrorIs(t, err, router.ErrMissingParam)

	_, err = tbl.URL("missing", nil)
	assert.ErrorIs(t, err, router.ErrUnknownRoute)

	err = tbl.Register("/other", nil, "other", router.WithName("user"))
	assert.ErrorIs(t, err, router.ErrDuplicateRouteName)
}
