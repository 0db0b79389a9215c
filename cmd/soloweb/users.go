package main

import (
	"cmp"
	"fmt"
	"html"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/soloweb"
	"github.com/dmitrymomot/soloweb/core/request"
	"github.com/dmitrymomot/soloweb/core/response"
	"github.com/dmitrymomot/soloweb/core/router"
	"github.com/dmitrymomot/soloweb/middleware"
)

type user struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`

	PasswordHash []byte `json:"-"`
}

// userDirectory is the demo's in-memory user table.
type userDirectory struct {
	mu     sync.RWMutex
	users  map[int]user
	nextID int
}

// newUserDirectory seeds the table with three users sharing demoPassword.
func newUserDirectory() (*userDirectory, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	d := &userDirectory{users: make(map[int]user)}
	d.add(user{Username: "alice", Email: "alice@example.com", Role: "admin", PasswordHash: hash})
	d.add(user{Username: "bob", Email: "bob@example.com", Role: "user", PasswordHash: hash})
	d.add(user{Username: "charlie", Email: "charlie@example.com", Role: "user", PasswordHash: hash})
	return d, nil
}

func (d *userDirectory) add(u user) user {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	u.ID = d.nextID
	if u.Role == "" {
		u.Role = "user"
	}
	d.users[u.ID] = u
	return u
}

func (d *userDirectory) get(id int) (user, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	return u, ok
}

func (d *userDirectory) byName(name string) (user, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.Username == name {
			return u, true
		}
	}
	return user{}, false
}

// authenticate returns the user only when the password matches its stored hash.
// Users created without a password cannot log in.
func (d *userDirectory) authenticate(name, password string) (user, bool) {
	u, ok := d.byName(name)
	if !ok || len(u.PasswordHash) == 0 {
		return user{}, false
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return user{}, false
	}
	return u, true
}

func (d *userDirectory) list() []user {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.SortedFunc(maps.Values(d.users), func(a, b user) int {
		return cmp.Compare(a.ID, b.ID)
	})
}

const demoPassword = "password"

const loginForm = `<h1>Login</h1>
<form method="POST">
  <label>Username: <input name="username" required></label><br>
  <label>Password: <input name="password" type="password" required></label><br>
  <button type="submit">Login</button>
</form>`

// authBlueprint serves login and logout on top of the session middleware.
func authBlueprint(users *userDirectory) *soloweb.Blueprint {
	bp := soloweb.NewBlueprint("auth", "/auth")

	bp.Route("/login", func(req *request.Request, _ router.Params) (*response.Response, error) {
		if req.Method != http.MethodPost {
			return response.HTML(loginForm), nil
		}

		u, ok := users.authenticate(req.FormValue("username"), req.FormValue("password"))
		if !ok {
			return nil, response.ErrUnauthorized.WithMessage("Invalid credentials")
		}

		sess := middleware.MustGetSession(req)
		sess.Set("user_id", u.ID)
		sess.Set("username", u.Username)
		sess.Set("role", u.Role)

		return response.Redirect("/"), nil
	}, http.MethodGet, http.MethodPost)

	bp.Get("/logout", func(req *request.Request, _ router.Params) (*response.Response, error) {
		middleware.MustGetSession(req).Destroy()
		return response.Redirect("/auth/login"), nil
	})

	bp.Get("/me", func(req *request.Request, _ router.Params) (*response.Response, error) {
		sess := middleware.MustGetSession(req)
		if _, ok := sess.Get("user_id"); !ok {
			return nil, response.ErrUnauthorized
		}
		return response.JSON(sess.Data())
	}, soloweb.Name("me"))

	return bp
}

// usersBlueprint exposes the user table as HTML and JSON.
func usersBlueprint(users *userDirectory) *soloweb.Blueprint {
	bp := soloweb.NewBlueprint("users", "/users")

	bp.Route("/", func(req *request.Request, _ router.Params) (*response.Response, error) {
		if req.Method == http.MethodPost {
			return createUser(req, users)
		}

		list := users.list()
		if strings.Contains(req.Header.Get("Accept"), "application/json") {
			return response.JSON(list)
		}

		var b strings.Builder
		b.WriteString("<h1>Users</h1>\n<ul>\n")
		for _, u := range list {
			fmt.Fprintf(&b, "  <li><a href=\"/users/%d\">%s</a> (%s)</li>\n", u.ID, html.EscapeString(u.Username), html.EscapeString(u.Role))
		}
		b.WriteString("</ul>")
		return response.HTML(b.String()), nil
	}, http.MethodGet, http.MethodPost)

	bp.Get("/<int:id>", func(req *request.Request, params router.Params) (*response.Response, error) {
		id, _ := params.Int("id")
		u, ok := users.get(id)
		if !ok {
			return nil, response.ErrNotFound.WithMessage("User not found")
		}
		return response.JSON(u)
	}, soloweb.Name("show"))

	return bp
}

func createUser(req *request.Request, users *userDirectory) (*response.Response, error) {
	var in struct {
		user
		Password string `json:"password"`
	}
	if err := req.DecodeJSON(&in); err != nil {
		return nil, response.ErrBadRequest.WithMessage("Expected a JSON user object")
	}
	if in.Username == "" || in.Email == "" {
		return nil, response.ErrUnprocessableEntity.WithMessage("username and email are required")
	}
	if _, exists := users.byName(in.Username); exists {
		return nil, response.ErrConflict.WithMessage("username already taken")
	}

	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		in.PasswordHash = hash
	}

	return response.JSONWithStatus(users.add(in.user), http.StatusCreated)
}
