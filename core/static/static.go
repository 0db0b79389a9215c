package static

import (
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrymomot/soloweb"
)

type config struct {
	stripPrefix string
	subPath     string
}

// Option configures Dir and FS.
type Option func(*config)

// WithStripPrefix removes prefix from the request path before the file lookup,
// so "/static/app.css" mounted at "/static" serves "app.css".
func WithStripPrefix(prefix string) Option {
	return func(c *config) {
		c.stripPrefix = strings.TrimSuffix(prefix, "/")
	}
}

// WithSubFS serves only the given subdirectory of the filesystem.
// The path uses forward slashes regardless of OS.
func WithSubFS(path string) Option {
	return func(c *config) {
		c.subPath = path
	}
}

// File serves a single file. Content type is detected from the extension and
// range requests are supported. Panics at startup if the file does not exist
// or is a directory.
func File(path string) soloweb.HandlerFunc {
	clean := filepath.Clean(path)

	info, err := os.Stat(clean)
	if err != nil {
		panic("static.File: " + err.Error())
	}
	if info.IsDir() {
		panic("static.File: path is a directory, not a file: " + clean)
	}

	return soloweb.WrapHTTP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, clean)
	}))
}

// Dir serves the files below root. Directory listing is disabled; a directory
// is served only through its index.html. Panics at startup if root is not a
// directory.
func Dir(root string, opts ...Option) soloweb.HandlerFunc {
	clean := filepath.Clean(root)

	info, err := os.Stat(clean)
	if err != nil {
		panic("static.Dir: " + err.Error())
	}
	if !info.IsDir() {
		panic("static.Dir: path is not a directory: " + clean)
	}

	return serveFS("static.Dir", os.DirFS(clean), opts)
}

// FS serves files from fsys, for example an embed.FS, with the same rules as Dir.
// Panics at startup if the filesystem root (or WithSubFS path) cannot be opened.
func FS(fsys fs.FS, opts ...Option) soloweb.HandlerFunc {
	return serveFS("static.FS", fsys, opts)
}

func serveFS(caller string, fsys fs.FS, opts []Option) soloweb.HandlerFunc {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.subPath != "" {
		sub, err := fs.Sub(fsys, cfg.subPath)
		if err != nil {
			panic(caller + ": invalid sub-path " + cfg.subPath + ": " + err.Error())
		}
		fsys = sub
	}
	if _, err := fs.Stat(fsys, "."); err != nil {
		panic(caller + ": filesystem is not accessible: " + err.Error())
	}

	var h http.Handler = http.FileServer(noListingFS{fs: http.FS(fsys)})
	if cfg.stripPrefix != "" {
		h = http.StripPrefix(cfg.stripPrefix, h)
	}
	return soloweb.WrapHTTP(h)
}

// noListingFS hides directories that have no index.html.
type noListingFS struct {
	fs http.FileSystem
}

func (n noListingFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	if info.IsDir() {
		index, err := n.fs.Open(strings.TrimSuffix(name, "/") + "/index.html")
		if err != nil {
			_ = f.Close()
			return nil, fs.ErrNotExist
		}
		_ = index.Close()
	}

	return f, nil
}
