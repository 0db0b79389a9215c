// Package static serves files from disk or from an fs.FS as route handlers.
//
// Directory listing is always disabled. Paths are resolved by net/http's file
// server, which rejects traversal outside the root.
//
//	app.Get("/favicon.ico", static.File("./public/favicon.ico"))
//	app.Get("/static/<path:file>", static.Dir("./public", static.WithStripPrefix("/static")))
//
//	//go:embed assets
//	var assets embed.FS
//
//	app.Get("/assets/<path:file>", static.FS(assets,
//		static.WithSubFS("assets"),
//		static.WithStripPrefix("/assets"),
//	))
//
// Handlers buffer the whole file into the response, so they suit small assets
// rather than large downloads.
package static
