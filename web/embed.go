// Package web embeds the browser assets served under /assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:assets
var staticFS embed.FS

// FS returns the embedded filesystem containing the browser static files.
func FS() (fs.FS, error) {
	return fs.Sub(staticFS, "assets")
}
