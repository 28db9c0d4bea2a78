// Package embedded provides embedded static assets for the application.
package embedded

import (
	"embed"
	"html/template"
	"io/fs"
)

// Files contains all files embedded in the Go binary:
//   - templates/ - server-rendered pages
//   - static/ - stylesheet and script served under /assets/
//
//go:embed templates static
var Files embed.FS

// DashboardTemplate parses the dashboard page template
func DashboardTemplate() (*template.Template, error) {
	return template.ParseFS(Files, "templates/dashboard.html")
}

// Static returns the static asset tree rooted at static/
func Static() (fs.FS, error) {
	return fs.Sub(Files, "static")
}
