// Package web embeds the download form page and its assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html static/*
var content embed.FS

// IndexTemplate names the form page template
const IndexTemplate = "index.html"

// Templates parses the embedded page templates
func Templates() (*template.Template, error) {
	return template.ParseFS(content, "templates/*.html")
}

// StaticFS returns the embedded assets served under /static
func StaticFS() http.FileSystem {
	staticFS, err := fs.Sub(content, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(staticFS)
}
