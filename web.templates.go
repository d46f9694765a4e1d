package main

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed web/templates/*.html web/static/*
var webFS embed.FS

// Page names.
const (
	ListPage  = "list"
	FormPage  = "form"
	ErrorPage = "error"
)

// PageTemplates holds each page parsed together with the base layout.
type PageTemplates struct {
	pages map[string]*template.Template
}

// ParsePageTemplates parses every page with the shared layout.
func ParsePageTemplates() (*PageTemplates, error) {
	pt := &PageTemplates{pages: make(map[string]*template.Template)}
	for _, name := range []string{ListPage, FormPage, ErrorPage} {
		tmpl, err := template.ParseFS(webFS, "web/templates/base.html", "web/templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("could not parse %s template: %w", name, err)
		}
		pt.pages[name] = tmpl
	}
	return pt, nil
}

// MustParsePageTemplates is like ParsePageTemplates but panics on error.
// Templates are embedded so a failure is a build defect.
func MustParsePageTemplates() *PageTemplates {
	pt, err := ParsePageTemplates()
	if err != nil {
		panic(err)
	}
	return pt
}

// Render executes the named page into a buffer first so that a failing
// template never sends a partial page.
func (pt *PageTemplates) Render(w http.ResponseWriter, name string, status int, data interface{}) error {
	tmpl, ok := pt.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("could not write template: %w", err)
	}
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// StaticFS exposes the embedded stylesheet and script.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(webFS, "web/static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
