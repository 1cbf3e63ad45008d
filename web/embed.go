// Package web embeds the dashboard templates and static assets so the
// server ships as a single binary.
package web

import "embed"

// TemplatesFS holds the HTML templates for pages and HTMX partials.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and the chart/notification script.
//
//go:embed static/*
var StaticFS embed.FS
