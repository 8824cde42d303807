// Package web holds the HTML templates and static assets, embedded into the
// binary so the server runs from any working directory.
package web

import "embed"

//go:embed templates
var Templates embed.FS

//go:embed static
var Static embed.FS
