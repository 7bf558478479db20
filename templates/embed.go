// Package templates ships the module's page and partial templates inside
// the binary.
package templates

import (
	"embed"
	"io/fs"
)

//go:embed *.html
var files embed.FS

// FS provides access to the embedded templates.
var FS fs.FS = files
