// ABOUTME: Embedded template filesystem for the web UI
// ABOUTME: Templates are compiled into the binary, no runtime file dependencies

package webui

import "embed"

//go:embed templates
var templateFS embed.FS
