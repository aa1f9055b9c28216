package ui

import "embed"

// Assets embeds the dashboard page template and its static files.
//
//go:embed templates static
var Assets embed.FS
