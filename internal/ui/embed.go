// Package ui embeds the instructor console front end.
package ui

import "embed"

//go:embed dist
var DistFS embed.FS
