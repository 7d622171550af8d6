// Package appfs embeds static application files: database migrations,
// email templates and validation assets.
package appfs

import "embed"

//go:embed migrations templates assets
var FS embed.FS
