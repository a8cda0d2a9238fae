// Package appfs embeds the files shipped with the binaries.
package appfs

import "embed"

// FS holds the SQL migrations, under "migrations".
//go:embed migrations
var FS embed.FS
