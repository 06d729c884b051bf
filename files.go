package accounts

import (
	"embed"
	"io/fs"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

//go:embed data/views
var viewsFS embed.FS

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// GetViewsFS returns the page and email templates rooted at data/views
func GetViewsFS() fs.FS {
	sub, err := fs.Sub(viewsFS, "data/views")
	if err != nil {
		return viewsFS
	}
	return sub
}
