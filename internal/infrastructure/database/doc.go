// Package database provides SQLite connectivity for Doorsense.
//
// The store is opened exactly once at process start, migrated, and the
// resulting handle is passed to every repository. There is no lazily
// initialised global.
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are embedded by the migrations package and named
// YYYYMMDD_HHMMSS_description.{up,down}.sql. Each runs in its own
// transaction and is recorded in schema_migrations.
//
// All queries use parameterised statements. The database file is created
// with 0600 permissions.
package database
