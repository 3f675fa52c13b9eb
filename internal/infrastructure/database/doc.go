// Package database opens the SQLite file that holds the shutter decision
// history and keeps its schema current.
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations come from any fs.FS, normally the embedded migrations.FS, and
// are recorded in schema_migrations. Each .up.sql ships with a .down.sql so
// `shutterctl migrate down` can revert it. Open also accepts MemoryPath for
// tests and dry runs.
package database
