// Package database provides SQLite connectivity for the screener project store.
//
// This package manages:
//   - Database connection with WAL mode so API reads never wait on autosave
//   - Schema migrations read from an fs.FS (migrations.FS in production)
//   - Connection lifecycle and a transaction helper
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Usage:
//
//	db, err := database.Open(ctx, database.FromConfig(cfg.Database))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration Strategy:
//
// Files are named YYYYMMDD_HHMMSS_description.up.sql with a matching
// .down.sql. Migrations are additive: new columns are NULLABLE or carry a
// DEFAULT.
package database
