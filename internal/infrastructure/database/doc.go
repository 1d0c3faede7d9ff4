// Package database provides the SQLite connection behind the dashboard's
// durable key-value storage.
//
// The database replaces the browser's local storage: the device snapshot
// and the user list are stored as JSON documents in the local_storage
// table, created by the embedded migrations.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql, and are registered by the migrations
// package through MigrationsFS.
package database
