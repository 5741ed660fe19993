// Package database opens and migrates the SQLite file holding the
// Bohrium entity registry.
//
// The whole registry is one entities table, keyed by store key and
// scoped by parent key, with entity fields serialised into a JSON data
// column. That shape keeps the schema stable across entity kinds:
// adding a kind needs no migration at all, and the migrations that do
// exist are additive-only, embedded in the binary and applied on
// startup.
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
// WAL mode is enabled by default so reads proceed during writes; the
// connection pool is pinned to a single connection because SQLite
// serialises writers anyway.
package database
