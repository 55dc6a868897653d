package sqlite

import (
	_ "github.com/logoove/sqlite"
	db2 "github.com/zan8in/portprobe/pkg/db"
)

// NewSqliteDB opens (and creates if needed) the database at file. An empty
// file selects the default location under ~/.config/portprobe.
func NewSqliteDB(file string) (*db2.Store, error) {
	if file == "" {
		file = db2.DbName()
	}
	// logoove/sqlite registers itself as sqlite3
	dsn := "file:" + file + "?cache=shared&mode=rwc&_journal_mode=WAL&_busy_timeout=5000"
	store, err := db2.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	// WAL with a single connection avoids "database is locked"
	store.DB().SetMaxOpenConns(1)
	store.DB().SetMaxIdleConns(1)

	return store, nil
}
