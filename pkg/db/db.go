package db

import (
	"os"
	"path"
	"path/filepath"

	"github.com/zan8in/gologger"
	snowflake "github.com/zan8in/pins/snowflake"
)

// ScanRow is one stored scan run.
type ScanRow struct {
	ID        string  `db:"id" json:"id"`
	Host      string  `db:"host" json:"host"`
	IP        string  `db:"ip" json:"ip"`
	Ports     int     `db:"ports" json:"ports"`
	OpenCount int     `db:"open_count" json:"open_count"`
	Anomalies int     `db:"anomalies" json:"anomalies"`
	Elapsed   float64 `db:"elapsed" json:"elapsed_seconds"`
	Created   string  `db:"created" json:"created"`
}

// ResultRow is one probed port of a stored scan.
type ResultRow struct {
	ID      int64  `db:"id" json:"-"`
	ScanID  string `db:"scan_id" json:"scan_id"`
	Port    int    `db:"port" json:"port"`
	State   string `db:"state" json:"state"`
	Service string `db:"service" json:"service,omitempty"`
	Banner  string `db:"banner" json:"banner,omitempty"`
}

var (
	LIMIT        = 100
	DBName       = "portprobe"
	SchemaCreate = `CREATE TABLE IF NOT EXISTS "scans" (
		"id" TEXT NOT NULL,
		"host" TEXT NOT NULL DEFAULT '',
		"ip" TEXT NOT NULL DEFAULT '',
		"ports" INTEGER NOT NULL DEFAULT 0,
		"open_count" INTEGER NOT NULL DEFAULT 0,
		"anomalies" INTEGER NOT NULL DEFAULT 0,
		"elapsed" REAL NOT NULL DEFAULT 0,
		"created" TEXT NOT NULL DEFAULT '',
		PRIMARY KEY ("id")
	  );

	  CREATE TABLE IF NOT EXISTS "results" (
		"id" BIGINT NOT NULL,
		"scan_id" TEXT NOT NULL DEFAULT '',
		"port" INTEGER NOT NULL DEFAULT 0,
		"state" TEXT NOT NULL DEFAULT '',
		"service" TEXT NOT NULL DEFAULT '',
		"banner" TEXT NOT NULL DEFAULT '',
		PRIMARY KEY ("id")
	  );

	  CREATE INDEX IF NOT EXISTS "idx_scan_id"
	  ON "results" (
		"scan_id" ASC
	  );

	  CREATE INDEX IF NOT EXISTS "idx_host"
	  ON "scans" (
		"host"
	  );`
)

var SnowFlake *snowflake.Snowflake

func init() {
	if err := NewSnowFlake(); err != nil {
		gologger.Fatal().Msgf("New SnowFlake failed: %v", err)
	}
}

// DbName returns the default database file under ~/.config/portprobe.
func DbName() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	path := path.Join(homeDir, ".config", "portprobe")
	if err := os.MkdirAll(path, os.ModePerm); err != nil {
		return ""
	}

	return filepath.Join(path, DBName+".db")
}

func NewSnowFlake() error {
	if node, err := snowflake.NewSnowflake(1); err != nil {
		return err
	} else {
		SnowFlake = node
		return nil
	}
}
