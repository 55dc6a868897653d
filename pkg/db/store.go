package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/zan8in/gologger"
	randutil "github.com/zan8in/pins/rand"
	"github.com/zan8in/portprobe/pkg/portscan"
)

const maxLockedRetries = 5

// Store keeps scan reports in any database/sql driver sqlx knows how to
// bind for.
type Store struct {
	dbx *sqlx.DB
}

// Open connects with driverName, creates the tables if needed and checks
// the connection.
func Open(driverName, dsn string) (*Store, error) {
	dbx, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, err
	}

	if _, err = dbx.Exec(SchemaCreate); err != nil && !strings.Contains(err.Error(), "already exists") {
		dbx.Close()
		return nil, fmt.Errorf("error creating table: %v", err)
	}

	if err := dbx.Ping(); err != nil {
		dbx.Close()
		return nil, err
	}
	return &Store{dbx: dbx}, nil
}

// DB exposes the connection for driver specific tuning.
func (s *Store) DB() *sqlx.DB {
	return s.dbx
}

func (s *Store) Close() error {
	if s == nil || s.dbx == nil {
		return nil
	}
	return s.dbx.Close()
}

// SaveReport writes r and all of its results in one transaction, retrying
// while the database is locked by another writer.
func (s *Store) SaveReport(ctx context.Context, r *portscan.ScanReport) error {
	if s == nil || s.dbx == nil {
		return fmt.Errorf("database not initialized")
	}

	c := 0
	for {
		err := s.saveReport(ctx, r)
		if err != nil && strings.Contains(err.Error(), "database is locked") && c < maxLockedRetries {
			c++
			randutil.RandSleep(1000)
			continue
		}
		if err != nil {
			gologger.Error().Msgf("Error inserting scan into database: %v", err)
		}
		return err
	}
}

func (s *Store) saveReport(ctx context.Context, r *portscan.ScanReport) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.dbx.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		tx.Rebind("INSERT INTO scans(id, host, ip, ports, open_count, anomalies, elapsed, created) VALUES(?, ?, ?, ?, ?, ?, ?, ?)"),
		r.ID, r.Host, r.IP, len(r.Results), len(r.OpenResults()), r.Anomalies, r.Elapsed.Seconds(),
		r.StartedAt.Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return err
	}

	stmt, err := tx.PreparexContext(ctx, tx.Rebind("INSERT INTO results(id, scan_id, port, state, service, banner) VALUES(?, ?, ?, ?, ?, ?)"))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, res := range r.Results {
		if _, err := stmt.ExecContext(ctx, SnowFlake.NextID(), r.ID, res.Port, res.State.String(), res.Service, res.Banner); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListScans returns the most recent scans, optionally only those of host.
func (s *Store) ListScans(ctx context.Context, host string, limit int) ([]ScanRow, error) {
	if s == nil || s.dbx == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = LIMIT
	}

	data := []ScanRow{}
	query := "SELECT id, host, ip, ports, open_count, anomalies, elapsed, created FROM scans"
	args := []any{}
	if host != "" {
		query += " WHERE host = ?"
		args = append(args, host)
	}
	query += " ORDER BY created DESC, id DESC LIMIT ?"
	args = append(args, limit)

	if err := s.dbx.SelectContext(ctx, &data, s.dbx.Rebind(query), args...); err != nil {
		return nil, err
	}
	return data, nil
}

// GetResults returns the stored results of one scan ordered by port. With
// openOnly set, closed and filtered ports are left out.
func (s *Store) GetResults(ctx context.Context, scanID string, openOnly bool) ([]ResultRow, error) {
	if s == nil || s.dbx == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	data := []ResultRow{}
	query := "SELECT id, scan_id, port, state, service, banner FROM results WHERE scan_id = ?"
	args := []any{scanID}
	if openOnly {
		query += " AND state = ?"
		args = append(args, portscan.PortStateOpen.String())
	}
	query += " ORDER BY port ASC"

	if err := s.dbx.SelectContext(ctx, &data, s.dbx.Rebind(query), args...); err != nil {
		return nil, err
	}
	return data, nil
}

// Count returns the number of stored scans.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if s == nil || s.dbx == nil {
		return 0, fmt.Errorf("database not initialized")
	}
	var n int64
	err := s.dbx.GetContext(ctx, &n, "SELECT COUNT(1) FROM scans")
	return n, err
}
