// Package fleet implements "akmc inspect --batch": loading the header
// fields of every AKM v2 artifact in a directory into an in-process
// DuckDB table and running aggregate SQL over them. It is additive
// reporting on top of akm/inspect, never a replacement for it.
package fleet

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/chazu/akmc/akm/inspect"
)

// Report is the outcome of scanning a directory of artifacts.
type Report struct {
	Scanned int
	Failed  []ScanError

	CapabilityHistogram []CapCount
	SecurityLevelCounts []LevelCount
	DependencyFanout    float64
}

// ScanError names one file that couldn't be inspected and why.
type ScanError struct {
	Path string
	Err  error
}

// CapCount is one row of the capability histogram.
type CapCount struct {
	Name  string
	Count int
}

// LevelCount is one row of the security-level distribution.
type LevelCount struct {
	Level int
	Count int
}

// ScanDir inspects every *.akm file directly under dir, loads the header
// fields into an in-memory DuckDB table, and returns aggregate SQL
// results computed over it.
func ScanDir(dir string) (*Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("fleet: reading %s: %w", dir, err)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("fleet: opening duckdb: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE artifacts (
		path             VARCHAR,
		name             VARCHAR,
		version          VARCHAR,
		capabilities     INTEGER,
		security_level   INTEGER,
		dep_count        INTEGER
	)`); err != nil {
		return nil, fmt.Errorf("fleet: creating table: %w", err)
	}

	rep := &Report{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".akm" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			rep.Failed = append(rep.Failed, ScanError{Path: path, Err: err})
			continue
		}
		res, err := inspect.Inspect(data)
		if err != nil {
			rep.Failed = append(rep.Failed, ScanError{Path: path, Err: err})
			continue
		}
		rep.Scanned++
		_, err = db.Exec(`INSERT INTO artifacts VALUES (?, ?, ?, ?, ?, ?)`,
			path, res.Header.Name, res.Header.Version, res.Header.Capabilities,
			res.Header.SecurityLevel, len(res.Header.Dependencies))
		if err != nil {
			return nil, fmt.Errorf("fleet: inserting %s: %w", path, err)
		}
	}

	if rep.Scanned == 0 {
		return rep, nil
	}

	if err := loadSecurityLevels(db, rep); err != nil {
		return nil, err
	}
	if err := loadCapabilityHistogram(db, rep); err != nil {
		return nil, err
	}
	if err := loadDependencyFanout(db, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

func loadSecurityLevels(db *sql.DB, rep *Report) error {
	rows, err := db.Query(`SELECT security_level, COUNT(*) FROM artifacts GROUP BY security_level ORDER BY security_level`)
	if err != nil {
		return fmt.Errorf("fleet: security-level query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var lc LevelCount
		if err := rows.Scan(&lc.Level, &lc.Count); err != nil {
			return err
		}
		rep.SecurityLevelCounts = append(rep.SecurityLevelCounts, lc)
	}
	return rows.Err()
}

func loadCapabilityHistogram(db *sql.DB, rep *Report) error {
	rows, err := db.Query(`SELECT capabilities, COUNT(*) FROM artifacts GROUP BY capabilities ORDER BY COUNT(*) DESC`)
	if err != nil {
		return fmt.Errorf("fleet: capability query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var mask uint32
		var count int
		if err := rows.Scan(&mask, &count); err != nil {
			return err
		}
		rep.CapabilityHistogram = append(rep.CapabilityHistogram, CapCount{
			Name:  fmt.Sprintf("0x%08X", mask),
			Count: count,
		})
	}
	return rows.Err()
}

func loadDependencyFanout(db *sql.DB, rep *Report) error {
	row := db.QueryRow(`SELECT AVG(dep_count) FROM artifacts`)
	return row.Scan(&rep.DependencyFanout)
}
