package fit

import (
	"bufio"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/decibelcooper/centfit/glauber"
)

// ScanLog records scored parameter points of one distribution.
type ScanLog interface {
	Record(p glauber.Params, score float64) error
}

// ScanStore hands out the scan log of each fitted distribution.
type ScanStore interface {
	Scan(hist string) ScanLog
	Close() error
}

// TextScanLog writes one "eff mu k alpha score" line per point. Points of all
// distributions go to the same file.
type TextScanLog struct {
	f *os.File
	w *bufio.Writer
}

// CreateTextScanLog truncates or creates fname.
func CreateTextScanLog(fname string) (*TextScanLog, error) {
	f, err := os.Create(fname)
	if err != nil {
		return nil, fmt.Errorf("could not create scan log: %w", err)
	}
	return &TextScanLog{f: f, w: bufio.NewWriter(f)}, nil
}

func (s *TextScanLog) Scan(string) ScanLog { return s }

func (s *TextScanLog) Record(p glauber.Params, score float64) error {
	_, err := fmt.Fprintf(s.w, "%3.3f %3.3f %3.3f %3.3f %3.3f\n", p.Eff, p.Mu, p.K, p.Alpha, score)
	return err
}

func (s *TextScanLog) Close() error {
	return errors.Join(s.w.Flush(), s.f.Close())
}

const createScanTable = `
CREATE TABLE IF NOT EXISTS scan (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session TEXT NOT NULL,
	hist TEXT NOT NULL,
	alpha REAL,
	mu REAL,
	k REAL,
	eff REAL,
	score REAL
);
`

const insertScanPoint = `
INSERT INTO scan (session, hist, alpha, mu, k, eff, score) VALUES (?, ?, ?, ?, ?, ?, ?);
`

// SQLiteScanLog stores scan points in a SQLite database, keyed by session
// and distribution, so that several sessions can share one file.
type SQLiteScanLog struct {
	db      *sql.DB
	session uuid.UUID
}

// OpenSQLiteScanLog opens or creates the database at fname.
func OpenSQLiteScanLog(fname string, session uuid.UUID) (*SQLiteScanLog, error) {
	db, err := sql.Open("sqlite", fname)
	if err != nil {
		return nil, fmt.Errorf("could not open scan database: %w", err)
	}
	if _, err := db.Exec(createScanTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create scan table: %w", err)
	}
	return &SQLiteScanLog{db: db, session: session}, nil
}

func (s *SQLiteScanLog) Scan(hist string) ScanLog {
	return sqliteScan{s: s, hist: hist}
}

func (s *SQLiteScanLog) Close() error {
	return s.db.Close()
}

// Points returns the points recorded for hist in this session, in insertion
// order.
func (s *SQLiteScanLog) Points(hist string) ([]glauber.Params, []float64, error) {
	rows, err := s.db.Query(
		`SELECT alpha, mu, k, eff, score FROM scan WHERE session = ? AND hist = ? ORDER BY id`,
		s.session.String(), hist,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var (
		ps     []glauber.Params
		scores []float64
	)
	for rows.Next() {
		var (
			p     glauber.Params
			score float64
		)
		if err := rows.Scan(&p.Alpha, &p.Mu, &p.K, &p.Eff, &score); err != nil {
			return nil, nil, err
		}
		ps = append(ps, p)
		scores = append(scores, score)
	}
	return ps, scores, rows.Err()
}

type sqliteScan struct {
	s    *SQLiteScanLog
	hist string
}

func (sc sqliteScan) Record(p glauber.Params, score float64) error {
	_, err := sc.s.db.Exec(insertScanPoint,
		sc.s.session.String(), sc.hist, p.Alpha, p.Mu, p.K, p.Eff, score,
	)
	return err
}

// MultiScanStore fans scan points out to several stores.
type MultiScanStore []ScanStore

func (m MultiScanStore) Scan(hist string) ScanLog {
	logs := make(multiScan, len(m))
	for i, s := range m {
		logs[i] = s.Scan(hist)
	}
	return logs
}

func (m MultiScanStore) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

type multiScan []ScanLog

func (m multiScan) Record(p glauber.Params, score float64) error {
	for _, l := range m {
		if err := l.Record(p, score); err != nil {
			return err
		}
	}
	return nil
}
