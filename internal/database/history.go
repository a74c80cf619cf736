package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/linkmatch/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "linkmatch.db"

// ErrNotFound is returned when a requested extraction does not exist.
var ErrNotFound = errors.New("extraction not found")

// HistoryDB is the SQLite-backed extraction history.
// It is safe for concurrent use.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures Open.
type Options struct {
	// CreateIfNotExists creates the directory and database file if needed.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	mode := "rw"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		mode = "rwc"
	} else if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, err)
		}
		return nil, fmt.Errorf("failed to check database path: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?mode="+mode+"&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := h.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return h, nil
}

// Close closes the database.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

func (h *HistoryDB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS extractions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		failure TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		status_code INTEGER NOT NULL DEFAULT 0,
		body_size INTEGER NOT NULL DEFAULT 0,
		body_hash TEXT NOT NULL DEFAULT '',
		truncated INTEGER NOT NULL DEFAULT 0,
		extracted_at TEXT NOT NULL,
		duration_ns INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_extractions_source ON extractions(source, extracted_at);

	CREATE TABLE IF NOT EXISTS links (
		extraction_id INTEGER NOT NULL REFERENCES extractions(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		target TEXT NOT NULL,
		PRIMARY KEY (extraction_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_links_target ON links(target);
	`
	_, err := h.db.ExecContext(ctx, schema)
	return err
}

// timeLayout is fixed width so that text order equals time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SaveExtraction stores extraction and its links in one transaction.
func (h *HistoryDB) SaveExtraction(ctx context.Context, e *model.Extraction) (err error) {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO extractions (source, kind, status, failure, error, status_code, body_size, body_hash, truncated, extracted_at, duration_ns)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.Source,
		string(e.Kind),
		string(e.Status),
		e.Failure.String(),
		e.Error,
		e.StatusCode,
		e.BodySize,
		e.BodyHash,
		e.Truncated,
		e.ExtractedAt.UTC().Format(timeLayout),
		int64(e.Duration),
	)
	if err != nil {
		return fmt.Errorf("failed to insert extraction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read extraction id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO links (extraction_id, position, target) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare link insert: %w", err)
	}
	defer stmt.Close()

	for i, link := range e.Links {
		if _, err = stmt.ExecContext(ctx, id, i, link); err != nil {
			return fmt.Errorf("failed to insert link: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit extraction: %w", err)
	}
	return nil
}

// Record is a stored extraction without its links.
type Record struct {
	ID          int64             `json:"id"`
	Source      string            `json:"source"`
	Kind        model.SourceKind  `json:"kind"`
	Status      model.Status      `json:"status"`
	Failure     model.FailureKind `json:"failure"`
	Error       string            `json:"error,omitempty"`
	StatusCode  int               `json:"status_code,omitempty"`
	BodySize    int               `json:"body_size"`
	BodyHash    string            `json:"body_hash,omitempty"`
	Truncated   bool              `json:"truncated,omitempty"`
	ExtractedAt time.Time         `json:"extracted_at"`
	Duration    time.Duration     `json:"duration"`
	LinkCount   int               `json:"link_count"`
}

const recordColumns = `
	e.id, e.source, e.kind, e.status, e.failure, e.error, e.status_code, e.body_size,
	e.body_hash, e.truncated, e.extracted_at, e.duration_ns,
	(SELECT COUNT(*) FROM links l WHERE l.extraction_id = e.id)
`

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		r         Record
		kind      string
		status    string
		failure   string
		extracted string
		duration  int64
	)
	if err := row.Scan(&r.ID, &r.Source, &kind, &status, &failure, &r.Error, &r.StatusCode,
		&r.BodySize, &r.BodyHash, &r.Truncated, &extracted, &duration, &r.LinkCount); err != nil {
		return Record{}, err
	}
	r.Kind = model.SourceKind(kind)
	r.Status = model.Status(status)
	if fk, err := model.ParseFailureKind(failure); err == nil {
		r.Failure = fk
	}
	r.ExtractedAt = parseTimestamp(extracted)
	r.Duration = time.Duration(duration)
	return r, nil
}

// ListSources returns every source with at least one stored extraction.
func (h *HistoryDB) ListSources(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, "SELECT DISTINCT source FROM extractions ORDER BY source")
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	sources := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// ListExtractions returns the newest extractions first. An empty source
// lists all sources; a non-positive limit returns everything.
func (h *HistoryDB) ListExtractions(ctx context.Context, source string, limit int) ([]Record, error) {
	query := "SELECT " + recordColumns + " FROM extractions e"
	args := make([]any, 0, 2)
	if source != "" {
		query += " WHERE e.source = ?"
		args = append(args, source)
	}
	query += " ORDER BY e.extracted_at DESC, e.id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list extractions: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan extraction: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetExtraction returns the extraction with id, including its links.
func (h *HistoryDB) GetExtraction(ctx context.Context, id int64) (*model.Extraction, error) {
	r, err := scanRecord(h.db.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM extractions e WHERE e.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get extraction: %w", err)
	}

	links, err := h.links(ctx, id)
	if err != nil {
		return nil, err
	}

	return &model.Extraction{
		Source:      r.Source,
		Kind:        r.Kind,
		Links:       links,
		Status:      r.Status,
		Failure:     r.Failure,
		Error:       r.Error,
		StatusCode:  r.StatusCode,
		BodySize:    r.BodySize,
		BodyHash:    r.BodyHash,
		Truncated:   r.Truncated,
		ExtractedAt: r.ExtractedAt,
		Duration:    r.Duration,
	}, nil
}

// LatestSuccessful returns up to n successful extractions of source,
// newest first.
func (h *HistoryDB) LatestSuccessful(ctx context.Context, source string, n int) ([]*model.Extraction, error) {
	rows, err := h.db.QueryContext(ctx, `
	SELECT id FROM extractions
	WHERE source = ? AND status = ?
	ORDER BY extracted_at DESC, id DESC
	LIMIT ?
	`, source, string(model.StatusOK), n)
	if err != nil {
		return nil, fmt.Errorf("failed to query extractions: %w", err)
	}

	ids := make([]int64, 0, n)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan extraction id: %w", err)
		}
		ids = append(ids, id)
	}
	// Release the only connection before the nested queries.
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query extractions: %w", err)
	}

	result := make([]*model.Extraction, 0, len(ids))
	for _, id := range ids {
		e, err := h.GetExtraction(ctx, id)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, nil
}

// links returns the links of an extraction in stored order.
func (h *HistoryDB) links(ctx context.Context, id int64) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, "SELECT target FROM links WHERE extraction_id = ? ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	links := make([]string, 0)
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// DeleteBefore removes extractions older than cutoff and returns how many
// were removed.
func (h *HistoryDB) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := h.db.ExecContext(ctx, "DELETE FROM extractions WHERE extracted_at < ?", cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to delete extractions: %w", err)
	}
	return res.RowsAffected()
}

// timestampFormats are the layouts accepted when reading timestamps back.
var timestampFormats = []string{
	timeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// parseTimestamp returns the zero time when no layout matches.
func parseTimestamp(s string) time.Time {
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
