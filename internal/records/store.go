package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"streamstrip/internal/config"
)

// CompletionRecord is the persisted summary of one successful job.
type CompletionRecord struct {
	ID                        int64     `json:"id"`
	JobID                     string    `json:"job_id"`
	SourceID                  string    `json:"source_id"`
	ChatID                    int64     `json:"chat_id"`
	FileName                  string    `json:"file_name"`
	OriginalSize              int64     `json:"original_size"`
	ProcessedSize             int64     `json:"processed_size"`
	ProcessingDurationSeconds float64   `json:"processing_duration_seconds"`
	CompletedAt               time.Time `json:"completed_at"`
}

// Link is one entry in a user's saved link list.
type Link struct {
	ID        int64
	UserID    int64
	URL       string
	CreatedAt time.Time
}

// Stats aggregates completion records.
type Stats struct {
	Jobs              int64
	OriginalBytes     int64
	ProcessedBytes    int64
	TotalSeconds      float64
	LastCompletedAt   time.Time
	HasLastCompletion bool
}

// Store persists completion records and links in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	maxLinkLength           = 2048
)

// ErrInvalidLink reports a link that is empty, too long, or not http(s).
var ErrInvalidLink = errors.New("invalid link")

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open initializes or connects to the record database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Insert writes one completion record. A zero CompletedAt is stamped with the
// current time; the assigned id is stored back into rec.
func (s *Store) Insert(ctx context.Context, rec *CompletionRecord) error {
	if rec == nil {
		return errors.New("record is nil")
	}
	if strings.TrimSpace(rec.SourceID) == "" {
		return errors.New("record source id is empty")
	}
	ctx = ensureContext(ctx)
	if rec.CompletedAt.IsZero() {
		rec.CompletedAt = time.Now()
	}
	rec.CompletedAt = rec.CompletedAt.UTC()

	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx,
			`INSERT INTO completion_records (
                job_id, source_id, chat_id, file_name, original_size,
                processed_size, processing_seconds, completed_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.JobID,
			rec.SourceID,
			rec.ChatID,
			nullableString(rec.FileName),
			rec.OriginalSize,
			rec.ProcessedSize,
			rec.ProcessingDurationSeconds,
			formatTime(rec.CompletedAt),
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("insert completion record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

// List returns the most recent completion records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]CompletionRecord, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, source_id, chat_id, file_name, original_size,
                processed_size, processing_seconds, completed_at
         FROM completion_records ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list completion records: %w", err)
	}
	defer rows.Close()

	var out []CompletionRecord
	for rows.Next() {
		var (
			rec       CompletionRecord
			fileName  sql.NullString
			completed string
		)
		if err := rows.Scan(&rec.ID, &rec.JobID, &rec.SourceID, &rec.ChatID, &fileName,
			&rec.OriginalSize, &rec.ProcessedSize, &rec.ProcessingDurationSeconds, &completed); err != nil {
			return nil, fmt.Errorf("scan completion record: %w", err)
		}
		rec.FileName = fileName.String
		rec.CompletedAt = parseTime(completed)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completion records: %w", err)
	}
	return out, nil
}

// Stats summarises every completion record.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	var (
		stats Stats
		last  sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), COALESCE(SUM(original_size), 0), COALESCE(SUM(processed_size), 0),
                COALESCE(SUM(processing_seconds), 0), MAX(completed_at)
         FROM completion_records`,
	).Scan(&stats.Jobs, &stats.OriginalBytes, &stats.ProcessedBytes, &stats.TotalSeconds, &last)
	if err != nil {
		return Stats{}, fmt.Errorf("record stats: %w", err)
	}
	if last.Valid {
		stats.LastCompletedAt = parseTime(last.String)
		stats.HasLastCompletion = true
	}
	return stats, nil
}

// AddLink appends a link to the user's ordered list.
func (s *Store) AddLink(ctx context.Context, userID int64, raw string) (Link, error) {
	ctx = ensureContext(ctx)
	link, err := normalizeLink(raw)
	if err != nil {
		return Link{}, err
	}
	now := time.Now().UTC()

	var res sql.Result
	err = retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx,
			`INSERT INTO links (user_id, url, created_at) VALUES (?, ?, ?)`,
			userID, link, formatTime(now))
		return execErr
	})
	if err != nil {
		return Link{}, fmt.Errorf("insert link: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Link{}, fmt.Errorf("last insert id: %w", err)
	}
	return Link{ID: id, UserID: userID, URL: link, CreatedAt: now}, nil
}

// Links returns the user's links in insertion order.
func (s *Store) Links(ctx context.Context, userID int64) ([]Link, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, url, created_at FROM links WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var out []Link
	for rows.Next() {
		var (
			link    Link
			created string
		)
		if err := rows.Scan(&link.ID, &link.UserID, &link.URL, &created); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		link.CreatedAt = parseTime(created)
		out = append(out, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return out, nil
}

func normalizeLink(raw string) (string, error) {
	link := strings.TrimSpace(raw)
	if link == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidLink)
	}
	if len(link) > maxLinkLength {
		return "", fmt.Errorf("%w: longer than %d bytes", ErrInvalidLink, maxLinkLength)
	}
	parsed, err := url.Parse(link)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", fmt.Errorf("%w: %q is not an http(s) URL", ErrInvalidLink, link)
	}
	return link, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

// timeLayout is fixed width so stored timestamps sort correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
