// Package download persists download records and keeps them in step with
// the jobs running them.
package download

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/vmunix/nzzel/pkg/title"
)

// Status tracks download state.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusPaused      Status = "paused"
	StatusCancelled   Status = "cancelled"
)

// Download is the persisted record of one download request.
type Download struct {
	ID               int64
	JobID            string // orchestrator job running this download
	VideoID          string
	Title            string
	URL              string
	Quality          string
	Format           string
	AudioOnly        bool
	Filename         string
	FilePath         string
	FileSize         *int64 // bytes
	Duration         *int64 // seconds
	ThumbnailURL     *string
	Status           Status
	Progress         float64  // 0-100
	Speed            *float64 // bytes/sec
	ETA              *int64   // seconds
	ErrorMessage     *string
	CreatedAt        time.Time
	CompletedAt      *time.Time
	LastTransitionAt time.Time
}

// Filter specifies criteria for listing downloads.
type Filter struct {
	Status *Status
	Active bool   // only pending, downloading and paused
	Query  string // fuzzy title match, see title.Matches
	Limit  int
	Offset int
}

// Store persists download records.
type Store struct {
	db *sql.DB

	mu       sync.RWMutex
	handlers []TransitionHandler
}

// NewStore creates a download store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// OnTransition registers a handler to be called on state transitions.
func (s *Store) OnTransition(h TransitionHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}

const selectColumns = `SELECT id, job_id, video_id, title, url, quality, format, audio_only,
	filename, file_path, file_size, duration, thumbnail_url, status, progress,
	download_speed, eta, error_message, created_at, completed_at, last_transition_at
	FROM downloads`

type scanner interface {
	Scan(dest ...any) error
}

func scanDownload(row scanner) (*Download, error) {
	d := &Download{}
	err := row.Scan(&d.ID, &d.JobID, &d.VideoID, &d.Title, &d.URL, &d.Quality, &d.Format, &d.AudioOnly,
		&d.Filename, &d.FilePath, &d.FileSize, &d.Duration, &d.ThumbnailURL, &d.Status, &d.Progress,
		&d.Speed, &d.ETA, &d.ErrorMessage, &d.CreatedAt, &d.CompletedAt, &d.LastTransitionAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Add inserts a new record. Status defaults to pending.
func (s *Store) Add(d *Download) error {
	if d.Status == "" {
		d.Status = StatusPending
	}
	now := time.Now()
	result, err := s.db.Exec(`
		INSERT INTO downloads (job_id, video_id, title, url, quality, format, audio_only, filename, file_path,
			file_size, duration, thumbnail_url, status, progress, created_at, last_transition_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.JobID, d.VideoID, d.Title, d.URL, d.Quality, d.Format, d.AudioOnly, d.Filename, d.FilePath,
		d.FileSize, d.Duration, d.ThumbnailURL, d.Status, d.Progress, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert download: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	d.ID = id
	d.CreatedAt = now
	d.LastTransitionAt = now
	return nil
}

// Get retrieves a download by ID.
// Returns ErrNotFound if the download does not exist.
func (s *Store) Get(id int64) (*Download, error) {
	d, err := scanDownload(s.db.QueryRow(selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get download %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get download %d: %w", id, err)
	}
	return d, nil
}

// GetByJobID retrieves the download run by an orchestrator job.
// Returns ErrNotFound if no matching download exists.
func (s *Store) GetByJobID(jobID string) (*Download, error) {
	d, err := scanDownload(s.db.QueryRow(selectColumns+` WHERE job_id = ?`, jobID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get download by job %s: %w", jobID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get download by job %s: %w", jobID, err)
	}
	return d, nil
}

// List returns downloads matching the filter, oldest first, and the total
// number of matches before pagination. Limit and Offset apply after the
// title query has been matched.
func (s *Store) List(f Filter) ([]*Download, int, error) {
	var conditions []string
	var args []any

	if f.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *f.Status)
	}
	if f.Active {
		conditions = append(conditions, "status IN (?, ?, ?)")
		args = append(args, StatusPending, StatusDownloading, StatusPaused)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := s.db.Query(selectColumns+whereClause+" ORDER BY id", args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list downloads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Download
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan download: %w", err)
		}
		if f.Query != "" && !title.Matches(f.Query, d.Title) {
			continue
		}
		results = append(results, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate downloads: %w", err)
	}

	return paginate(results, f.Limit, f.Offset), len(results), nil
}

func paginate(ds []*Download, limit, offset int) []*Download {
	if offset > 0 {
		if offset >= len(ds) {
			return nil
		}
		ds = ds[offset:]
	}
	if limit > 0 && limit < len(ds) {
		ds = ds[:limit]
	}
	return ds
}

// UpdateProgress stores a progress sample. Progress is rounded to a whole
// percent. Only downloading records are updated; it returns false
// otherwise.
func (s *Store) UpdateProgress(id int64, pct, speed float64, eta int) (bool, error) {
	result, err := s.db.Exec(`
		UPDATE downloads SET progress = ?, download_speed = ?, eta = ?
		WHERE id = ? AND status = ?`,
		math.Round(pct), speed, eta, id, StatusDownloading,
	)
	if err != nil {
		return false, fmt.Errorf("update progress %d: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows > 0, nil
}

// Transition changes a download's status with validation and event emission.
func (s *Store) Transition(d *Download, to Status) error {
	return s.transition(d, to, "", nil)
}

// Complete marks a download completed with its final file. An empty
// filename keeps the one recorded at insert time.
func (s *Store) Complete(d *Download, filename string) error {
	name := d.Filename
	path := d.FilePath
	if filename != "" {
		name, path = filename, filename
	}
	now := time.Now()
	err := s.transition(d, StatusCompleted,
		"filename = ?, file_path = ?, progress = 100, eta = 0, completed_at = ?",
		[]any{name, path, now})
	if err != nil {
		return err
	}
	d.Filename, d.FilePath, d.Progress, d.CompletedAt = name, path, 100, &now
	return nil
}

// Fail marks a download failed with a message. A cancelled record is never
// overwritten; that attempt returns ErrInvalidTransition.
func (s *Store) Fail(d *Download, message string) error {
	if message == "" {
		message = "Download failed"
	}
	if err := s.transition(d, StatusFailed, "error_message = ?", []any{message}); err != nil {
		return err
	}
	d.ErrorMessage = &message
	return nil
}

// Reassign moves a failed download back to pending under a new job id,
// clearing its progress and error.
func (s *Store) Reassign(d *Download, jobID string) error {
	err := s.transition(d, StatusPending,
		"job_id = ?, progress = 0, download_speed = NULL, eta = NULL, error_message = NULL",
		[]any{jobID})
	if err != nil {
		return err
	}
	d.JobID, d.Progress, d.Speed, d.ETA, d.ErrorMessage = jobID, 0, nil, nil, nil
	return nil
}

// transition is a compare-and-set on the stored status so that two
// writers racing on one record cannot both win.
func (s *Store) transition(d *Download, to Status, extraSet string, extraArgs []any) error {
	if !d.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.Status, to)
	}

	from := d.Status
	now := time.Now()

	set := "status = ?, last_transition_at = ?"
	if extraSet != "" {
		set += ", " + extraSet
	}
	args := append([]any{to, now}, extraArgs...)
	args = append(args, d.ID, from)

	result, err := s.db.Exec(`UPDATE downloads SET `+set+` WHERE id = ? AND status = ?`, args...)
	if err != nil {
		return fmt.Errorf("update download %d: %w", d.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		cur, err := s.Get(d.ID)
		if err != nil {
			return fmt.Errorf("transition download %d: %w", d.ID, err)
		}
		d.Status = cur.Status
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur.Status, to)
	}

	d.Status = to
	d.LastTransitionAt = now

	event := TransitionEvent{
		DownloadID: d.ID,
		JobID:      d.JobID,
		From:       from,
		To:         to,
		At:         now,
	}
	s.mu.RLock()
	handlers := s.handlers
	s.mu.RUnlock()
	for _, h := range handlers {
		h(event)
	}

	return nil
}

// Delete removes a download by ID.
// This operation is idempotent - no error is returned if the download does not exist.
func (s *Store) Delete(id int64) error {
	_, err := s.db.Exec("DELETE FROM downloads WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete download %d: %w", id, err)
	}
	return nil
}

// Counts returns the number of records per status.
func (s *Store) Counts() (map[Status]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM downloads GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count downloads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[Status]int)
	for rows.Next() {
		var st Status
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[st] = n
	}
	return counts, rows.Err()
}
