package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/okian/proflink/internal/domain/model"
	"github.com/okian/proflink/pkg/metrics"
)

const activeTermKey = "active_term"

// linkRow is the SQLite row shape for one instructor link.
type linkRow struct {
	Term          string  `db:"term"`
	InstructorID  string  `db:"instructor_id"`
	Provider      string  `db:"provider"`
	CandidateID   string  `db:"candidate_id"`
	AvgRating     float64 `db:"avg_rating"`
	RatingCount   int     `db:"rating_count"`
	NameScore     float64 `db:"name_score"`
	SubjectScore  float64 `db:"subject_score"`
	UniqScore     float64 `db:"uniq_score"`
	VolumeScore   float64 `db:"volume_score"`
	DeptScore     float64 `db:"dept_score"`
	CourseOverlap float64 `db:"course_overlap"`
	Aggregate     float64 `db:"aggregate"`
	Confident     bool    `db:"confident"`
}

func (r linkRow) toLink() model.InstructorLink {
	return model.InstructorLink{
		InstructorID: r.InstructorID,
		Provider:     model.Provider(r.Provider),
		CandidateID:  r.CandidateID,
		Term:         r.Term,
		AvgRating:    r.AvgRating,
		RatingCount:  r.RatingCount,
		Breakdown: model.ScoreBreakdown{
			Name:          r.NameScore,
			Subject:       r.SubjectScore,
			Uniqueness:    r.UniqScore,
			Volume:        r.VolumeScore,
			DeptScore:     r.DeptScore,
			CourseOverlap: r.CourseOverlap,
			Aggregate:     r.Aggregate,
			ResponseCount: r.RatingCount,
			Confident:     r.Confident,
		},
	}
}

// SQLiteStore implements Store on SQLite. The publish path runs inside a
// single transaction: the term's prior rows are deleted, the replacement
// set inserted, and the active-term marker updated, so a failed run leaves
// the prior set untouched.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLite opens (or creates) a SQLite link store at path and runs
// migrations.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// PublishRun atomically replaces the link set for term.
func (s *SQLiteStore) PublishRun(ctx context.Context, term string, links []model.InstructorLink) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrPublishFailed, err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, `DELETE FROM links WHERE term = ?`, term); err != nil {
		return fmt.Errorf("%w: clear term %s: %v", ErrPublishFailed, term, err)
	}
	const insert = `
		INSERT INTO links (term, instructor_id, provider, candidate_id, avg_rating, rating_count,
			name_score, subject_score, uniq_score, volume_score, dept_score, course_overlap, aggregate, confident)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, l := range links {
		b := l.Breakdown
		if _, err := tx.ExecContext(ctx, insert,
			term, l.InstructorID, string(l.Provider), l.CandidateID, l.AvgRating, l.RatingCount,
			b.Name, b.Subject, b.Uniqueness, b.Volume, b.DeptScore, b.CourseOverlap, b.Aggregate, b.Confident,
		); err != nil {
			return fmt.Errorf("%w: insert link %s/%s: %v", ErrPublishFailed, l.InstructorID, l.Provider, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		activeTermKey, term,
	); err != nil {
		return fmt.Errorf("%w: set active term: %v", ErrPublishFailed, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrPublishFailed, err)
	}

	metrics.UpdateStoreLinks(len(links))
	return nil
}

// LinksFor returns the active links for one instructor.
func (s *SQLiteStore) LinksFor(ctx context.Context, instructorID string) ([]model.InstructorLink, error) {
	term, err := s.ActiveTerm(ctx)
	if err != nil || term == "" {
		return nil, err
	}
	var rows []linkRow
	err = s.db.SelectContext(ctx, &rows,
		`SELECT * FROM links WHERE term = ? AND instructor_id = ? ORDER BY provider`,
		term, instructorID)
	if err != nil {
		return nil, fmt.Errorf("select links for %s: %w", instructorID, err)
	}
	links := make([]model.InstructorLink, len(rows))
	for i, r := range rows {
		links[i] = r.toLink()
	}
	return links, nil
}

// Link returns the active link for (instructor, provider).
func (s *SQLiteStore) Link(ctx context.Context, instructorID string, provider model.Provider) (model.InstructorLink, error) {
	term, err := s.ActiveTerm(ctx)
	if err != nil {
		return model.InstructorLink{}, err
	}
	if term == "" {
		return model.InstructorLink{}, ErrNotFound
	}
	var row linkRow
	err = s.db.GetContext(ctx, &row,
		`SELECT * FROM links WHERE term = ? AND instructor_id = ? AND provider = ?`,
		term, instructorID, string(provider))
	if errors.Is(err, sql.ErrNoRows) {
		return model.InstructorLink{}, ErrNotFound
	}
	if err != nil {
		return model.InstructorLink{}, fmt.Errorf("select link %s/%s: %w", instructorID, provider, err)
	}
	return row.toLink(), nil
}

// ActiveTerm returns the most recently published term.
func (s *SQLiteStore) ActiveTerm(ctx context.Context) (string, error) {
	var term string
	err := s.db.GetContext(ctx, &term, `SELECT value FROM meta WHERE key = ?`, activeTermKey)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("select active term: %w", err)
	}
	return term, nil
}

// Count returns the number of active links.
func (s *SQLiteStore) Count(ctx context.Context) int {
	term, err := s.ActiveTerm(ctx)
	if err != nil || term == "" {
		return 0
	}
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM links WHERE term = ?`, term); err != nil {
		return 0
	}
	return n
}
