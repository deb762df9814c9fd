package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/tracbench/internal/sweep"
)

// ErrSessionNotFound is returned when a session ID is unknown.
var ErrSessionNotFound = errors.New("session not found")

// SeriesTotal is the job count and summed duration of one series.
type SeriesTotal struct {
	Label string        `json:"label"`
	Jobs  int           `json:"jobs"`
	Total time.Duration `json:"total_ns"`
}

// SessionSummary is a persisted session with its aggregates.
type SessionSummary struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	ConfigPath string        `json:"config_path,omitempty"`
	Policy     string        `json:"policy,omitempty"`
	Reference  string        `json:"reference,omitempty"`
	Stopped    bool          `json:"stopped,omitempty"`
	Positions  int           `json:"positions"`
	Mismatches int           `json:"mismatches"`
	Series     []SeriesTotal `json:"series"`
}

// Matches returns the number of compared positions without a mismatch.
func (s SessionSummary) Matches() int {
	return s.Positions - s.Mismatches
}

// JobRecord is a persisted job result.
type JobRecord struct {
	Label          string            `json:"label"`
	Implementation string            `json:"implementation"`
	Mode           string            `json:"mode,omitempty"`
	Args           sweep.ArgumentSet `json:"args"`
	OutputSHA256   string            `json:"output_sha256"`
	OutputBytes    int               `json:"output_bytes"`
	Duration       time.Duration     `json:"duration_ns"`
	ExitCode       int               `json:"exit_code"`
	Artifact       string            `json:"artifact,omitempty"`
	Error          string            `json:"error,omitempty"`
}

// ListSessions returns the most recent sessions first. limit <= 0 returns
// every session.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	query := `
		SELECT id, started_at, config_path, policy, reference, stopped
		FROM sessions
		ORDER BY started_at DESC, id COLLATE BINARY DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	var sessions []SessionSummary
	for rows.Next() {
		sum, err := scanSession(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		sessions = append(sessions, sum)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	rows.Close()

	// Aggregates need the single connection, so they run after rows is closed.
	for i := range sessions {
		if err := s.fillAggregates(ctx, &sessions[i]); err != nil {
			return nil, err
		}
	}

	// Return empty slice instead of nil
	if sessions == nil {
		sessions = []SessionSummary{}
	}
	return sessions, nil
}

// ReadSession returns one session summary.
func (s *Store) ReadSession(ctx context.Context, id string) (SessionSummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, config_path, policy, reference, stopped
		FROM sessions
		WHERE id = ?
	`, id)
	sum, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionSummary{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return SessionSummary{}, err
	}
	if err := s.fillAggregates(ctx, &sum); err != nil {
		return SessionSummary{}, err
	}
	return sum, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (SessionSummary, error) {
	var (
		sum       SessionSummary
		startedAt string
		stopped   int
	)
	if err := row.Scan(&sum.ID, &startedAt, &sum.ConfigPath, &sum.Policy, &sum.Reference, &stopped); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sum, err
		}
		return sum, fmt.Errorf("scan session: %w", err)
	}
	t, err := time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return sum, fmt.Errorf("scan session %s: started_at: %w", sum.ID, err)
	}
	sum.StartedAt = t
	sum.Stopped = stopped != 0
	return sum, nil
}

func (s *Store) fillAggregates(ctx context.Context, sum *SessionSummary) error {
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(DISTINCT position),
			COUNT(DISTINCT CASE WHEN verdict = 'MISMATCH' THEN position END)
		FROM comparisons
		WHERE session_id = ?
	`, sum.ID).Scan(&sum.Positions, &sum.Mismatches)
	if err != nil {
		return fmt.Errorf("count verdicts: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT label, COUNT(*), SUM(duration_ns)
		FROM job_results
		WHERE session_id = ?
		GROUP BY label
		ORDER BY MIN(rowid)
	`, sum.ID)
	if err != nil {
		return fmt.Errorf("query series totals: %w", err)
	}
	defer rows.Close()

	sum.Series = []SeriesTotal{}
	for rows.Next() {
		var (
			st    SeriesTotal
			total int64
		)
		if err := rows.Scan(&st.Label, &st.Jobs, &total); err != nil {
			return fmt.Errorf("scan series total: %w", err)
		}
		st.Total = time.Duration(total)
		sum.Series = append(sum.Series, st)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate series totals: %w", err)
	}
	return nil
}

// ReadJobResults returns the job results of a session, by series in
// insertion order then by position.
func (s *Store) ReadJobResults(ctx context.Context, sessionID string) ([]JobRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT label, implementation, mode, args, output_sha256, output_bytes,
		       duration_ns, exit_code, artifact, error
		FROM job_results
		WHERE session_id = ?
		ORDER BY rowid ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query job results: %w", err)
	}
	defer rows.Close()

	records := []JobRecord{}
	for rows.Next() {
		var (
			rec      JobRecord
			argsJSON string
			duration int64
		)
		if err := rows.Scan(&rec.Label, &rec.Implementation, &rec.Mode, &argsJSON, &rec.OutputSHA256,
			&rec.OutputBytes, &duration, &rec.ExitCode, &rec.Artifact, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan job result: %w", err)
		}
		if err := json.Unmarshal([]byte(argsJSON), &rec.Args); err != nil {
			return nil, fmt.Errorf("decode job args: %w", err)
		}
		rec.Duration = time.Duration(duration)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job results: %w", err)
	}
	return records, nil
}
