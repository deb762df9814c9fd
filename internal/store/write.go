package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/tracbench/internal/compare"
	"github.com/roach88/tracbench/internal/harness"
)

// SessionMeta is the session context that is not part of harness.Session.
type SessionMeta struct {
	ConfigPath string
	Policy     string
	Reference  string
	Stopped    bool
}

// Digest returns the hex SHA-256 of an output payload.
func Digest(output string) string {
	sum := sha256.Sum256([]byte(output))
	return hex.EncodeToString(sum[:])
}

// SaveSession writes a session, its job results and, when c is non-nil,
// its verdicts in one transaction. Saving the same session again is a
// no-op.
func (s *Store) SaveSession(ctx context.Context, sess *harness.Session, c *compare.Comparison, meta SessionMeta) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save session: begin: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := writeSession(ctx, tx, sess, meta); err != nil {
		return err
	}
	for _, sw := range sess.Sweeps {
		for _, r := range sw.Results {
			if err := writeJobResult(ctx, tx, sess.ID, r); err != nil {
				return err
			}
		}
	}
	if c != nil {
		if err := writeComparison(ctx, tx, sess.ID, c); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save session: commit: %w", err)
	}
	return nil
}

func writeSession(ctx context.Context, tx *sql.Tx, sess *harness.Session, meta SessionMeta) error {
	stopped := 0
	if meta.Stopped {
		stopped = 1
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, started_at, config_path, policy, reference, stopped)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		sess.ID,
		sess.StartedAt.UTC().Format(time.RFC3339),
		meta.ConfigPath,
		meta.Policy,
		meta.Reference,
		stopped,
	)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func writeJobResult(ctx context.Context, tx *sql.Tx, sessionID string, r harness.JobResult) error {
	argsJSON, err := json.Marshal(r.Args)
	if err != nil {
		return fmt.Errorf("write job result: marshal args: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO job_results
		(session_id, label, implementation, mode, position, args, output_sha256, output_bytes,
		 duration_ns, exit_code, artifact, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		sessionID,
		r.Label(),
		r.Implementation,
		r.Mode,
		r.Args.Position,
		string(argsJSON),
		Digest(r.Output),
		len(r.Output),
		int64(r.Duration),
		r.ExitCode,
		r.Artifact,
		r.Error,
	)
	if err != nil {
		return fmt.Errorf("write job result: %w", err)
	}
	return nil
}

func writeComparison(ctx context.Context, tx *sql.Tx, sessionID string, c *compare.Comparison) error {
	for _, rec := range c.Records {
		for i, v := range rec.Verdicts {
			label := c.Labels[i+1]
			_, err := tx.ExecContext(ctx, `
				INSERT INTO comparisons (session_id, position, reference, label, verdict)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT DO NOTHING
			`, sessionID, rec.Position, c.Reference(), label, string(v))
			if err != nil {
				return fmt.Errorf("write comparison: %w", err)
			}
		}
	}
	return nil
}
