package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigest(t *testing.T) {
	// sha256 of the empty string
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Digest(""))
	assert.NotEqual(t, Digest("3"), Digest("4"))
}

func TestSaveSession_WritesRows(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sess, c := createTestSession(t, "session-0001", testEpoch)

	require.NoError(t, s.SaveSession(ctx, sess, c, SessionMeta{
		ConfigPath: "tracbench.yaml",
		Policy:     "pad",
		Reference:  "py",
	}))

	var jobs, verdicts int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM job_results").Scan(&jobs))
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM comparisons").Scan(&verdicts))
	assert.Equal(t, 4, jobs)
	assert.Equal(t, 2, verdicts)

	var verdict string
	require.NoError(t, s.db.QueryRow(
		"SELECT verdict FROM comparisons WHERE session_id = ? AND position = 1", "session-0001",
	).Scan(&verdict))
	assert.Equal(t, "MISMATCH", verdict)
}

func TestSaveSession_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sess, c := createTestSession(t, "session-0001", testEpoch)

	require.NoError(t, s.SaveSession(ctx, sess, c, SessionMeta{Policy: "pad"}))
	require.NoError(t, s.SaveSession(ctx, sess, c, SessionMeta{Policy: "truncate"}))

	var sessions, jobs int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&sessions))
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM job_results").Scan(&jobs))
	assert.Equal(t, 1, sessions)
	assert.Equal(t, 4, jobs)

	// First write wins
	got, err := s.ReadSession(ctx, "session-0001")
	require.NoError(t, err)
	assert.Equal(t, "pad", got.Policy)
}

func TestSaveSession_WithoutComparison(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sess, _ := createTestSession(t, "session-0001", testEpoch)

	require.NoError(t, s.SaveSession(ctx, sess, nil, SessionMeta{}))

	got, err := s.ReadSession(ctx, "session-0001")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Positions)
	assert.Len(t, got.Series, 2)
}

func TestSaveSession_StoresDigestNotOutput(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sess, c := createTestSession(t, "session-0001", testEpoch)
	require.NoError(t, s.SaveSession(ctx, sess, c, SessionMeta{}))

	var sum string
	var size int
	require.NoError(t, s.db.QueryRow(
		"SELECT output_sha256, output_bytes FROM job_results WHERE label = 'rs/serial' AND position = 1",
	).Scan(&sum, &size))
	assert.Equal(t, Digest("5"), sum)
	assert.Equal(t, 1, size)
}

func TestSaveSession_CancelledContext(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sess, c := createTestSession(t, "session-0001", testEpoch.Add(time.Hour))

	err := s.SaveSession(ctx, sess, c, SessionMeta{})
	require.Error(t, err)
}
