package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jonboulle/clockwork"

	"figgie_go/internal/domain"
)

// ErrUnknownSession is returned when a session id has no sessions row.
var ErrUnknownSession = errors.New("unknown session")

// Direction tells whether a frame came from the server or was sent to it.
type Direction string

const (
	Inbound  Direction = "in"
	Outbound Direction = "out"
)

// MetaLastSession is the metadata key holding the most recent session id.
const MetaLastSession = "last_session_id"

// Frame is one journaled wire frame.
type Frame struct {
	SessionID string    `json:"session_id"`
	Seq       uint64    `json:"seq"`
	Direction Direction `json:"direction"`
	TsUnixM   int64     `json:"ts"` // Unix Micro
	Payload   []byte    `json:"payload"`
}

// SessionInfo describes one recorded session.
type SessionInfo struct {
	ID          string `json:"id"`
	RoomID      string `json:"room_id"`
	PlayerID    string `json:"player_id"`
	StartedUnix int64  `json:"started_unix"`
	Frames      int    `json:"frames"`
}

// Journal is an append-only SQLite log of every frame a session received
// and sent. Inbound frames are written before they are applied, so a
// session can be rebuilt by replaying them.
type Journal struct {
	db    *sql.DB
	clock clockwork.Clock

	mu   sync.Mutex
	seqs map[string]uint64 // next seq per session
}

// NewJournal opens (or creates) the journal at dbPath with WAL mode enabled.
func NewJournal(dbPath string, clock clockwork.Clock) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	// One connection keeps per-connection pragmas in effect for every statement.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=-2000;", // 2MB cache
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL,
			player_id TEXT NOT NULL,
			room_name TEXT NOT NULL DEFAULT '',
			roster TEXT NOT NULL DEFAULT '[]',
			started_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS frames (
			session_id TEXT NOT NULL REFERENCES sessions(id),
			seq INTEGER NOT NULL,
			direction TEXT NOT NULL,
			ts INTEGER NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &Journal{db: db, clock: clock, seqs: make(map[string]uint64)}, nil
}

// BeginSession registers a session and the bootstrap it was started from,
// so its frames can be recorded and later replayed.
func (j *Journal) BeginSession(ctx context.Context, sessionID string, b domain.Bootstrap) error {
	roster, err := json.Marshal(b.Players)
	if err != nil {
		return fmt.Errorf("failed to encode roster: %w", err)
	}
	now := j.clock.Now()
	_, err = j.db.ExecContext(ctx,
		"INSERT INTO sessions (id, room_id, player_id, room_name, roster, started_at) VALUES (?, ?, ?, ?, ?, ?)",
		sessionID, b.RoomID, b.SelfID, b.RoomName, string(roster), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return j.UpsertMetadata(ctx, MetaLastSession, sessionID, now.UnixMicro())
}

// LoadBootstrap returns the bootstrap a session was started from.
func (j *Journal) LoadBootstrap(ctx context.Context, sessionID string) (domain.Bootstrap, error) {
	b := domain.Bootstrap{}
	var roster string
	err := j.db.QueryRowContext(ctx,
		"SELECT room_id, player_id, room_name, roster FROM sessions WHERE id = ?", sessionID,
	).Scan(&b.RoomID, &b.SelfID, &b.RoomName, &roster)
	if errors.Is(err, sql.ErrNoRows) {
		return b, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}
	if err != nil {
		return b, fmt.Errorf("failed to load session: %w", err)
	}
	if err := json.Unmarshal([]byte(roster), &b.Players); err != nil {
		return b, fmt.Errorf("failed to decode roster: %w", err)
	}
	return b, nil
}

// Record appends one frame to the session's log.
func (j *Journal) Record(ctx context.Context, sessionID string, dir Direction, frame []byte) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	seq, ok := j.seqs[sessionID]
	if !ok {
		last, err := j.GetLastSeq(ctx, sessionID)
		if err != nil {
			return err
		}
		seq = last + 1
	}

	_, err := j.db.ExecContext(ctx,
		"INSERT INTO frames (session_id, seq, direction, ts, payload) VALUES (?, ?, ?, ?, ?)",
		sessionID, seq, string(dir), j.clock.Now().UnixMicro(), frame,
	)
	if err != nil {
		return fmt.Errorf("failed to insert frame: %w", err)
	}
	j.seqs[sessionID] = seq + 1
	return nil
}

// GetLastSeq returns the highest seq recorded for the session, or 0.
func (j *Journal) GetLastSeq(ctx context.Context, sessionID string) (uint64, error) {
	var lastSeq sql.NullInt64
	err := j.db.QueryRowContext(ctx, "SELECT MAX(seq) FROM frames WHERE session_id = ?", sessionID).Scan(&lastSeq)
	if err != nil {
		return 0, fmt.Errorf("failed to get last seq: %w", err)
	}
	if !lastSeq.Valid {
		return 0, nil
	}
	return uint64(lastSeq.Int64), nil
}

// LoadSession returns the session's frames in seq order. A non-empty dir
// filters by direction.
func (j *Journal) LoadSession(ctx context.Context, sessionID string, dir Direction) ([]Frame, error) {
	query := "SELECT seq, direction, ts, payload FROM frames WHERE session_id = ?"
	args := []any{sessionID}
	if dir != "" {
		query += " AND direction = ?"
		args = append(args, string(dir))
	}
	query += " ORDER BY seq ASC"

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query frames: %w", err)
	}
	defer rows.Close()

	var frames []Frame
	for rows.Next() {
		f := Frame{SessionID: sessionID}
		var d string
		if err := rows.Scan(&f.Seq, &d, &f.TsUnixM, &f.Payload); err != nil {
			return nil, fmt.Errorf("failed to scan frame: %w", err)
		}
		f.Direction = Direction(d)
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return frames, nil
}

// Sessions lists recorded sessions, newest first.
func (j *Journal) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT s.id, s.room_id, s.player_id, s.started_at, COUNT(f.seq)
		FROM sessions s LEFT JOIN frames f ON f.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC, s.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		var info SessionInfo
		if err := rows.Scan(&info.ID, &info.RoomID, &info.PlayerID, &info.StartedUnix, &info.Frames); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return out, nil
}

// UpsertMetadata saves a key-value pair to the metadata table.
func (j *Journal) UpsertMetadata(ctx context.Context, key, value string, ts int64) error {
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at",
		key, value, ts,
	)
	return err
}

// GetMetadata retrieves a value from the metadata table. A missing key is "".
func (j *Journal) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := j.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}
