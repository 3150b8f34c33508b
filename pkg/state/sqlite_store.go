package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	ffopts "github.com/goliatone/go-ffoptions"
)

const (
	snapshotTableSchema = `CREATE TABLE IF NOT EXISTS ffopts_snapshots (
    id TEXT PRIMARY KEY, -- Ref.Identifier()
    domain TEXT NOT NULL,
    scope TEXT NOT NULL,
    options TEXT NOT NULL, -- ordered JSON array of options
    snapshot_id TEXT NOT NULL,
    etag TEXT NOT NULL,
    updated_at INTEGER NOT NULL, -- unix nanoseconds
    extra TEXT
	);`

	snapshotUpsert = `INSERT INTO ffopts_snapshots (
	id, domain, scope, options, snapshot_id, etag, updated_at, extra
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	options = excluded.options,
	snapshot_id = excluded.snapshot_id,
	etag = excluded.etag,
	updated_at = excluded.updated_at,
	extra = excluded.extra;`

	snapshotInsert = `INSERT INTO ffopts_snapshots (
	id, domain, scope, options, snapshot_id, etag, updated_at, extra
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO NOTHING;`

	snapshotUpdateIf = `UPDATE ffopts_snapshots SET
	options = ?, snapshot_id = ?, etag = ?, updated_at = ?, extra = ?
	WHERE id = ? AND etag = ?;`

	snapshotSelectETag = `SELECT etag FROM ffopts_snapshots WHERE id = ?;`

	snapshotSelect = `SELECT options, snapshot_id, etag, updated_at, extra
	FROM ffopts_snapshots WHERE id = ?;`
)

// SQLiteStore persists snapshots in a single SQLite table. The connection is
// shared and guarded by a mutex.
type SQLiteStore struct {
	mu   sync.Mutex
	conn *sqlite.Conn
	path string
	now  func() time.Time
}

// OpenSQLiteStore opens (creating if needed) the database at path and
// ensures the snapshot table exists. Use ":memory:" for a private in-memory
// database.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate, sqlite.OpenReadWrite)
	if err != nil {
		return nil, fmt.Errorf("state: open sqlite %q: %w", path, err)
	}
	if err := sqlitex.Execute(conn, snapshotTableSchema, &sqlitex.ExecOptions{}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("state: create snapshot table: %w", err)
	}
	return &SQLiteStore{conn: conn, path: path, now: time.Now}, nil
}

// Path returns the database path the store was opened with.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Load(_ context.Context, ref Ref) (*ffopts.Store, Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return nil, Meta{}, false, err
	}

	var (
		found   bool
		payload string
		extra   string
		meta    Meta
	)
	s.mu.Lock()
	err = sqlitex.Execute(s.conn, snapshotSelect, &sqlitex.ExecOptions{
		Args: []any{key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			found = true
			payload = stmt.ColumnText(0)
			meta.SnapshotID = stmt.ColumnText(1)
			meta.ETag = stmt.ColumnText(2)
			meta.UpdatedAt = time.Unix(0, stmt.ColumnInt64(3)).UTC()
			extra = stmt.ColumnText(4)
			return nil
		},
	})
	s.mu.Unlock()
	if err != nil {
		return nil, Meta{}, false, fmt.Errorf("state: select %q: %w", key, err)
	}
	if !found {
		return nil, Meta{}, false, nil
	}

	snapshot := ffopts.New()
	if err := json.Unmarshal([]byte(payload), snapshot); err != nil {
		return nil, Meta{}, false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	if extra != "" {
		if err := json.Unmarshal([]byte(extra), &meta.Extra); err != nil {
			return nil, Meta{}, false, fmt.Errorf("state: decode extra for %q: %w", key, err)
		}
	}
	return snapshot, meta, true, nil
}

func (s *SQLiteStore) Save(_ context.Context, ref Ref, snapshot *ffopts.Store, meta Meta) (saved Meta, err error) {
	key, row, err := s.encode(ref, snapshot, meta)
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer sqlitex.Save(s.conn)(&err)
	err = sqlitex.Execute(s.conn, snapshotUpsert, &sqlitex.ExecOptions{
		Args: []any{key, ref.Domain, ref.Scope.Name, row.payload, row.meta.SnapshotID, row.meta.ETag, row.meta.UpdatedAt.UnixNano(), row.extra},
	})
	if err != nil {
		return Meta{}, fmt.Errorf("state: upsert %q: %w", key, err)
	}
	return cloneMeta(row.meta), nil
}

func (s *SQLiteStore) SaveIf(_ context.Context, ref Ref, expected string, snapshot *ffopts.Store, meta Meta) (saved Meta, err error) {
	key, row, err := s.encode(ref, snapshot, meta)
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer sqlitex.Save(s.conn)(&err)
	if expected == "" {
		err = sqlitex.Execute(s.conn, snapshotInsert, &sqlitex.ExecOptions{
			Args: []any{key, ref.Domain, ref.Scope.Name, row.payload, row.meta.SnapshotID, row.meta.ETag, row.meta.UpdatedAt.UnixNano(), row.extra},
		})
	} else {
		err = sqlitex.Execute(s.conn, snapshotUpdateIf, &sqlitex.ExecOptions{
			Args: []any{row.payload, row.meta.SnapshotID, row.meta.ETag, row.meta.UpdatedAt.UnixNano(), row.extra, key, expected},
		})
	}
	if err != nil {
		return Meta{}, fmt.Errorf("state: conditional save %q: %w", key, err)
	}
	if s.conn.Changes() == 0 {
		var current string
		err = sqlitex.Execute(s.conn, snapshotSelectETag, &sqlitex.ExecOptions{
			Args: []any{key},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				current = stmt.ColumnText(0)
				return nil
			},
		})
		if err != nil {
			return Meta{}, fmt.Errorf("state: select etag %q: %w", key, err)
		}
		err = etagConflict(key, expected, current)
		return Meta{}, err
	}
	return cloneMeta(row.meta), nil
}

type sqliteRow struct {
	payload string
	extra   any
	meta    Meta
}

func (s *SQLiteStore) encode(ref Ref, snapshot *ffopts.Store, meta Meta) (string, sqliteRow, error) {
	key, err := ref.Identifier()
	if err != nil {
		return "", sqliteRow{}, err
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return "", sqliteRow{}, fmt.Errorf("state: encode %q: %w", key, err)
	}
	row := sqliteRow{payload: string(payload), meta: stampMeta(meta, s.now())}
	if len(row.meta.Extra) > 0 {
		raw, err := json.Marshal(row.meta.Extra)
		if err != nil {
			return "", sqliteRow{}, fmt.Errorf("state: encode extra for %q: %w", key, err)
		}
		row.extra = string(raw)
	}
	return key, row, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}
