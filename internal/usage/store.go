package usage

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/launchpilot/contextrank/internal/snapshot"
	"github.com/launchpilot/contextrank/internal/vector"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS usage_records (
	app_id        TEXT PRIMARY KEY,
	weight        REAL NOT NULL DEFAULT 0,
	launch_count  INTEGER NOT NULL DEFAULT 0,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS usage_history (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	app_id        TEXT NOT NULL,
	snapshot_json TEXT NOT NULL,
	vector        BLOB NOT NULL,
	launched_at   TEXT NOT NULL,
	FOREIGN KEY (app_id) REFERENCES usage_records(app_id)
);

CREATE INDEX IF NOT EXISTS idx_usage_history_app
ON usage_history(app_id, id);

CREATE TABLE IF NOT EXISTS ranking_log (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	pass_id        TEXT NOT NULL,
	trigger_kind   TEXT NOT NULL,
	changed_facets TEXT,
	top_apps       TEXT,
	elapsed_ms     INTEGER NOT NULL DEFAULT 0,
	created_at     TEXT NOT NULL
);
`

// #endregion schema

// #region store-struct

// Store persists per-application usage records, launch context history, and
// the ranking provenance log in SQLite. History mutation happens only on the
// touch path (single writer per application); the ranking pipeline only reads.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. inspect).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region touch

// Touch records one launch of an application: the EMA weight advances by
// factor, the launch counter increments, the snapshot is appended to the
// history, and entries beyond historyCap are evicted oldest-first. All of it
// happens in one transaction.
func (s *Store) Touch(appID string, snap snapshot.Snapshot, factor float64, historyCap int) (Record, error) {
	if historyCap <= 0 {
		historyCap = DefaultHistoryCap
	}
	now := time.Now().UTC()

	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return Record{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	vecBlob := encodeVector(vector.Encode(snap))

	tx, err := s.db.Begin()
	if err != nil {
		return Record{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var weight float64
	var count int64
	err = tx.QueryRow(
		`SELECT weight, launch_count FROM usage_records WHERE app_id = ?`, appID,
	).Scan(&weight, &count)
	switch {
	case err == sql.ErrNoRows:
		weight, count = 0, 0
	case err != nil:
		return Record{}, fmt.Errorf("read record: %w", err)
	}

	weight = NextWeight(weight, factor)
	count++

	_, err = tx.Exec(
		`INSERT INTO usage_records (app_id, weight, launch_count, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(app_id) DO UPDATE SET
		   weight = excluded.weight,
		   launch_count = excluded.launch_count,
		   updated_at = excluded.updated_at`,
		appID, weight, count, now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Record{}, fmt.Errorf("upsert record: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO usage_history (app_id, snapshot_json, vector, launched_at)
		 VALUES (?, ?, ?, ?)`,
		appID, string(snapJSON), vecBlob, snap.CapturedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return Record{}, fmt.Errorf("append history: %w", err)
	}

	// FIFO eviction beyond the cap, oldest rows first.
	_, err = tx.Exec(
		`DELETE FROM usage_history WHERE app_id = ? AND id NOT IN (
		   SELECT id FROM usage_history WHERE app_id = ? ORDER BY id DESC LIMIT ?
		 )`,
		appID, appID, historyCap,
	)
	if err != nil {
		return Record{}, fmt.Errorf("evict history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("commit: %w", err)
	}

	return Record{AppID: appID, Weight: weight, LaunchCount: count, UpdatedAt: now}, nil
}

// #endregion touch

// #region read-history

// ReadHistory returns an application's launch contexts ordered oldest first,
// plus the number of rows skipped because their snapshot JSON would not
// decode. Skipped rows are a data-quality signal for the caller to log; they
// never fail the read.
func (s *Store) ReadHistory(appID string) ([]HistoryEntry, int, error) {
	rows, err := s.db.Query(
		`SELECT snapshot_json, launched_at FROM usage_history
		 WHERE app_id = ? ORDER BY id ASC`, appID,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("read history %s: %w", appID, err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	skipped := 0
	for rows.Next() {
		var snapJSON, launchedStr string
		if err := rows.Scan(&snapJSON, &launchedStr); err != nil {
			return nil, skipped, fmt.Errorf("scan history row: %w", err)
		}
		var snap snapshot.Snapshot
		if err := json.Unmarshal([]byte(snapJSON), &snap); err != nil {
			skipped++
			continue
		}
		launchedAt, _ := time.Parse(time.RFC3339Nano, launchedStr)
		entries = append(entries, HistoryEntry{Snapshot: snap, LaunchedAt: launchedAt})
	}
	return entries, skipped, rows.Err()
}

// #endregion read-history

// #region base-weight

// BaseWeight returns the stored EMA weight, or 0 for an untracked app.
func (s *Store) BaseWeight(appID string) (float64, error) {
	var w float64
	err := s.db.QueryRow(
		`SELECT weight FROM usage_records WHERE app_id = ?`, appID,
	).Scan(&w)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read weight %s: %w", appID, err)
	}
	return w, nil
}

// #endregion base-weight

// #region list-candidates

// ListCandidates returns up to poolSize app IDs ordered by launch frequency,
// then weight. Fewer eligible apps than poolSize is not an error; the pool
// size is a ceiling.
func (s *Store) ListCandidates(poolSize int) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT app_id FROM usage_records
		 ORDER BY launch_count DESC, weight DESC, app_id ASC LIMIT ?`, poolSize,
	)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Records returns every usage record (without history) in candidate order.
func (s *Store) Records() ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT app_id, weight, launch_count, updated_at FROM usage_records
		 ORDER BY launch_count DESC, weight DESC, app_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var updatedStr string
		if err := rows.Scan(&r.AppID, &r.Weight, &r.LaunchCount, &updatedStr); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
		records = append(records, r)
	}
	return records, rows.Err()
}

// #endregion list-candidates

// #region all-vectors

// AppVector pairs an application with one persisted historical vector.
type AppVector struct {
	AppID string
	Vec   vector.Vector
}

// AllVectors returns every (app, historical vector) pair across all
// applications, for the cross-application KNN diagnostic.
func (s *Store) AllVectors() ([]AppVector, error) {
	rows, err := s.db.Query(`SELECT app_id, vector FROM usage_history ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("all vectors: %w", err)
	}
	defer rows.Close()

	var out []AppVector
	for rows.Next() {
		var appID string
		var blob []byte
		if err := rows.Scan(&appID, &blob); err != nil {
			return nil, fmt.Errorf("scan vector row: %w", err)
		}
		out = append(out, AppVector{AppID: appID, Vec: decodeVector(blob)})
	}
	return out, rows.Err()
}

// #endregion all-vectors

// #region decay-all

// DecayAll multiplies every stored weight by (1 - rate), aging out apps that
// are no longer launched. Maintenance operation; never run by the pipeline.
func (s *Store) DecayAll(rate float64) error {
	if rate <= 0 || rate >= 1 {
		return fmt.Errorf("decay rate %v out of range (0, 1)", rate)
	}
	_, err := s.db.Exec(
		`UPDATE usage_records SET weight = weight * ?, updated_at = ?`,
		1-rate, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("decay weights: %w", err)
	}
	return nil
}

// #endregion decay-all

// #region remove

// Remove deletes an application's record and history.
func (s *Store) Remove(appID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM usage_history WHERE app_id = ?`, appID); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM usage_records WHERE app_id = ?`, appID); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return tx.Commit()
}

// #endregion remove

// #region ranking-log

// RankingLogEntry is one row of the ranking provenance log.
type RankingLogEntry struct {
	PassID        string
	TriggerKind   string
	ChangedFacets string
	TopAppsJSON   string
	ElapsedMs     int64
	CreatedAt     time.Time
}

// LogRanking appends a provenance row for a published ranking pass.
func (s *Store) LogRanking(entry RankingLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO ranking_log (pass_id, trigger_kind, changed_facets, top_apps, elapsed_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.PassID,
		entry.TriggerKind,
		nullIfEmpty(entry.ChangedFacets),
		nullIfEmpty(entry.TopAppsJSON),
		entry.ElapsedMs,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log ranking: %w", err)
	}
	return nil
}

// ListRankingLog returns the most recent provenance rows.
func (s *Store) ListRankingLog(limit int) ([]RankingLogEntry, error) {
	rows, err := s.db.Query(
		`SELECT pass_id, trigger_kind, changed_facets, top_apps, elapsed_ms, created_at
		 FROM ranking_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list ranking log: %w", err)
	}
	defer rows.Close()

	var entries []RankingLogEntry
	for rows.Next() {
		var e RankingLogEntry
		var changed, topApps sql.NullString
		var createdStr string
		if err := rows.Scan(&e.PassID, &e.TriggerKind, &changed, &topApps, &e.ElapsedMs, &createdStr); err != nil {
			return nil, fmt.Errorf("scan log row: %w", err)
		}
		if changed.Valid {
			e.ChangedFacets = changed.String
		}
		if topApps.Valid {
			e.TopAppsJSON = topApps.String
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion ranking-log

// #region vector-encoding
func encodeVector(v vector.Vector) []byte {
	buf := make([]byte, vector.Dim*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) vector.Vector {
	var v vector.Vector
	for i := range v {
		if i*4+4 <= len(b) {
			v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
		}
	}
	return v
}

// #endregion vector-encoding

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
