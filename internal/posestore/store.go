// Package posestore persists saved poses in SQLite and as JSON files.
package posestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"poser-sync/internal/animstate"
	"poser-sync/internal/poser"
	"poser-sync/internal/posestore/migrations"
	"poser-sync/internal/wire"
)

// ErrNotFound is returned when no pose has the requested name.
var ErrNotFound = errors.New("posestore: pose not found")

// Entry is one stored pose.
type Entry struct {
	Name      string
	Character uuid.UUID
	Record    poser.Record
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary describes a stored pose without loading it.
type Summary struct {
	Name      string    `json:"name"`
	Character uuid.UUID `json:"character_id"`
	Joints    int       `json:"joints"`
	Snapshots int       `json:"snapshots"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists pose records in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }

// Open opens the SQLite database at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("posestore: path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("posestore: open %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("posestore: ping %s: %w", path, err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("posestore: migrate %s: %w", path, err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save inserts or replaces the pose called name.
func (s *Store) Save(ctx context.Context, name string, character uuid.UUID, rec poser.Record) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("posestore: name is required")
	}
	joints, err := json.Marshal(rec.Joints)
	if err != nil {
		return fmt.Errorf("posestore: encode %s: %w", name, err)
	}
	now := toMillis(s.now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("posestore: begin save %s: %w", name, err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO poses (name, character_id, version, joints_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   character_id = excluded.character_id,
		   version = excluded.version,
		   joints_json = excluded.joints_json,
		   updated_at = excluded.updated_at`,
		name, character.String(), rec.Version, string(joints), now, now,
	)
	if err != nil {
		return fmt.Errorf("posestore: save %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM pose_snapshots WHERE pose_name = ?`, name); err != nil {
		return fmt.Errorf("posestore: clear snapshots %s: %w", name, err)
	}
	for i, snap := range rec.Snapshots {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO pose_snapshots (pose_name, position, animation_id, play_head, joints, capture_order, in_layer)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			name, i, snap.AssetID.String(), snap.PlayHead, wire.EncodeJointList(snap.Joints), snap.CaptureOrder, snap.InLayer,
		)
		if err != nil {
			return fmt.Errorf("posestore: save snapshot %s/%d: %w", name, i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("posestore: commit %s: %w", name, err)
	}
	return nil
}

// Get loads the pose called name.
func (s *Store) Get(ctx context.Context, name string) (Entry, error) {
	var (
		e         = Entry{Name: name}
		character string
		joints    string
		created   int64
		updated   int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT character_id, version, joints_json, created_at, updated_at FROM poses WHERE name = ?`, name,
	).Scan(&character, &e.Record.Version, &joints, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("posestore: get %s: %w", name, err)
	}
	if e.Character, err = uuid.Parse(character); err != nil {
		return Entry{}, fmt.Errorf("posestore: get %s: character: %w", name, err)
	}
	if err := json.Unmarshal([]byte(joints), &e.Record.Joints); err != nil {
		return Entry{}, fmt.Errorf("posestore: decode %s: %w", name, err)
	}
	e.CreatedAt = fromMillis(created)
	e.UpdatedAt = fromMillis(updated)

	snaps, err := s.snapshots(ctx, name)
	if err != nil {
		return Entry{}, err
	}
	e.Record.Snapshots = snaps
	return e, nil
}

func (s *Store) snapshots(ctx context.Context, name string) ([]animstate.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT animation_id, play_head, joints, capture_order, in_layer
		 FROM pose_snapshots WHERE pose_name = ? ORDER BY position`, name)
	if err != nil {
		return nil, fmt.Errorf("posestore: snapshots %s: %w", name, err)
	}
	defer rows.Close()

	var out []animstate.Record
	for rows.Next() {
		var (
			r      animstate.Record
			asset  string
			joints string
		)
		if err := rows.Scan(&asset, &r.PlayHead, &joints, &r.CaptureOrder, &r.InLayer); err != nil {
			return nil, fmt.Errorf("posestore: scan snapshot %s: %w", name, err)
		}
		if r.AssetID, err = uuid.Parse(asset); err != nil {
			return nil, fmt.Errorf("posestore: snapshot %s: animation: %w", name, err)
		}
		list, ok := wire.DecodeJointList(joints)
		if !ok {
			return nil, fmt.Errorf("posestore: snapshot %s: bad joint list %q", name, joints)
		}
		r.Joints = list
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("posestore: snapshots %s: %w", name, err)
	}
	return out, nil
}

// List summarises every stored pose, most recently updated first. A nil
// character lists poses of every character.
func (s *Store) List(ctx context.Context, character uuid.UUID) ([]Summary, error) {
	query := `SELECT p.name, p.character_id, p.joints_json, p.updated_at,
		         (SELECT COUNT(1) FROM pose_snapshots ps WHERE ps.pose_name = p.name)
		  FROM poses p`
	var args []any
	if character != uuid.Nil {
		query += ` WHERE p.character_id = ?`
		args = append(args, character.String())
	}
	query += ` ORDER BY p.updated_at DESC, p.name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("posestore: list: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum       Summary
			character string
			joints    string
			updated   int64
		)
		if err := rows.Scan(&sum.Name, &character, &joints, &updated, &sum.Snapshots); err != nil {
			return nil, fmt.Errorf("posestore: scan: %w", err)
		}
		sum.Character, _ = uuid.Parse(character)
		var jr []poser.JointRecord
		if err := json.Unmarshal([]byte(joints), &jr); err == nil {
			sum.Joints = len(jr)
		}
		sum.UpdatedAt = fromMillis(updated)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("posestore: list: %w", err)
	}
	return out, nil
}

// Delete removes the pose called name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM poses WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("posestore: delete %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("posestore: delete %s: %w", name, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
