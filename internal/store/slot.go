package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/upgrades/internal/persist"
)

var (
	_ persist.Medium = (*Slot)(nil)
	_ persist.Wiper  = (*Slot)(nil)
)

// Slot is a named save slot. It satisfies persist.Sink and persist.Source.
type Slot struct {
	store   *Store
	name    string
	session string
}

// SaveRecord describes one stored save.
type SaveRecord struct {
	Slot    string    `json:"slot"`
	Seq     int64     `json:"seq"`
	Digest  string    `json:"digest"`
	Session string    `json:"session"`
	SavedAt time.Time `json:"saved_at"`
	Size    int       `json:"size"`
}

// Slot returns a handle on the named slot. session is recorded with every
// write made through the handle.
func (s *Store) Slot(name, session string) *Slot {
	return &Slot{store: s, name: name, session: session}
}

// Name returns the slot name.
func (sl *Slot) Name() string { return sl.name }

// Write appends blob as the newest save and trims history beyond the
// store's limit in the same transaction.
func (sl *Slot) Write(ctx context.Context, blob []byte) error {
	tx, err := sl.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write slot %s: %w", sl.name, err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM saves WHERE slot = ?`, sl.name,
	).Scan(&seq); err != nil {
		return fmt.Errorf("write slot %s: next seq: %w", sl.name, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO saves (slot, seq, blob, digest, session, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		sl.name,
		seq,
		blob,
		digest(blob),
		sl.session,
		sl.store.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write slot %s: %w", sl.name, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM saves WHERE slot = ? AND seq <= ?`,
		sl.name, seq-int64(sl.store.history),
	); err != nil {
		return fmt.Errorf("write slot %s: trim history: %w", sl.name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write slot %s: commit: %w", sl.name, err)
	}
	return nil
}

// Read returns the newest save in the slot. found is false for an empty slot.
func (sl *Slot) Read(ctx context.Context) ([]byte, bool, error) {
	return sl.read(ctx, `
		SELECT blob, digest FROM saves
		WHERE slot = ?
		ORDER BY seq DESC
		LIMIT 1
	`, sl.name)
}

// ReadSeq returns a specific save from the slot's history.
func (sl *Slot) ReadSeq(ctx context.Context, seq int64) ([]byte, bool, error) {
	return sl.read(ctx, `
		SELECT blob, digest FROM saves
		WHERE slot = ? AND seq = ?
	`, sl.name, seq)
}

func (sl *Slot) read(ctx context.Context, query string, args ...any) ([]byte, bool, error) {
	var blob []byte
	var stored string
	err := sl.store.db.QueryRowContext(ctx, query, args...).Scan(&blob, &stored)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read slot %s: %w", sl.name, err)
	}
	if got := digest(blob); got != stored {
		return nil, false, fmt.Errorf("read slot %s: %w: digest mismatch: stored %s, computed %s",
			sl.name, persist.ErrCorruptSave, stored, got)
	}
	return blob, true, nil
}

// History lists the saves kept for the slot, newest first.
func (sl *Slot) History(ctx context.Context) ([]SaveRecord, error) {
	rows, err := sl.store.db.QueryContext(ctx, `
		SELECT slot, seq, digest, session, saved_at, LENGTH(blob)
		FROM saves
		WHERE slot = ?
		ORDER BY seq DESC
	`, sl.name)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", sl.name, err)
	}
	defer rows.Close()

	var records []SaveRecord
	for rows.Next() {
		var rec SaveRecord
		var savedAt string
		if err := rows.Scan(&rec.Slot, &rec.Seq, &rec.Digest, &rec.Session, &savedAt, &rec.Size); err != nil {
			return nil, fmt.Errorf("history %s: scan: %w", sl.name, err)
		}
		rec.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt)
		if err != nil {
			return nil, fmt.Errorf("history %s: saved_at %q: %w", sl.name, savedAt, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history %s: %w", sl.name, err)
	}
	return records, nil
}

// Delete removes every save in the slot, history included.
func (sl *Slot) Delete(ctx context.Context) error {
	if _, err := sl.store.db.ExecContext(ctx, `DELETE FROM saves WHERE slot = ?`, sl.name); err != nil {
		return fmt.Errorf("delete slot %s: %w", sl.name, err)
	}
	return nil
}

// Slots lists the names of every non-empty slot, sorted.
func (s *Store) Slots(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT slot FROM saves ORDER BY slot ASC`)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list slots: scan: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func digest(blob []byte) string {
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:])
}
