package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the embedded single-file Store used for local hosts and tests.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database file and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// modernc serializes writers; one connection avoids SQLITE_BUSY under the flush pool.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	if err := runSQLiteMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, characterID string) (*ProgressionRow, error) {
	row := &ProgressionRow{}
	var skills string
	var updated int64
	err := s.db.QueryRowContext(ctx,
		`SELECT character_id, name, xp, level, rank, skill_points, unlocked_skills,
		        style_orbs, rift_orbs, raritanium_shards,
		        rift_energy, rift_attunement_level, style_experience, style_mastery_level,
		        checksum, updated_at
		 FROM character_progression WHERE character_id = ?`, characterID,
	).Scan(
		&row.CharacterID, &row.Name, &row.XP, &row.Level, &row.Rank, &row.SkillPoints, &skills,
		&row.StyleOrbs, &row.RiftOrbs, &row.RaritaniumShards,
		&row.RiftEnergy, &row.RiftAttunementLevel, &row.StyleExperience, &row.StyleMasteryLevel,
		&row.Checksum, &updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load progression %s: %w", characterID, err)
	}
	if err := json.Unmarshal([]byte(skills), &row.UnlockedSkills); err != nil {
		return nil, fmt.Errorf("decode skills %s: %w", characterID, err)
	}
	row.UpdatedAt = time.UnixMilli(updated).UTC()
	if err := row.Verify(); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *SQLiteStore) Save(ctx context.Context, row *ProgressionRow) error {
	row.Seal()
	if row.UnlockedSkills == nil {
		row.UnlockedSkills = []string{}
	}
	skills, err := json.Marshal(row.UnlockedSkills)
	if err != nil {
		return fmt.Errorf("encode skills: %w", err)
	}
	row.UpdatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO character_progression (
			character_id, name, xp, level, rank, skill_points, unlocked_skills,
			style_orbs, rift_orbs, raritanium_shards,
			rift_energy, rift_attunement_level, style_experience, style_mastery_level,
			checksum, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT (character_id) DO UPDATE SET
			name = excluded.name, xp = excluded.xp, level = excluded.level,
			rank = excluded.rank, skill_points = excluded.skill_points,
			unlocked_skills = excluded.unlocked_skills,
			style_orbs = excluded.style_orbs, rift_orbs = excluded.rift_orbs,
			raritanium_shards = excluded.raritanium_shards,
			rift_energy = excluded.rift_energy,
			rift_attunement_level = excluded.rift_attunement_level,
			style_experience = excluded.style_experience,
			style_mastery_level = excluded.style_mastery_level,
			checksum = excluded.checksum, updated_at = excluded.updated_at`,
		row.CharacterID, row.Name, row.XP, row.Level, row.Rank, row.SkillPoints, string(skills),
		row.StyleOrbs, row.RiftOrbs, row.RaritaniumShards,
		row.RiftEnergy, row.RiftAttunementLevel, row.StyleExperience, row.StyleMasteryLevel,
		row.Checksum, row.UpdatedAt.UnixMilli(),
	); err != nil {
		return fmt.Errorf("save progression %s: %w", row.CharacterID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE currency_ledger SET processed = 1 WHERE character_id = ? AND processed = 0`,
		row.CharacterID,
	); err != nil {
		return fmt.Errorf("ledger mark processed: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) AppendLedger(ctx context.Context, entries []LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ledger begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO currency_ledger (character_id, currency, delta, balance, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			e.CharacterID, e.Currency, e.Delta, e.Balance, now,
		); err != nil {
			return fmt.Errorf("ledger insert: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LedgerEntries(ctx context.Context, characterID string) ([]LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT character_id, currency, delta, balance
		 FROM currency_ledger WHERE character_id = ? ORDER BY id`, characterID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.CharacterID, &e.Currency, &e.Delta, &e.Balance); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
