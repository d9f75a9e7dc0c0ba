package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ProgressionRepo is the postgres Store.
type ProgressionRepo struct {
	db *DB
}

func NewProgressionRepo(db *DB) *ProgressionRepo {
	return &ProgressionRepo{db: db}
}

// Load returns nil, nil when the character has no saved progression.
func (r *ProgressionRepo) Load(ctx context.Context, characterID string) (*ProgressionRow, error) {
	row := &ProgressionRow{}
	var skills []byte
	err := r.db.Pool.QueryRow(ctx,
		`SELECT character_id, name, xp, level, rank, skill_points, unlocked_skills,
		        style_orbs, rift_orbs, raritanium_shards,
		        rift_energy, rift_attunement_level, style_experience, style_mastery_level,
		        checksum, updated_at
		 FROM character_progression WHERE character_id = $1`, characterID,
	).Scan(
		&row.CharacterID, &row.Name, &row.XP, &row.Level, &row.Rank, &row.SkillPoints, &skills,
		&row.StyleOrbs, &row.RiftOrbs, &row.RaritaniumShards,
		&row.RiftEnergy, &row.RiftAttunementLevel, &row.StyleExperience, &row.StyleMasteryLevel,
		&row.Checksum, &row.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load progression %s: %w", characterID, err)
	}
	if err := json.Unmarshal(skills, &row.UnlockedSkills); err != nil {
		return nil, fmt.Errorf("decode skills %s: %w", characterID, err)
	}
	if err := row.Verify(); err != nil {
		return nil, err
	}
	return row, nil
}

// Save upserts the row and marks the character's pending ledger entries as
// processed in the same transaction. The checksum is recomputed before writing.
func (r *ProgressionRepo) Save(ctx context.Context, row *ProgressionRow) error {
	row.Seal()
	if row.UnlockedSkills == nil {
		row.UnlockedSkills = []string{}
	}
	skills, err := json.Marshal(row.UnlockedSkills)
	if err != nil {
		return fmt.Errorf("encode skills: %w", err)
	}
	row.UpdatedAt = time.Now().UTC()

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO character_progression (
			character_id, name, xp, level, rank, skill_points, unlocked_skills,
			style_orbs, rift_orbs, raritanium_shards,
			rift_energy, rift_attunement_level, style_experience, style_mastery_level,
			checksum, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (character_id) DO UPDATE SET
			name = EXCLUDED.name, xp = EXCLUDED.xp, level = EXCLUDED.level,
			rank = EXCLUDED.rank, skill_points = EXCLUDED.skill_points,
			unlocked_skills = EXCLUDED.unlocked_skills,
			style_orbs = EXCLUDED.style_orbs, rift_orbs = EXCLUDED.rift_orbs,
			raritanium_shards = EXCLUDED.raritanium_shards,
			rift_energy = EXCLUDED.rift_energy,
			rift_attunement_level = EXCLUDED.rift_attunement_level,
			style_experience = EXCLUDED.style_experience,
			style_mastery_level = EXCLUDED.style_mastery_level,
			checksum = EXCLUDED.checksum, updated_at = EXCLUDED.updated_at`,
		row.CharacterID, row.Name, row.XP, row.Level, row.Rank, row.SkillPoints, skills,
		row.StyleOrbs, row.RiftOrbs, row.RaritaniumShards,
		row.RiftEnergy, row.RiftAttunementLevel, row.StyleExperience, row.StyleMasteryLevel,
		row.Checksum, row.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save progression %s: %w", row.CharacterID, err)
	}
	if err := markLedgerProcessed(ctx, tx, row.CharacterID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ProgressionRepo) Close() error {
	r.db.Close()
	return nil
}
