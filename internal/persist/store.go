package persist

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rmcgame/progression/internal/config"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// ErrChecksumMismatch is returned by Load when a stored row does not match
// its integrity digest.
var ErrChecksumMismatch = errors.New("progression checksum mismatch")

// Store is the persistence collaborator of the progression core.
// Load returns nil, nil when the character has never been saved.
type Store interface {
	Load(ctx context.Context, characterID string) (*ProgressionRow, error)
	Save(ctx context.Context, row *ProgressionRow) error
	AppendLedger(ctx context.Context, entries []LedgerEntry) error
	Close() error
}

// LedgerReader is implemented by every bundled store; progctl uses it to
// print a character's currency journal.
type LedgerReader interface {
	LedgerEntries(ctx context.Context, characterID string) ([]LedgerEntry, error)
}

// ProgressionRow is the persisted form of one character's progression.
type ProgressionRow struct {
	CharacterID         string
	Name                string
	XP                  int64
	Level               int
	Rank                int
	SkillPoints         int64
	UnlockedSkills      []string // sorted
	StyleOrbs           int64
	RiftOrbs            int64
	RaritaniumShards    int64
	RiftEnergy          int64
	RiftAttunementLevel int
	StyleExperience     int64
	StyleMasteryLevel   int
	Checksum            []byte
	UpdatedAt           time.Time
}

// Digest is blake2b-256 over the canonical encoding of every progression
// field. Name, Checksum and UpdatedAt are excluded. Strings are length
// prefixed and integers fixed width, so no two rows share an encoding.
func (r *ProgressionRow) Digest() []byte {
	skills := append([]string(nil), r.UnlockedSkills...)
	sort.Strings(skills)

	h, _ := blake2b.New256(nil) // only fails for an oversized key
	var buf [8]byte
	putInt := func(v int64) {
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	putString := func(v string) {
		putInt(int64(len(v)))
		h.Write([]byte(v))
	}

	putString(r.CharacterID)
	for _, v := range []int64{
		r.XP, int64(r.Level), int64(r.Rank), r.SkillPoints,
		r.StyleOrbs, r.RiftOrbs, r.RaritaniumShards,
		r.RiftEnergy, int64(r.RiftAttunementLevel),
		r.StyleExperience, int64(r.StyleMasteryLevel),
	} {
		putInt(v)
	}
	putInt(int64(len(skills)))
	for _, id := range skills {
		putString(id)
	}
	return h.Sum(nil)
}

// Seal normalizes the skill order and stamps the checksum.
func (r *ProgressionRow) Seal() {
	sort.Strings(r.UnlockedSkills)
	r.Checksum = r.Digest()
}

// Verify reports ErrChecksumMismatch when the stored checksum is stale.
func (r *ProgressionRow) Verify() error {
	if !bytes.Equal(r.Checksum, r.Digest()) {
		return fmt.Errorf("%w: character %s", ErrChecksumMismatch, r.CharacterID)
	}
	return nil
}

// Open builds the store selected by cfg.Driver and applies migrations.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := NewDB(ctx, cfg, log)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		if err := RunMigrations(ctx, db.Pool); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		return NewProgressionRepo(db), nil
	case "sqlite":
		return OpenSQLite(ctx, cfg.SQLitePath)
	case "memory", "":
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}
