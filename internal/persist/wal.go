package persist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// LedgerEntry records one accepted currency change. Balance is the counter
// value after the change.
type LedgerEntry struct {
	CharacterID string
	Currency    string // "style_orbs", "rift_orbs", "raritanium_shards"
	Delta       int64
	Balance     int64
}

// AppendLedger writes a batch of ledger entries in a single transaction.
func (r *ProgressionRepo) AppendLedger(ctx context.Context, entries []LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ledger begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO currency_ledger (character_id, currency, delta, balance)
			 VALUES ($1, $2, $3, $4)`,
			e.CharacterID, e.Currency, e.Delta, e.Balance,
		); err != nil {
			return fmt.Errorf("ledger insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// markLedgerProcessed flags the pending ledger entries of a character once its
// snapshot is part of the same transaction.
func markLedgerProcessed(ctx context.Context, tx pgx.Tx, characterID string) error {
	if _, err := tx.Exec(ctx,
		`UPDATE currency_ledger SET processed = TRUE
		 WHERE character_id = $1 AND processed = FALSE`, characterID,
	); err != nil {
		return fmt.Errorf("ledger mark processed: %w", err)
	}
	return nil
}

// LedgerEntries returns a character's journal in insertion order.
func (r *ProgressionRepo) LedgerEntries(ctx context.Context, characterID string) ([]LedgerEntry, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT character_id, currency, delta, balance
		 FROM currency_ledger WHERE character_id = $1 ORDER BY id`, characterID,
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
