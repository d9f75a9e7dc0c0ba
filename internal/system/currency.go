package system

import (
	"github.com/rmcgame/progression/internal/core/event"
	"github.com/rmcgame/progression/internal/persist"
)

// Currency selects one of the three balances.
type Currency int

const (
	StyleOrbs Currency = iota
	RiftOrbs
	RaritaniumShards
)

func (c Currency) String() string {
	switch c {
	case StyleOrbs:
		return "style_orbs"
	case RiftOrbs:
		return "rift_orbs"
	case RaritaniumShards:
		return "raritanium_shards"
	}
	return "unknown"
}

// ParseCurrency maps a ledger name back to its Currency.
func ParseCurrency(name string) (Currency, bool) {
	for _, c := range []Currency{StyleOrbs, RiftOrbs, RaritaniumShards} {
		if c.String() == name {
			return c, true
		}
	}
	return 0, false
}

func (t *Tracker) balance(c Currency) *int64 {
	switch c {
	case StyleOrbs:
		return &t.prog.StyleOrbs
	case RiftOrbs:
		return &t.prog.RiftOrbs
	case RaritaniumShards:
		return &t.prog.RaritaniumShards
	}
	return nil
}

// Balance returns the current amount of c.
func (t *Tracker) Balance(c Currency) int64 {
	if b := t.balance(c); b != nil {
		return *b
	}
	return 0
}

// AddCurrency adds n unconditionally.
func (t *Tracker) AddCurrency(c Currency, n int64) {
	b := t.balance(c)
	if b == nil {
		return
	}
	*b += n
	t.journal(c, n, *b)
}

// SpendCurrency deducts n only when the balance covers it. A refused spend
// changes nothing and emits nothing.
func (t *Tracker) SpendCurrency(c Currency, n int64) bool {
	b := t.balance(c)
	if b == nil || *b < n {
		return false
	}
	*b -= n
	t.journal(c, -n, *b)
	return true
}

// journal records the change for the ledger, announces it and persists.
func (t *Tracker) journal(c Currency, delta, balance int64) {
	t.ledger = append(t.ledger, persist.LedgerEntry{
		CharacterID: t.char.CharacterID,
		Currency:    c.String(),
		Delta:       delta,
		Balance:     balance,
	})
	event.Emit(t.bus, event.CurrencyChanged{Entity: t.entity})
	t.persist()
}

func (t *Tracker) StyleOrbs() int64        { return t.prog.StyleOrbs }
func (t *Tracker) RiftOrbs() int64         { return t.prog.RiftOrbs }
func (t *Tracker) RaritaniumShards() int64 { return t.prog.RaritaniumShards }

func (t *Tracker) AddStyleOrbs(n int64)        { t.AddCurrency(StyleOrbs, n) }
func (t *Tracker) AddRiftOrbs(n int64)         { t.AddCurrency(RiftOrbs, n) }
func (t *Tracker) AddRaritaniumShards(n int64) { t.AddCurrency(RaritaniumShards, n) }

func (t *Tracker) SpendStyleOrbs(n int64) bool        { return t.SpendCurrency(StyleOrbs, n) }
func (t *Tracker) SpendRiftOrbs(n int64) bool         { return t.SpendCurrency(RiftOrbs, n) }
func (t *Tracker) SpendRaritaniumShards(n int64) bool { return t.SpendCurrency(RaritaniumShards, n) }
