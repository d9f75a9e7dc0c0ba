// progctl is the offline companion to progressiond.
//
// Usage:
//
//	go run ./cmd/progctl <command> [flags]
//
// Commands: dump-defaults, validate, show
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rmcgame/progression/internal/config"
	"github.com/rmcgame/progression/internal/core/event"
	"github.com/rmcgame/progression/internal/data"
	"github.com/rmcgame/progression/internal/persist"
	"github.com/rmcgame/progression/internal/scripting"
	"github.com/rmcgame/progression/internal/system"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: progctl <command> [flags]

Commands:
  dump-defaults  -out file.yaml          write the built-in tables as YAML
  validate       -tables file.yaml       load and validate a tables file
  show           -config server.toml -character id
                                         print a saved character`)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		printUsage()
		return
	}

	commands := map[string]func(args []string) error{
		"dump-defaults": dumpDefaults,
		"validate":      validate,
		"show":          show,
	}
	fn, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err := fn(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func dumpDefaults(args []string) error {
	fs := flag.NewFlagSet("dump-defaults", flag.ExitOnError)
	out := fs.String("out", "", "output file (stdout when empty)")
	_ = fs.Parse(args)

	raw, err := yaml.Marshal(data.DefaultTables())
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if *out == "" {
		_, err = os.Stdout.Write(raw)
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	defer f.Close()
	fmt.Fprintln(f, "# Progression tables. Generated by progctl dump-defaults.")
	fmt.Fprintln(f)
	if _, err := f.Write(raw); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", *out)
	return nil
}

func validate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	path := fs.String("tables", "data/progression.yaml", "tables file")
	_ = fs.Parse(args)

	t, err := data.LoadTables(*path)
	if err != nil {
		return err
	}
	order, err := t.Skills.TopoOrder()
	if err != nil {
		return err
	}
	p := message.NewPrinter(language.English)
	p.Printf("%s: OK\n", *path)
	p.Printf("  levels %d (max XP %d)\n", len(t.LevelXP)+1, last(t.LevelXP))
	p.Printf("  ranks  %d (%s)\n", len(t.RankXP), strings.Join(t.RankNames, ", "))
	p.Printf("  skills %d (%s)\n", len(order), strings.Join(order, " > "))
	return nil
}

func show(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	cfgPath := fs.String("config", "", "server config (built-in defaults when empty)")
	characterID := fs.String("character", "", "character id")
	_ = fs.Parse(args)
	if *characterID == "" {
		return errors.New("-character is required")
	}

	var cfg *config.Config
	var err error
	if *cfgPath == "" {
		cfg, err = config.Default()
	} else {
		cfg, err = config.Load(*cfgPath)
	}
	if err != nil {
		return err
	}

	log := zap.NewNop()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := persist.Open(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer store.Close()

	tables := data.DefaultTables()
	if cfg.Data.TablesPath != "" {
		if tables, err = data.LoadTables(cfg.Data.TablesPath); err != nil {
			return err
		}
	}
	engine, err := scripting.NewEngine(cfg.Scripting.Dir, log)
	if err != nil {
		return err
	}
	defer engine.Close()

	// Read-only: nothing is persisted back.
	bus := event.NewBus()
	roster := system.NewRoster(tables, bus, store, system.BatchPersister{}, cfg.Database.SaveTimeout, log)
	caps := system.NewCapabilitySystem(roster, engine, bus)
	defer caps.Close()

	id, err := roster.Spawn(ctx, *characterID, "")
	if err != nil {
		return err
	}
	v, _ := roster.View(id)
	printView(os.Stdout, v)

	if lr, ok := store.(persist.LedgerReader); ok {
		entries, err := lr.LedgerEntries(ctx, *characterID)
		if err != nil {
			return fmt.Errorf("ledger: %w", err)
		}
		printLedger(os.Stdout, entries)
	}
	return nil
}

func printView(w io.Writer, v system.View) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "%s (%s)\n", v.CharacterID, v.Name)
	p.Fprintf(w, "  level   %d  xp %d  (%d to next)\n", v.Level, v.XP, v.XPToNextLevel)
	p.Fprintf(w, "  rank    %s  %.0f%%  (%d to next)\n", v.RankName, v.RankProgress*100, v.XPToNextRank)
	p.Fprintf(w, "  skills  %d points  [%s]\n", v.SkillPoints, strings.Join(v.UnlockedSkills, ", "))
	if len(v.UnlockableNow) > 0 {
		p.Fprintf(w, "          unlockable [%s]\n", strings.Join(v.UnlockableNow, ", "))
	}
	p.Fprintf(w, "  wallet  style orbs %d  rift orbs %d  raritanium %d\n", v.StyleOrbs, v.RiftOrbs, v.RaritaniumShards)
	p.Fprintf(w, "  rift    attunement %d  energy %d  %.0f%%  distance %.0f  chains %d\n",
		v.RiftAttunementLevel, v.RiftEnergy, v.RiftAttunementProgress*100, v.Rift.MaxRiftDistance, v.Rift.MaxChainCount)
	p.Fprintf(w, "  style   mastery %d  experience %d  %.0f%%  multiplier %.2f\n",
		v.StyleMasteryLevel, v.StyleExperience, v.StyleMasteryProgress*100, v.Style.StyleMultiplier)
}

func printLedger(w io.Writer, entries []persist.LedgerEntry) {
	if len(entries) == 0 {
		return
	}
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "  ledger  %d entries\n", len(entries))
	for _, e := range entries {
		p.Fprintf(w, "    %-18s %+d -> %d\n", e.Currency, e.Delta, e.Balance)
	}
}

func last(s []int64) int64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}
