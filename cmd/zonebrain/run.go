package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/zone-brain/internal/api"
	"github.com/talgya/zone-brain/internal/config"
	"github.com/talgya/zone-brain/internal/engine"
	"github.com/talgya/zone-brain/internal/persistence"
	"github.com/talgya/zone-brain/internal/sandbox"
	"github.com/talgya/zone-brain/internal/tasks"
)

type runOptions struct {
	scenario string
	settings string
	dbPath   string
	ticks    uint64
	interval time.Duration
	port     int
}

func newRunCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the zone brains of a scenario",
		RunE: func(_ *cobra.Command, _ []string) error {
			if doRun(opts, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.scenario, "scenario", "", "scenario YAML file (required)")
	cmd.Flags().StringVar(&opts.settings, "settings", "", "settings YAML file (defaults when empty)")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite file for zone records (in-memory when empty)")
	cmd.Flags().Uint64Var(&opts.ticks, "ticks", 0, "ticks to run back to back (0 = run paced until interrupted)")
	cmd.Flags().DurationVar(&opts.interval, "interval", time.Second, "tick interval when paced")
	cmd.Flags().IntVar(&opts.port, "port", 0, "serve the status API on this port (0 = off)")
	cmd.MarkFlagRequired("scenario") //nolint:errcheck // flag exists
	return cmd
}

func doRun(opts runOptions, stdout, stderr io.Writer) int {
	fail := func(msg string, err error) int {
		slog.Error(msg, "error", err)
		fmt.Fprintf(stderr, "zonebrain run: %s: %v\n", msg, err) //nolint:errcheck // best-effort stderr
		return 1
	}

	// ── Settings ──────────────────────────────────────────────────────
	settings := config.Defaults()
	if opts.settings != "" {
		var err error
		if settings, err = config.Load(opts.settings); err != nil {
			return fail("failed to load settings", err)
		}
		slog.Info("settings loaded", "path", opts.settings)
	}
	te, err := tasks.NewEngine(tasks.DefaultTypes(), tasks.DefaultPriorities)
	if err != nil {
		return fail("invalid task table", err)
	}

	// ── Scenario ──────────────────────────────────────────────────────
	sc, err := sandbox.LoadScenario(opts.scenario)
	if err != nil {
		return fail("failed to load scenario", err)
	}
	sandboxZones, err := sc.Build()
	if err != nil {
		return fail("invalid scenario", err)
	}
	zones := make([]engine.Zone, 0, len(sandboxZones))
	for _, z := range sandboxZones {
		zones = append(zones, z)
	}

	// ── Records ───────────────────────────────────────────────────────
	var (
		store     engine.RecordStore = engine.MemoryRecords{}
		db        *persistence.DB
		startTick uint64
	)
	if opts.dbPath != "" {
		db, err = persistence.Open(opts.dbPath)
		if err != nil {
			return fail("failed to open database", err)
		}
		defer db.Close()
		store = db
		if tickStr, err := db.GetMeta("last_tick"); err == nil {
			if t, err := strconv.ParseUint(tickStr, 10, 64); err == nil {
				startTick = t
			}
		}
		slog.Info("database opened", "path", opts.dbPath, "last_tick", startTick)
	}

	sim, err := engine.NewSimulation(zones, settings, te, store, startTick)
	if err != nil {
		return fail("failed to start simulation", err)
	}

	save := func(tick uint64) {
		if db == nil {
			return
		}
		if err := db.SaveWorldState(sim); err != nil {
			slog.Error("save failed", "tick", tick, "error", err)
		}
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.ResumeAt(startTick)
	eng.Interval = opts.interval
	eng.OnTick = sim.Tick
	eng.OnReport = sim.Report
	eng.OnSave = save

	if opts.port > 0 {
		adminKey := os.Getenv("ZONEBRAIN_ADMIN_KEY")
		if adminKey == "" {
			slog.Warn("ZONEBRAIN_ADMIN_KEY not set, admin POST endpoints will be disabled")
		}
		srv := &api.Server{Sim: sim, Eng: eng, DB: db, Port: opts.port, AdminKey: adminKey}
		srv.Start()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(stdout, "%d zones loaded from %s\n", len(zones), opts.scenario) //nolint:errcheck // best-effort stdout
	if opts.ticks > 0 {
		eng.RunTicks(ctx, opts.ticks)
	} else {
		fmt.Fprintln(stdout, "Running... (Ctrl+C to stop)") //nolint:errcheck // best-effort stdout
		eng.Run(ctx)
	}

	if ctx.Err() != nil {
		slog.Info("received signal, shutting down", "tick", eng.Tick())
	}
	sim.Report(eng.Tick())
	save(eng.Tick())
	return 0
}
