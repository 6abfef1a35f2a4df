package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/talgya/zone-brain/internal/sandbox"
	"github.com/talgya/zone-brain/internal/world"
)

type generateOptions struct {
	out    string
	seed   int64
	radius int
	zones  int
	small  bool
}

func newGenerateCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts generateOptions
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random scenario file",
		RunE: func(_ *cobra.Command, _ []string) error {
			if doGenerate(opts, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.out, "out", "scenario.yaml", "output file")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "layout seed (0 = random)")
	cmd.Flags().IntVar(&opts.radius, "radius", 0, "zone hex radius (0 = preset default)")
	cmd.Flags().IntVar(&opts.zones, "zones", 1, "number of zones")
	cmd.Flags().BoolVar(&opts.small, "small", false, "use the small test preset")
	return cmd
}

func doGenerate(opts generateOptions, stdout, stderr io.Writer) int {
	if opts.zones < 1 {
		fmt.Fprintln(stderr, "zonebrain generate: --zones must be at least 1") //nolint:errcheck // best-effort stderr
		return 1
	}

	cfg := world.DefaultGenConfig()
	if opts.small {
		cfg = world.SmallTestConfig()
	}
	if opts.radius > 0 {
		cfg.Radius = opts.radius
	}
	if opts.seed != 0 {
		cfg.Seed = opts.seed
	}

	sc := &sandbox.Scenario{Seed: cfg.Seed}
	for i := 0; i < opts.zones; i++ {
		zc := cfg
		if zc.Seed != 0 {
			zc.Seed += int64(i) * 1000
		}
		name := fmt.Sprintf("Z%d", i+1)
		sc.Zones = append(sc.Zones, sandbox.Generate(zc, name))
		slog.Info("zone generated", "zone", name, "radius", zc.Radius, "seed", zc.Seed)
	}

	if err := sc.Save(opts.out); err != nil {
		fmt.Fprintf(stderr, "zonebrain generate: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	fmt.Fprintf(stdout, "Wrote %d zones to %s\n", len(sc.Zones), opts.out) //nolint:errcheck // best-effort stdout
	return 0
}
