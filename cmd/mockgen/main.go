package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"guesstimate/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, chaos, drift")
	distribution := flag.String("distribution", "uniform", "Distribution to use: uniform, weibull")
	out := flag.String("out", "./.cache/MCSTEST.json", "Output file for the search dump")
	count := flag.Int("count", 200, "Number of issues to generate")
	seed := flag.Int64("seed", 0, "Random seed (0 = time based)")
	unsized := flag.Float64("unsized", 0.1, "Share of issues without a story point estimate")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario:     *scenario,
		Distribution: *distribution,
		Count:        *count,
		Now:          time.Now(),
		Seed:         *seed,
		UnsizedRatio: *unsized,
	}

	fmt.Printf("Generating scenario '%s' (Distribution: %s, Count: %d) to %s...\n", cfg.Scenario, cfg.Distribution, cfg.Count, *out)

	resp := engine.Generate(cfg)

	if err := engine.Save(*out, resp); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done. Run: guesstimate analyze --from-file %s --jql 'project = MCSTEST'\n", *out)
}
