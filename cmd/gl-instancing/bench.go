package main

import (
	"fmt"
	"io"
	"log"
	"text/tabwriter"
	"time"

	"github.com/m0ppers/gl-instancing/engine"
	"github.com/m0ppers/gl-instancing/engine/config"
	"github.com/spf13/cobra"
)

// benchResult is one step of the object count ramp.
type benchResult struct {
	Objects int
	Frames  int
	Elapsed time.Duration
	FPS     float64
}

// benchStep draws objects for one interval. open reports whether the window is still open.
type benchStep func(objects int) (stats engine.Stats, open bool, err error)

func newBenchCommand(app application, cfg *config.Config, configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench [flags] RENDERER",
		Short: "Grow the object count until the frame rate drops below a threshold",
		Long: "bench runs RENDERER for --interval at --start objects, multiplies the count by\n" +
			"--factor and repeats until the average frame rate falls below --threshold or\n" +
			"--max objects have been drawn, then prints a summary table.",
		Args: rendererArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveConfig(cmd, args, cfg, *configPath)
			if err != nil {
				return err
			}
			if err := resolved.ValidateBench(); err != nil {
				return newUsageError(cmd, resolved, err)
			}
			return app.Bench(resolved, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&cfg.Bench.Start, "start", cfg.Bench.Start, "object count of the first step")
	flags.Float64Var(&cfg.Bench.Factor, "factor", cfg.Bench.Factor, "object count multiplier per step")
	flags.Float64Var(&cfg.Bench.Threshold, "threshold", cfg.Bench.Threshold, "stop once the average frame rate falls below this")
	flags.DurationVar(&cfg.Bench.Interval, "interval", cfg.Bench.Interval, "how long each step runs")
	flags.IntVar(&cfg.Bench.Max, "max", cfg.Bench.Max, "largest object count to try")
	return cmd
}

// ramp runs step with a growing object count. It stops after the first step below the
// threshold, after the step at b.Max, when the window closes, or when a step renders nothing
// because the engine was quit.
func ramp(b config.Bench, step benchStep) ([]benchResult, error) {
	var results []benchResult
	objects := b.Start
	for {
		stats, open, err := step(objects)
		if err != nil {
			return results, err
		}
		if stats.Frames == 0 {
			log.Printf("[Bench] stopped before %d objects", objects)
			return results, nil
		}

		results = append(results, benchResult{
			Objects: objects,
			Frames:  stats.Frames,
			Elapsed: stats.Elapsed,
			FPS:     stats.AverageFPS,
		})
		log.Printf("[Bench] %d objects: %.1f fps", objects, stats.AverageFPS)

		if !open || stats.AverageFPS < b.Threshold || objects >= b.Max {
			return results, nil
		}

		next := int(float64(objects) * b.Factor)
		if next <= objects {
			next = objects + 1
		}
		objects = min(next, b.Max)
	}
}

// printSummary writes the ramp results as an aligned table.
func printSummary(out io.Writer, cfg config.Config, results []benchResult) {
	fmt.Fprintf(out, "%s renderer, %d vertices per object, %s backend\n", cfg.Kind(), cfg.Vertices, cfg.BackendType())
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "objects\tframes\telapsed\tfps\t")
	for _, r := range results {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%.1f\t\n", r.Objects, r.Frames, r.Elapsed.Round(time.Millisecond), r.FPS)
	}
	tw.Flush()

	if len(results) == 0 {
		fmt.Fprintln(out, "no frames rendered")
		return
	}
	last := results[len(results)-1]
	if last.FPS >= cfg.Bench.Threshold {
		fmt.Fprintf(out, "%.1f fps at %d objects, threshold %.1f fps not reached\n", last.FPS, last.Objects, cfg.Bench.Threshold)
		return
	}
	best := 0
	for _, r := range results {
		if r.FPS >= cfg.Bench.Threshold {
			best = r.Objects
		}
	}
	fmt.Fprintf(out, "largest count at or above %.1f fps: %d objects\n", cfg.Bench.Threshold, best)
}
