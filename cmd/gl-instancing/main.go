// Command gl-instancing draws many copies of a random mesh with either one draw call per object
// ("standard") or a single instanced draw ("instanced") and reports the frame rate.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/m0ppers/gl-instancing/engine"
	"github.com/m0ppers/gl-instancing/engine/config"
	"github.com/m0ppers/gl-instancing/engine/renderer"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const missingRendererMessage = "Provide a renderer!"

func init() {
	// GLFW and the GL context must stay on the main OS thread.
	runtime.LockOSThread()
}

// application runs a validated configuration.
type application interface {
	// Run opens a window and draws the configured renderer until the window closes.
	Run(cfg config.Config) error

	// Bench ramps the object count and writes the summary table to out.
	Bench(cfg config.Config, out io.Writer) error
}

// usageError is a configuration problem reported together with the command usage.
type usageError struct {
	cmd     *cobra.Command
	message string
	err     error
}

func (e *usageError) Error() string {
	return e.message
}

func (e *usageError) Unwrap() error {
	return e.err
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr, &glApplication{}))
}

// execute runs the command line and maps the outcome to a process exit code.
func execute(args []string, stdout, stderr io.Writer, app application) int {
	root := newRootCommand(app)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return 0
	}

	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintln(stderr, ue.message)
		fmt.Fprint(stderr, ue.cmd.UsageString())
	} else {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return exitCode(err)
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, engine.ErrProgramCreation):
		return 2
	default:
		return 1
	}
}

func newRootCommand(app application) *cobra.Command {
	cfg := config.Default()
	var configPath string

	root := &cobra.Command{
		Use:   "gl-instancing [flags] RENDERER",
		Short: "Compare per-object draw calls with instanced drawing",
		Long: "gl-instancing draws OBJECTS copies of a random VERTICES-vertex mesh.\n" +
			"RENDERER is one of: " + supportedRenderers() + ".\n" +
			"Press Q or Escape to stop.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          rendererArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := resolveConfig(cmd, args, &cfg, configPath)
			if err != nil {
				return err
			}
			if err := resolved.Validate(); err != nil {
				return newUsageError(cmd, resolved, err)
			}
			return app.Run(resolved)
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{cmd: cmd, message: err.Error(), err: fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "YAML configuration file; flags given on the command line override it")
	flags.IntVarP(&cfg.Vertices, "vertices", "v", cfg.Vertices, "number of vertices per object")
	flags.IntVarP(&cfg.Objects, "objects", "o", cfg.Objects, "number of objects")
	flags.Uint32Var(&cfg.Seed, "seed", cfg.Seed, "geometry generator seed")
	flags.StringVar(&cfg.Backend, "backend", cfg.Backend, "graphics backend: gl or wgpu")
	flags.DurationVar(&cfg.Duration, "duration", cfg.Duration, "stop after this long (0 runs until the window closes)")
	flags.BoolVar(&cfg.FlatTemplate, "flat-template", cfg.FlatTemplate, "zero the z coordinate of the template mesh")
	flags.IntVar(&cfg.ExpandWorkers, "expand-workers", cfg.ExpandWorkers, "workers used to expand the standard vertex buffer (0 or 1 is serial)")
	flags.BoolVar(&cfg.VSync, "vsync", cfg.VSync, "synchronize presentation with the display refresh")
	flags.BoolVar(&cfg.SoftwareGPU, "software-gpu", cfg.SoftwareGPU, "force a software adapter on the wgpu backend")
	flags.IntVar(&cfg.Width, "width", cfg.Width, "window width in pixels")
	flags.IntVar(&cfg.Height, "height", cfg.Height, "window height in pixels")
	flags.BoolVar(&cfg.Profile, "profile", cfg.Profile, "log the frame rate once per second")
	flags.Float64Var(&cfg.FrameLimit, "frame-limit", cfg.FrameLimit, "cap the frame rate (0 is uncapped)")

	root.AddCommand(newBenchCommand(app, &cfg, &configPath))
	return root
}

func rendererArg(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return &usageError{
			cmd:     cmd,
			message: fmt.Sprintf("Expected one renderer, got %d: %s", len(args), strings.Join(args, " ")),
			err:     config.ErrInvalidConfig,
		}
	}
	return nil
}

// resolveConfig layers the configuration: defaults, then the YAML file, then every flag set on
// the command line, then the positional renderer. cfg is the flag target and is overwritten.
func resolveConfig(cmd *cobra.Command, args []string, cfg *config.Config, path string) (config.Config, error) {
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, newUsageError(cmd, *cfg, err)
		}
		if err := overrideChanged(cmd.Flags(), func() { *cfg = loaded }); err != nil {
			return config.Config{}, newUsageError(cmd, *cfg, err)
		}
	}
	if len(args) == 1 {
		cfg.Renderer = args[0]
	}
	return *cfg, nil
}

// overrideChanged records every flag set on the command line, runs replace, and sets the
// recorded flags again so they win over whatever replace wrote into their targets.
func overrideChanged(flags *pflag.FlagSet, replace func()) error {
	changed := map[string]string{}
	flags.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})
	replace()
	for name, value := range changed {
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("%w: --%s: %w", config.ErrInvalidConfig, name, err)
		}
	}
	return nil
}

func newUsageError(cmd *cobra.Command, cfg config.Config, err error) error {
	message := err.Error()
	switch {
	case errors.Is(err, config.ErrMissingRenderer):
		message = missingRendererMessage
	case errors.Is(err, renderer.ErrUnknownKind):
		message = fmt.Sprintf("Renderer %s is unknown. Supported renderers: %s", cfg.Renderer, supportedRenderers())
	}
	return &usageError{cmd: cmd, message: message, err: err}
}

func supportedRenderers() string {
	names := make([]string, 0, len(renderer.Kinds()))
	for _, k := range renderer.Kinds() {
		names = append(names, k.String())
	}
	return strings.Join(names, ", ")
}
