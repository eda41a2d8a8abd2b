package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/m0ppers/gl-instancing/engine"
	"github.com/m0ppers/gl-instancing/engine/config"
	"github.com/m0ppers/gl-instancing/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeApplication struct {
	runs    []config.Config
	benches []config.Config
	err     error
}

func (a *fakeApplication) Run(cfg config.Config) error {
	a.runs = append(a.runs, cfg)
	return a.err
}

func (a *fakeApplication) Bench(cfg config.Config, out io.Writer) error {
	a.benches = append(a.benches, cfg)
	fmt.Fprintln(out, "bench done")
	return a.err
}

func run(t *testing.T, app *fakeApplication, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(args, &stdout, &stderr, app)
	return code, stdout.String(), stderr.String()
}

func TestExecute_defaults(t *testing.T) {
	app := &fakeApplication{}
	code, _, _ := run(t, app, "instanced")
	require.Equal(t, 0, code)
	require.Len(t, app.runs, 1)

	cfg := app.runs[0]
	assert.Equal(t, "instanced", cfg.Renderer)
	assert.Equal(t, 20, cfg.Vertices)
	assert.Equal(t, 20, cfg.Objects)
	assert.Equal(t, renderer.KindInstanced, cfg.Kind())
	assert.Equal(t, renderer.BackendTypeGL, cfg.BackendType())
}

func TestExecute_flags(t *testing.T) {
	app := &fakeApplication{}
	code, _, _ := run(t, app, "-v", "7", "--objects", "9", "--backend", "wgpu", "--duration", "5s", "--flat-template", "standard")
	require.Equal(t, 0, code)
	require.Len(t, app.runs, 1)

	cfg := app.runs[0]
	assert.Equal(t, 7, cfg.Vertices)
	assert.Equal(t, 9, cfg.Objects)
	assert.Equal(t, renderer.BackendTypeWGPU, cfg.BackendType())
	assert.Equal(t, 5*time.Second, cfg.Duration)
	assert.True(t, cfg.FlatTemplate)
	assert.Equal(t, renderer.KindStandard, cfg.Kind())
}

func TestExecute_missingRenderer(t *testing.T) {
	app := &fakeApplication{}
	code, _, stderr := run(t, app)
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasPrefix(stderr, "Provide a renderer!\n"), stderr)
	assert.NotContains(t, stderr, config.ErrMissingRenderer.Error(), "the sentinel text stays internal")
	assert.Contains(t, stderr, "Usage:")
	assert.Empty(t, app.runs)
}

func TestExecute_unknownRenderer(t *testing.T) {
	app := &fakeApplication{}
	code, _, stderr := run(t, app, "fancy")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Renderer fancy is unknown. Supported renderers: instanced, standard")
	assert.Empty(t, app.runs)
}

func TestExecute_invalidInput(t *testing.T) {
	cases := map[string][]string{
		"negative objects": {"-o", "-1", "standard"},
		"bad integer":      {"-v", "many", "standard"},
		"unknown flag":     {"--teapot", "standard"},
		"two renderers":    {"standard", "instanced"},
		"unknown backend":  {"--backend", "metal", "standard"},
		"missing config":   {"--config", "/does/not/exist.yaml", "standard"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			app := &fakeApplication{}
			code, _, stderr := run(t, app, args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, "Usage:")
			assert.Empty(t, app.runs)
		})
	}
}

func TestExecute_help(t *testing.T) {
	app := &fakeApplication{}
	code, stdout, _ := run(t, app, "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "--vertices")
	assert.Contains(t, stdout, "instanced, standard")
	assert.Empty(t, app.runs)
}

func TestExecute_exitCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"program", fmt.Errorf("%w: 0:1: syntax error", engine.ErrProgramCreation), 2},
		{"window", fmt.Errorf("%w: no display", engine.ErrWindowCreation), 1},
		{"resource", fmt.Errorf("%w: out of memory", engine.ErrResourceCreation), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := &fakeApplication{err: tc.err}
			code, _, stderr := run(t, app, "standard")
			assert.Equal(t, tc.code, code)
			assert.Contains(t, stderr, tc.err.Error())
			assert.NotContains(t, stderr, "Usage:")
		})
	}
}

func TestExecute_configFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("renderer: standard\nvertices: 6\nobjects: 500\nseed: 7\n"), 0o644))

	app := &fakeApplication{}
	code, _, _ := run(t, app, "--config", path, "-v", "9")
	require.Equal(t, 0, code)
	require.Len(t, app.runs, 1)

	cfg := app.runs[0]
	assert.Equal(t, "standard", cfg.Renderer, "renderer comes from the file")
	assert.Equal(t, 9, cfg.Vertices, "flag overrides the file")
	assert.Equal(t, 500, cfg.Objects)
	assert.Equal(t, uint32(7), cfg.Seed)
}

func TestExecute_configFileRendererOverridden(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("renderer: standard\n"), 0o644))

	app := &fakeApplication{}
	code, _, _ := run(t, app, "--config", path, "instanced")
	require.Equal(t, 0, code)
	assert.Equal(t, "instanced", app.runs[0].Renderer)
}

func TestExecute_bench(t *testing.T) {
	app := &fakeApplication{}
	code, stdout, _ := run(t, app, "bench", "--start", "10", "--factor", "3", "--max", "1000", "--interval", "2s", "-v", "12", "instanced")
	require.Equal(t, 0, code)
	require.Len(t, app.benches, 1)
	assert.Empty(t, app.runs)
	assert.Contains(t, stdout, "bench done")

	b := app.benches[0].Bench
	assert.Equal(t, 10, b.Start)
	assert.Equal(t, 3.0, b.Factor)
	assert.Equal(t, 1000, b.Max)
	assert.Equal(t, 2*time.Second, b.Interval)
	assert.Equal(t, 12, app.benches[0].Vertices)
}

func TestExecute_benchInvalid(t *testing.T) {
	app := &fakeApplication{}
	code, _, stderr := run(t, app, "bench", "--factor", "1", "standard")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "factor")
	assert.Empty(t, app.benches)

	code, _, stderr = run(t, app, "bench")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Provide a renderer!")
}

// fpsStep reports a frame rate of budget/objects for one simulated second per step.
func fpsStep(budget float64, calls *[]int) benchStep {
	return func(objects int) (engine.Stats, bool, error) {
		*calls = append(*calls, objects)
		fps := budget / float64(objects)
		return engine.Stats{Frames: int(fps), Elapsed: time.Second, AverageFPS: fps}, true, nil
	}
}

func TestRamp_stopsBelowThreshold(t *testing.T) {
	var calls []int
	b := config.Bench{Start: 100, Factor: 2, Threshold: 30, Max: 1 << 20}
	results, err := ramp(b, fpsStep(10000, &calls))
	require.NoError(t, err)

	assert.Equal(t, []int{100, 200, 400}, calls)
	require.Len(t, results, 3)
	assert.InDelta(t, 25.0, results[2].FPS, 1e-9)
}

func TestRamp_capsAtMax(t *testing.T) {
	var calls []int
	b := config.Bench{Start: 100, Factor: 3, Threshold: 1, Max: 500}
	results, err := ramp(b, fpsStep(1e9, &calls))
	require.NoError(t, err)
	assert.Equal(t, []int{100, 300, 500}, calls)
	assert.Len(t, results, 3)
}

func TestRamp_smallFactorStillGrows(t *testing.T) {
	var calls []int
	b := config.Bench{Start: 1, Factor: 1.1, Threshold: 1, Max: 3}
	_, err := ramp(b, fpsStep(1e9, &calls))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, calls)
}

func TestRamp_windowClosed(t *testing.T) {
	steps := 0
	b := config.Bench{Start: 10, Factor: 2, Threshold: 1, Max: 1000}
	results, err := ramp(b, func(objects int) (engine.Stats, bool, error) {
		steps++
		return engine.Stats{Frames: 50, Elapsed: time.Second, AverageFPS: 50}, steps < 2, nil
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRamp_quitRendersNothing(t *testing.T) {
	b := config.Bench{Start: 10, Factor: 2, Threshold: 1, Max: 1000}
	results, err := ramp(b, func(objects int) (engine.Stats, bool, error) {
		if objects > 10 {
			return engine.Stats{}, true, nil
		}
		return engine.Stats{Frames: 50, Elapsed: time.Second, AverageFPS: 50}, true, nil
	})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestRamp_error(t *testing.T) {
	b := config.Bench{Start: 10, Factor: 2, Threshold: 1, Max: 1000}
	_, err := ramp(b, func(objects int) (engine.Stats, bool, error) {
		return engine.Stats{}, true, fmt.Errorf("%w: vertex buffer", engine.ErrResourceCreation)
	})
	assert.ErrorIs(t, err, engine.ErrResourceCreation)
}

func TestPrintSummary(t *testing.T) {
	cfg := config.Default()
	cfg.Renderer = "instanced"
	results := []benchResult{
		{Objects: 100, Frames: 600, Elapsed: 3 * time.Second, FPS: 200},
		{Objects: 200, Frames: 90, Elapsed: 3 * time.Second, FPS: 30},
		{Objects: 400, Frames: 60, Elapsed: 3 * time.Second, FPS: 20},
	}

	var out bytes.Buffer
	printSummary(&out, cfg, results)
	text := out.String()
	assert.Contains(t, text, "instanced renderer, 20 vertices per object, gl backend")
	assert.Contains(t, text, "objects")
	assert.Contains(t, text, "200.0")
	assert.Contains(t, text, "largest count at or above 30.0 fps: 200 objects")

	out.Reset()
	printSummary(&out, cfg, nil)
	assert.Contains(t, out.String(), "no frames rendered")
}
