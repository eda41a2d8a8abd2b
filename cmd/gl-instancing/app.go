package main

import (
	"fmt"
	"io"
	"log"

	"github.com/m0ppers/gl-instancing/engine"
	"github.com/m0ppers/gl-instancing/engine/config"
	"github.com/m0ppers/gl-instancing/engine/renderer"
	"github.com/m0ppers/gl-instancing/engine/renderer/backend"
	"github.com/m0ppers/gl-instancing/engine/window"
)

// glApplication runs against a real window and GPU backend.
type glApplication struct{}

var _ application = &glApplication{}

// session owns everything a run needs. Close releases it in reverse order of creation.
type session struct {
	window   window.Window
	backend  renderer.RendererBackend
	registry *renderer.Registry
	engine   engine.Engine
}

func openSession(cfg config.Config, runDuration engine.EngineBuilderOption) (*session, error) {
	win, err := window.NewWindow(cfg.WindowOptions()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", engine.ErrWindowCreation, err)
	}

	gpu, err := backend.NewRendererBackend(cfg.BackendType(), win, cfg.BackendOptions()...)
	if err != nil {
		_ = win.Close()
		return nil, fmt.Errorf("%w: %w", engine.ErrResourceCreation, err)
	}

	s := &session{
		window:   win,
		backend:  gpu,
		registry: renderer.NewRegistry(gpu, cfg.RendererOptions()...),
	}
	s.engine = engine.NewEngine(
		engine.WithWindow(win),
		engine.WithBackend(gpu),
		engine.WithProfiling(cfg.Profile),
		engine.WithRenderFrameLimit(cfg.FrameLimit),
		runDuration,
	)
	return s, nil
}

func (s *session) Close() {
	s.registry.FinishAll()
	s.backend.Close()
	if err := s.window.Close(); err != nil {
		log.Printf("[Engine] failed to close window: %v", err)
	}
}

// run draws one renderer with the given object count.
func (s *session) run(kind renderer.Kind, numVertices, numObjects int) (engine.Stats, error) {
	r, err := s.registry.Get(kind, numVertices, numObjects)
	if err != nil {
		return engine.Stats{}, fmt.Errorf("%w: %w", engine.ErrResourceCreation, err)
	}
	if err := s.engine.Run(r); err != nil {
		return engine.Stats{}, err
	}
	return s.engine.Stats(), nil
}

func (a *glApplication) Run(cfg config.Config) error {
	s, err := openSession(cfg, engine.WithRunDuration(cfg.Duration))
	if err != nil {
		return err
	}
	defer s.Close()

	_, err = s.run(cfg.Kind(), cfg.Vertices, cfg.Objects)
	return err
}

func (a *glApplication) Bench(cfg config.Config, out io.Writer) error {
	s, err := openSession(cfg, engine.WithRunDuration(cfg.Bench.Interval))
	if err != nil {
		return err
	}
	defer s.Close()

	results, err := ramp(cfg.Bench, func(objects int) (engine.Stats, bool, error) {
		stats, err := s.run(cfg.Kind(), cfg.Vertices, objects)
		return stats, s.window.IsRunning(), err
	})
	printSummary(out, cfg, results)
	return err
}
