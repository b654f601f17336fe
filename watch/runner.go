package watch

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/novelaire/novelaire/gate"
	"github.com/novelaire/novelaire/observe"
	"github.com/novelaire/novelaire/workflow"
)

// Runner consumes watch events, maps changed artifacts to gates, and
// re-runs them. It also serves the metrics endpoint while watching.
type Runner struct {
	manager *workflow.Manager
	engine  *gate.Engine
	logger  *slog.Logger
}

// NewRunner creates a runner for the given project.
func NewRunner(manager *workflow.Manager, engine *gate.Engine, logger *slog.Logger) *Runner {
	return &Runner{manager: manager, engine: engine, logger: logger}
}

// Run watches the project until the context is cancelled. metricsAddr
// optionally serves prometheus metrics; empty disables the endpoint.
func (r *Runner) Run(ctx context.Context, debounce time.Duration, metricsAddr string) error {
	watcher, err := NewWatcher(r.manager.ProjectRoot(), debounce, r.logger)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observe.Handler())
		server := &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			r.logger.Info("Serving metrics", slog.String("addr", metricsAddr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				r.logger.Error("Metrics server failed", slog.String("error", err.Error()))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			r.handle(event)
		}
	}
}

// handle re-runs the gates affected by one artifact change. The gate
// engine refreshes the spec store on every run, so spec edits are
// picked up without extra bookkeeping here.
func (r *Runner) handle(event Event) {
	for _, run := range gatesFor(event.Path) {
		report, err := r.engine.Run(run.gate, run.target)
		if err != nil {
			r.logger.Error("Gate run failed",
				slog.String("gate", string(run.gate)),
				slog.String("error", err.Error()))
			continue
		}
		r.logger.Info("Gate completed",
			slog.String("gate", string(run.gate)),
			slog.String("trigger", event.Path),
			slog.String("result", string(report.Result)),
			slog.Int("findings", len(report.Findings)))
	}
}

type gateRun struct {
	gate   gate.Type
	target string
}

// gatesFor maps a project-relative artifact path to the gates to re-run.
func gatesFor(rel string) []gateRun {
	switch {
	case strings.HasPrefix(rel, workflow.SpecDir+"/"):
		return []gateRun{{gate: gate.TypeSpec}, {gate: gate.TypeConsistency}}
	case rel == path.Join(workflow.OutlineDir, workflow.OutlineFile):
		return []gateRun{{gate: gate.TypeOutline}}
	case strings.HasPrefix(rel, path.Join(workflow.OutlineDir, workflow.FineOutlineDir)+"/"),
		rel == path.Join(workflow.OutlineDir, workflow.FineOutlineFile):
		return []gateRun{{gate: gate.TypeFineOutline}}
	case strings.HasPrefix(rel, workflow.OutlineDir+"/"):
		return []gateRun{{gate: gate.TypeOutline}}
	case strings.HasPrefix(rel, workflow.ChaptersDir+"/"), strings.HasPrefix(rel, workflow.DraftsDir+"/"):
		return []gateRun{
			{gate: gate.TypeChapter, target: rel},
			{gate: gate.TypeRegression},
		}
	default:
		return nil
	}
}
