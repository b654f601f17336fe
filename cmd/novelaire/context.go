package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/novelaire/novelaire/config"
	"github.com/novelaire/novelaire/events"
	"github.com/novelaire/novelaire/gate"
	"github.com/novelaire/novelaire/snapshot"
	"github.com/novelaire/novelaire/specstore"
	"github.com/novelaire/novelaire/workflow"
)

// globalOptions holds the persistent flags shared by all commands.
type globalOptions struct {
	projectPath string
	logLevel    string
	jsonOutput  bool
}

// appContext wires the services a command needs. Construction is lazy
// per command so `novelaire init` can run without an existing project.
type appContext struct {
	logger    *slog.Logger
	cfg       *config.Config
	manager   *workflow.Manager
	service   *specstore.Service
	snapshots *snapshot.Manager
	engine    *gate.Engine
	publisher *events.Publisher
}

// newLogger configures slog for the requested level.
func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// newAppContext loads config, locates the project, and wires services.
func newAppContext(opts *globalOptions) (*appContext, error) {
	logger := newLogger(opts.logLevel)

	cfg, err := config.NewLoader(logger).Load()
	if err != nil {
		return nil, err
	}

	root := opts.projectPath
	if root == "" {
		root = cfg.Project.Root
	}

	var manager *workflow.Manager
	if root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve project path: %w", err)
		}
		if _, err := os.Stat(filepath.Join(abs, workflow.RootDir)); err != nil {
			return nil, fmt.Errorf("%w at %s", workflow.ErrNoProject, abs)
		}
		manager = workflow.NewManager(abs)
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		manager, err = workflow.Discover(cwd)
		if err != nil {
			return nil, err
		}
	}

	snapshots := snapshot.NewManager(manager, logger)
	service := specstore.NewService(manager.ProjectRoot(), snapshots, logger)
	engine := gate.NewEngine(manager, service.Store(), logger)

	publisher, err := events.Connect(cfg.Events.URL, cfg.Events.SubjectPrefix, filepath.Base(manager.ProjectRoot()), logger)
	if err != nil {
		// Events are best effort; an unreachable broker must not stop
		// the workflow.
		logger.Warn("Event publishing disabled", slog.String("error", err.Error()))
		publisher = nil
	}

	return &appContext{
		logger:    logger,
		cfg:       cfg,
		manager:   manager,
		service:   service,
		snapshots: snapshots,
		engine:    engine,
		publisher: publisher,
	}, nil
}

// close releases held connections.
func (a *appContext) close() {
	a.publisher.Close()
}

// printJSON renders v as indented JSON on stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
