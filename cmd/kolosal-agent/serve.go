// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentmanager"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/async"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/config"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/llmclient"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/logger"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/observability"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/planning"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/server"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/tool"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/workflow"
)

// ServeCmd starts the HTTP server (spec.md §6 "CLI"): one positional or
// flagged listen address plus an optional --config path.
type ServeCmd struct {
	Listen string `arg:"" optional:"" help:"HTTP listen address, e.g. :8080."`
	Config string `short:"c" help:"Path to a YAML configuration file." type:"path"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.Listen != "" {
		cfg.ListenAddress = c.Listen
	}

	log, cleanup, err := buildLogger(cfg)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer cleanup()

	manager := agentmanager.New()
	pool := async.NewPool(async.Config{
		Workers:         cfg.Workers,
		QueueCapacity:   cfg.QueueCapacity,
		RetentionWindow: cfg.RetentionWindow,
		ReapInterval:    cfg.ReapInterval,
	})
	defer pool.Shutdown()

	engine := workflow.NewEngine(manager)
	collab := workflow.NewCollaborationEngine(manager)
	metrics := observability.New()
	planner := planning.NewPlanningSystem()
	reasoner := planning.NewReasoningSystem()
	tools := tool.NewRegistry()

	deps := server.Deps{
		Manager:   manager,
		Pool:      pool,
		Engine:    engine,
		Collab:    collab,
		Metrics:   metrics,
		Log:       log,
		Planning:  planner,
		Reasoning: reasoner,
		Tools:     tools,
		Reloader: func(configFile string) error {
			reloaded, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			cfg = reloaded
			return nil
		},
	}
	if cfg.LLM.Endpoint != "" {
		deps.Inference = llmclient.New(llmclient.Config{
			BaseURL:     cfg.LLM.Endpoint,
			BearerToken: cfg.BearerToken,
			BaseDelay:   time.Second,
		})
	}
	srv := server.New(deps)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: srv.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", "address", cfg.ListenAddress)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		manager.StopAll()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
	}

	return nil
}

func buildLogger(cfg *config.Config) (*logger.Logger, func(), error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, &configError{err: err}
	}

	var file *logger.RotatingFile
	if cfg.LogFilePath != "" {
		file, err = logger.NewRotatingFile(cfg.LogFilePath, cfg.LogFileMaxBytes, cfg.LogFileBackups)
		if err != nil {
			return nil, nil, err
		}
	}

	log, err := logger.New(level, file)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if file != nil {
			_ = file.Close()
		}
	}
	return log, cleanup, nil
}
