// Package main runs an optimizer session in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/manuelmanso/etfoptimizer/internal/config"
	"github.com/manuelmanso/etfoptimizer/internal/di"
	"github.com/manuelmanso/etfoptimizer/internal/tui"
	"github.com/manuelmanso/etfoptimizer/pkg/logger"
)

func main() {
	serviceURL := flag.String("service-url", "", "Optimization service URL (overrides OPTIMIZER_SERVICE_URL)")
	preset := flag.String("preset", "", "YAML preset applied at start (overrides PRESET_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *serviceURL != "" {
		cfg.ServiceURL = *serviceURL
	}
	if *preset != "" {
		cfg.PresetPath = *preset
	}

	// Logs go to a file; the terminal belongs to the UI.
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: logFile,
	})
	logger.SetGlobalLogger(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := di.Wire(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	sess := container.Session
	sess.Init(ctx)
	defer sess.Teardown()

	p := tea.NewProgram(tui.NewModel(sess), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Error().Err(err).Msg("Terminal UI failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
