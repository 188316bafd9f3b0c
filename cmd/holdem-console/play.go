package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/holdem-console/internal/client"
	"github.com/lox/holdem-console/internal/session"
	"github.com/lox/holdem-console/internal/tui"
)

// PlayCmd runs the interactive TUI against the dealing service.
type PlayCmd struct {
	Config   string `short:"c" default:"holdem-console.hcl" help:"Path to HCL configuration file"`
	Server   string `short:"s" help:"Service URL to connect to (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	LogFile  string `help:"Log file path (overrides config)"`
}

func (p *PlayCmd) Run() error {
	cfg, err := loadConfig(p.Config, p.Server, p.LogLevel, p.LogFile)
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := os.OpenFile(cfg.UI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	logger := newLogger(logFile, cfg.UI.LogLevel)
	logger.Info("Starting holdem console",
		"server", cfg.Server.URL,
		"config", p.Config)

	svc := client.NewClient(cfg.Server.URL, time.Duration(cfg.Server.RequestTimeout)*time.Second, logger)
	controller := session.NewController(svc, logger)
	model := tui.NewModel(controller, cfg.Table, logger)

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

func loadConfig(path, server, logLevel, logFile string) (*client.Config, error) {
	cfg, err := client.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	// Environment then flags override the file.
	if env := os.Getenv(client.EnvServer); env != "" {
		cfg.Server.URL = env
	}
	if server != "" {
		cfg.Server.URL = server
	}
	if logLevel != "" {
		cfg.UI.LogLevel = logLevel
	}
	if logFile != "" {
		cfg.UI.LogFile = logFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(out *os.File, level string) *log.Logger {
	logger := log.New(out)
	switch level {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}
