package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/shivavenkatesh/embedkit/internal/config"
	"github.com/shivavenkatesh/embedkit/internal/logging"
	"github.com/shivavenkatesh/embedkit/pkg/embedkit"
	"github.com/shivavenkatesh/embedkit/pkg/types"
)

// app bundles what every command needs
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	client *embedkit.Client
}

// initApp loads configuration and creates the client
func initApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	opts, err := embedkit.FromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("embedkit starting",
		zap.String("version", Version),
		zap.String("backend", cfg.Model.Backend),
		zap.Int("dimension", cfg.Embedding.Dimension))

	return &app{
		cfg:    cfg,
		logger: logger,
		client: embedkit.New(opts...),
	}, nil
}

func (a *app) Close() {
	if err := a.client.Close(); err != nil {
		a.logger.Warn("failed to release model", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// modelPath returns the --model flag or the configured model
func (a *app) modelPath(flag string) string {
	if flag != "" {
		return flag
	}
	return a.cfg.Model.Path
}

// readText joins args, or reads all of r when there are none. One trailing
// newline is dropped.
func readText(args []string, r io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	// Enough for MaxTextLength four-byte runes plus a newline
	content, err := io.ReadAll(io.LimitReader(r, types.MaxTextLength*4+2))
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	text := strings.TrimSuffix(string(content), "\n")
	return strings.TrimSuffix(text, "\r"), nil
}

// readLines returns each line of r
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), types.MaxTextLength*4+2)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return lines, nil
}
