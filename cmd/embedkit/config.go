package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shivavenkatesh/embedkit/internal/config"
	"github.com/shivavenkatesh/embedkit/internal/fastembed"
	"github.com/shivavenkatesh/embedkit/internal/onnx"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration after merging defaults, the config file and
EMBEDKIT_* environment variables, as YAML.

Environment variables map onto keys by section, for example:
  EMBEDKIT_MODEL_PATH          model.path
  EMBEDKIT_MODEL_LIBRARY_PATH  model.library_path
  EMBEDKIT_EMBEDDING_DIMENSION embedding.dimension
  EMBEDKIT_LOG_LEVEL           log.level`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	out, err := cfg.YAML()
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	w := cmd.OutOrStdout()
	if _, err := w.Write(out); err != nil {
		return err
	}

	if verbose {
		switch cfg.Model.Backend {
		case config.BackendFastEmbed:
			fmt.Fprintf(w, "# fastembed models: %v\n", fastembed.Models())
		default:
			if lib := onnx.LibraryPath(cfg.Model.LibraryPath); lib != "" {
				fmt.Fprintf(w, "# onnx runtime: %s\n", lib)
			} else {
				fmt.Fprintln(w, "# onnx runtime: system default")
			}
		}
	}
	return nil
}
