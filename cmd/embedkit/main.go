// embedkit - deterministic hash embeddings, vector math and local model
// embeddings from the command line
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shivavenkatesh/embedkit/internal/codec"
	"github.com/shivavenkatesh/embedkit/pkg/types"
)

var (
	// Version is set at build time
	Version = "dev"

	// Global flags
	configPath   string
	outputFormat string
	verbose      bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		writeError(os.Stderr, err)
		os.Exit(1)
	}
}

// writeError reports err as {"error": "..."}
func writeError(w io.Writer, err error) {
	if encErr := codec.WriteJSON(w, types.ErrorResponse{Error: err.Error()}); encErr != nil {
		fmt.Fprintln(w, err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "embedkit",
	Short: "Text embeddings and vector operations",
	Long: `embedkit turns text into fixed-width embedding vectors and compares them.

The default engine is a deterministic hash embedding that needs no model
files. With a local ONNX model (or a FastEmbed model name) embedkit runs the
model instead and returns L2-normalised vectors.

Examples:
  # Hash embedding of a sentence
  embedkit generate "the quick brown fox" --dim 256

  # One embedding per input line
  cat sentences.txt | embedkit batch --format text

  # Vector math over JSON on stdin
  echo '{"op":"cosine","vec1":[1,2,3],"vec2":[4,5,6]}' | embedkit vec

  # Model embedding
  embedkit model embed "hello world" --model ~/models/all-MiniLM-L6-v2.onnx`,
	Version:       Version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ~/.config/embedkit/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json, text or binary")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging to stderr")

	// Add subcommands
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(vecCmd)
	rootCmd.AddCommand(similarityCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(modelCmd)
	rootCmd.AddCommand(configCmd)
}

// format parses the global --format flag
func format() (codec.Format, error) {
	return codec.ParseFormat(outputFormat)
}
