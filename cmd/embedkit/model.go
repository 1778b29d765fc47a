package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shivavenkatesh/embedkit/internal/codec"
	"github.com/shivavenkatesh/embedkit/pkg/types"
)

var (
	modelPathFlag string
	modelDimFlag  int
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Embed text with a neural model",
	Long: `Run a local embedding model. With the onnx backend the model is a path to
an .onnx file; with the fastembed backend it is a model name such as
BAAI/bge-small-en-v1.5. Outputs are L2-normalised.

The model defaults to model.path from the config file.`,
}

var modelEmbedCmd = &cobra.Command{
	Use:   "embed [text]",
	Short: "Generate a model embedding",
	Long: `Generate an embedding with a neural model. The text is taken from the
arguments, or from stdin when none are given.

--dim 0 (the default) accepts the model's native width. Any other value must
match it exactly; outputs are never truncated or padded.

Examples:
  embedkit model embed "hello world" --model ~/models/all-MiniLM-L6-v2.onnx
  echo "hello world" | embedkit model embed --model ./bge.onnx --dim 384`,
	RunE: runModelEmbed,
}

var modelDimCmd = &cobra.Command{
	Use:   "dim",
	Short: "Print a model's output dimension",
	Long: `Load a model and print the width of its embeddings.

Examples:
  embedkit model dim --model ~/models/nomic-embed-text-v1.onnx`,
	Args: cobra.NoArgs,
	RunE: runModelDim,
}

func init() {
	modelCmd.PersistentFlags().StringVarP(&modelPathFlag, "model", "m", "", "Model file or name (default: model.path)")
	modelEmbedCmd.Flags().IntVarP(&modelDimFlag, "dim", "d", 0, "Required output dimension, 0 for native (default: model.dimension)")

	modelCmd.AddCommand(modelEmbedCmd)
	modelCmd.AddCommand(modelDimCmd)
}

func runModelEmbed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	f, err := format()
	if err != nil {
		return err
	}
	text, err := readText(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	path := a.modelPath(modelPathFlag)
	if path == "" {
		return fmt.Errorf("no model given: use --model or set model.path")
	}
	dim := modelDimFlag
	if !cmd.Flags().Changed("dim") {
		dim = a.cfg.Model.Dimension
	}

	emb, err := a.client.ModelEmbedding(ctx, path, text, dim)
	if err != nil {
		return fmt.Errorf("failed to generate embedding: %w", err)
	}

	resp := types.EmbeddingResponse{
		Source:    "model",
		Model:     path,
		Dimension: emb.Dimension(),
		Embedding: emb,
	}
	if info, ok := a.client.LoadedModel(); ok {
		resp.Model = info.Path
	}
	return codec.WriteEmbedding(cmd.OutOrStdout(), f, resp)
}

func runModelDim(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	f, err := format()
	if err != nil {
		return err
	}

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	path := a.modelPath(modelPathFlag)
	if path == "" {
		return fmt.Errorf("no model given: use --model or set model.path")
	}

	dim, err := a.client.ModelOutputDimension(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to inspect model: %w", err)
	}

	if f == codec.FormatText {
		fmt.Fprintln(cmd.OutOrStdout(), dim)
		return nil
	}
	return codec.WriteJSON(cmd.OutOrStdout(), types.ModelInfo{
		Path:      path,
		Backend:   a.client.Backend(),
		Dimension: dim,
	})
}
