package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shivavenkatesh/embedkit/internal/codec"
	"github.com/shivavenkatesh/embedkit/internal/embeddings"
	"github.com/shivavenkatesh/embedkit/pkg/types"
)

var generateDim int

var generateCmd = &cobra.Command{
	Use:   "generate [text]",
	Short: "Generate a hash embedding",
	Long: `Generate a deterministic hash embedding. The text is taken from the
arguments, or from stdin when none are given. Case is ignored.

Supported dimensions: 128, 256, 512, 768, 1024, 2048.

Examples:
  embedkit generate "hello world"
  embedkit generate "hello world" --dim 768 --format text
  echo "hello world" | embedkit generate`,
	RunE: runGenerate,
}

var batchDim int

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate hash embeddings for each line of stdin",
	Long: `Generate one hash embedding per line of stdin. If any line is invalid
(for example empty) nothing is written and the error names the line index.

Examples:
  cat sentences.txt | embedkit batch
  cat sentences.txt | embedkit batch --dim 256 --format binary > vectors.bin`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	generateCmd.Flags().IntVarP(&generateDim, "dim", "d", 0, "Embedding dimension (default: embedding.dimension)")
	batchCmd.Flags().IntVarP(&batchDim, "dim", "d", 0, "Embedding dimension (default: embedding.dimension)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
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

	dim := generateDim
	if !cmd.Flags().Changed("dim") {
		dim = a.cfg.Embedding.Dimension
	}

	emb, err := a.client.Generate(ctx, text, dim)
	if err != nil {
		return fmt.Errorf("failed to generate embedding: %w", err)
	}

	return codec.WriteEmbedding(cmd.OutOrStdout(), f, hashResponse(emb))
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	f, err := format()
	if err != nil {
		return err
	}
	lines, err := readLines(cmd.InOrStdin())
	if err != nil {
		return err
	}

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	dim := batchDim
	if !cmd.Flags().Changed("dim") {
		dim = a.cfg.Embedding.Dimension
	}

	embs, err := a.client.GenerateBatch(ctx, lines, dim)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}

	resps := make([]types.EmbeddingResponse, len(embs))
	for i, emb := range embs {
		resps[i] = hashResponse(emb)
	}
	return codec.WriteEmbeddings(cmd.OutOrStdout(), f, resps)
}

func hashResponse(emb types.Embedding) types.EmbeddingResponse {
	return types.EmbeddingResponse{
		Source:    "hash",
		Model:     embeddings.HashModelName,
		Dimension: emb.Dimension(),
		Embedding: emb,
	}
}
