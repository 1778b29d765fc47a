package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shivavenkatesh/embedkit/internal/codec"
)

var (
	rankLimit int
	rankModel string
	rankDim   int
)

var rankCmd = &cobra.Command{
	Use:   "rank <query> [candidate...]",
	Short: "Rank candidate texts by similarity to a query",
	Long: `Embed a query and a set of candidates and list the candidates from most
to least similar. Candidates come from the arguments, or one per line of
stdin when only the query is given.

Examples:
  embedkit rank "database access" "repository pattern" "http router" "sql helpers"
  cat docs.txt | embedkit rank "error handling" -n 5
  cat docs.txt | embedkit rank "error handling" --model BAAI/bge-small-en-v1.5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRank,
}

func init() {
	rankCmd.Flags().IntVarP(&rankLimit, "limit", "n", 10, "Maximum results (0 for all)")
	rankCmd.Flags().StringVarP(&rankModel, "model", "m", "", "Model file or name (default: hash embeddings)")
	rankCmd.Flags().IntVarP(&rankDim, "dim", "d", 0, "Embedding dimension (default: from config)")
}

func runRank(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	f, err := format()
	if err != nil {
		return err
	}

	query := args[0]
	candidates := args[1:]
	if len(candidates) == 0 {
		candidates, err = readLines(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}
	if len(candidates) == 0 {
		return fmt.Errorf("no candidates to rank")
	}

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	dim := rankDim
	if !cmd.Flags().Changed("dim") {
		dim = a.cfg.Embedding.Dimension
		if rankModel != "" {
			dim = a.cfg.Model.Dimension
		}
	}

	resp, err := a.client.Rank(ctx, query, candidates, rankModel, dim, rankLimit)
	if err != nil {
		return fmt.Errorf("rank failed: %w", err)
	}

	if f != codec.FormatText {
		return codec.WriteJSON(cmd.OutOrStdout(), resp)
	}

	out := cmd.OutOrStdout()
	for i, r := range resp.Results {
		fmt.Fprintf(out, "%d. [%.4f] %s\n", i+1, r.Similarity, truncate(r.Text, 80))
	}
	return nil
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
