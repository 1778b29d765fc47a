package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shivavenkatesh/embedkit/internal/codec"
	"github.com/shivavenkatesh/embedkit/internal/vecops"
	"github.com/shivavenkatesh/embedkit/pkg/types"
)

var vecCmd = &cobra.Command{
	Use:   "vec [json]",
	Short: "Run a vector operation described as JSON",
	Long: `Run a vector operation. The request is a JSON object read from the
argument, or from stdin when none is given:

  {"op": "cosine|dot|norm|normalize|add", "vec1": [...], "vec2": [...], "dim": n}

vec2 is needed by cosine, dot and add. dim may be omitted; when present it
must equal the vector lengths (at most 2048). The result is written as
{"result": ...}.

Examples:
  echo '{"op":"dot","vec1":[1,2,3],"vec2":[4,5,6]}' | embedkit vec
  embedkit vec '{"op":"norm","vec1":[3,4,0],"dim":3}'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVec,
}

func runVec(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		r = strings.NewReader(args[0])
	}

	req, err := decodeVectorOp(r)
	if err != nil {
		return err
	}
	resp, err := runVectorOp(req)
	if err != nil {
		return err
	}
	return codec.WriteJSON(cmd.OutOrStdout(), resp)
}

func decodeVectorOp(r io.Reader) (types.VectorOpRequest, error) {
	var req types.VectorOpRequest
	dec := json.NewDecoder(io.LimitReader(r, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, types.InvalidArgument("vec", "invalid request: "+err.Error())
	}
	return req, nil
}

// runVectorOp evaluates a single vector operation request
func runVectorOp(req types.VectorOpRequest) (types.VectorOpResponse, error) {
	if len(req.Vec1) == 0 {
		return types.VectorOpResponse{}, types.InvalidArgument(req.Op, "vec1 is required")
	}
	if len(req.Vec1) > types.MaxModelDimension {
		return types.VectorOpResponse{}, types.InvalidArgument(req.Op, "vectors are limited to 2048 values")
	}
	if req.Dim != 0 && req.Dim != len(req.Vec1) {
		e := types.InvalidArgument(req.Op, fmt.Sprintf("vec1 has %d values", len(req.Vec1)))
		e.Dimension = req.Dim
		return types.VectorOpResponse{}, e
	}

	switch req.Op {
	case "norm":
		return types.VectorOpResponse{Result: vecops.Norm(req.Vec1)}, nil
	case "normalize":
		return types.VectorOpResponse{Result: vecops.Normalized(req.Vec1)}, nil
	case "dot":
		v, err := vecops.DotStrict(req.Vec1, req.Vec2)
		if err != nil {
			return types.VectorOpResponse{}, err
		}
		return types.VectorOpResponse{Result: v}, nil
	case "cosine":
		v, err := vecops.CosineSimilarityStrict(req.Vec1, req.Vec2)
		if err != nil {
			return types.VectorOpResponse{}, err
		}
		return types.VectorOpResponse{Result: v}, nil
	case "add":
		v, err := vecops.AddStrict(req.Vec1, req.Vec2)
		if err != nil {
			return types.VectorOpResponse{}, err
		}
		return types.VectorOpResponse{Result: v}, nil
	default:
		return types.VectorOpResponse{}, types.InvalidArgument("vec", fmt.Sprintf("unknown operation %q", req.Op))
	}
}

var similarityModel string

var similarityCmd = &cobra.Command{
	Use:   "similarity <text1> <text2>",
	Short: "Cosine similarity of two texts",
	Long: `Embed two texts and print their cosine similarity as {"result": ...}.
Hash embeddings are used unless --model is given.

Examples:
  embedkit similarity "the cat sat" "a cat was sitting"
  embedkit similarity "hello" "hi" --model ~/models/bge-small-en-v1.5.onnx`,
	Args: cobra.ExactArgs(2),
	RunE: runSimilarity,
}

var similarityDim int

func init() {
	similarityCmd.Flags().StringVarP(&similarityModel, "model", "m", "", "Model file or name (default: hash embeddings)")
	similarityCmd.Flags().IntVarP(&similarityDim, "dim", "d", 0, "Embedding dimension (default: from config)")
}

func runSimilarity(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	dim := similarityDim
	if !cmd.Flags().Changed("dim") {
		dim = a.cfg.Embedding.Dimension
		if similarityModel != "" {
			dim = a.cfg.Model.Dimension
		}
	}

	emb, err := a.client.Embedder(similarityModel, dim)
	if err != nil {
		return err
	}
	defer emb.Close()

	vecs, err := emb.EmbedBatch(ctx, args)
	if err != nil {
		return fmt.Errorf("failed to embed texts: %w", err)
	}

	sim := vecops.CosineSimilarity(vecs[0], vecs[1])
	return codec.WriteJSON(cmd.OutOrStdout(), types.VectorOpResponse{Result: sim})
}
