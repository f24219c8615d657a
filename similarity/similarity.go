// Package similarity scores how visually close two image files are by
// comparing their feature embeddings.
package similarity

import (
	"fmt"
	"math"

	"foldersort/logging"
	"foldersort/types"

	"gonum.org/v1/gonum/floats"
)

// ScoreDecimals is the rounding applied to every similarity score
const ScoreDecimals = 3

// Embedder turns an image file into a fixed-length feature vector
type Embedder interface {
	Embed(path string) ([]float32, error)
}

// Scorer compares two files by the cosine similarity of their embeddings.
// A Scorer built with Unavailable fails every call with ErrModelUnavailable.
type Scorer struct {
	embedder Embedder
	initErr  error
}

// New returns a scorer backed by an initialized embedder
func New(embedder Embedder) *Scorer {
	if embedder == nil {
		return Unavailable(fmt.Errorf("nil embedder"))
	}
	return &Scorer{embedder: embedder}
}

// Unavailable returns a scorer that reports the model initialization failure
// on every call instead of retrying it
func Unavailable(cause error) *Scorer {
	return &Scorer{initErr: fmt.Errorf("%w: %v", types.ErrModelUnavailable, cause)}
}

// Err returns the initialization error, if any
func (s *Scorer) Err() error {
	return s.initErr
}

// Score returns the rounded cosine similarity between the embeddings of a and b.
// Decode and shape failures wrap types.ErrImageDecode.
func (s *Scorer) Score(a, b string) (float64, error) {
	if s.initErr != nil {
		return 0, s.initErr
	}

	featureA, err := s.embedder.Embed(a)
	if err != nil {
		return 0, asDecodeError(a, err)
	}
	featureB, err := s.embedder.Embed(b)
	if err != nil {
		return 0, asDecodeError(b, err)
	}

	cos, err := Cosine(featureA, featureB)
	if err != nil {
		return 0, err
	}

	score := Round(cos, ScoreDecimals)
	logging.DebugLog("Similarity score %s vs %s: %.3f", a, b, score)
	return score, nil
}

// asDecodeError keeps ErrModelUnavailable intact and attributes anything else
// to the file being embedded
func asDecodeError(path string, err error) error {
	if types.IsModelUnavailable(err) {
		return err
	}
	if _, ok := types.DecodeErrorPath(err); ok {
		return err
	}
	return types.NewDecodeError(path, err)
}

// Cosine returns the cosine similarity of two vectors. Vectors of different
// length are a shape error; a zero vector scores 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, fmt.Errorf("%w: embedding shapes %d and %d differ", types.ErrImageDecode, len(a), len(b))
	}

	va := toFloat64(a)
	vb := toFloat64(b)

	normA := floats.Norm(va, 2)
	normB := floats.Norm(vb, 2)
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	cos := floats.Dot(va, vb) / (normA * normB)
	// Clamp float error so identical vectors never exceed 1
	return math.Max(-1, math.Min(1, cos)), nil
}

// Round rounds v to the given number of decimal places, half away from zero
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
