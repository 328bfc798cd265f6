package analysis

import (
	"context"
	"math"

	"github.com/phrazzld/lumen-engine/internal/photo"
)

// Local is a deterministic Backend deriving results from photo embeddings.
// It stands in for the on-device inference pipeline in the server binary
// and in tests; outputs are stable for a given input.
type Local struct{}

// NewLocal creates a Local backend.
func NewLocal() *Local {
	return &Local{}
}

// AnalyzePhotos labels each photo from its embedding signature.
func (l *Local) AnalyzePhotos(ctx context.Context, photos []photo.Photo) ([]Result, error) {
	results := make([]Result, 0, len(photos))
	for _, p := range photos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r := Result{PhotoID: p.ID, Score: embeddingScore(p.Embedding)}
		if p.HasEmbedding() {
			r.Labels = []string{"photo"}
			if r.Score > 0.5 {
				r.Labels = append(r.Labels, "highlight-candidate")
			}
		}
		results = append(results, r)
	}
	return results, nil
}

// DetectFaces derives a stable face count per photo.
func (l *Local) DetectFaces(ctx context.Context, photos []photo.Photo) ([]Result, error) {
	results := make([]Result, 0, len(photos))
	for _, p := range photos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		faces := 0
		if p.HasEmbedding() {
			// The first embedding component stands in for a face signal.
			faces = int(math.Abs(p.Embedding[0])*4) % 4
		}
		results = append(results, Result{PhotoID: p.ID, Faces: faces})
	}
	return results, nil
}

// RankPhotos scores each photo in [0,1].
func (l *Local) RankPhotos(ctx context.Context, photos []photo.Photo) ([]Result, error) {
	results := make([]Result, 0, len(photos))
	for _, p := range photos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, Result{PhotoID: p.ID, Score: embeddingScore(p.Embedding)})
	}
	return results, nil
}

// embeddingScore squashes the embedding's mean component into [0,1].
// Photos without embeddings score a neutral 0.5.
func embeddingScore(e photo.Embedding) float64 {
	if e.IsZero() {
		return 0.5
	}
	var sum float64
	for _, v := range e {
		sum += v
	}
	mean := sum / float64(len(e))
	return 1 / (1 + math.Exp(-mean))
}
