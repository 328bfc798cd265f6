// Package analysis defines the contract for the opaque execution backend
// that performs photo analysis, face detection and curation ranking.
//
// The backend's internals (model inference, feature extraction) live
// outside this repository; the scheduler only depends on the Backend
// interface. A deterministic Local implementation backs the server binary
// and tests.
package analysis

import (
	"context"

	"github.com/google/uuid"

	"github.com/phrazzld/lumen-engine/internal/photo"
)

// Result is the per-photo outcome of one backend operation. Fields are
// populated according to the operation that produced it.
type Result struct {
	PhotoID uuid.UUID `json:"photo_id"`

	// Score is the curation/quality score in [0,1].
	Score float64 `json:"score"`

	// Faces is the number of faces detected.
	Faces int `json:"faces"`

	// Labels are content tags assigned by analysis.
	Labels []string `json:"labels,omitempty"`
}

// Backend executes per-photo-batch operations. Implementations must
// return an empty result slice, not an error, for an empty batch.
type Backend interface {
	// AnalyzePhotos extracts content labels and quality signals.
	AnalyzePhotos(ctx context.Context, photos []photo.Photo) ([]Result, error)

	// DetectFaces counts faces per photo.
	DetectFaces(ctx context.Context, photos []photo.Photo) ([]Result, error)

	// RankPhotos scores photos for curation.
	RankPhotos(ctx context.Context, photos []photo.Photo) ([]Result, error)
}
