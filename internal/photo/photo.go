package photo

import (
	"time"

	"github.com/google/uuid"
)

// Embedding is a feature vector extracted from a photo by the analysis
// backend. All embeddings produced for one library share a dimensionality,
// but the engine never assumes a particular one.
type Embedding []float64

// IsZero reports whether the embedding is absent or has no components.
func (e Embedding) IsZero() bool {
	return len(e) == 0
}

// GeoPoint is a WGS84 coordinate attached to a photo at capture time.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Photo is the in-memory value object the engine operates on. The caller
// owns persistence; the engine only reads these fields and never mutates
// a Photo it was handed.
type Photo struct {
	ID         uuid.UUID  `json:"id"`
	URI        string     `json:"uri"`
	CapturedAt time.Time  `json:"captured_at"`
	Location   *GeoPoint  `json:"location,omitempty"`
	Embedding  Embedding  `json:"embedding,omitempty"`
}

// HasEmbedding reports whether the photo carries a usable feature vector.
func (p Photo) HasEmbedding() bool {
	return !p.Embedding.IsZero()
}

// HasLocation reports whether the photo carries a capture coordinate.
func (p Photo) HasLocation() bool {
	return p.Location != nil
}
