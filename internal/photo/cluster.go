package photo

import (
	"time"

	"github.com/google/uuid"
)

// ClusterType identifies what kind of grouping produced a cluster.
type ClusterType string

// Supported cluster types.
const (
	ClusterTypeVisualSimilarity ClusterType = "visual-similarity"
	ClusterTypeEvent            ClusterType = "event"
	ClusterTypeFaceGroup        ClusterType = "face-group"
	ClusterTypeLocation         ClusterType = "location"
	ClusterTypeTimePeriod       ClusterType = "time-period"
)

// Cluster is a group of photos produced by a clustering pass. Clusters are
// value objects owned by the caller: merge and split return replacement
// values rather than mutating inputs in place.
type Cluster struct {
	ID         uuid.UUID   `json:"id"`
	Type       ClusterType `json:"type"`
	Photos     []Photo     `json:"photos"`
	Centroid   Embedding   `json:"centroid,omitempty"`
	Confidence float64     `json:"confidence"`
	Label      string      `json:"label,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// NewCluster creates a cluster of the given type over the given photos.
// Centroid and confidence are computed by the clustering engine; this
// constructor only stamps identity and timestamps.
func NewCluster(clusterType ClusterType, photos []Photo) Cluster {
	now := time.Now().UTC()
	return Cluster{
		ID:        uuid.New(),
		Type:      clusterType,
		Photos:    photos,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Size returns the number of member photos.
func (c Cluster) Size() int {
	return len(c.Photos)
}
