package cluster

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/phrazzld/lumen-engine/internal/photo"
)

// Cluster-operation precondition errors. These indicate caller mistakes
// and are never retried.
var (
	// ErrTooFewClusters is returned when merge resolves fewer than two of
	// the requested cluster ids.
	ErrTooFewClusters = errors.New("merge requires at least two resolvable clusters")

	// ErrUnknownCluster is returned when split cannot resolve the cluster id.
	ErrUnknownCluster = errors.New("unknown cluster id")

	// ErrClusterTooSmall is returned when a cluster has too few photos to
	// split into the requested number of groups.
	ErrClusterTooSmall = errors.New("cluster too small to split")
)

// maxKMeansRounds bounds the assign/recompute iteration in Split.
const maxKMeansRounds = 100

// Merge replaces the clusters named by ids with a single cluster holding
// the union of their photos. The merged cluster's confidence is the
// size-weighted average of the inputs' confidences and its label joins
// their non-empty labels. The updated collection is returned with the
// inputs removed and the merged cluster appended; it fails when fewer than
// two ids resolve.
func (e *Engine) Merge(clusters []photo.Cluster, ids []uuid.UUID) ([]photo.Cluster, error) {
	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var inputs, remaining []photo.Cluster
	for _, c := range clusters {
		if wanted[c.ID] {
			inputs = append(inputs, c)
		} else {
			remaining = append(remaining, c)
		}
	}
	if len(inputs) < 2 {
		return nil, fmt.Errorf("%w: resolved %d of %d ids", ErrTooFewClusters, len(inputs), len(ids))
	}

	var photos []photo.Photo
	var weightedConfidence float64
	var labels []string
	for _, c := range inputs {
		photos = append(photos, c.Photos...)
		weightedConfidence += c.Confidence * float64(c.Size())
		if c.Label != "" {
			labels = append(labels, c.Label)
		}
	}

	merged := photo.NewCluster(inputs[0].Type, photos)
	merged.Centroid = Centroid(photos)
	if len(photos) > 0 {
		merged.Confidence = weightedConfidence / float64(len(photos))
	}
	merged.Label = strings.Join(labels, " + ")

	e.logger.Debug("merged clusters",
		"inputs", len(inputs),
		"photos", len(photos))
	return append(remaining, merged), nil
}

// Split replaces the cluster named by id with k child clusters produced by
// k-means over the members' embeddings. Photos without an embedding are
// excluded from centroid computation and distributed randomly across the
// resulting groups. When fewer embedded photos exist than k, or when
// k-means leaves any group below MinClusterSize, the split falls back to a
// uniform random round-robin, so every child holds at least MinClusterSize
// photos. It fails when the cluster is unknown or holds fewer than
// k × MinClusterSize photos.
func (e *Engine) Split(clusters []photo.Cluster, id uuid.UUID, k int) ([]photo.Cluster, error) {
	idx := -1
	for i, c := range clusters {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCluster, id)
	}
	original := clusters[idx]

	if k < 2 || original.Size() < k*e.cfg.MinClusterSize {
		return nil, fmt.Errorf("%w: %d photos cannot form %d groups of at least %d",
			ErrClusterTooSmall, original.Size(), k, e.cfg.MinClusterSize)
	}

	var embedded, unembedded []photo.Photo
	for _, p := range original.Photos {
		if p.HasEmbedding() {
			embedded = append(embedded, p)
		} else {
			unembedded = append(unembedded, p)
		}
	}

	var groups [][]photo.Photo
	if len(embedded) < k {
		groups = roundRobinSplit(original.Photos, k)
	} else {
		groups = kMeansSplit(embedded, k)
		// Photos without embeddings join a random group after the fact.
		for _, p := range unembedded {
			g := rand.Intn(k)
			groups[g] = append(groups[g], p)
		}
		// Near-identical embeddings can collapse every photo onto one
		// centroid and leave other groups empty or undersized. The size
		// precondition guarantees an even deal satisfies the minimum, so
		// fall back to it.
		if minGroupSize(groups) < e.cfg.MinClusterSize {
			groups = roundRobinSplit(original.Photos, k)
		}
	}

	children := make([]photo.Cluster, 0, k)
	for i, members := range groups {
		child := e.finish(original.Type, members)
		if original.Label != "" {
			child.Label = fmt.Sprintf("%s – Part %d", original.Label, i+1)
		} else {
			child.Label = fmt.Sprintf("Part %d", i+1)
		}
		children = append(children, child)
	}

	// The original is replaced in full, never retained alongside its
	// children.
	result := make([]photo.Cluster, 0, len(clusters)-1+k)
	result = append(result, clusters[:idx]...)
	result = append(result, clusters[idx+1:]...)
	result = append(result, children...)

	e.logger.Debug("split cluster",
		"cluster_id", id,
		"photos", original.Size(),
		"children", k)
	return result, nil
}

// minGroupSize returns the size of the smallest group.
func minGroupSize(groups [][]photo.Photo) int {
	smallest := len(groups[0])
	for _, g := range groups[1:] {
		if len(g) < smallest {
			smallest = len(g)
		}
	}
	return smallest
}

// roundRobinSplit shuffles photos and deals them into k groups in turn.
func roundRobinSplit(photos []photo.Photo, k int) [][]photo.Photo {
	shuffled := make([]photo.Photo, len(photos))
	copy(shuffled, photos)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	groups := make([][]photo.Photo, k)
	for i, p := range shuffled {
		groups[i%k] = append(groups[i%k], p)
	}
	return groups
}

// kMeansSplit partitions embedded photos into k groups by cosine distance.
// Centroids start from k random distinct members; each round reassigns
// photos to the nearest centroid and recomputes means, stopping early when
// no assignment changed. A centroid left with no members keeps its
// previous value that round.
func kMeansSplit(photos []photo.Photo, k int) [][]photo.Photo {
	centroids := make([]photo.Embedding, k)
	for i, pick := range rand.Perm(len(photos))[:k] {
		centroids[i] = append(photo.Embedding(nil), photos[pick].Embedding...)
	}

	assignments := make([]int, len(photos))
	for i := range assignments {
		assignments[i] = -1
	}

	for round := 0; round < maxKMeansRounds; round++ {
		changed := false
		for i, p := range photos {
			best := 0
			bestDist := cosineDistance(p.Embedding, centroids[0])
			for c := 1; c < k; c++ {
				if d := cosineDistance(p.Embedding, centroids[c]); d < bestDist {
					best = c
					bestDist = d
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		for c := 0; c < k; c++ {
			var members []photo.Embedding
			for i, p := range photos {
				if assignments[i] == c {
					members = append(members, p.Embedding)
				}
			}
			if len(members) == 0 {
				continue
			}
			centroids[c] = meanEmbedding(members)
		}
	}

	groups := make([][]photo.Photo, k)
	for i, p := range photos {
		groups[assignments[i]] = append(groups[assignments[i]], p)
	}
	return groups
}
