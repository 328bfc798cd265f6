package cluster

import (
	"log/slog"
	"sort"
	"time"

	"github.com/phrazzld/lumen-engine/internal/config"
	"github.com/phrazzld/lumen-engine/internal/photo"
)

// Result reports one clustering pass: the produced clusters and the photos
// that ended up in none of them.
type Result struct {
	Clusters    []photo.Cluster
	Unclustered []photo.Photo
}

// Engine runs clustering passes over photo sets. It holds only
// configuration; each call is independent and safe for concurrent use.
type Engine struct {
	cfg    config.ClusteringConfig
	logger *slog.Logger
}

// NewEngine creates an Engine with the given tuning.
func NewEngine(cfg config.ClusteringConfig, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "cluster_engine")),
	}
}

// ByVisualSimilarity groups photos whose embeddings point in similar
// directions, by greedy seed expansion: each unprocessed photo in turn
// seeds a cluster, pulling in the most similar unprocessed photos at or
// above the similarity threshold, up to the maximum cluster size. Groups
// below the minimum size are discarded and their photos reported
// unclustered, as are photos without embeddings.
func (e *Engine) ByVisualSimilarity(photos []photo.Photo) Result {
	var result Result

	embedded := make([]photo.Photo, 0, len(photos))
	for _, p := range photos {
		if p.HasEmbedding() {
			embedded = append(embedded, p)
		} else {
			result.Unclustered = append(result.Unclustered, p)
		}
	}
	if len(embedded) < 2 {
		result.Unclustered = append(result.Unclustered, embedded...)
		return result
	}

	processed := make([]bool, len(embedded))
	for seedIdx := range embedded {
		if processed[seedIdx] {
			continue
		}
		processed[seedIdx] = true
		seed := embedded[seedIdx]

		type match struct {
			idx int
			sim float64
		}
		var matches []match
		for j := range embedded {
			if processed[j] {
				continue
			}
			sim := CosineSimilarity(seed.Embedding, embedded[j].Embedding)
			if sim >= e.cfg.SimilarityThreshold {
				matches = append(matches, match{idx: j, sim: sim})
			}
		}
		sort.Slice(matches, func(a, b int) bool {
			return matches[a].sim > matches[b].sim
		})
		if limit := e.cfg.MaxClusterSize - 1; len(matches) > limit {
			matches = matches[:limit]
		}

		members := []photo.Photo{seed}
		for _, m := range matches {
			processed[m.idx] = true
			members = append(members, embedded[m.idx])
		}

		if len(members) < e.cfg.MinClusterSize {
			result.Unclustered = append(result.Unclustered, members...)
			continue
		}
		result.Clusters = append(result.Clusters, e.finish(photo.ClusterTypeVisualSimilarity, members))
	}

	e.logger.Debug("visual similarity pass finished",
		"photos", len(photos),
		"clusters", len(result.Clusters),
		"unclustered", len(result.Unclustered))
	return result
}

// ByTimeLocation groups photos captured close together in time and, when
// both photos carry coordinates, close together in space. Photos lacking a
// location are admitted on time proximity alone.
func (e *Engine) ByTimeLocation(photos []photo.Photo) Result {
	var result Result
	if len(photos) == 0 {
		return result
	}

	ordered := make([]photo.Photo, len(photos))
	copy(ordered, photos)
	sort.Slice(ordered, func(a, b int) bool {
		return ordered[a].CapturedAt.Before(ordered[b].CapturedAt)
	})

	timeThreshold := time.Duration(e.cfg.TimeThresholdHours * float64(time.Hour))

	processed := make([]bool, len(ordered))
	for seedIdx := range ordered {
		if processed[seedIdx] {
			continue
		}
		processed[seedIdx] = true
		seed := ordered[seedIdx]
		members := []photo.Photo{seed}

		for j := range ordered {
			if len(members) >= e.cfg.MaxClusterSize {
				break
			}
			if processed[j] {
				continue
			}
			candidate := ordered[j]

			gap := candidate.CapturedAt.Sub(seed.CapturedAt)
			if gap < 0 {
				gap = -gap
			}
			if gap > timeThreshold {
				continue
			}
			if seed.HasLocation() && candidate.HasLocation() {
				if HaversineDistance(*seed.Location, *candidate.Location) > e.cfg.LocationThresholdMeters {
					continue
				}
			}

			processed[j] = true
			members = append(members, candidate)
		}

		if len(members) < e.cfg.MinClusterSize {
			result.Unclustered = append(result.Unclustered, members...)
			continue
		}
		result.Clusters = append(result.Clusters, e.finish(photo.ClusterTypeEvent, members))
	}

	e.logger.Debug("time/location pass finished",
		"photos", len(photos),
		"clusters", len(result.Clusters),
		"unclustered", len(result.Unclustered))
	return result
}

// finish builds a cluster value with computed centroid and confidence.
func (e *Engine) finish(clusterType photo.ClusterType, members []photo.Photo) photo.Cluster {
	c := photo.NewCluster(clusterType, members)
	c.Centroid = Centroid(members)
	c.Confidence = Confidence(members)
	return c
}
