// Package cluster groups photos into clusters for downstream curation.
//
// The engine is stateless across calls except for its configuration. It
// offers visual-similarity grouping (greedy seed expansion over cosine
// similarity), event grouping (capture-time proximity refined by haversine
// distance when both photos carry a location), and cluster reorganization
// via merge and k-means split.
package cluster
