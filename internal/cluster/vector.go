package cluster

import (
	"math"

	"github.com/phrazzld/lumen-engine/internal/photo"
)

// CosineSimilarity returns the cosine of the angle between a and b,
// clamped to [-1,1]. It is 0 when either vector has zero norm, so callers
// never see NaN. Vectors of different lengths compare over the shorter
// prefix.
func CosineSimilarity(a, b photo.Embedding) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
	}
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim > 1 {
		return 1
	}
	if sim < -1 {
		return -1
	}
	return sim
}

// cosineDistance is 1 − cosine similarity, the metric k-means assigns by.
func cosineDistance(a, b photo.Embedding) float64 {
	return 1 - CosineSimilarity(a, b)
}

// Centroid returns the element-wise mean of the embeddings carried by the
// given photos. Photos without an embedding are ignored; the result is nil
// when none carry one.
func Centroid(photos []photo.Photo) photo.Embedding {
	var dim int
	for _, p := range photos {
		if p.HasEmbedding() && len(p.Embedding) > dim {
			dim = len(p.Embedding)
		}
	}
	if dim == 0 {
		return nil
	}

	centroid := make(photo.Embedding, dim)
	count := 0
	for _, p := range photos {
		if !p.HasEmbedding() {
			continue
		}
		for i, v := range p.Embedding {
			centroid[i] += v
		}
		count++
	}
	for i := range centroid {
		centroid[i] /= float64(count)
	}
	return centroid
}

// meanEmbedding averages raw embeddings; nil when the slice is empty.
func meanEmbedding(embeddings []photo.Embedding) photo.Embedding {
	if len(embeddings) == 0 {
		return nil
	}
	var dim int
	for _, e := range embeddings {
		if len(e) > dim {
			dim = len(e)
		}
	}
	mean := make(photo.Embedding, dim)
	for _, e := range embeddings {
		for i, v := range e {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= float64(len(embeddings))
	}
	return mean
}

// Confidence returns the mean pairwise cosine similarity across member
// embeddings, clamped to [0,1]. When fewer than two members carry an
// embedding there is nothing to compare, so it defaults to 0.5.
func Confidence(photos []photo.Photo) float64 {
	embedded := make([]photo.Embedding, 0, len(photos))
	for _, p := range photos {
		if p.HasEmbedding() {
			embedded = append(embedded, p.Embedding)
		}
	}
	if len(embedded) < 2 {
		return 0.5
	}

	var total float64
	pairs := 0
	for i := 0; i < len(embedded); i++ {
		for j := i + 1; j < len(embedded); j++ {
			total += CosineSimilarity(embedded[i], embedded[j])
			pairs++
		}
	}
	mean := total / float64(pairs)
	if mean < 0 {
		return 0
	}
	if mean > 1 {
		return 1
	}
	return mean
}
