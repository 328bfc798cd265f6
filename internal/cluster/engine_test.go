package cluster

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/lumen-engine/internal/config"
	"github.com/phrazzld/lumen-engine/internal/photo"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEngine() *Engine {
	return NewEngine(config.ClusteringConfig{
		SimilarityThreshold:     0.8,
		TimeThresholdHours:      6,
		LocationThresholdMeters: 1000,
		MinClusterSize:          2,
		MaxClusterSize:          10,
	}, setupTestLogger())
}

func capturedPhoto(capturedAt time.Time, location *photo.GeoPoint) photo.Photo {
	return photo.Photo{ID: uuid.New(), CapturedAt: capturedAt, Location: location}
}

func TestByVisualSimilarityGroupsSimilarPhotos(t *testing.T) {
	engine := testEngine()

	// Two tight groups pointing in different directions.
	photos := []photo.Photo{
		embeddedPhoto(1, 0.1),
		embeddedPhoto(1, 0.05),
		embeddedPhoto(1, 0),
		embeddedPhoto(0, 1),
		embeddedPhoto(0.05, 1),
	}

	result := engine.ByVisualSimilarity(photos)

	require.Len(t, result.Clusters, 2)
	assert.Empty(t, result.Unclustered)
	assert.Equal(t, 5, result.Clusters[0].Size()+result.Clusters[1].Size())
	for _, c := range result.Clusters {
		assert.Equal(t, photo.ClusterTypeVisualSimilarity, c.Type)
		assert.GreaterOrEqual(t, c.Confidence, 0.0)
		assert.LessOrEqual(t, c.Confidence, 1.0)
		assert.NotEmpty(t, c.Centroid)
	}
}

func TestByVisualSimilarityDiscardsSmallGroups(t *testing.T) {
	engine := testEngine()

	// Three mutually dissimilar photos: every seed stays alone and falls
	// below the minimum cluster size.
	photos := []photo.Photo{
		embeddedPhoto(1, 0, 0),
		embeddedPhoto(0, 1, 0),
		embeddedPhoto(0, 0, 1),
	}

	result := engine.ByVisualSimilarity(photos)

	assert.Empty(t, result.Clusters)
	assert.Len(t, result.Unclustered, 3)
}

func TestByVisualSimilarityFewerThanTwoEmbedded(t *testing.T) {
	engine := testEngine()

	photos := []photo.Photo{
		embeddedPhoto(1, 0),
		{ID: uuid.New()},
		{ID: uuid.New()},
	}

	result := engine.ByVisualSimilarity(photos)
	assert.Empty(t, result.Clusters)
	assert.Len(t, result.Unclustered, 3)
}

func TestByVisualSimilarityEmptyInput(t *testing.T) {
	result := testEngine().ByVisualSimilarity(nil)
	assert.Empty(t, result.Clusters)
	assert.Empty(t, result.Unclustered)
}

func TestByVisualSimilarityRespectsMaxClusterSize(t *testing.T) {
	engine := NewEngine(config.ClusteringConfig{
		SimilarityThreshold:     0.8,
		TimeThresholdHours:      6,
		LocationThresholdMeters: 1000,
		MinClusterSize:          2,
		MaxClusterSize:          3,
	}, setupTestLogger())

	photos := make([]photo.Photo, 0, 5)
	for i := 0; i < 5; i++ {
		photos = append(photos, embeddedPhoto(1, float64(i)*0.01))
	}

	result := engine.ByVisualSimilarity(photos)
	for _, c := range result.Clusters {
		assert.LessOrEqual(t, c.Size(), 3)
	}
}

func TestByTimeLocationGroupsByTime(t *testing.T) {
	engine := testEngine()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	photos := []photo.Photo{
		capturedPhoto(base, nil),
		capturedPhoto(base.Add(time.Hour), nil),
		capturedPhoto(base.Add(2*time.Hour), nil),
		// A second event two days later.
		capturedPhoto(base.Add(48*time.Hour), nil),
		capturedPhoto(base.Add(49*time.Hour), nil),
	}

	result := engine.ByTimeLocation(photos)

	require.Len(t, result.Clusters, 2)
	assert.Equal(t, 3, result.Clusters[0].Size())
	assert.Equal(t, 2, result.Clusters[1].Size())
	for _, c := range result.Clusters {
		assert.Equal(t, photo.ClusterTypeEvent, c.Type)
	}
}

func TestByTimeLocationSplitsDistantLocations(t *testing.T) {
	engine := testEngine()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	here := &photo.GeoPoint{Latitude: 48.8566, Longitude: 2.3522}
	there := &photo.GeoPoint{Latitude: 51.5074, Longitude: -0.1278}

	photos := []photo.Photo{
		capturedPhoto(base, here),
		capturedPhoto(base.Add(10*time.Minute), here),
		capturedPhoto(base.Add(20*time.Minute), there),
		capturedPhoto(base.Add(30*time.Minute), there),
	}

	result := engine.ByTimeLocation(photos)

	require.Len(t, result.Clusters, 2)
	for _, c := range result.Clusters {
		assert.Equal(t, 2, c.Size())
	}
}

func TestByTimeLocationAdmitsPhotosWithoutLocation(t *testing.T) {
	engine := testEngine()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	located := &photo.GeoPoint{Latitude: 48.8566, Longitude: 2.3522}
	photos := []photo.Photo{
		capturedPhoto(base, located),
		capturedPhoto(base.Add(time.Hour), nil),
	}

	result := engine.ByTimeLocation(photos)

	require.Len(t, result.Clusters, 1)
	assert.Equal(t, 2, result.Clusters[0].Size())
}

func TestByTimeLocationEmptyInput(t *testing.T) {
	result := testEngine().ByTimeLocation(nil)
	assert.Empty(t, result.Clusters)
	assert.Empty(t, result.Unclustered)
}
