package scheduler

import (
	"context"

	"github.com/phrazzld/lumen-engine/internal/analysis"
	"github.com/phrazzld/lumen-engine/internal/photo"
	"github.com/phrazzld/lumen-engine/internal/task"
)

// handlerFunc executes one task body and returns its result payload.
type handlerFunc func(ctx context.Context, t task.Task) (any, error)

// registerHandlers binds each task type to its operation. New task types
// plug in here.
func (s *Scheduler) registerHandlers() {
	s.handlers = map[task.Type]handlerFunc{
		task.TypePhotoAnalysis: s.runPhotoAnalysis,
		task.TypeFaceDetection: s.runFaceDetection,
		task.TypeClustering:    s.runClustering,
		task.TypeCuration:      s.runCuration,
	}
}

func (s *Scheduler) runPhotoAnalysis(ctx context.Context, t task.Task) (any, error) {
	return s.runPerPhoto(ctx, t, "analyzing", s.backend.AnalyzePhotos)
}

func (s *Scheduler) runFaceDetection(ctx context.Context, t task.Task) (any, error) {
	return s.runPerPhoto(ctx, t, "detecting faces", s.backend.DetectFaces)
}

func (s *Scheduler) runCuration(ctx context.Context, t task.Task) (any, error) {
	return s.runPerPhoto(ctx, t, "ranking", s.backend.RankPhotos)
}

// runPerPhoto feeds photos to the backend one at a time so partial
// progress is visible even mid-batch.
func (s *Scheduler) runPerPhoto(
	ctx context.Context,
	t task.Task,
	stage string,
	op func(context.Context, []photo.Photo) ([]analysis.Result, error),
) (any, error) {
	results := make([]analysis.Result, 0, len(t.Photos))
	for i, p := range t.Photos {
		batch, err := op(ctx, []photo.Photo{p})
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)

		progress := float64(i+1) / float64(len(t.Photos)) * 100
		s.queue.UpdateProgress(t.ID, progress, stage)
	}
	return results, nil
}

// ClusteringOutcome is the result payload of a clustering task: a visual
// similarity pass over the batch, then an event pass over whatever the
// first pass left unclustered.
type ClusteringOutcome struct {
	Clusters    []photo.Cluster `json:"clusters"`
	Unclustered []photo.Photo   `json:"unclustered,omitempty"`
}

func (s *Scheduler) runClustering(ctx context.Context, t task.Task) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	visual := s.engine.ByVisualSimilarity(t.Photos)
	s.queue.UpdateProgress(t.ID, 50, "visual similarity")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	byEvent := s.engine.ByTimeLocation(visual.Unclustered)
	s.queue.UpdateProgress(t.ID, 100, "events")

	outcome := ClusteringOutcome{
		Clusters:    append(visual.Clusters, byEvent.Clusters...),
		Unclustered: byEvent.Unclustered,
	}
	return outcome, nil
}
