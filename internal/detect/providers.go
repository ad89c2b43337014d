package detect

import (
	"context"

	"github.com/vigil-data/proctor/internal/headpose"
	"github.com/vigil-data/proctor/internal/objectfilter"
	"github.com/vigil-data/proctor/internal/vision"
)

// NullLandmarkProvider reports no face on every frame. It stands in when
// no landmark model runtime is attached so the rest of the pipeline keeps
// running on motion and object evidence alone.
type NullLandmarkProvider struct{}

// Landmarks always reports no face.
func (NullLandmarkProvider) Landmarks(ctx context.Context, _ *vision.Frame) (*headpose.Landmarks, error) {
	return nil, nil
}

// NullObjectProvider reports no detections on every frame.
type NullObjectProvider struct{}

// Detect always returns an empty detection set.
func (NullObjectProvider) Detect(ctx context.Context, _ *vision.Frame) ([]objectfilter.Detection, error) {
	return nil, nil
}
