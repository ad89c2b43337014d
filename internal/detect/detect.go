// Package detect coordinates the two detection paths that run on every
// processed frame: facial landmark extraction and object detection. Each
// path is a pluggable provider behind a small interface; the coordinator
// fans both out concurrently under a shared deadline and always returns a
// usable result, degrading a failed branch to a safe default instead of
// discarding the frame.
package detect

import (
	"context"
	"time"

	"github.com/vigil-data/proctor/internal/headpose"
	"github.com/vigil-data/proctor/internal/objectfilter"
	"github.com/vigil-data/proctor/internal/vision"
)

// LandmarkProvider extracts facial landmarks from a frame. A nil result
// with a nil error means no face was detected; landmark coordinates are
// normalized to [0,1]² frame space.
type LandmarkProvider interface {
	Landmarks(ctx context.Context, frame *vision.Frame) (*headpose.Landmarks, error)
}

// ObjectProvider runs object detection on a frame and returns raw,
// ungated detections.
type ObjectProvider interface {
	Detect(ctx context.Context, frame *vision.Frame) ([]objectfilter.Detection, error)
}

// DefaultTimeout bounds the shared fan-out deadline. Both branches run
// under one context so a slow model cannot stall the frame loop.
const DefaultTimeout = 150 * time.Millisecond

// Result carries both branch outputs plus degradation markers. A degraded
// branch holds its zero-value default: no face, no detections.
type Result struct {
	Landmarks  *headpose.Landmarks
	Detections []objectfilter.Detection

	// LandmarksDegraded and ObjectsDegraded flag branches that failed or
	// timed out and were replaced by defaults.
	LandmarksDegraded bool
	ObjectsDegraded   bool

	// LandmarksErr and ObjectsErr record why a branch degraded.
	LandmarksErr error
	ObjectsErr   error
}

// Degraded reports whether either branch fell back to its default.
func (r Result) Degraded() bool {
	return r.LandmarksDegraded || r.ObjectsDegraded
}

// Coordinator fans a frame out to both providers.
type Coordinator struct {
	landmarks LandmarkProvider
	objects   ObjectProvider
	timeout   time.Duration
}

// NewCoordinator builds a coordinator. A timeout of zero selects
// DefaultTimeout.
func NewCoordinator(lp LandmarkProvider, op ObjectProvider, timeout time.Duration) *Coordinator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Coordinator{landmarks: lp, objects: op, timeout: timeout}
}

type landmarkOut struct {
	lm  *headpose.Landmarks
	err error
}

type objectOut struct {
	dets []objectfilter.Detection
	err  error
}

// Run executes both providers concurrently under one deadline derived
// from ctx. A branch failure or timeout degrades only that branch; the
// other branch's output is always kept. Run itself never returns an
// error: partial evidence still feeds the risk model.
func (c *Coordinator) Run(ctx context.Context, frame *vision.Frame) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	lmCh := make(chan landmarkOut, 1)
	objCh := make(chan objectOut, 1)

	go func() {
		lm, err := c.landmarks.Landmarks(ctx, frame)
		lmCh <- landmarkOut{lm: lm, err: err}
	}()
	go func() {
		dets, err := c.objects.Detect(ctx, frame)
		objCh <- objectOut{dets: dets, err: err}
	}()

	var res Result
	for i := 0; i < 2; i++ {
		select {
		case out := <-lmCh:
			lmCh = nil
			if out.err != nil {
				res.LandmarksDegraded = true
				res.LandmarksErr = out.err
			} else {
				res.Landmarks = out.lm
			}
		case out := <-objCh:
			objCh = nil
			if out.err != nil {
				res.ObjectsDegraded = true
				res.ObjectsErr = out.err
			} else {
				res.Detections = out.dets
			}
		case <-ctx.Done():
			// Deadline hit: degrade whichever branches are still pending.
			if lmCh != nil {
				res.LandmarksDegraded = true
				res.LandmarksErr = ctx.Err()
			}
			if objCh != nil {
				res.ObjectsDegraded = true
				res.ObjectsErr = ctx.Err()
			}
			return res
		}
	}
	return res
}
