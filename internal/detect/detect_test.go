package detect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigil-data/proctor/internal/headpose"
	"github.com/vigil-data/proctor/internal/objectfilter"
	"github.com/vigil-data/proctor/internal/testutil"
	"github.com/vigil-data/proctor/internal/vision"
)

type fakeLandmarks struct {
	lm    *headpose.Landmarks
	err   error
	delay time.Duration
}

func (f *fakeLandmarks) Landmarks(ctx context.Context, _ *vision.Frame) (*headpose.Landmarks, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.lm, f.err
}

type fakeObjects struct {
	dets  []objectfilter.Detection
	err   error
	delay time.Duration
}

func (f *fakeObjects) Detect(ctx context.Context, _ *vision.Frame) ([]objectfilter.Detection, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.dets, f.err
}

func testFrame(t *testing.T) *vision.Frame {
	t.Helper()
	f, err := vision.NewFrame(4, 4, testutil.SolidFrame(4, 4, 128))
	require.NoError(t, err)
	return f
}

func TestRunBothBranchesSucceed(t *testing.T) {
	lm := &headpose.Landmarks{NoseTip: headpose.Point2{X: 0.5, Y: 0.5}}
	dets := []objectfilter.Detection{{ClassName: "person", Confidence: 0.9}}

	c := NewCoordinator(&fakeLandmarks{lm: lm}, &fakeObjects{dets: dets}, 0)
	res := c.Run(context.Background(), testFrame(t))

	assert.False(t, res.Degraded())
	assert.Equal(t, lm, res.Landmarks)
	assert.Equal(t, dets, res.Detections)
}

func TestRunLandmarkFailureKeepsObjects(t *testing.T) {
	boom := errors.New("model crashed")
	dets := []objectfilter.Detection{{ClassName: "cell phone", Confidence: 0.8}}

	c := NewCoordinator(&fakeLandmarks{err: boom}, &fakeObjects{dets: dets}, 0)
	res := c.Run(context.Background(), testFrame(t))

	assert.True(t, res.LandmarksDegraded)
	assert.ErrorIs(t, res.LandmarksErr, boom)
	assert.Nil(t, res.Landmarks)

	assert.False(t, res.ObjectsDegraded)
	assert.Equal(t, dets, res.Detections)
}

func TestRunObjectFailureKeepsLandmarks(t *testing.T) {
	lm := &headpose.Landmarks{}
	c := NewCoordinator(&fakeLandmarks{lm: lm}, &fakeObjects{err: errors.New("detector offline")}, 0)
	res := c.Run(context.Background(), testFrame(t))

	assert.True(t, res.ObjectsDegraded)
	assert.False(t, res.LandmarksDegraded)
	assert.Equal(t, lm, res.Landmarks)
	assert.Empty(t, res.Detections)
}

func TestRunSlowBranchDegradesOnDeadline(t *testing.T) {
	lm := &headpose.Landmarks{}
	c := NewCoordinator(
		&fakeLandmarks{lm: lm},
		&fakeObjects{dets: []objectfilter.Detection{{ClassName: "book"}}, delay: time.Second},
		20*time.Millisecond,
	)
	res := c.Run(context.Background(), testFrame(t))

	assert.True(t, res.ObjectsDegraded)
	assert.ErrorIs(t, res.ObjectsErr, context.DeadlineExceeded)
	assert.False(t, res.LandmarksDegraded)
	assert.Equal(t, lm, res.Landmarks)
}

func TestRunNoFaceIsNotDegraded(t *testing.T) {
	c := NewCoordinator(&fakeLandmarks{lm: nil}, &fakeObjects{}, 0)
	res := c.Run(context.Background(), testFrame(t))

	assert.False(t, res.Degraded())
	assert.Nil(t, res.Landmarks)
}

func TestRunCancelledContextDegradesBoth(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCoordinator(
		&fakeLandmarks{lm: &headpose.Landmarks{}, delay: time.Second},
		&fakeObjects{delay: time.Second},
		DefaultTimeout,
	)
	res := c.Run(ctx, testFrame(t))

	assert.True(t, res.LandmarksDegraded)
	assert.True(t, res.ObjectsDegraded)
}
