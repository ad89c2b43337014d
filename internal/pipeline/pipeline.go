// Package pipeline sequences the per-frame stages for every active
// session: motion-gated admission, preprocessing, the concurrent
// detection fan-out, behavior tracking and risk scoring. All per-session
// mutable state lives in a registry owned by the Orchestrator; sessions
// are processed strictly in order within themselves and fully in parallel
// across each other.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vigil-data/proctor/internal/behavior"
	"github.com/vigil-data/proctor/internal/config"
	"github.com/vigil-data/proctor/internal/detect"
	"github.com/vigil-data/proctor/internal/headpose"
	"github.com/vigil-data/proctor/internal/objectfilter"
	"github.com/vigil-data/proctor/internal/preprocess"
	"github.com/vigil-data/proctor/internal/risk"
	"github.com/vigil-data/proctor/internal/sampler"
	"github.com/vigil-data/proctor/internal/timeutil"
	"github.com/vigil-data/proctor/internal/vision"
)

var (
	// ErrUnknownSession is returned for a session id not in the registry.
	// Lookups fail closed: state is never auto-created for unknown ids.
	ErrUnknownSession = errors.New("pipeline: unknown session")

	// ErrSessionExists is returned when starting an id already in use.
	ErrSessionExists = errors.New("pipeline: session already exists")

	// ErrSessionEnded is returned when a frame's session was torn down
	// while the frame was in flight. No result is delivered.
	ErrSessionEnded = errors.New("pipeline: session ended")

	// ErrMalformedFrame is returned for frames rejected before entering
	// the pipeline.
	ErrMalformedFrame = errors.New("pipeline: malformed frame")
)

// session is one registry entry. Its mutex serialises frame processing;
// the cancel func tears down any in-flight detection fan-out.
type session struct {
	mu sync.Mutex

	id        string
	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc

	samplerState *sampler.State
	poseState    *headpose.State
	window       *behavior.Window
	lastResult   *Result
}

// Orchestrator owns the stage instances and the session registry.
type Orchestrator struct {
	sampler   *sampler.Sampler
	pre       *preprocess.Preprocessor
	estimator *headpose.Estimator
	filter    *objectfilter.Filter
	coord     *detect.Coordinator
	scorer    *risk.Scorer

	windowSize int
	clock      timeutil.Clock

	mu       sync.RWMutex
	sessions map[string]*session
}

// New builds an orchestrator from a tuning document and the two detector
// providers. A nil tuning selects defaults everywhere; a nil clock
// selects the real clock.
func New(tc *config.TuningConfig, lp detect.LandmarkProvider, op detect.ObjectProvider, clk timeutil.Clock) *Orchestrator {
	if tc == nil {
		tc = config.EmptyTuningConfig()
	}
	if clk == nil {
		clk = timeutil.RealClock{}
	}
	return &Orchestrator{
		sampler:    sampler.New(tc.SamplerConfig()),
		pre:        preprocess.New(tc.PreprocessConfig()),
		estimator:  headpose.NewEstimator(tc.HeadPoseConfig()),
		filter:     objectfilter.NewFilter(tc.ObjectFilterConfig()),
		coord:      detect.NewCoordinator(lp, op, tc.DetectionTimeout()),
		scorer:     risk.NewScorer(tc.RiskConfig()),
		windowSize: tc.GetWindowSize(),
		clock:      clk,
		sessions:   make(map[string]*session),
	}
}

// StartSession registers a new session and returns its id. An empty id
// gets a generated one; a duplicate id is rejected.
func (o *Orchestrator) StartSession(id string) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:           id,
		startedAt:    o.clock.Now(),
		ctx:          ctx,
		cancel:       cancel,
		samplerState: sampler.NewState(),
		poseState:    headpose.NewState(),
		window:       behavior.NewWindow(o.windowSize),
	}

	o.mu.Lock()
	if _, exists := o.sessions[id]; exists {
		o.mu.Unlock()
		cancel()
		return "", fmt.Errorf("%w: %s", ErrSessionExists, id)
	}
	o.sessions[id] = s
	o.mu.Unlock()

	diagf("session %s started", id)
	return id, nil
}

// EndSession cancels any in-flight processing for the session, removes it
// from the registry and returns its final summary.
func (o *Orchestrator) EndSession(id string) (*SessionSummary, error) {
	o.mu.Lock()
	s, ok := o.sessions[id]
	if !ok {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	delete(o.sessions, id)
	o.mu.Unlock()

	s.cancel()

	s.mu.Lock()
	summary := o.summarize(s)
	s.mu.Unlock()

	diagf("session %s ended after %.1fs, %d/%d frames processed",
		id, summary.DurationSeconds, summary.Sampler.ProcessedFrames, summary.Sampler.TotalFrames)
	return summary, nil
}

// Summary returns the current aggregate view of a live session.
func (o *Orchestrator) Summary(id string) (*SessionSummary, error) {
	o.mu.RLock()
	s, ok := o.sessions[id]
	o.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return o.summarize(s), nil
}

// ActiveSessions returns the ids currently in the registry.
func (o *Orchestrator) ActiveSessions() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	ids := make([]string, 0, len(o.sessions))
	for id := range o.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (o *Orchestrator) summarize(s *session) *SessionSummary {
	return &SessionSummary{
		SessionID:       s.id,
		StartedAtUnix:   s.startedAt.Unix(),
		DurationSeconds: o.clock.Since(s.startedAt).Seconds(),
		Sampler:         samplerStats(s.samplerState),
		Behavior:        s.window.Snapshot(),
		Scoring:         o.scorer.Config(),
	}
}

func samplerStats(st *sampler.State) SamplerStats {
	return SamplerStats{
		TotalFrames:     st.TotalFrames,
		ProcessedFrames: st.ProcessedFrames,
		SkippedFrames:   st.TotalFrames - st.ProcessedFrames,
		SkipRatio:       st.SkipRatio(),
	}
}

// Process runs one frame through the pipeline. Frames within a session
// are strictly serialised; the timestamp is the frame's capture time in
// monotonic seconds. Malformed frames are rejected before touching any
// per-session state. Skipped frames return the last cached assessment
// with the skip flag set and the motion telemetry refreshed.
func (o *Orchestrator) Process(ctx context.Context, sessionID string, frame *vision.Frame, timestamp float64) (*Result, error) {
	if frame == nil {
		opsf("session %s: nil frame rejected", sessionID)
		return nil, fmt.Errorf("%w: nil frame", ErrMalformedFrame)
	}
	if err := frame.Validate(); err != nil {
		opsf("session %s: frame rejected: %v", sessionID, err)
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	o.mu.RLock()
	s, ok := o.sessions[sessionID]
	o.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, sessionID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionEnded, sessionID)
	}

	start := o.clock.Now()
	decision := o.sampler.Decide(frame, s.samplerState, timestamp)

	if !decision.Admit {
		tracef("session %s: frame at %.3f skipped (%s, motion %.2f)",
			sessionID, timestamp, decision.Reason, decision.MotionScore)
		return o.skippedResult(s, decision, timestamp, start), nil
	}

	res, err := o.processAdmitted(ctx, s, frame, decision, timestamp, start)
	if err != nil {
		return nil, err
	}
	s.lastResult = res
	return res, nil
}

// skippedResult reuses the last cached assessment. The first frame of a
// session is always admitted, so a cached result normally exists; the
// fallback covers the degenerate case anyway.
func (o *Orchestrator) skippedResult(s *session, d sampler.Decision, timestamp float64, start time.Time) *Result {
	var res Result
	if s.lastResult != nil {
		res = *s.lastResult
	} else {
		res.SessionID = s.id
		res.Objects = objectfilter.Signal{ForbiddenItems: []objectfilter.ForbiddenItem{}, Accepted: []objectfilter.Detection{}}
	}
	res.Timestamp = timestamp
	res.Metadata = ProcessingMetadata{
		FrameSkipped:   true,
		SkipReason:     d.Reason,
		MotionScore:    d.MotionScore,
		MotionDetected: d.MotionDetected,
		Sampler:        samplerStats(s.samplerState),
		Timings: StageTimings{
			TotalMs: o.clock.Since(start).Seconds() * 1000,
		},
	}
	return &res
}

func (o *Orchestrator) processAdmitted(ctx context.Context, s *session, frame *vision.Frame, d sampler.Decision, timestamp float64, start time.Time) (*Result, error) {
	preStart := o.clock.Now()
	enhanced := o.pre.Apply(frame)
	roiFrame, roi := o.pre.ExtractROI(enhanced)
	preMs := o.clock.Since(preStart).Seconds() * 1000

	// Ending the session cancels the fan-out for the in-flight frame.
	fctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	detStart := o.clock.Now()
	detRes := o.coord.Run(fctx, roiFrame)
	detMs := o.clock.Since(detStart).Seconds() * 1000

	if s.ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionEnded, s.id)
	}
	if detRes.LandmarksDegraded {
		opsf("session %s: landmark path degraded: %v", s.id, detRes.LandmarksErr)
	}
	if detRes.ObjectsDegraded {
		opsf("session %s: object path degraded: %v", s.id, detRes.ObjectsErr)
	}

	scoreStart := o.clock.Now()
	pose := o.estimator.Estimate(detRes.Landmarks, roiFrame.Width, roiFrame.Height, s.poseState, d.ElapsedSeconds)
	signal := o.filter.Apply(detRes.Detections)
	rescaleSignal(&signal, roi)
	labels := signal.Labels()

	s.window.Push(behavior.Record{
		Timestamp:      timestamp,
		Deviating:      pose.Sustained,
		ForbiddenItems: labels,
		PersonCount:    signal.PersonCount,
	})
	snapshot := s.window.Snapshot()

	assessment := o.scorer.Score(risk.Input{
		GazeDeviating:     pose.Sustained,
		DeviationDuration: pose.Duration,
		ForbiddenItems:    labels,
		PersonCount:       signal.PersonCount,
		Behavior:          snapshot,
	})
	scoreMs := o.clock.Since(scoreStart).Seconds() * 1000

	tracef("session %s: frame at %.3f scored %d (%s)",
		s.id, timestamp, assessment.RiskScore, assessment.AlertLevel)

	return &Result{
		SessionID: s.id,
		Timestamp: timestamp,
		Pose:      pose,
		Objects:   signal,
		Behavior:  snapshot,
		Risk:      assessment,
		Metadata: ProcessingMetadata{
			MotionScore:       d.MotionScore,
			MotionDetected:    d.MotionDetected,
			LandmarksDegraded: detRes.LandmarksDegraded,
			ObjectsDegraded:   detRes.ObjectsDegraded,
			Sampler:           samplerStats(s.samplerState),
			Timings: StageTimings{
				PreprocessMs: preMs,
				DetectMs:     detMs,
				ScoreMs:      scoreMs,
				TotalMs:      o.clock.Since(start).Seconds() * 1000,
			},
		},
	}, nil
}

// rescaleSignal maps box coordinates from crop space back to full-frame
// space in place, for both the accepted detections and the forbidden
// item evidence carried alongside them.
func rescaleSignal(sig *objectfilter.Signal, roi preprocess.ROIInfo) {
	if !roi.Enabled {
		return
	}
	for i := range sig.Accepted {
		sig.Accepted[i].Box.Y1 = roi.RescaleY(sig.Accepted[i].Box.Y1)
		sig.Accepted[i].Box.Y2 = roi.RescaleY(sig.Accepted[i].Box.Y2)
	}
	for i := range sig.ForbiddenItems {
		sig.ForbiddenItems[i].Box.Y1 = roi.RescaleY(sig.ForbiddenItems[i].Box.Y1)
		sig.ForbiddenItems[i].Box.Y2 = roi.RescaleY(sig.ForbiddenItems[i].Box.Y2)
	}
}
