// Package risk converts the per-frame evidence into an integer risk
// score, an alert level and a deterministic set of recommended actions.
// Scoring is a fixed-order accumulation so the violation list and the
// contribution breakdown are reproducible for identical inputs.
package risk

import (
	"fmt"

	"github.com/vigil-data/proctor/internal/behavior"
)

// Alert levels, from quiet to loudest.
const (
	AlertNone     = "none"
	AlertLow      = "low"
	AlertMedium   = "medium"
	AlertHigh     = "high"
	AlertCritical = "critical"
)

// Config holds the scoring weights, alert thresholds and escalation
// durations.
type Config struct {
	// GazeWeight is added once when a sustained gaze deviation is active.
	GazeWeight int `json:"gaze_weight"`

	// ItemWeight is added per forbidden item in view.
	ItemWeight int `json:"item_weight"`

	// PersonsWeight is added once when more than one person is visible.
	PersonsWeight int `json:"persons_weight"`

	// PatternWeight is added per repeated deviation and per repeated
	// object run from the behavior window. These contributions carry no
	// violation line of their own.
	PatternWeight int `json:"pattern_weight"`

	// LowMax, MediumMax and HighMax are the inclusive upper bounds of the
	// low, medium and high alert buckets. Zero score is always "none";
	// anything above HighMax is "critical".
	LowMax    int `json:"alert_low_max"`
	MediumMax int `json:"alert_medium_max"`
	HighMax   int `json:"alert_high_max"`

	// ScoreCap bounds the final score when positive. Zero leaves the
	// score unbounded.
	ScoreCap int `json:"score_cap"`

	// ExtendedDeviation and CriticalDeviation are the accumulated gaze
	// deviation durations, in seconds, at which escalating
	// recommendations are added. They never change the score.
	ExtendedDeviation float64 `json:"extended_deviation_seconds"`
	CriticalDeviation float64 `json:"critical_deviation_seconds"`
}

// DefaultConfig returns the standard scoring tuning.
func DefaultConfig() Config {
	return Config{
		GazeWeight:        20,
		ItemWeight:        30,
		PersonsWeight:     40,
		PatternWeight:     10,
		LowMax:            30,
		MediumMax:         70,
		HighMax:           100,
		ExtendedDeviation: 10.0,
		CriticalDeviation: 20.0,
	}
}

// Input is the evidence a single frame presents for scoring.
type Input struct {
	// GazeDeviating marks an active sustained gaze deviation.
	GazeDeviating bool

	// DeviationDuration is the accumulated deviation time in seconds.
	DeviationDuration float64

	// ForbiddenItems holds one canonical label per forbidden detection.
	// Repeated detections of the same class each score separately.
	ForbiddenItems []string

	// PersonCount is the gated person count.
	PersonCount int

	// Behavior is the current window snapshot.
	Behavior behavior.Snapshot
}

// Details is the per-category contribution breakdown.
type Details struct {
	GazeContribution    int  `json:"gaze_contribution"`
	ObjectContribution  int  `json:"object_contribution"`
	PersonContribution  int  `json:"person_contribution"`
	PatternContribution int  `json:"pattern_contribution"`
	PersonCount         int  `json:"person_count"`
	ForbiddenItemsCount int  `json:"forbidden_items_count"`
	RepeatedDeviations  int  `json:"repeated_deviations"`
	RepeatedObjects     int  `json:"repeated_objects"`
	Capped              bool `json:"capped"`
}

// Assessment is the scored outcome for one frame.
type Assessment struct {
	// RiskScore is a non-negative integer, unbounded unless capped.
	RiskScore int `json:"risk_score"`

	// Violations lists human-readable findings in detection order: gaze,
	// then objects, then persons.
	Violations []string `json:"violations"`

	// AlertLevel buckets the score for display and routing.
	AlertLevel string `json:"alert_level"`

	// Recommendations is the deterministic action list derived from the
	// fired violation categories and the escalation durations.
	Recommendations []string `json:"recommendations"`

	// Details breaks the score down per category.
	Details Details `json:"details"`
}

// Scorer applies one scoring configuration.
type Scorer struct {
	cfg Config
}

// NewScorer builds a scorer with the given tuning.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Config returns a copy of the active tuning.
func (s *Scorer) Config() Config { return s.cfg }

// Score evaluates one frame's evidence. The accumulation order is fixed:
// gaze, forbidden items, extra persons, then the silent pattern terms.
func (s *Scorer) Score(in Input) Assessment {
	score := 0
	violations := []string{}
	det := Details{
		PersonCount:         in.PersonCount,
		ForbiddenItemsCount: len(in.ForbiddenItems),
		RepeatedDeviations:  in.Behavior.RepeatedDeviations,
		RepeatedObjects:     in.Behavior.RepeatedObjects,
	}

	if in.GazeDeviating {
		score += s.cfg.GazeWeight
		det.GazeContribution = s.cfg.GazeWeight
		violations = append(violations, "Gaze deviation detected")
	}

	for _, item := range in.ForbiddenItems {
		score += s.cfg.ItemWeight
		det.ObjectContribution += s.cfg.ItemWeight
		violations = append(violations, fmt.Sprintf("Forbidden item: %s", item))
	}

	if in.PersonCount > 1 {
		score += s.cfg.PersonsWeight
		det.PersonContribution = s.cfg.PersonsWeight
		violations = append(violations, fmt.Sprintf("Multiple persons: %d", in.PersonCount))
	}

	det.PatternContribution = s.cfg.PatternWeight * (in.Behavior.RepeatedDeviations + in.Behavior.RepeatedObjects)
	score += det.PatternContribution

	if s.cfg.ScoreCap > 0 && score > s.cfg.ScoreCap {
		score = s.cfg.ScoreCap
		det.Capped = true
	}

	return Assessment{
		RiskScore:       score,
		Violations:      violations,
		AlertLevel:      s.alertLevel(score),
		Recommendations: s.recommend(in, score),
		Details:         det,
	}
}

func (s *Scorer) alertLevel(score int) string {
	switch {
	case score <= 0:
		return AlertNone
	case score <= s.cfg.LowMax:
		return AlertLow
	case score <= s.cfg.MediumMax:
		return AlertMedium
	case score <= s.cfg.HighMax:
		return AlertHigh
	default:
		return AlertCritical
	}
}

// recommend derives the action list from the fired categories. The order
// is fixed: escalation first, then per-category actions, then pattern
// followups, so identical inputs always produce identical lists.
func (s *Scorer) recommend(in Input, score int) []string {
	recs := []string{}

	if in.GazeDeviating {
		switch {
		case in.DeviationDuration >= s.cfg.CriticalDeviation:
			recs = append(recs, "Immediate intervention required")
		case in.DeviationDuration >= s.cfg.ExtendedDeviation:
			recs = append(recs, "Increase monitoring intensity")
		default:
			recs = append(recs, "Monitor candidate attention")
		}
	}

	if len(in.ForbiddenItems) > 0 {
		recs = append(recs, "Flag session for manual review")
		recs = append(recs, "Request removal of prohibited items")
	}

	if in.PersonCount > 1 {
		recs = append(recs, "Verify candidate identity")
		recs = append(recs, "Request room scan")
	}

	if in.Behavior.RepeatedDeviations >= 3 {
		recs = append(recs, "Investigate frequent attention shifts")
	}
	if in.Behavior.RepeatedObjects >= 2 {
		recs = append(recs, "Persistent object violation - escalate")
	}

	if len(recs) == 0 && score == 0 {
		recs = append(recs, "Continue normal monitoring")
	}
	return recs
}
