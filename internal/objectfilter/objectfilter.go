// Package objectfilter turns raw object detections into the signals the
// risk model consumes: a person count and the forbidden items in view.
// Raw detections arrive from an upstream detector as class names
// with confidences and normalized bounding boxes; this package applies
// class-aware confidence gating and the forbidden-class policy.
package objectfilter

import "strings"

// BBox is a normalized [0,1]² bounding box, x1/y1 top-left, x2/y2
// bottom-right.
type BBox struct {
	X1, Y1, X2, Y2 float64
}

// Detection is one raw detector output.
type Detection struct {
	ClassID    int     `json:"class_id"`
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
	Box        BBox    `json:"box"`
}

// ForbiddenItem is one forbidden detection with its evidence. Repeated
// detections of the same class each produce their own entry.
type ForbiddenItem struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        BBox    `json:"box"`
}

// Signal is the filtered per-frame object evidence.
type Signal struct {
	// PersonCount is the number of person detections that passed the
	// person confidence gate.
	PersonCount int `json:"person_count"`

	// ForbiddenItems holds one entry per forbidden detection that passed
	// the gate, in detection order. Two phones in view yield two entries.
	ForbiddenItems []ForbiddenItem `json:"forbidden_items"`

	// Accepted holds every detection that passed its confidence gate,
	// kept for diagnostics and evidence trails.
	Accepted []Detection `json:"accepted"`
}

// Labels returns the forbidden item labels in detection order.
func (s Signal) Labels() []string {
	labels := make([]string, len(s.ForbiddenItems))
	for i, item := range s.ForbiddenItems {
		labels[i] = item.Label
	}
	return labels
}

// HasForbidden reports whether any forbidden item was seen.
func (s Signal) HasForbidden() bool { return len(s.ForbiddenItems) > 0 }

// MultiplePersons reports whether more than one person passed the gate.
func (s Signal) MultiplePersons() bool { return s.PersonCount > 1 }

// Config holds the confidence gates and the forbidden-class policy.
type Config struct {
	// GeneralThreshold gates every class except person.
	GeneralThreshold float64

	// PersonThreshold gates person detections. It sits below the general
	// threshold so a second person is flagged eagerly.
	PersonThreshold float64

	// ForbiddenClasses maps detector class names, lowercased, to the
	// canonical item name reported upstream. Aliases from different
	// detector vocabularies collapse onto one canonical name.
	ForbiddenClasses map[string]string
}

// DefaultConfig returns the standard gating policy.
func DefaultConfig() Config {
	return Config{
		GeneralThreshold: 0.5,
		PersonThreshold:  0.4,
		ForbiddenClasses: map[string]string{
			"cell phone": "phone",
			"phone":      "phone",
			"book":       "book",
			"laptop":     "laptop",
		},
	}
}

// Filter applies the gating policy to one class of detector output.
type Filter struct {
	cfg Config
}

// NewFilter builds a filter with the given policy.
func NewFilter(cfg Config) *Filter {
	return &Filter{cfg: cfg}
}

// Apply gates the raw detections and produces the per-frame signal.
// Class name matching is case-insensitive.
func (f *Filter) Apply(raw []Detection) Signal {
	sig := Signal{ForbiddenItems: []ForbiddenItem{}, Accepted: []Detection{}}
	for _, d := range raw {
		name := strings.ToLower(strings.TrimSpace(d.ClassName))
		if name == "person" {
			if d.Confidence < f.cfg.PersonThreshold {
				continue
			}
			sig.PersonCount++
			sig.Accepted = append(sig.Accepted, d)
			continue
		}
		if d.Confidence < f.cfg.GeneralThreshold {
			continue
		}
		sig.Accepted = append(sig.Accepted, d)
		if canonical, ok := f.cfg.ForbiddenClasses[name]; ok {
			sig.ForbiddenItems = append(sig.ForbiddenItems, ForbiddenItem{
				Label:      canonical,
				Confidence: d.Confidence,
				Box:        d.Box,
			})
		}
	}
	return sig
}
