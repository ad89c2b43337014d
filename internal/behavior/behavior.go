// Package behavior maintains the per-session sliding window of recent
// frame observations and derives temporal patterns from it: how often the
// gaze deviated, how object sightings cluster into runs, and how many
// people were typically in view. The window is a fixed-capacity FIFO so
// the patterns always describe the most recent stretch of the session.
package behavior

// DefaultWindowSize is the number of recent observations a window keeps.
const DefaultWindowSize = 30

// Record is one processed frame's contribution to the window.
type Record struct {
	// Timestamp is the frame's capture time in seconds.
	Timestamp float64 `json:"timestamp"`

	// Deviating marks a sustained gaze deviation on this frame.
	Deviating bool `json:"deviating"`

	// ForbiddenItems are the canonical forbidden item names seen.
	ForbiddenItems []string `json:"forbidden_items"`

	// PersonCount is the gated person count for the frame.
	PersonCount int `json:"person_count"`
}

// Snapshot summarises the current window contents.
type Snapshot struct {
	// FrameCount is how many observations the window currently holds.
	FrameCount int `json:"frame_count"`

	// RepeatedDeviations counts the window frames with a sustained
	// deviation.
	RepeatedDeviations int `json:"repeated_deviations"`

	// RepeatedObjects counts the maximal consecutive runs of frames with
	// at least one forbidden item. Three phone sightings in a row count
	// once; a sighting, a clear frame, then another sighting counts
	// twice.
	RepeatedObjects int `json:"repeated_objects"`

	// AvgPersonCount is the mean person count across the window.
	AvgPersonCount float64 `json:"avg_person_count"`

	// PatternScore is a bounded 0-100 composite for display. It never
	// feeds the risk score.
	PatternScore float64 `json:"pattern_score"`
}

// Window is a fixed-capacity FIFO of frame records. Not safe for
// concurrent use; the orchestrator serialises access per session.
type Window struct {
	records []Record
	head    int
	size    int
}

// NewWindow builds a window. Sizes below one fall back to the default.
func NewWindow(size int) *Window {
	if size < 1 {
		size = DefaultWindowSize
	}
	return &Window{records: make([]Record, size)}
}

// Capacity returns the fixed window capacity.
func (w *Window) Capacity() int { return len(w.records) }

// Len returns the number of records currently held.
func (w *Window) Len() int { return w.size }

// Push appends a record, evicting the oldest when the window is full.
func (w *Window) Push(r Record) {
	if w.size < len(w.records) {
		w.records[(w.head+w.size)%len(w.records)] = r
		w.size++
		return
	}
	w.records[w.head] = r
	w.head = (w.head + 1) % len(w.records)
}

// Reset drops every record.
func (w *Window) Reset() {
	w.head = 0
	w.size = 0
}

// at returns the i-th record in insertion order, oldest first.
func (w *Window) at(i int) Record {
	return w.records[(w.head+i)%len(w.records)]
}

// Snapshot derives the temporal patterns from the current contents.
func (w *Window) Snapshot() Snapshot {
	if w.size == 0 {
		return Snapshot{}
	}

	var snap Snapshot
	snap.FrameCount = w.size

	persons := 0
	withItems := 0
	inRun := false
	for i := 0; i < w.size; i++ {
		r := w.at(i)
		if r.Deviating {
			snap.RepeatedDeviations++
		}
		persons += r.PersonCount
		if len(r.ForbiddenItems) > 0 {
			withItems++
			if !inRun {
				snap.RepeatedObjects++
				inRun = true
			}
		} else {
			inRun = false
		}
	}

	n := float64(w.size)
	snap.AvgPersonCount = float64(persons) / n

	// Composite of three bounded components: deviation frequency, object
	// presence and extra-person presence, weighted 30/40/30.
	devRatio := float64(snap.RepeatedDeviations) / n
	objRatio := float64(withItems) / n
	personFactor := snap.AvgPersonCount - 1
	if personFactor < 0 {
		personFactor = 0
	} else if personFactor > 1 {
		personFactor = 1
	}
	snap.PatternScore = 30*devRatio + 40*objRatio + 30*personFactor

	return snap
}
