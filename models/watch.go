// Package models defines data structures for the tracker.
package models

import "time"

// PriceUnavailable is the sentinel stored when no price could be extracted.
const PriceUnavailable = "Price not available"

// Watch represents a single tracked listing. URL is the identity: the
// canonical absolute listing URL, used as the state key and stored on the
// record as well.
type Watch struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Price     string `json:"price"`
	ImageURL  string `json:"image,omitempty"`
	FirstSeen string `json:"first_seen"`
}

// FirstSeenTime parses the FirstSeen stamp. The raw string is kept on the
// record so that entries with malformed stamps survive load/save round-trips;
// callers that need a time must handle the parse error (retention fails open
// on it).
func (w Watch) FirstSeenTime() (time.Time, error) {
	return time.Parse(time.RFC3339, w.FirstSeen)
}

// RunResult summarizes a single tracker run.
type RunResult struct {
	StartTime      time.Time
	EndTime        time.Time
	FirstRun       bool
	KnownAtStart   int
	Extracted      int
	NewItems       int
	Notified       int
	NotifyFailures int
	Pruned         int
	Tracked        int
}
