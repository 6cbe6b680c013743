package state

import (
	"testing"
	"time"

	"github.com/aluiziolira/watchfinder-tracker/models"
)

const window = 30 * 24 * time.Hour

func TestPruneRemovesExpiredEntries(t *testing.T) {
	now, _ := time.Parse(time.RFC3339, "2025-07-01T00:00:00Z")

	s := State{
		"/watch/old": {
			URL:       "/watch/old",
			Title:     "Old",
			FirstSeen: now.Add(-31 * 24 * time.Hour).Format(time.RFC3339),
		},
		"/watch/recent": {
			URL:       "/watch/recent",
			Title:     "Recent",
			FirstSeen: now.Add(-5 * 24 * time.Hour).Format(time.RFC3339),
		},
	}

	pruned := Prune(s, now, window)

	if _, ok := pruned["/watch/old"]; ok {
		t.Fatalf("expired entry should be pruned")
	}
	if _, ok := pruned["/watch/recent"]; !ok {
		t.Fatalf("recent entry should be retained")
	}
}

func TestPruneRetainsUnparsableStamps(t *testing.T) {
	now, _ := time.Parse(time.RFC3339, "2025-07-01T00:00:00Z")

	s := State{
		"/watch/malformed": {URL: "/watch/malformed", Title: "M", FirstSeen: "yesterday-ish"},
		"/watch/empty":     {URL: "/watch/empty", Title: "E", FirstSeen: ""},
	}

	pruned := Prune(s, now, window)

	if len(pruned) != 2 {
		t.Fatalf("retained %d entries, want 2 (fail open on bad stamps)", len(pruned))
	}
}

func TestPruneExactCutoffIsRemoved(t *testing.T) {
	now, _ := time.Parse(time.RFC3339, "2025-07-01T00:00:00Z")

	s := State{
		"/watch/boundary": {
			URL:       "/watch/boundary",
			Title:     "Boundary",
			FirstSeen: now.Add(-window).Format(time.RFC3339),
		},
	}

	// Retention keeps strictly-newer-than-cutoff entries only.
	if pruned := Prune(s, now, window); len(pruned) != 0 {
		t.Fatalf("entry exactly at cutoff should be pruned")
	}
}

func TestPruneDeterministicForFixedNow(t *testing.T) {
	now, _ := time.Parse(time.RFC3339, "2025-07-01T00:00:00Z")

	s := State{
		"/watch/a": {URL: "/watch/a", Title: "A", FirstSeen: "2025-06-25T00:00:00Z"},
		"/watch/b": {URL: "/watch/b", Title: "B", FirstSeen: "2025-05-01T00:00:00Z"},
	}

	first := Prune(s, now, window)
	second := Prune(s, now, window)

	if len(first) != len(second) {
		t.Fatalf("prune is not deterministic: %d vs %d", len(first), len(second))
	}
	for url := range first {
		if _, ok := second[url]; !ok {
			t.Fatalf("prune is not deterministic for %q", url)
		}
	}
}

// Retention ignores whether the listing is still live on the site; an entry
// past the window is pruned even if it would be re-extracted next run. That
// re-notification behavior is accepted, not a bug.
func TestPruneIgnoresListingLiveness(t *testing.T) {
	now, _ := time.Parse(time.RFC3339, "2025-07-01T00:00:00Z")

	stillListed := models.Watch{
		URL:       "/watch/still-listed",
		Title:     "Still Listed",
		FirstSeen: now.Add(-40 * 24 * time.Hour).Format(time.RFC3339),
	}
	pruned := Prune(State{stillListed.URL: stillListed}, now, window)

	if len(pruned) != 0 {
		t.Fatalf("entry past window must be pruned regardless of liveness")
	}
}
