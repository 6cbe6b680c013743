package dashboard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aluiziolira/watchfinder-tracker/models"
	"github.com/aluiziolira/watchfinder-tracker/state"
)

const sourceURL = "https://www.watchfinder.co.uk/new-arrivals"

func testState(n int) state.State {
	s := make(state.State, n)
	for i := 0; i < n; i++ {
		url := fmt.Sprintf("https://www.watchfinder.co.uk/watch/%03d", i)
		s[url] = models.Watch{
			URL:       url,
			Title:     fmt.Sprintf("Watch %03d", i),
			Price:     "£1,000",
			FirstSeen: fmt.Sprintf("2025-06-01T12:00:%02dZ", i%60),
		}
	}
	return s
}

func TestRenderIncludesStatsAndEntries(t *testing.T) {
	s := state.State{
		"https://www.watchfinder.co.uk/watch/a": {
			URL:       "https://www.watchfinder.co.uk/watch/a",
			Title:     "Rolex Submariner",
			Price:     "£8,450",
			ImageURL:  "https://www.watchfinder.co.uk/img/a.jpg",
			FirstSeen: "2025-06-01T12:00:00Z",
		},
	}

	r := NewRenderer(filepath.Join(t.TempDir(), "index.html"), 50, sourceURL)
	doc, err := r.Render(s, "2025-07-01 12:00:00 UTC")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	page := string(doc)

	for _, expected := range []string{
		"2025-07-01 12:00:00 UTC",
		"Rolex Submariner",
		"£8,450",
		"June 01, 2025 at 12:00",
		`href="https://www.watchfinder.co.uk/watch/a"`,
		`src="https://www.watchfinder.co.uk/img/a.jpg"`,
	} {
		if !strings.Contains(page, expected) {
			t.Fatalf("rendered page missing %q", expected)
		}
	}
}

func TestRenderCapsEntries(t *testing.T) {
	r := NewRenderer(filepath.Join(t.TempDir(), "index.html"), 50, sourceURL)
	doc, err := r.Render(testState(60), "now")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	page := string(doc)

	if got := strings.Count(page, `class="watch-card"`); got != 50 {
		t.Fatalf("rendered %d cards, want capped at 50", got)
	}
	// Total reflects the full state, not the cap.
	if !strings.Contains(page, ">60<") {
		t.Fatalf("total tracked stat should be 60")
	}
}

func TestRenderSortsMostRecentFirst(t *testing.T) {
	s := state.State{
		"/watch/older": {URL: "/watch/older", Title: "Older", Price: "£1", FirstSeen: "2025-06-01T00:00:00Z"},
		"/watch/newer": {URL: "/watch/newer", Title: "Newer", Price: "£2", FirstSeen: "2025-06-20T00:00:00Z"},
	}

	r := NewRenderer(filepath.Join(t.TempDir(), "index.html"), 50, sourceURL)
	doc, err := r.Render(s, "now")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	page := string(doc)

	newer := strings.Index(page, "Newer")
	older := strings.Index(page, "Older")
	if newer == -1 || older == -1 {
		t.Fatalf("entries missing from page")
	}
	if newer > older {
		t.Fatalf("most recent entry should come first")
	}
}

func TestRenderPlaceholderWithoutImage(t *testing.T) {
	s := state.State{
		"/watch/a": {URL: "/watch/a", Title: "No Image", Price: "£1", FirstSeen: "2025-06-01T00:00:00Z"},
	}

	r := NewRenderer(filepath.Join(t.TempDir(), "index.html"), 50, sourceURL)
	doc, err := r.Render(s, "now")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(doc), "no-image") {
		t.Fatalf("expected placeholder card for missing image")
	}
}

func TestRenderMalformedDateFallsBackToRaw(t *testing.T) {
	s := state.State{
		"/watch/a": {URL: "/watch/a", Title: "Odd", Price: "£1", FirstSeen: "sometime in june"},
	}

	r := NewRenderer(filepath.Join(t.TempDir(), "index.html"), 50, sourceURL)
	doc, err := r.Render(s, "now")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(doc), "sometime in june") {
		t.Fatalf("malformed first_seen should render as-is")
	}
}

func TestRenderEscapesScrapedText(t *testing.T) {
	s := state.State{
		"/watch/a": {
			URL:       "/watch/a",
			Title:     `<script>alert("x")</script>`,
			Price:     "£1",
			FirstSeen: "2025-06-01T00:00:00Z",
		},
	}

	r := NewRenderer(filepath.Join(t.TempDir(), "index.html"), 50, sourceURL)
	doc, err := r.Render(s, "now")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(string(doc), `<script>alert`) {
		t.Fatalf("scraped title must be escaped")
	}
}

func TestWriteFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs", "index.html")
	r := NewRenderer(path, 50, sourceURL)

	if err := r.WriteFile(testState(3), "now"); err != nil {
		t.Fatalf("write file: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("dashboard not written: %v", err)
	}
	if !strings.Contains(string(data), "Watchfinder Tracker") {
		t.Fatalf("dashboard content unexpected")
	}
}
