package notify

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/aluiziolira/watchfinder-tracker/models"
)

func testWatch() models.Watch {
	return models.Watch{
		URL:       "https://www.watchfinder.co.uk/watch/a",
		Title:     "Rolex Submariner",
		Price:     "£8,450",
		ImageURL:  "https://www.watchfinder.co.uk/img/a.jpg",
		FirstSeen: "2025-06-01T12:00:00Z",
	}
}

func newTestPublisher(topic string, transport *httpmock.MockTransport) *NtfyPublisher {
	return NewNtfyPublisher("https://ntfy.test", topic, 5*time.Second).
		WithClient(&http.Client{Transport: transport})
}

func TestNotifySendsExpectedRequest(t *testing.T) {
	transport := httpmock.NewMockTransport()

	var captured *http.Request
	var body string
	transport.RegisterResponder("POST", "https://ntfy.test/watches",
		func(req *http.Request) (*http.Response, error) {
			captured = req
			data, _ := io.ReadAll(req.Body)
			body = string(data)
			return httpmock.NewStringResponse(200, "{}"), nil
		})

	n := newTestPublisher("watches", transport)
	if err := n.Notify(testWatch()); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if captured == nil {
		t.Fatalf("no request was sent")
	}
	if body != "£8,450" {
		t.Fatalf("body = %q, want the price text", body)
	}

	headers := map[string]string{
		"Title":    "Rolex Submariner",
		"Tags":     "watch,new",
		"Priority": "default",
		"Click":    "https://www.watchfinder.co.uk/watch/a",
		"Attach":   "https://www.watchfinder.co.uk/img/a.jpg",
	}
	for name, expected := range headers {
		if got := captured.Header.Get(name); got != expected {
			t.Fatalf("header %s = %q, want %q", name, got, expected)
		}
	}
}

func TestNotifyOmitsAttachWithoutImage(t *testing.T) {
	transport := httpmock.NewMockTransport()

	var captured *http.Request
	transport.RegisterResponder("POST", "https://ntfy.test/watches",
		func(req *http.Request) (*http.Response, error) {
			captured = req
			return httpmock.NewStringResponse(200, "{}"), nil
		})

	watch := testWatch()
	watch.ImageURL = ""

	n := newTestPublisher("watches", transport)
	if err := n.Notify(watch); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if got := captured.Header.Get("Attach"); got != "" {
		t.Fatalf("Attach header = %q, want unset", got)
	}
}

func TestNotifyEmptyTopicIsNoOp(t *testing.T) {
	transport := httpmock.NewMockTransport()
	// No responders registered: any request would fail the test.

	n := newTestPublisher("", transport)
	if n.Enabled() {
		t.Fatalf("publisher with empty topic should be disabled")
	}
	if err := n.Notify(testWatch()); err != nil {
		t.Fatalf("disabled notify should be a no-op, got %v", err)
	}
	if count := transport.GetTotalCallCount(); count != 0 {
		t.Fatalf("requests sent = %d, want 0", count)
	}
}

func TestNotifyRejectedByServer(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "client error", status: 429},
		{name: "server error", status: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := httpmock.NewMockTransport()
			transport.RegisterResponder("POST", "https://ntfy.test/watches",
				httpmock.NewStringResponder(tt.status, "nope"))

			n := newTestPublisher("watches", transport)
			if err := n.Notify(testWatch()); err == nil {
				t.Fatalf("expected error for status %d", tt.status)
			}
		})
	}
}
