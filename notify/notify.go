// Package notify publishes new-listing alerts to an ntfy topic.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aluiziolira/watchfinder-tracker/models"
)

// NtfyPublisher pushes one message per new listing to {server}/{topic}. The
// listing price is the message body; title, click-through URL and image
// attachment travel in headers, ntfy's publish convention.
type NtfyPublisher struct {
	server string
	topic  string
	client *http.Client

	warnedOnce bool
}

// NewNtfyPublisher builds a publisher. An empty topic disables publishing:
// every Notify becomes a logged no-op, never an error.
func NewNtfyPublisher(server, topic string, timeout time.Duration) *NtfyPublisher {
	return &NtfyPublisher{
		server: strings.TrimSuffix(server, "/"),
		topic:  topic,
		client: &http.Client{Timeout: timeout},
	}
}

// WithClient swaps the HTTP client, for tests.
func (n *NtfyPublisher) WithClient(client *http.Client) *NtfyPublisher {
	n.client = client
	return n
}

// Enabled reports whether a topic is configured.
func (n *NtfyPublisher) Enabled() bool {
	return n.topic != ""
}

// Notify publishes one listing. Failures are returned to the caller, who
// logs and moves on; a failed push never aborts the run.
func (n *NtfyPublisher) Notify(watch models.Watch) error {
	if !n.Enabled() {
		if !n.warnedOnce {
			slog.Warn("NTFY_TOPIC not set, notifications disabled")
			n.warnedOnce = true
		}
		return nil
	}

	endpoint := n.server + "/" + n.topic
	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(watch.Price))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}

	req.Header.Set("Title", watch.Title)
	req.Header.Set("Tags", "watch,new")
	req.Header.Set("Priority", "default")
	req.Header.Set("Click", watch.URL)
	if watch.ImageURL != "" {
		req.Header.Set("Attach", watch.ImageURL)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("notification rejected: http status %d", resp.StatusCode)
	}

	slog.Info("notification sent", slog.String("title", watch.Title))
	return nil
}
