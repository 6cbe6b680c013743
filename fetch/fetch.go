// Package fetch retrieves the arrivals page over HTTPS.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/watchfinder-tracker/config"
)

// browserHeaders are sent alongside the configured user agent so the request
// looks like an ordinary browser navigation. Accept-Encoding is left to the
// transport so responses are decompressed transparently.
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
}

// Fetcher issues the single page request for a run. One fetch per run; a
// failure is terminal and the next scheduled invocation is the retry.
type Fetcher struct {
	cfg       *config.Config
	collector *colly.Collector

	body   []byte
	status int
}

// NewFetcher builds a fetcher restricted to the arrivals URL's host.
func NewFetcher(cfg *config.Config) (*Fetcher, error) {
	parsed, err := url.Parse(cfg.ArrivalsURL)
	if err != nil {
		return nil, fmt.Errorf("parse arrivals url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("arrivals url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
	)
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(cfg.Timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
	})

	f := &Fetcher{cfg: cfg, collector: collector}

	collector.OnRequest(func(r *colly.Request) {
		for name, value := range browserHeaders {
			r.Headers.Set(name, value)
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		f.status = r.StatusCode
		f.body = r.Body
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			f.status = r.StatusCode
		}
	})

	return f, nil
}

// WithTransport swaps the underlying transport, for tests.
func (f *Fetcher) WithTransport(rt http.RoundTripper) {
	f.collector.WithTransport(rt)
}

// Fetch waits out the politeness delay and retrieves the arrivals page,
// returning its raw body. Non-2xx responses and transport failures come back
// as classified errors.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	if err := f.politenessDelay(ctx); err != nil {
		return nil, err
	}

	f.body = nil
	f.status = 0

	start := time.Now()
	err := f.collector.Visit(f.cfg.ArrivalsURL)
	f.collector.Wait()

	if err != nil {
		classified := classifyError(err, f.status)
		slog.Error("fetch failed",
			slog.String("url", f.cfg.ArrivalsURL),
			slog.String("category", errorTypeLabel(classified)),
			slog.Any("error", err),
		)
		return nil, classified
	}

	slog.Info("fetched arrivals page",
		slog.Int("status", f.status),
		slog.Int("bytes", len(f.body)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return f.body, nil
}

// politenessDelay sleeps a randomized interval in [MinDelay, MaxDelay) before
// the request. It honours ctx cancellation while waiting.
func (f *Fetcher) politenessDelay(ctx context.Context) error {
	delay := f.cfg.MinDelay
	if span := f.cfg.MaxDelay - f.cfg.MinDelay; span > 0 {
		delay += time.Duration(rand.Int64N(int64(span)))
	}
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
