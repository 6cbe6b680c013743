// Package pipeline runs one tracker cycle end to end.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aluiziolira/watchfinder-tracker/config"
	"github.com/aluiziolira/watchfinder-tracker/models"
	"github.com/aluiziolira/watchfinder-tracker/state"
)

// Fetcher retrieves the raw arrivals page.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Extractor turns the raw page into listing records.
type Extractor interface {
	Extract(r io.Reader) ([]models.Watch, error)
}

// Store loads and saves the persisted state.
type Store interface {
	Load() (state.State, error)
	Save(state.State) error
}

// Notifier delivers one alert per new listing.
type Notifier interface {
	Notify(models.Watch) error
}

// Renderer rebuilds the dashboard from the final state.
type Renderer interface {
	WriteFile(s state.State, lastCheck string) error
}

// Pipeline executes a strictly sequential run: load state, fetch, extract,
// diff, notify, prune, save, render. There is no concurrency and no retry;
// the next scheduled invocation is the implicit retry.
type Pipeline struct {
	cfg       *config.Config
	fetcher   Fetcher
	extractor Extractor
	store     Store
	notifier  Notifier
	renderer  Renderer
	Metrics   *Metrics

	now func() time.Time
}

// New wires a pipeline from its collaborators.
func New(cfg *config.Config, fetcher Fetcher, extractor Extractor, store Store, notifier Notifier, renderer Renderer) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extractor,
		store:     store,
		notifier:  notifier,
		renderer:  renderer,
		Metrics:   NewMetrics(),
		now:       time.Now,
	}
}

// WithClock overrides the pipeline clock, for tests.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Run executes one cycle. Only a fetch failure is returned as an error;
// every other failure class degrades to doing less work this run. Nothing is
// persisted or rendered when the fetch fails.
func (p *Pipeline) Run(ctx context.Context) (*models.RunResult, error) {
	result := &models.RunResult{StartTime: p.now()}

	known, err := p.store.Load()
	if err != nil {
		// Missing or corrupt state degrades to an empty map; the run
		// behaves like a first run.
		slog.Warn("state unavailable, starting empty", slog.Any("error", err))
		known = state.State{}
	}
	result.KnownAtStart = len(known)
	result.FirstRun = len(known) == 0
	slog.Info("loaded state", slog.Int("known", len(known)), slog.Bool("first_run", result.FirstRun))

	fetchStart := p.now()
	body, err := p.fetcher.Fetch(ctx)
	if err != nil {
		p.Metrics.IncRun("fetch_failed")
		return nil, fmt.Errorf("fetch arrivals: %w", err)
	}
	p.Metrics.ObserveFetch(p.now().Sub(fetchStart))

	extracted, err := p.extractor.Extract(bytes.NewReader(body))
	if err != nil {
		slog.Error("extraction failed, treating page as empty", slog.Any("error", err))
		extracted = nil
	}
	result.Extracted = len(extracted)
	p.Metrics.AddExtracted(len(extracted))

	if len(extracted) == 0 {
		slog.Warn("no listings found on page, site structure may have changed")
		p.render(known)
		result.Tracked = len(known)
		result.EndTime = p.now()
		p.Metrics.IncRun("no_items")
		return result, nil
	}
	slog.Info("extracted listings", slog.Int("count", len(extracted)))

	fresh, updated := state.Diff(known, extracted)
	result.NewItems = len(fresh)
	p.Metrics.AddNew(len(fresh))
	slog.Info("detected new listings", slog.Int("count", len(fresh)))

	if result.FirstRun {
		slog.Info("first run, suppressing notifications", slog.Int("suppressed", len(fresh)))
	} else {
		for _, watch := range fresh {
			if err := p.notifier.Notify(watch); err != nil {
				slog.Error("notification failed",
					slog.String("title", watch.Title),
					slog.Any("error", err),
				)
				result.NotifyFailures++
				p.Metrics.IncNotification("failed")
				continue
			}
			result.Notified++
			p.Metrics.IncNotification("sent")
		}
	}

	pruned := state.Prune(updated, p.now(), p.cfg.RetentionWindow)
	result.Pruned = len(updated) - len(pruned)
	p.Metrics.AddPruned(result.Pruned)
	if result.Pruned > 0 {
		slog.Info("pruned stale entries", slog.Int("count", result.Pruned))
	}

	// Save and render failures are logged, not fatal: the exit-code contract
	// reserves non-zero for fetch failure.
	if err := p.store.Save(pruned); err != nil {
		slog.Error("state save failed", slog.Any("error", err))
	}
	p.render(pruned)

	result.Tracked = len(pruned)
	result.EndTime = p.now()
	p.Metrics.IncRun("ok")
	return result, nil
}

func (p *Pipeline) render(s state.State) {
	label := p.now().UTC().Format("2006-01-02 15:04:05 UTC")
	if err := p.renderer.WriteFile(s, label); err != nil {
		slog.Error("dashboard render failed", slog.Any("error", err))
	}
}
