// Package dashboard renders the static status page.
package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/aluiziolira/watchfinder-tracker/models"
	"github.com/aluiziolira/watchfinder-tracker/state"
)

// Renderer rebuilds the dashboard document from scratch each run.
type Renderer struct {
	path      string
	limit     int
	sourceURL string
	tmpl      *template.Template
}

// NewRenderer builds a renderer writing to path, capped at limit entries.
func NewRenderer(path string, limit int, sourceURL string) *Renderer {
	return &Renderer{
		path:      path,
		limit:     limit,
		sourceURL: sourceURL,
		tmpl:      template.Must(template.New("dashboard").Parse(pageTemplate)),
	}
}

type card struct {
	Watch models.Watch
	Date  string
}

type page struct {
	LastCheck string
	Total     int
	Recent    []card
	SourceURL string
}

// Render produces the dashboard document for the given state. The state is
// read-only input; entries are never mutated.
func (r *Renderer) Render(s state.State, lastCheck string) ([]byte, error) {
	watches := make([]models.Watch, 0, len(s))
	for _, watch := range s {
		watches = append(watches, watch)
	}
	// Raw-string sort: RFC3339 UTC stamps order chronologically, and
	// malformed stamps must not break the sort.
	sort.Slice(watches, func(i, j int) bool {
		return watches[i].FirstSeen > watches[j].FirstSeen
	})

	if len(watches) > r.limit {
		watches = watches[:r.limit]
	}

	cards := make([]card, 0, len(watches))
	for _, watch := range watches {
		cards = append(cards, card{Watch: watch, Date: formatDate(watch.FirstSeen)})
	}

	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, page{
		LastCheck: lastCheck,
		Total:     len(s),
		Recent:    cards,
		SourceURL: r.sourceURL,
	})
	if err != nil {
		return nil, fmt.Errorf("execute dashboard template: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders and writes the dashboard, creating the containing
// directory if needed.
func (r *Renderer) WriteFile(s state.State, lastCheck string) error {
	doc, err := r.Render(s, lastCheck)
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dashboard directory %q: %w", dir, err)
		}
	}
	if err := os.WriteFile(r.path, doc, 0o644); err != nil {
		return fmt.Errorf("write dashboard: %w", err)
	}
	return nil
}

func formatDate(firstSeen string) string {
	parsed, err := time.Parse(time.RFC3339, firstSeen)
	if err != nil {
		if firstSeen == "" {
			return "Unknown"
		}
		return firstSeen
	}
	return parsed.Format("January 02, 2006 at 15:04")
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Watchfinder Tracker</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, Cantarell, sans-serif;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            min-height: 100vh;
            padding: 20px;
        }
        .container { max-width: 1200px; margin: 0 auto; }
        .header {
            background: white;
            border-radius: 12px;
            padding: 30px;
            margin-bottom: 30px;
            box-shadow: 0 10px 30px rgba(0,0,0,0.1);
        }
        h1 { color: #2d3748; margin-bottom: 15px; font-size: 2.5em; }
        .stats { display: flex; gap: 30px; flex-wrap: wrap; margin-top: 20px; }
        .stat {
            background: #f7fafc;
            padding: 15px 25px;
            border-radius: 8px;
            border-left: 4px solid #667eea;
        }
        .stat-label { color: #718096; font-size: 0.9em; margin-bottom: 5px; }
        .stat-value { color: #2d3748; font-size: 1.5em; font-weight: bold; }
        .watches-grid {
            display: grid;
            grid-template-columns: repeat(auto-fill, minmax(300px, 1fr));
            gap: 20px;
        }
        .watch-card {
            background: white;
            border-radius: 12px;
            overflow: hidden;
            box-shadow: 0 4px 6px rgba(0,0,0,0.1);
            display: flex;
            flex-direction: column;
        }
        .watch-image { width: 100%; height: 250px; object-fit: cover; background: #f7fafc; }
        .watch-info { padding: 20px; flex-grow: 1; display: flex; flex-direction: column; }
        .watch-title { color: #2d3748; font-size: 1.1em; font-weight: 600; margin-bottom: 10px; line-height: 1.4; }
        .watch-price { color: #667eea; font-size: 1.3em; font-weight: bold; margin-bottom: 10px; }
        .watch-date { color: #a0aec0; font-size: 0.85em; margin-bottom: 15px; }
        .watch-link {
            display: inline-block;
            background: #667eea;
            color: white;
            padding: 10px 20px;
            border-radius: 6px;
            text-decoration: none;
            text-align: center;
            margin-top: auto;
        }
        .no-image {
            display: flex;
            align-items: center;
            justify-content: center;
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            font-size: 3em;
        }
        @media (max-width: 768px) {
            h1 { font-size: 1.8em; }
            .stats { gap: 15px; }
            .watches-grid { grid-template-columns: 1fr; }
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>&#8986; Watchfinder Tracker</h1>
            <p>Tracking new arrivals from <a href="{{.SourceURL}}" target="_blank" style="color: #667eea;">Watchfinder.co.uk</a></p>
            <div class="stats">
                <div class="stat">
                    <div class="stat-label">Last Checked</div>
                    <div class="stat-value">{{.LastCheck}}</div>
                </div>
                <div class="stat">
                    <div class="stat-label">Total Watches Tracked</div>
                    <div class="stat-value">{{.Total}}</div>
                </div>
                <div class="stat">
                    <div class="stat-label">Recent Additions</div>
                    <div class="stat-value">{{len .Recent}}</div>
                </div>
            </div>
        </div>
        <div class="watches-grid">
{{- range .Recent}}
            <div class="watch-card">
                {{if .Watch.ImageURL}}<img src="{{.Watch.ImageURL}}" alt="{{.Watch.Title}}" class="watch-image">{{else}}<div class="watch-image no-image">&#8986;</div>{{end}}
                <div class="watch-info">
                    <div class="watch-title">{{.Watch.Title}}</div>
                    <div class="watch-price">{{.Watch.Price}}</div>
                    <div class="watch-date">Added: {{.Date}}</div>
                    <a href="{{.Watch.URL}}" target="_blank" class="watch-link">View on Watchfinder</a>
                </div>
            </div>
{{- end}}
        </div>
    </div>
</body>
</html>
`
