// Package parser turns a raw listing page into normalized watch records.
//
// Candidate nodes are located by an ordered list of structural selectors,
// most specific first; the first selector that matches anything wins. When
// none match, every hyperlink whose target contains the product path marker
// is harvested instead. Each field is then extracted by an ordered list of
// pure strategy functions, first non-empty result wins, so new site layouts
// are handled by appending strategies rather than branching.
package parser

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/aluiziolira/watchfinder-tracker/models"
)

// productPathMarker identifies listing detail links on the target site.
const productPathMarker = "/watch/"

// candidateSelectors are tried in order against the whole document. The last
// entry overlaps with the link-harvest fallback on purpose: it catches pages
// where listings are bare anchors inside an otherwise unrecognized layout.
var candidateSelectors = []string{
	"div.product-card",
	"div.watch-card",
	"article.product",
	"div.product-item",
	"li.product",
	"div[data-product-id]",
	`a[href*="` + productPathMarker + `"]`,
}

// fieldStrategy extracts one field from a candidate node, returning "" when
// it does not apply.
type fieldStrategy func(*goquery.Selection) string

var titleStrategies = []fieldStrategy{
	headingText,
	classText("title", "name"),
	productLinkText,
	ownLinkText,
}

var priceStrategies = []fieldStrategy{
	classText("price"),
	// Known-lossy: any text node carrying the currency symbol, which can pick
	// up unrelated page text. Kept as a last resort.
	currencyText("£"),
}

// Extractor converts listing markup into watch records.
type Extractor struct {
	origin string
	now    func() time.Time
}

// NewExtractor builds an extractor that roots relative URLs under origin
// (scheme://host, no trailing slash).
func NewExtractor(origin string) *Extractor {
	return &Extractor{
		origin: strings.TrimSuffix(origin, "/"),
		now:    time.Now,
	}
}

// WithClock overrides the first-seen clock, for tests.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// Extract parses the document and returns the accepted records in document
// order. A candidate is accepted iff it yields a non-empty identity and
// title; everything else is dropped without failing the batch. An empty
// result is a valid outcome. The error is non-nil only when the document
// itself cannot be read.
func (e *Extractor) Extract(r io.Reader) ([]models.Watch, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	candidates := e.findCandidates(doc)

	stamp := e.now().UTC().Format(time.RFC3339)
	watches := make([]models.Watch, 0, candidates.Length())
	seen := make(map[string]struct{}, candidates.Length())

	candidates.Each(func(_ int, sel *goquery.Selection) {
		watch, ok := e.extractOne(sel, stamp)
		if !ok {
			return
		}
		if _, dup := seen[watch.URL]; dup {
			return
		}
		seen[watch.URL] = struct{}{}
		watches = append(watches, watch)
	})

	return watches, nil
}

func (e *Extractor) findCandidates(doc *goquery.Document) *goquery.Selection {
	for _, selector := range candidateSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			return sel
		}
	}
	// Fallback: harvest every link pointing at a product page.
	return doc.Find("a[href]").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		return strings.Contains(href, productPathMarker)
	})
}

func (e *Extractor) extractOne(sel *goquery.Selection, stamp string) (models.Watch, bool) {
	identity := e.absoluteURL(linkTarget(sel))
	title := firstNonEmpty(sel, titleStrategies)
	if identity == "" || title == "" {
		return models.Watch{}, false
	}

	price := firstNonEmpty(sel, priceStrategies)
	if price == "" {
		price = models.PriceUnavailable
	}

	image := imageSource(sel)
	if image != "" {
		image = e.absoluteURL(image)
	}

	return models.Watch{
		URL:       identity,
		Title:     title,
		Price:     price,
		ImageURL:  image,
		FirstSeen: stamp,
	}, true
}

// absoluteURL normalizes a link target to canonical absolute form:
// protocol-relative gets the https scheme, root-relative gets the site
// origin, absolute URLs pass through, and anything else is treated as a
// path under the origin.
func (e *Extractor) absoluteURL(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	case strings.HasPrefix(raw, "/"):
		return e.origin + raw
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return raw
	default:
		return e.origin + "/" + raw
	}
}

func firstNonEmpty(sel *goquery.Selection, strategies []fieldStrategy) string {
	for _, strategy := range strategies {
		if value := strings.TrimSpace(strategy(sel)); value != "" {
			return value
		}
	}
	return ""
}

// linkTarget returns the candidate's own href when it is an anchor, else the
// href of the first nested anchor.
func linkTarget(sel *goquery.Selection) string {
	if goquery.NodeName(sel) == "a" {
		href, _ := sel.Attr("href")
		return href
	}
	href, _ := sel.Find("a[href]").First().Attr("href")
	return href
}

func headingText(sel *goquery.Selection) string {
	return sel.Find("h2, h3").First().Text()
}

// classText matches the first descendant whose class attribute contains any
// of the given tokens, case-insensitive.
func classText(tokens ...string) fieldStrategy {
	return func(sel *goquery.Selection) string {
		match := sel.Find("[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			class, _ := s.Attr("class")
			class = strings.ToLower(class)
			for _, token := range tokens {
				if strings.Contains(class, token) {
					return true
				}
			}
			return false
		}).First()
		return match.Text()
	}
}

func productLinkText(sel *goquery.Selection) string {
	link := sel.Find("a[href]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		return strings.Contains(href, productPathMarker)
	}).First()
	return link.Text()
}

func ownLinkText(sel *goquery.Selection) string {
	if goquery.NodeName(sel) != "a" {
		return ""
	}
	return sel.Text()
}

// currencyText returns the first text node under the candidate containing
// the given symbol.
func currencyText(symbol string) fieldStrategy {
	return func(sel *goquery.Selection) string {
		var found string
		for _, node := range sel.Nodes {
			if found != "" {
				break
			}
			walkTextNodes(node, func(text string) bool {
				if strings.Contains(text, symbol) {
					found = text
					return false
				}
				return true
			})
		}
		return found
	}
}

// walkTextNodes visits text nodes depth-first until visit returns false.
func walkTextNodes(node *html.Node, visit func(string) bool) bool {
	if node.Type == html.TextNode {
		return visit(node.Data)
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if !walkTextNodes(child, visit) {
			return false
		}
	}
	return true
}

// imageSource probes the first nested image for a usable source attribute,
// including common lazy-load variants.
func imageSource(sel *goquery.Selection) string {
	img := sel.Find("img").First()
	if img.Length() == 0 {
		return ""
	}
	for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
		if value, ok := img.Attr(attr); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
