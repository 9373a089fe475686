package enricher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/boilerevents/boiler-events/app/events"
)

var extraDatesLabel = regexp.MustCompile(`^(?i)Additional (Event )?Dates:\s*`)

// Enricher fetches every listing's own detail page and fills in the richer
// date string and the long description. Fetches run concurrently, one per
// listing, each with its own timeout. A failed fetch or parse degrades that
// single listing to its original field values; it never fails the batch.
type Enricher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

func New(client *http.Client, userAgent string, timeout time.Duration) *Enricher {
	return &Enricher{
		client:    client,
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// Run returns one enriched listing per input listing, same order. It blocks
// until every detail fetch has settled; stragglers are not cancelled early,
// they simply time out on their own and keep the listing-page values.
func (e *Enricher) Run(ctx context.Context, listings []events.RawEventListing) []events.EnrichedEventListing {
	enriched := make([]events.EnrichedEventListing, len(listings))

	var wg sync.WaitGroup
	for i, listing := range listings {
		enriched[i] = events.EnrichedEventListing{RawEventListing: listing}

		wg.Add(1)
		go func(i int, listing events.RawEventListing) {
			defer wg.Done()

			detail, err := e.fetchDetail(ctx, listing.Link)
			if err != nil {
				slog.Warn("Detail enrichment failed, keeping listing fields",
					"title", listing.Title, "link", listing.Link, "error", err)
				return
			}

			// Only overwrite when the detail page supplies a non-empty value.
			if detail.date != "" {
				enriched[i].Date = detail.date
			}
			if detail.description != "" {
				enriched[i].Description = detail.description
			}
		}(i, listing)
	}
	wg.Wait()

	return enriched
}

type detailPage struct {
	date        string
	description string
}

func (e *Enricher) fetchDetail(ctx context.Context, url string) (detailPage, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return detailPage{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return detailPage{}, fmt.Errorf("failed to fetch detail page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return detailPage{}, fmt.Errorf("detail page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return detailPage{}, fmt.Errorf("failed to parse detail page: %w", err)
	}

	return detailPage{
		date:        extractDates(doc),
		description: extractDescription(doc),
	}, nil
}

// extractDates reads the primary date node and, when the page carries an
// "Additional Event Dates" annotation, appends its cleaned text separated
// by "; ". A missing element is treated as field-absent, not an error.
func extractDates(doc *goquery.Document) string {
	primary := strings.TrimSpace(doc.Find("div.em-list_dates__container p.em-date").First().Text())
	if primary == "" {
		primary = strings.TrimSpace(doc.Find(".em-about_event-date").First().Text())
	}

	extra, _ := doc.Find("div.em-list_dates__extra-message").Attr("aria-label")
	extra = strings.TrimSpace(extraDatesLabel.ReplaceAllString(strings.TrimSpace(extra), ""))

	if primary != "" && extra != "" {
		return primary + "; " + extra
	}
	return primary
}

// extractDescription joins the description paragraphs with a blank line.
func extractDescription(doc *goquery.Document) string {
	var paragraphs []string
	doc.Find("div.em-about_description p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	return strings.Join(paragraphs, "\n\n")
}
