package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/boilerevents/boiler-events/app/events"
)

// Scraper fetches an audience's listing page and parses its event cards
// into raw listings. A network or parse error on the listing page is fatal
// for the request: no partial listing is meaningful.
type Scraper struct {
	client    *http.Client
	baseURL   string
	urls      map[events.Audience]string
	userAgent string
	timeout   time.Duration
}

func New(client *http.Client, baseURL, studentURL, facultyURL, userAgent string, timeout time.Duration) *Scraper {
	return &Scraper{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		urls: map[events.Audience]string{
			events.AudienceStudent: studentURL,
			events.AudienceFaculty: facultyURL,
		},
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// Run fetches the listing page for the given audience and returns one raw
// listing per event card that has a title and a resolvable link. Cards
// missing either are skipped silently, not treated as failures.
func (s *Scraper) Run(ctx context.Context, audience events.Audience) ([]events.RawEventListing, error) {
	url, ok := s.urls[audience]
	if !ok {
		return nil, fmt.Errorf("no listing URL configured for audience %q", audience)
	}

	data, err := s.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	listings, err := s.parseListings(bytes.NewReader(data), audience)
	if err != nil {
		return nil, err
	}

	slog.Debug("Listing page scraped", "audience", audience, "events", len(listings))

	return listings, nil
}

func (s *Scraper) fetch(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing page returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing page: %w", err)
	}

	return data, nil
}

func (s *Scraper) parseListings(r io.Reader, audience events.Audience) ([]events.RawEventListing, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page: %w", err)
	}

	listings := make([]events.RawEventListing, 0)

	doc.Find(".em-card").Each(func(_ int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find(".em-card_title").Text())
		if title == "" {
			return
		}

		linkRel, _ := card.Find(".em-card_title a").Attr("href")
		link := s.absolute(linkRel)
		if link == "" {
			return
		}

		imgSrc, _ := card.Find("img").Attr("src")

		listings = append(listings, events.RawEventListing{
			Title:    title,
			Date:     strings.TrimSpace(card.Find(".em-card_event-text").First().Text()),
			Location: strings.TrimSpace(card.Find(".em-card_event-text a").Text()),
			Link:     link,
			Image:    s.absolute(imgSrc),
			Audience: audience,
		})
	})

	return listings, nil
}

// absolute resolves a scraped href or src against the site base URL.
func (s *Scraper) absolute(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return s.baseURL + ref
}
