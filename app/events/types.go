package events

import "fmt"

// Audience selects which view of the events calendar is scraped. Each
// audience has its own listing URL and its own cache key.
type Audience string

const (
	AudienceStudent Audience = "student"
	AudienceFaculty Audience = "faculty"
)

// ParseAudience maps a request parameter to an Audience. An empty value
// defaults to the student view, matching the original API behavior.
func ParseAudience(raw string) (Audience, error) {
	switch raw {
	case "", string(AudienceStudent):
		return AudienceStudent, nil
	case string(AudienceFaculty):
		return AudienceFaculty, nil
	default:
		return "", fmt.Errorf("unknown audience %q", raw)
	}
}

// RawEventListing is one event card scraped from the listing page. Cards
// without a title or a resolvable link are dropped at scrape time and never
// reach this type.
type RawEventListing struct {
	Title    string   `json:"title"`
	Date     string   `json:"date"`
	Location string   `json:"location,omitempty"`
	Link     string   `json:"link"`
	Image    string   `json:"image,omitempty"`
	Audience Audience `json:"audience"`
}

// EnrichedEventListing is a RawEventListing after the detail-page pass.
// Date may have been replaced by the richer detail-page value and
// Description filled in. Once enrichment settles the value is never
// mutated again.
type EnrichedEventListing struct {
	RawEventListing
	Description string `json:"description,omitempty"`
}

// Complete reports whether the listing carries every field the normalizer
// requires. Incomplete listings are filtered out before the model call.
func (e EnrichedEventListing) Complete() bool {
	return e.Title != "" && e.Date != "" && e.Link != "" && e.Description != ""
}

// Urgency is the three-level proximity classification derived from how soon
// an event occurs relative to the processing date.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// Valid reports whether u is one of the three known levels.
func (u Urgency) Valid() bool {
	return u == UrgencyHigh || u == UrgencyMedium || u == UrgencyLow
}

// Rank orders urgencies for sorting, high first.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyHigh:
		return 0
	case UrgencyMedium:
		return 1
	default:
		return 2
	}
}

// NormalizedEvent is the API-facing schema produced by the normalizer.
// Nullable fields are pointers so a JSON null survives the round trip to
// the client unchanged.
type NormalizedEvent struct {
	Title            string   `json:"title"`
	Location         *string  `json:"location"`
	Link             string   `json:"link"`
	Image            *string  `json:"image"`
	Description      *string  `json:"description"`
	ParsedDate       *string  `json:"parsed_date"`
	AdditionalDays   int      `json:"additional_days"`
	Time             *string  `json:"time"`
	ShortDescription *string  `json:"short_description"`
	Category         string   `json:"category"`
	Urgency          Urgency  `json:"urgency"`
	Ranking          int      `json:"ranking"`
	Tags             []string `json:"tags"`
}
