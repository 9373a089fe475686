package normalizer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/boilerevents/boiler-events/app/events"
)

const fallbackCategory = "General"

const maxTags = 4

var weekdayPrefix = regexp.MustCompile(`^(?i)(mon|tue|wed|thu|fri|sat|sun)[a-z]*,?\s+`)

// finalize enforces the response contract deterministically, regardless of
// how well the model followed instructions: schema validation, duplicate
// collapse, urgency recomputed from parsed_date, urgency-then-date sort,
// and a contiguous 1-based ranking.
func finalize(parsed []events.NormalizedEvent, referenceDate time.Time) ([]events.NormalizedEvent, error) {
	type keyed struct {
		event events.NormalizedEvent
		date  time.Time
		dated bool
	}

	seen := make(map[string]struct{}, len(parsed))
	kept := make([]keyed, 0, len(parsed))

	for i, ev := range parsed {
		if err := validate(i, ev); err != nil {
			return nil, err
		}

		key := dedupeKey(ev)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if ev.Category == "" {
			ev.Category = fallbackCategory
		}
		ev.Tags = normalizeTags(ev.Tags)

		date, dated := parseEventDate(ev.ParsedDate)
		if dated {
			ev.Urgency = urgencyFor(date, referenceDate)
		} else if !ev.Urgency.Valid() {
			return nil, &FormatError{Reason: fmt.Sprintf("event %d: urgency %q is not high/medium/low and parsed_date is unusable", i, ev.Urgency)}
		}

		kept = append(kept, keyed{event: ev, date: date, dated: dated})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if ra, rb := a.event.Urgency.Rank(), b.event.Urgency.Rank(); ra != rb {
			return ra < rb
		}
		// Within a tier, dated events come first in ascending order.
		if a.dated != b.dated {
			return a.dated
		}
		if a.dated && !a.date.Equal(b.date) {
			return a.date.Before(b.date)
		}
		return a.event.Title < b.event.Title
	})

	out := make([]events.NormalizedEvent, len(kept))
	for i, k := range kept {
		k.event.Ranking = i + 1
		out[i] = k.event
	}

	return out, nil
}

func validate(i int, ev events.NormalizedEvent) error {
	if strings.TrimSpace(ev.Title) == "" {
		return &FormatError{Reason: fmt.Sprintf("event %d: missing title", i)}
	}
	if strings.TrimSpace(ev.Link) == "" {
		return &FormatError{Reason: fmt.Sprintf("event %d: missing link", i)}
	}
	if ev.AdditionalDays < 0 {
		return &FormatError{Reason: fmt.Sprintf("event %d: negative additional_days %d", i, ev.AdditionalDays)}
	}
	return nil
}

func dedupeKey(ev events.NormalizedEvent) string {
	return strings.ToLower(strings.TrimSpace(ev.Title)) + "|" + strings.TrimSpace(ev.Link)
}

// normalizeTags lowercases the model's tags and caps them at four. Tag
// count is advisory in the prompt, so a short or long list is normalized
// rather than rejected.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			out = append(out, tag)
		}
	}
	if len(out) > maxTags {
		out = out[:maxTags]
	}
	return out
}

// parseEventDate parses the model's parsed_date value, tolerating the
// weekday prefix of the "Mon, May 5, 2025" shape the prompt asks for.
func parseEventDate(s *string) (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	raw := weekdayPrefix.ReplaceAllString(strings.TrimSpace(*s), "")
	if raw == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// urgencyFor classifies an event date against the reference date using
// calendar-day differences: 0-3 days out is high (today inclusive), 4-7 is
// medium, everything else - including past dates - is low.
func urgencyFor(date, referenceDate time.Time) events.Urgency {
	diff := dayDiff(referenceDate, date)
	switch {
	case diff >= 0 && diff <= 3:
		return events.UrgencyHigh
	case diff >= 4 && diff <= 7:
		return events.UrgencyMedium
	default:
		return events.UrgencyLow
	}
}

// dayDiff returns the calendar-day distance between the two dates. Both
// dates are remapped to UTC midnights first, so DST transitions between
// them cannot skew the difference by a day.
func dayDiff(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}
