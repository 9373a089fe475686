package normalizer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/boilerevents/boiler-events/app/events"
)

const systemPrompt = "You are an expert event data formatter. You receive event data, " +
	"enhance it by parsing dates, summarizing descriptions, adding categories/urgency/tags, " +
	"and return ONLY a valid JSON array containing objects for all input events, " +
	"sorted by urgency and date."

const promptDateLayout = "Mon, Jan 2, 2006"

// buildPrompt renders the normalization instruction with the reference date
// and the input batch embedded as JSON.
func buildPrompt(batch []events.EnrichedEventListing, referenceDate time.Time) (string, error) {
	input, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode event batch: %w", err)
	}

	today := referenceDate.Format(promptDateLayout)

	return fmt.Sprintf(`You will receive a list of university events. Each event has a combined 'date' field (which might represent multiple dates or a range, possibly joined by ';') and may optionally include a 'description'.

Today's date is: %s

Process the following JSON input array:
- For each event:
  - Parse the original 'date' field into these new fields:
    - 'parsed_date': Represent ONLY the primary/first date found (e.g., "Mon, May 5, 2025"). Standardize simple relative dates like "Today" or "Tomorrow" to their actual date based on today's date (%s). If the input combines multiple dates (e.g. separated by ';'), only use the first date. If unparseable, use null.
    - 'additional_days': If the event spans multiple days or has multiple dates, the total number of additional days beyond the first day. For example, an event running May 5-7 has additional_days 2. If there is only one day, use 0.
    - 'time': the time portion (e.g., "3 pm to 4 pm", "10:00 AM - 11:00 AM"), or null if no time is present or multiple times are listed ambiguously.
  - Process the 'description' field (if present and not null/empty):
    - 'short_description': a concise 1-2 sentence summary of the original 'description', focused on the core activity or purpose. If 'description' is null or empty, set 'short_description' to null.
  - Keep the original fields: title, location, link, image, description.
  - Add new fields:
    - 'category': a relevant category guessed from the title and description (e.g., "Seminar", "Music", "Career Fair", "Workshop", "Arts", "Sports", "Social", "Lecture", "Expo", "Commencement"). Use "General" if unsure.
    - 'urgency': based on 'parsed_date' relative to today (%s). Use 'high' if the event starts today, tomorrow, or within the next 3 days (inclusive of today). Use 'medium' if within the next 7 days. Use 'low' otherwise. If the date is unparseable or in the past, use 'low'.
    - 'ranking': after building all objects, sort by urgency (high -> medium -> low) and importance, then assign 'ranking': 1 for the highest urgency, 2 for the next, and so on.
    - 'tags': 2-4 relevant lowercase keywords based on title, category, and description.

Return ONLY a valid JSON array containing ALL formatted events, sorted by urgency first, then by parsed_date ascending. No markdown fences.
Do not return duplicate events.

Input JSON (%d events):
%s`, today, today, today, len(batch), input), nil
}
