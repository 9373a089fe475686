package normalizer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/boilerevents/boiler-events/app/events"
)

// FormatError reports model output that could not be parsed or that
// violates the normalized event schema. It fails the whole request: no
// partial result is synthesized from a malformed reply.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model output rejected: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("model output rejected: %s", e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Normalizer turns a batch of enriched listings into the final API schema
// by prompting a completion model and validating its reply field by field.
// The caller is expected to filter the batch to complete listings and cap
// its size first, keeping prompt size and hallucination risk bounded.
type Normalizer struct {
	completions CompletionClient
	timeout     time.Duration
}

func New(completions CompletionClient, timeout time.Duration) *Normalizer {
	return &Normalizer{completions: completions, timeout: timeout}
}

// Run performs one model call for the batch and returns the validated,
// deduplicated, sorted result. The model's reply is treated as untrusted
// input: a reply that does not decode into the expected array shape, or an
// element violating the schema, yields a FormatError.
func (n *Normalizer) Run(ctx context.Context, batch []events.EnrichedEventListing, referenceDate time.Time) ([]events.NormalizedEvent, error) {
	if len(batch) == 0 {
		return []events.NormalizedEvent{}, nil
	}

	prompt, err := buildPrompt(batch, referenceDate)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	started := time.Now()
	reply, err := n.completions.Complete(callCtx, systemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("normalization call failed: %w", err)
	}
	slog.Debug("Model reply received", "events", len(batch), "duration", time.Since(started))

	parsed, err := decodeReply(reply)
	if err != nil {
		return nil, err
	}

	return finalize(parsed, referenceDate)
}

// decodeReply strips an accidental fenced code block and decodes the reply
// as a JSON array of normalized events.
func decodeReply(reply string) ([]events.NormalizedEvent, error) {
	clean := stripFence(strings.TrimSpace(reply))
	if clean == "" {
		return nil, &FormatError{Reason: "empty reply"}
	}

	var parsed []events.NormalizedEvent
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, &FormatError{Reason: "not a JSON array of events", Err: err}
	}
	if parsed == nil {
		return nil, &FormatError{Reason: "reply is not an array"}
	}

	return parsed, nil
}

// stripFence removes a ```json ... ``` (or bare ```) wrapper the model
// sometimes adds despite instructions.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 && strings.EqualFold(strings.TrimSpace(s[:idx]), "json") {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}
