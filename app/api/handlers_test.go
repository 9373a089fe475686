package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/boilerevents/boiler-events/app/events"
)

type fakePipeline struct {
	result   []events.NormalizedEvent
	err      error
	audience events.Audience
}

func (f *fakePipeline) Run(_ context.Context, audience events.Audience) ([]events.NormalizedEvent, error) {
	f.audience = audience
	return f.result, f.err
}

type fakeHealth struct {
	err error
}

func (f *fakeHealth) Ping(_ context.Context) error {
	return f.err
}

func serve(t *testing.T, p PipelineRunner, h HealthChecker, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	server := NewServer(NewHandler(p, h, "test"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	server.ServeHTTP(rec, req)
	return rec
}

func TestGetEventsReturnsPipelineResult(t *testing.T) {
	p := &fakePipeline{result: []events.NormalizedEvent{
		{Title: "Spring Concert", Link: "https://x/123", Urgency: events.UrgencyHigh, Ranking: 1},
	}}

	rec := serve(t, p, nil, http.MethodGet, "/api/events?audience=faculty")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if p.audience != events.AudienceFaculty {
		t.Errorf("Expected faculty audience, got: %s", p.audience)
	}

	var body []events.NormalizedEvent
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Response not decodable: %v", err)
	}
	if len(body) != 1 || body[0].Title != "Spring Concert" {
		t.Errorf("Unexpected body: %+v", body)
	}
}

func TestGetEventsDefaultsToStudentAudience(t *testing.T) {
	p := &fakePipeline{result: []events.NormalizedEvent{}}

	rec := serve(t, p, nil, http.MethodGet, "/api/events")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if p.audience != events.AudienceStudent {
		t.Errorf("Expected student default, got: %s", p.audience)
	}
}

func TestGetEventsRejectsUnknownAudience(t *testing.T) {
	p := &fakePipeline{}

	rec := serve(t, p, nil, http.MethodGet, "/api/events?audience=alumni")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestGetEventsMapsPipelineFailureTo500(t *testing.T) {
	p := &fakePipeline{err: errors.New("normalization failed: model output rejected")}

	rec := serve(t, p, nil, http.MethodGet, "/api/events")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Error response not decodable: %v", err)
	}
	if body["error"] != "Failed to fetch events" {
		t.Errorf("Expected stable error kind, got: %s", body["error"])
	}
	if body["details"] == "" {
		t.Error("Expected human-readable details")
	}
}

func TestGetHealthReportsCacheState(t *testing.T) {
	rec := serve(t, &fakePipeline{}, &fakeHealth{}, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Health response not decodable: %v", err)
	}
	if body["cache"] != "ok" {
		t.Errorf("Expected cache ok, got: %v", body["cache"])
	}

	rec = serve(t, &fakePipeline{}, &fakeHealth{err: errors.New("down")}, http.MethodGet, "/health")
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["cache"] != "unreachable" {
		t.Errorf("Expected cache unreachable, got: %v", body["cache"])
	}
}

func TestCORSHeadersAndPreflight(t *testing.T) {
	rec := serve(t, &fakePipeline{result: []events.NormalizedEvent{}}, nil, http.MethodGet, "/api/events")
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected allow-all CORS header")
	}

	rec = serve(t, &fakePipeline{}, nil, http.MethodOptions, "/api/events")
	if rec.Code != 204 {
		t.Errorf("Expected 204 for preflight, got %d", rec.Code)
	}
}
