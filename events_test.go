package galengine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchLiveNotConfigured(t *testing.T) {
	c := NewEventsClient("", "")
	if _, err := c.FetchLive(context.Background(), false); !errors.Is(err, ErrEventsNotConfigured) {
		t.Errorf("got %v, want ErrEventsNotConfigured", err)
	}
	c = NewEventsClient("token", "")
	if _, err := c.FetchLive(context.Background(), false); !errors.Is(err, ErrEventsNotConfigured) {
		t.Errorf("missing org id: got %v, want ErrEventsNotConfigured", err)
	}
}

// eventbriteStub serves a canned organization events payload.
func eventbriteStub(t *testing.T, body string) *EventsClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)

	c := NewEventsClient("test-token", "org-42")
	c.baseURL = srv.URL
	return c
}

func eventJSON(id, name, endUTC string, total, sold int) string {
	return fmt.Sprintf(`{
		"id": %q,
		"name": {"text": %q},
		"url": "https://example.com/e/%s",
		"start": {"local": "2026-05-01T10:00:00", "utc": "2026-05-01T08:00:00Z"},
		"end": {"local": "local-%s", "utc": %q},
		"ticket_classes": [{"quantity_total": %d, "quantity_sold": %d}]
	}`, id, name, id, id, endUTC, total, sold)
}

func TestFetchLiveFiltersEndedEvents(t *testing.T) {
	future := time.Now().UTC().Add(48 * time.Hour).Format("2006-01-02T15:04:05Z")
	body := fmt.Sprintf(`{"events":[%s,%s]}`,
		eventJSON("past", "Spring Cup", "2020-01-01T00:00:00Z", 100, 100),
		eventJSON("next", "Summer Cup", future, 120, 45))

	c := eventbriteStub(t, body)
	events, err := c.FetchLive(context.Background(), false)
	if err != nil {
		t.Fatalf("FetchLive failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %+v", len(events), events)
	}
	e := events[0]
	if e.ID != "next" || e.Name != "Summer Cup" {
		t.Errorf("event = %+v", e)
	}
	if e.RemainingTickets != 75 {
		t.Errorf("RemainingTickets = %d, want 75", e.RemainingTickets)
	}
	if e.Start != "2026-05-01T10:00:00" {
		t.Errorf("Start = %q, want the local time", e.Start)
	}
}

func TestFetchLiveSumsTicketClasses(t *testing.T) {
	future := time.Now().UTC().Add(24 * time.Hour).Format("2006-01-02T15:04:05Z")
	body := fmt.Sprintf(`{"events":[{
		"id": "multi",
		"name": {"text": "Tournament"},
		"url": "https://example.com/e/multi",
		"start": {"local": "2026-05-01T10:00:00", "utc": "2026-05-01T08:00:00Z"},
		"end": {"local": "2026-05-01T18:00:00", "utc": %q},
		"ticket_classes": [
			{"quantity_total": 50, "quantity_sold": 20},
			{"quantity_total": 30, "quantity_sold": 30}
		]
	}]}`, future)

	c := eventbriteStub(t, body)
	events, err := c.FetchLive(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].RemainingTickets != 30 {
		t.Errorf("events = %+v, want one with 30 remaining", events)
	}
}

func TestFetchLiveTestMode(t *testing.T) {
	// Both events are over; test mode still returns the latest-ending one.
	body := fmt.Sprintf(`{"events":[%s,%s]}`,
		eventJSON("older", "Winter Cup", "2024-01-01T00:00:00Z", 10, 10),
		eventJSON("newer", "Spring Cup", "2025-01-01T00:00:00Z", 10, 3))

	c := eventbriteStub(t, body)
	events, err := c.FetchLive(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].ID != "newer" {
		t.Errorf("test mode events = %+v, want only the newest", events)
	}
}

func TestFetchLiveSendsAuthorization(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		fmt.Fprint(w, `{"events":[]}`)
	}))
	defer srv.Close()

	c := NewEventsClient("test-token", "org-42")
	c.baseURL = srv.URL
	if _, err := c.FetchLive(context.Background(), false); err != nil {
		t.Fatalf("FetchLive failed: %v", err)
	}
	if got.Header.Get("Authorization") != "Bearer test-token" {
		t.Errorf("Authorization = %q", got.Header.Get("Authorization"))
	}
	if got.URL.Path != "/organizations/org-42/events/" {
		t.Errorf("path = %q", got.URL.Path)
	}
	q := got.URL.Query()
	if q.Get("status") != "live" || q.Get("expand") != "ticket_classes" {
		t.Errorf("query = %v", q)
	}
}

func TestFetchLiveUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewEventsClient("bad-token", "org-42")
	c.baseURL = srv.URL
	if _, err := c.FetchLive(context.Background(), false); err == nil {
		t.Error("expected an error for a non-200 upstream response")
	}
}
