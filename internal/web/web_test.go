package web_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kandycal/internal/config"
	"kandycal/internal/feed"
	"kandycal/internal/model"
	"kandycal/internal/web"
)

const feedCSV = "Date,Event Name,Type,Description,Time\n" +
	"2024-03-05,Perahera,Daily,Temple procession,6pm\n" +
	"not-a-date,Bad,,,\n" +
	"3/10/2024,Market,Monthly,,\n" +
	"2024-01-01,Welcome Drinks,All Day,,\n"

func newTestServer(t *testing.T, cfg *config.Config, feedBody string, feedStatus int) *web.Server {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(feedStatus)
		_, _ = w.Write([]byte(feedBody))
	}))
	t.Cleanup(upstream.Close)

	loader := feed.NewLoader(feed.WithBaseURL(upstream.URL))
	return web.NewServer(cfg, loader)
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.SheetID = "test-sheet"
	return cfg
}

func doRequest(t *testing.T, s *web.Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, testConfig(), feedCSV, http.StatusOK)

	rec := doRequest(t, s, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("GET /health body = %q, want OK", rec.Body.String())
	}
}

func TestHandleEvents_Month(t *testing.T) {
	s := newTestServer(t, testConfig(), feedCSV, http.StatusOK)

	rec := doRequest(t, s, http.MethodGet, "/api/events?year=2024&month=3")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/events = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Events []model.Event `json:"events"`
		Count  int           `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	if resp.Count != 3 {
		t.Fatalf("month events count = %d, want 3 (Perahera, Market, Welcome Drinks)", resp.Count)
	}

	// Filter narrows to the monthly event only.
	rec = doRequest(t, s, http.MethodGet, "/api/events?year=2024&month=3&filter=Monthly")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 1 || resp.Events[0].Name != "Market" {
		t.Errorf("Monthly filter = %+v, want only Market", resp.Events)
	}
}

func TestHandleEvents_Day(t *testing.T) {
	s := newTestServer(t, testConfig(), feedCSV, http.StatusOK)

	rec := doRequest(t, s, http.MethodGet, "/api/events?year=2024&month=3&day=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/events day = %d, want 200", rec.Code)
	}

	var resp struct {
		Events []model.Event `json:"events"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	wantNames := []string{"Perahera", "Welcome Drinks"}
	if len(resp.Events) != len(wantNames) {
		t.Fatalf("day events = %d, want %d", len(resp.Events), len(wantNames))
	}
	for i, name := range wantNames {
		if resp.Events[i].Name != name {
			t.Errorf("day events[%d] = %q, want %q", i, resp.Events[i].Name, name)
		}
	}
}

func TestHandleCalendar(t *testing.T) {
	s := newTestServer(t, testConfig(), feedCSV, http.StatusOK)

	rec := doRequest(t, s, http.MethodGet, "/api/calendar?year=2024&month=3")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/calendar = %d, want 200", rec.Code)
	}

	var resp struct {
		Cells     []model.CalendarCell `json:"cells"`
		WeekStart string               `json:"week_start"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	if len(resp.Cells) != 42 {
		t.Errorf("calendar cells = %d, want 42", len(resp.Cells))
	}
	if resp.WeekStart != "sunday" {
		t.Errorf("week_start = %q, want sunday", resp.WeekStart)
	}
}

func TestHandleEvents_ConfigurationError(t *testing.T) {
	cfg := testConfig()
	cfg.SheetID = ""
	s := newTestServer(t, cfg, feedCSV, http.StatusOK)

	rec := doRequest(t, s, http.MethodGet, "/api/events")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("GET /api/events without sheet = %d, want 503", rec.Code)
	}

	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == "" {
		t.Error("error response carries no message")
	}
}

func TestHandleEvents_UpstreamFailure(t *testing.T) {
	s := newTestServer(t, testConfig(), "denied", http.StatusForbidden)

	rec := doRequest(t, s, http.MethodGet, "/api/events")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("GET /api/events with failing upstream = %d, want 502", rec.Code)
	}
}

func TestRefresh_KeepsStaleEventsOnFailure(t *testing.T) {
	upstreamOK := true
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if !upstreamOK {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(feedCSV))
	}))
	t.Cleanup(upstream.Close)

	loader := feed.NewLoader(feed.WithBaseURL(upstream.URL))
	s := web.NewServer(testConfig(), loader)

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	upstreamOK = false
	if err := s.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh() against failing upstream should error")
	}

	// The previously loaded events keep serving.
	rec := doRequest(t, s, http.MethodGet, "/api/events?year=2024&month=3")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/events after failed refresh = %d, want 200", rec.Code)
	}
}

func TestHandleRooms(t *testing.T) {
	s := newTestServer(t, testConfig(), feedCSV, http.StatusOK)

	rec := doRequest(t, s, http.MethodGet, "/api/rooms")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/rooms = %d, want 200", rec.Code)
	}
	var all []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &all); err != nil {
		t.Fatal(err)
	}
	if len(all) == 0 {
		t.Fatal("room catalogue is empty")
	}

	rec = doRequest(t, s, http.MethodGet, "/api/rooms/emerald-grand-suite")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/rooms/emerald-grand-suite = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Emerald Grand Suite") {
		t.Error("room detail missing name")
	}

	rec = doRequest(t, s, http.MethodGet, "/api/rooms/presidential-igloo")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET unknown room = %d, want 404", rec.Code)
	}
}

func TestHandleICS(t *testing.T) {
	s := newTestServer(t, testConfig(), feedCSV, http.StatusOK)

	rec := doRequest(t, s, http.MethodGet, "/calendar.ics")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /calendar.ics = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type = %q, want text/calendar", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "SUMMARY:Perahera") {
		t.Error("ICS export missing expected content")
	}
}

func TestBasicAuth(t *testing.T) {
	cfg := testConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "front", Password: "desk"}
	s := newTestServer(t, cfg, feedCSV, http.StatusOK)

	// /health is always open.
	rec := doRequest(t, s, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Errorf("GET /health without creds = %d, want 200", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/rooms")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/rooms without creds = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	req.SetBasicAuth("front", "desk")
	authed := httptest.NewRecorder()
	s.Handler().ServeHTTP(authed, req)
	if authed.Code != http.StatusOK {
		t.Errorf("GET /api/rooms with creds = %d, want 200", authed.Code)
	}
}
