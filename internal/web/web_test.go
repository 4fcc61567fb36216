package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"planboard/internal/config"
	"planboard/internal/marker"
	"planboard/internal/planning"
)

// fakeBackend serves the Logipack endpoints the server talks to. stateCode
// controls /orders/state responses: "null" keeps estado unset.
type fakeBackend struct {
	stateCode string
	stateFail atomic.Bool
	planFail  atomic.Bool
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/planning", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 1, "start_date": "2024-01-01 09:00:00", "end_date": "2024-01-01 10:30:00",
			 "duration": "90", "color": "#4caf50", "codart": "A-100", "number_order": "OF-1001", "client_id": 7},
			{"id": 2, "start_date": "2024-01-02 11:00:00", "end_date": "2024-01-02 12:00:00",
			 "duration": "60", "color": "#2196f3", "codart": "B-200", "number_order": "OF-2001", "client_id": 9}
		]`))
	})
	mux.HandleFunc("/clients", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 7, "name": "Acme Pharma"}, {"id": 9, "name": "Beta Labs"}]`))
	})
	mux.HandleFunc("/planning/", func(w http.ResponseWriter, _ *http.Request) {
		if b.planFail.Load() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"plan": {"id": 1, "line": "L1", "number_order": "OF-1001", "client_id": 7}}`))
	})
	mux.HandleFunc("/orders/state/", func(w http.ResponseWriter, _ *http.Request) {
		if b.stateFail.Load() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"estado": ` + b.stateCode + `}`))
	})
	return mux
}

// newTestServer wires a Server against a fake backend with "now" pinned to
// Wednesday 2024-01-17, two weeks after the fixture events.
func newTestServer(t *testing.T, backend *httptest.Server) (*Server, *marker.MemStore) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.BackendURL = backend.URL
	cfg.ExecutionURL = "http://exec.local/execution"
	cfg.DataDir = t.TempDir()

	fetcher := planning.NewFetcher(filepath.Join(cfg.DataDir, "http-cache"))
	store := marker.NewMemStore()
	s := NewServer(cfg, planning.NewClient(backend.URL, fetcher), nil, store, time.Local)
	s.now = func() time.Time {
		return time.Date(2024, time.January, 17, 12, 0, 0, 0, time.Local)
	}
	return s, store
}

type eventsResp struct {
	Week    string     `json:"week"`
	Snapped bool       `json:"snapped"`
	Events  []eventDTO `json:"events"`
}

func getEvents(t *testing.T, s *Server, query string) eventsResp {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/events"+query, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/events%s = %d, want 200", query, rec.Code)
	}
	var resp eventsResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestEventsSnapsToFirstEventWeek(t *testing.T) {
	backend := httptest.NewServer((&fakeBackend{stateCode: "null"}).handler())
	defer backend.Close()
	s, _ := newTestServer(t, backend)

	resp := getEvents(t, s, "")
	if !resp.Snapped {
		t.Errorf("expected snap away from the empty current week")
	}
	if resp.Week != "2024-01-01" {
		t.Errorf("week = %q, want 2024-01-01", resp.Week)
	}
	if len(resp.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(resp.Events))
	}
	if resp.Events[0].ClientName != "Acme Pharma" {
		t.Errorf("client name = %q, want joined name", resp.Events[0].ClientName)
	}
	if resp.Events[0].Duration != "1 hora 30 min" {
		t.Errorf("duration label = %q", resp.Events[0].Duration)
	}
}

func TestEventsExplicitWeekDisablesSnap(t *testing.T) {
	backend := httptest.NewServer((&fakeBackend{stateCode: "null"}).handler())
	defer backend.Close()
	s, _ := newTestServer(t, backend)

	resp := getEvents(t, s, "?week=2024-01-10")
	if resp.Snapped {
		t.Errorf("explicit week must not snap")
	}
	if resp.Week != "2024-01-08" {
		t.Errorf("week = %q, want Monday 2024-01-08", resp.Week)
	}
	if len(resp.Events) != 0 {
		t.Errorf("got %d events in an empty week, want 0", len(resp.Events))
	}
}

func TestEventsFilterByOrderNumber(t *testing.T) {
	backend := httptest.NewServer((&fakeBackend{stateCode: "null"}).handler())
	defer backend.Close()
	s, _ := newTestServer(t, backend)

	resp := getEvents(t, s, "?"+url.Values{"number_order": {"OF-2001"}}.Encode())
	if len(resp.Events) != 1 || resp.Events[0].NumberOrder != "OF-2001" {
		t.Fatalf("filtered events = %+v, want only OF-2001", resp.Events)
	}
}

func TestExecuteRequiresUserCookie(t *testing.T) {
	backend := httptest.NewServer((&fakeBackend{stateCode: "null"}).handler())
	defer backend.Close()
	s, store := newTestServer(t, backend)

	req := httptest.NewRequest(http.MethodPost, "/api/execute/1", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusPreconditionFailed {
		t.Errorf("status = %d, want 412", rec.Code)
	}
	if _, armed := store.Load(); armed {
		t.Errorf("marker armed without an identified user")
	}
}

func TestExecuteArmsWhenNotFinalized(t *testing.T) {
	backend := httptest.NewServer((&fakeBackend{stateCode: "null"}).handler())
	defer backend.Close()
	s, store := newTestServer(t, backend)

	req := httptest.NewRequest(http.MethodPost, "/api/execute/1", nil)
	req.AddCookie(&http.Cookie{Name: userCookie, Value: "maria"})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp executeResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "armed" || resp.Open != "http://exec.local/execution" {
		t.Errorf("response = %+v", resp)
	}
	m, armed := store.Load()
	if !armed || m.PlanID != 1 || m.User != "maria" {
		t.Errorf("marker = %+v armed=%v", m, armed)
	}
}

func TestExecuteFinalizedOrderDoesNotArm(t *testing.T) {
	backend := httptest.NewServer((&fakeBackend{stateCode: "300"}).handler())
	defer backend.Close()
	s, store := newTestServer(t, backend)

	req := httptest.NewRequest(http.MethodPost, "/api/execute/1", nil)
	req.AddCookie(&http.Cookie{Name: userCookie, Value: "maria"})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	var resp executeResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Estado != 300 || !strings.Contains(resp.Message, "finalizada") {
		t.Errorf("response = %+v", resp)
	}
	if _, armed := store.Load(); armed {
		t.Errorf("marker armed for a finalized order")
	}
}

func TestExecuteBackendFailureLeavesMarkerAlone(t *testing.T) {
	fb := &fakeBackend{stateCode: "null"}
	backend := httptest.NewServer(fb.handler())
	defer backend.Close()
	s, store := newTestServer(t, backend)

	prior := marker.Marker{PlanID: 42, User: "jose"}
	if err := store.Arm(prior); err != nil {
		t.Fatal(err)
	}
	fb.stateFail.Store(true)

	req := httptest.NewRequest(http.MethodPost, "/api/execute/1", nil)
	req.AddCookie(&http.Cookie{Name: userCookie, Value: "maria"})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if m, armed := store.Load(); !armed || m != prior {
		t.Errorf("marker = %+v armed=%v, want prior marker intact", m, armed)
	}
}

func TestBoardRendersWeekGrid(t *testing.T) {
	backend := httptest.NewServer((&fakeBackend{stateCode: "null"}).handler())
	defer backend.Close()
	s, _ := newTestServer(t, backend)

	req := httptest.NewRequest(http.MethodGet, "/board?week=2024-01-01", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`data-ready="true"`, "OF-1001", "OF-2001", "lunes 1"} {
		if !strings.Contains(body, want) {
			t.Errorf("board HTML missing %q", want)
		}
	}
}

func TestBoardSurvivesBackendOutage(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer backend.Close()
	s, _ := newTestServer(t, backend)

	req := httptest.NewRequest(http.MethodGet, "/board", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with error banner", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No se pudieron cargar") {
		t.Errorf("board HTML missing the outage banner")
	}
}

func TestEventDetailClientNavigation(t *testing.T) {
	backend := httptest.NewServer((&fakeBackend{stateCode: "null"}).handler())
	defer backend.Close()
	s, _ := newTestServer(t, backend)

	req := httptest.NewRequest(http.MethodGet, "/event/1", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"OF-1001", "Acme Pharma", "01/01/2024 09:00", "Ejecutar"} {
		if !strings.Contains(body, want) {
			t.Errorf("detail HTML missing %q", want)
		}
	}

	req = httptest.NewRequest(http.MethodGet, "/event/999", nil)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown event status = %d, want 404", rec.Code)
	}
}

func TestWeekICSExport(t *testing.T) {
	backend := httptest.NewServer((&fakeBackend{stateCode: "null"}).handler())
	defer backend.Close()
	s, _ := newTestServer(t, backend)

	req := httptest.NewRequest(http.MethodGet, "/week.ics?week=2024-01-01", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "BEGIN:VEVENT") || !strings.Contains(body, "SUMMARY:OF-1001") {
		t.Errorf("ics export missing events:\n%s", body)
	}
}

func TestBasicAuthExemptsHealth(t *testing.T) {
	backend := httptest.NewServer((&fakeBackend{stateCode: "null"}).handler())
	defer backend.Close()
	s, _ := newTestServer(t, backend)
	s.cfg.BasicAuth = &config.BasicAuthConfig{Username: "ops", Password: "secret"}
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/health without credentials = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("/api/events without credentials = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.SetBasicAuth("ops", "secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("/api/events with credentials = %d, want 200", rec.Code)
	}
}
