package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/saranya-muthuraj/ivrsim/internal/call"
	"github.com/saranya-muthuraj/ivrsim/internal/config"
	"github.com/saranya-muthuraj/ivrsim/internal/directory"
	"github.com/saranya-muthuraj/ivrsim/internal/ivr"
	"github.com/saranya-muthuraj/ivrsim/internal/menu"
	"github.com/saranya-muthuraj/ivrsim/internal/observability"
)

// Prometheus instruments register on the process-wide default registry,
// so every test server in this package shares one Metrics value.
var testMetrics = observability.NewMetrics("ivrsim_httptest")

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	dir := directory.NewInMemory()
	if err := directory.EnsureSeed(ctx, dir); err != nil {
		t.Fatalf("EnsureSeed() error = %v", err)
	}
	store := call.NewInMemoryStore()
	engine, err := ivr.New(menu.Airline(), store, dir, testMetrics)
	if err != nil {
		t.Fatalf("ivr.New() error = %v", err)
	}
	ts := httptest.NewServer(New(config.Config{}, engine, store, dir).Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	res, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	t.Cleanup(func() { res.Body.Close() })
	var decoded map[string]any
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return res, decoded
}

func TestRepeatedServerSetup(t *testing.T) {
	// Two setups in a row must not collide on metrics registration.
	newTestServer(t)
	newTestServer(t)
}

func TestStartAndLookupOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	res, started := postJSON(t, ts.URL+"/ivr/start", map[string]string{"caller_number": "+918888777766"})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("start status = %d, want %d", res.StatusCode, http.StatusCreated)
	}
	callID, _ := started["call_id"].(string)
	if callID == "" || started["status"] != "connected" {
		t.Fatalf("start response = %+v", started)
	}

	res, moved := postJSON(t, ts.URL+"/ivr/dtmf", map[string]string{"call_id": callID, "digit": "1"})
	if res.StatusCode != http.StatusOK || moved["current_menu"] != "flight_status_pnr" {
		t.Fatalf("dtmf 1 = %d %+v", res.StatusCode, moved)
	}

	for _, d := range strings.Split("241234", "") {
		res, _ = postJSON(t, ts.URL+"/ivr/dtmf", map[string]string{"call_id": callID, "digit": d})
		if res.StatusCode != http.StatusOK {
			t.Fatalf("dtmf %s status = %d", d, res.StatusCode)
		}
	}

	res, found := postJSON(t, ts.URL+"/ivr/dtmf", map[string]string{"call_id": callID, "digit": "#"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("submit status = %d", res.StatusCode)
	}
	if found["status"] != "pnr_found" || found["call_action"] != "hangup" {
		t.Fatalf("submit response = %+v", found)
	}

	// The ended call now rejects further turns.
	res, _ = postJSON(t, ts.URL+"/ivr/dtmf", map[string]string{"call_id": callID, "digit": "1"})
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("turn after end status = %d, want %d", res.StatusCode, http.StatusConflict)
	}
}

func TestVoiceTurnOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	_, started := postJSON(t, ts.URL+"/ivr/start", map[string]string{})
	callID, _ := started["call_id"].(string)

	res, moved := postJSON(t, ts.URL+"/ivr/voice", map[string]string{"call_id": callID, "text": "I want to manage my booking"})
	if res.StatusCode != http.StatusOK || moved["current_menu"] != "manage_booking_pnr" {
		t.Fatalf("voice = %d %+v", res.StatusCode, moved)
	}

	// A voice turn carries current_menu like a dtmf turn does.
	res, found := postJSON(t, ts.URL+"/ivr/voice", map[string]string{"call_id": callID, "text": "my pnr is AI1234", "current_menu": "flight_status_pnr"})
	if res.StatusCode != http.StatusOK || found["status"] != "pnr_found" {
		t.Fatalf("claimed-menu voice = %d %+v", res.StatusCode, found)
	}
}

func TestEndIsIdempotentOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	_, started := postJSON(t, ts.URL+"/ivr/start", map[string]string{})
	callID, _ := started["call_id"].(string)

	res, ended := postJSON(t, ts.URL+"/ivr/end", map[string]string{"call_id": callID})
	if res.StatusCode != http.StatusOK || ended["status"] != "call_ended" {
		t.Fatalf("end = %d %+v", res.StatusCode, ended)
	}

	res, again := postJSON(t, ts.URL+"/ivr/end", map[string]string{"call_id": callID})
	if res.StatusCode != http.StatusOK || again["status"] != "call_ended" {
		t.Fatalf("second end = %d %+v", res.StatusCode, again)
	}
}

func TestUnknownCallIs404(t *testing.T) {
	ts := newTestServer(t)
	res, _ := postJSON(t, ts.URL+"/ivr/dtmf", map[string]string{"call_id": "nope", "digit": "1"})
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusNotFound)
	}
}

func TestHealthAndIndex(t *testing.T) {
	ts := newTestServer(t)

	res, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", res.StatusCode)
	}

	idx, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	defer idx.Body.Close()
	var payload map[string]any
	if err := json.NewDecoder(idx.Body).Decode(&payload); err != nil {
		t.Fatalf("decode index: %v", err)
	}
	if payload["store_mode"] != "in-memory" {
		t.Fatalf("store_mode = %v, want in-memory", payload["store_mode"])
	}
	if payload["reservations"] != float64(7) {
		t.Fatalf("reservations = %v, want 7", payload["reservations"])
	}
}
