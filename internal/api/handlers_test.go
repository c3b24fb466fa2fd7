// Ratewise - Hotel Dynamic Room-Rate Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratewise

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ratewise/internal/analytics"
	"github.com/tomtom215/ratewise/internal/calendar"
	"github.com/tomtom215/ratewise/internal/catalog"
	"github.com/tomtom215/ratewise/internal/factors"
	"github.com/tomtom215/ratewise/internal/history"
	"github.com/tomtom215/ratewise/internal/logging"
	"github.com/tomtom215/ratewise/internal/model"
	"github.com/tomtom215/ratewise/internal/pricing"
)

// stubModel implements ModelService.
type stubModel struct {
	mu       sync.Mutex
	training bool
	ready    bool
	trainErr error
	trained  chan struct{}
}

func newStubModel() *stubModel {
	return &stubModel{ready: true, trained: make(chan struct{}, 4)}
}

func (m *stubModel) Status() model.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.Status{Trained: m.ready, Version: 1, Training: m.training}
}

func (m *stubModel) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

func (m *stubModel) Train(_ context.Context) (model.Metadata, error) {
	m.trained <- struct{}{}
	return model.Metadata{Version: 2}, m.trainErr
}

func (m *stubModel) setTraining(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.training = v
}

type stubBreaker struct{}

func (stubBreaker) State() string { return "closed" }

type testEnv struct {
	server  http.Handler
	handler *Handler
	store   *history.MemoryStore
	model   *stubModel
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := history.NewMemoryStore()
	cal := calendar.New(calendar.StaticHolidays{
		"2024-12-25": {catalog.Christmas},
	})
	calc := factors.NewCalculator(cal, history.NewObservationSource(store), logging.Nop())
	stub := newStubModel()

	h := NewHandler(context.Background(), Deps{
		Resolver:   pricing.NewResolver(calc, store, nil, logging.Nop()),
		Quoter:     pricing.NewQuoter(calc),
		Calculator: calc,
		Store:      store,
		Analytics:  analytics.NewService(store, nil, 30, logging.Nop()),
		Model:      stub,
		Breaker:    stubBreaker{},
	}, Options{
		Backend:            "memory",
		Version:            "test",
		UseHistory:         true,
		RetrainMinInterval: time.Hour,
	}, logging.Nop())

	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	return &testEnv{
		server:  NewRouter(h, NewChiMiddleware(cfg)).SetupChi(),
		handler: h,
		store:   store,
		model:   stub,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.server.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode response %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func TestDailyRates(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodPost, "/api/v1/rates/daily", `{
		"room_type": "deluxe",
		"rate_type": "CP",
		"start_date": "2025-03-10T00:00:00Z",
		"base_rates": [100, 100, 100],
		"custom_multipliers": [1.5]
	}`)
	if code != http.StatusOK || !resp.Success {
		t.Fatalf("status = %d, error = %+v", code, resp.Error)
	}

	var result pricing.Result
	decodeData(t, resp, &result)
	if result.TotalDays != 3 || len(result.Predictions) != 3 {
		t.Fatalf("total_days = %d, predictions = %d", result.TotalDays, len(result.Predictions))
	}
	first := result.Predictions[0]
	if first.Date != "2025-03-10" || first.Source != pricing.SourceCustom || first.DynamicRate != 150 {
		t.Errorf("first day = %+v", first)
	}
	if result.Room != catalog.RoomDeluxe {
		t.Errorf("room = %q, want Deluxe", result.Room)
	}
	if result.Predictions[1].Source != pricing.SourceFactors {
		t.Errorf("second day source = %q", result.Predictions[1].Source)
	}
}

func TestDailyRatesEmptyBatch(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodPost, "/api/v1/rates/daily",
		`{"room_type":"Suite","rate_type":"EP","start_date":"2025-03-10","base_rates":[]}`)
	if code != http.StatusOK {
		t.Fatalf("status = %d, error = %+v", code, resp.Error)
	}
	var result pricing.Result
	decodeData(t, resp, &result)
	if result.TotalDays != 0 || result.Summary.AverageMultiplier != 1.0 {
		t.Errorf("result = %+v", result)
	}
}

func TestDailyRatesRejectsBadInput(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"room_type":`, ErrCodeBadRequest},
		{"empty body", ``, ErrCodeBadRequest},
		{"missing room", `{"rate_type":"CP","start_date":"2025-03-10","base_rates":[100]}`, ErrCodeValidation},
		{"unknown room", `{"room_type":"Penthouse","rate_type":"CP","start_date":"2025-03-10","base_rates":[100]}`, ErrCodeValidation},
		{"unknown plan", `{"room_type":"Suite","rate_type":"XX","start_date":"2025-03-10","base_rates":[100]}`, ErrCodeValidation},
		{"missing base rates", `{"room_type":"Suite","rate_type":"CP","start_date":"2025-03-10"}`, ErrCodeValidation},
		{"zero base rate", `{"room_type":"Suite","rate_type":"CP","start_date":"2025-03-10","base_rates":[100,0]}`, ErrCodeValidation},
		{"custom out of range", `{"room_type":"Suite","rate_type":"CP","start_date":"2025-03-10","base_rates":[100],"custom_multipliers":[20]}`, ErrCodeValidation},
		{"bad start date", `{"room_type":"Suite","rate_type":"CP","start_date":"03/10/2025","base_rates":[100]}`, ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, resp := env.do(t, http.MethodPost, "/api/v1/rates/daily", tt.body)
			if code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", code)
			}
			if resp.Success || resp.Error == nil || resp.Error.Code != tt.code {
				t.Errorf("error = %+v, want code %s", resp.Error, tt.code)
			}
		})
	}
}

func TestQuote(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodPost, "/api/v1/rates/quote", `{
		"room_type": "Suite",
		"rate_type": "MAP",
		"check_in": "2025-03-11",
		"check_out": "2025-03-14",
		"num_rooms": 2,
		"booking_date": "2025-03-01"
	}`)
	if code != http.StatusOK {
		t.Fatalf("status = %d, error = %+v", code, resp.Error)
	}
	var q pricing.Quote
	decodeData(t, resp, &q)
	if q.Nights != 3 || q.Rooms != 2 || q.LeadDays != 10 || len(q.NightlyRates) != 3 {
		t.Errorf("quote = %+v", q)
	}

	code, resp = env.do(t, http.MethodPost, "/api/v1/rates/quote",
		`{"room_type":"Suite","rate_type":"MAP","check_in":"2025-03-14","check_out":"2025-03-11"}`)
	if code != http.StatusBadRequest || resp.Error.Code != ErrCodeValidation {
		t.Errorf("inverted stay: status = %d, error = %+v", code, resp.Error)
	}
}

func TestOccupancyRecordAndRead(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tests := []struct {
		name   string
		body   string
		status int
		want   float64
	}{
		{"percentage", `{"date":"2025-03-10","occupancy_percentage":82.5}`, http.StatusCreated, 82.5},
		{"derived from counts", `{"date":"2025-03-11","total_rooms":60,"occupied_rooms":45}`, http.StatusCreated, 75},
		{"nothing usable", `{"date":"2025-03-12"}`, http.StatusBadRequest, 0},
		{"occupied exceeds total", `{"date":"2025-03-12","total_rooms":10,"occupied_rooms":11}`, http.StatusBadRequest, 0},
		{"percentage out of range", `{"date":"2025-03-12","occupancy_percentage":120}`, http.StatusBadRequest, 0},
		{"bad date", `{"date":"2025-3-12","occupancy_percentage":50}`, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		code, resp := env.do(t, http.MethodPost, "/api/v1/occupancy", tt.body)
		if code != tt.status {
			t.Errorf("%s: status = %d, want %d (%+v)", tt.name, code, tt.status, resp.Error)
			continue
		}
		if code != http.StatusCreated {
			continue
		}
		var got struct {
			Percentage float64 `json:"occupancy_percentage"`
		}
		decodeData(t, resp, &got)
		if got.Percentage != tt.want {
			t.Errorf("%s: percentage = %v, want %v", tt.name, got.Percentage, tt.want)
		}
	}

	code, resp := env.do(t, http.MethodGet, "/api/v1/occupancy/2025-03-11", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var detail struct {
		Occupancy factors.OccupancyDetail `json:"occupancy"`
	}
	decodeData(t, resp, &detail)
	if detail.Occupancy.Source != factors.SourceActual || detail.Occupancy.Percentage != 75 {
		t.Errorf("occupancy = %+v", detail.Occupancy)
	}

	_, resp = env.do(t, http.MethodGet, "/api/v1/occupancy/2025-03-20", "")
	decodeData(t, resp, &detail)
	if detail.Occupancy.Source != factors.SourcePredicted || detail.Occupancy.Factors == nil {
		t.Errorf("estimated occupancy = %+v", detail.Occupancy)
	}

	code, _ = env.do(t, http.MethodGet, "/api/v1/occupancy/not-a-date", "")
	if code != http.StatusBadRequest {
		t.Errorf("bad date status = %d", code)
	}
}

func TestOccasions(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodGet, "/api/v1/occasions/2024-12-25", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var got struct {
		Occasions    []catalog.Occasion `json:"occasions"`
		DemandFactor float64            `json:"demand_factor"`
	}
	decodeData(t, resp, &got)

	found := false
	for _, o := range got.Occasions {
		if o == catalog.Christmas {
			found = true
		}
	}
	if !found {
		t.Errorf("occasions = %v, want Christmas", got.Occasions)
	}
	if got.DemandFactor <= 1.0 {
		t.Errorf("demand factor = %v, want > 1", got.DemandFactor)
	}
}

func TestMultipliers(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodPost, "/api/v1/multipliers",
		`{"date":"2025-03-10","room_type":"Deluxe","rate_type":"CP","multiplier":1.8}`)
	if code != http.StatusCreated {
		t.Fatalf("status = %d, error = %+v", code, resp.Error)
	}
	var rec history.MultiplierRecord
	decodeData(t, resp, &rec)
	if rec.BaseRate != defaultCustomBaseRate || rec.DynamicRate != 180 {
		t.Errorf("record = %+v", rec)
	}

	env.do(t, http.MethodPost, "/api/v1/multipliers",
		`{"date":"2025-03-12","room_type":"Suite","rate_type":"EP","multiplier":0.9,"base_rate":250}`)

	code, resp = env.do(t, http.MethodGet, "/api/v1/multipliers?room_type=Deluxe", "")
	if code != http.StatusOK {
		t.Fatalf("list status = %d", code)
	}
	var records []history.MultiplierRecord
	decodeData(t, resp, &records)
	if len(records) != 1 || records[0].Room != catalog.RoomDeluxe {
		t.Errorf("records = %+v", records)
	}
	if resp.Meta == nil || resp.Meta.Count == nil || *resp.Meta.Count != 1 {
		t.Errorf("meta = %+v", resp.Meta)
	}

	_, resp = env.do(t, http.MethodGet, "/api/v1/multipliers", "")
	decodeData(t, resp, &records)
	if len(records) != 2 || calendar.FormatDate(records[0].Date) != "2025-03-12" {
		t.Errorf("expected newest first, got %+v", records)
	}

	for _, path := range []string{
		"/api/v1/multipliers?limit=5000",
		"/api/v1/multipliers?room_type=Penthouse",
		"/api/v1/multipliers?start_date=yesterday",
	} {
		if code, _ := env.do(t, http.MethodGet, path, ""); code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, code)
		}
	}

	code, _ = env.do(t, http.MethodPost, "/api/v1/multipliers",
		`{"date":"2025-03-10","room_type":"Deluxe","rate_type":"CP","multiplier":12}`)
	if code != http.StatusBadRequest {
		t.Errorf("out of range multiplier status = %d", code)
	}
}

func TestRevenue(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/v1/multipliers",
		`{"date":"2025-03-10","room_type":"Deluxe","rate_type":"CP","multiplier":1.5}`)

	code, resp := env.do(t, http.MethodGet, "/api/v1/analytics/revenue?start_date=2025-03-01&end_date=2025-03-31", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d, error = %+v", code, resp.Error)
	}
	var report analytics.Revenue
	decodeData(t, resp, &report)
	if report.Summary.TotalDays != 1 || report.Range.Start != "2025-03-01" {
		t.Errorf("report = %+v", report)
	}

	code, _ = env.do(t, http.MethodGet, "/api/v1/analytics/revenue?start_date=2025-04-01&end_date=2025-03-01", "")
	if code != http.StatusBadRequest {
		t.Errorf("inverted range status = %d", code)
	}
}

func TestModelStatus(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodGet, "/api/v1/model", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var status ModelStatus
	decodeData(t, resp, &status)
	if !status.Trained || status.BreakerState != "closed" {
		t.Errorf("status = %+v", status)
	}
}

func TestRetrain(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	code, _ := env.do(t, http.MethodPost, "/api/v1/model/retrain", "")
	if code != http.StatusAccepted {
		t.Fatalf("first trigger status = %d, want 202", code)
	}
	select {
	case <-env.model.trained:
	case <-time.After(5 * time.Second):
		t.Fatal("training did not start")
	}
	env.handler.Wait()

	code, resp := env.do(t, http.MethodPost, "/api/v1/model/retrain", "")
	if code != http.StatusTooManyRequests || resp.Error.Code != ErrCodeRateLimited {
		t.Errorf("throttled trigger: status = %d, error = %+v", code, resp.Error)
	}

	env.model.setTraining(true)
	code, resp = env.do(t, http.MethodPost, "/api/v1/model/retrain", "")
	if code != http.StatusConflict || resp.Error.Code != ErrCodeConflict {
		t.Errorf("concurrent trigger: status = %d, error = %+v", code, resp.Error)
	}
}

func TestRetrainFailureIsLogged(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.model.trainErr = errors.New("boom")

	code, _ := env.do(t, http.MethodPost, "/api/v1/model/retrain", "")
	if code != http.StatusAccepted {
		t.Fatalf("status = %d", code)
	}
	env.handler.Wait()
}

func TestHealth(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodGet, "/api/v1/health", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var health HealthStatus
	decodeData(t, resp, &health)
	if health.Status != "healthy" || !health.DatabaseInitialized || !health.ModelLoaded || health.Backend != "memory" {
		t.Errorf("health = %+v", health)
	}

	if err := env.store.Close(); err != nil {
		t.Fatal(err)
	}
	_, resp = env.do(t, http.MethodGet, "/api/v1/health", "")
	decodeData(t, resp, &health)
	if health.Status != "degraded" || health.DatabaseInitialized {
		t.Errorf("health after close = %+v", health)
	}
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodGet, "/api/v1/nope", "")
	if code != http.StatusNotFound || resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("status = %d, error = %+v", code, resp.Error)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}
