package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"ronda-app-go/internal/config"
	contratosdomain "ronda-app-go/internal/domain/contratos"
	dashboarddomain "ronda-app-go/internal/domain/dashboard"
	syncdomain "ronda-app-go/internal/domain/sync"
	"ronda-app-go/internal/repository/inmemory"
	"ronda-app-go/internal/transport/httpserver/handler"
	"ronda-app-go/pkg/logger"
)

const contratoID = "c0000000-0000-4000-8000-00000000000a"

type fakeContratosRepo struct {
	items map[string]contratosdomain.Contrato
}

func (f *fakeContratosRepo) List(ctx context.Context, filter contratosdomain.ListFilter) ([]contratosdomain.Contrato, int64, error) {
	items := make([]contratosdomain.Contrato, 0, len(f.items))
	for _, item := range f.items {
		items = append(items, item)
	}
	return items, int64(len(items)), nil
}

func (f *fakeContratosRepo) GetByID(ctx context.Context, id string) (*contratosdomain.Contrato, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, contratosdomain.ErrContratoNotFound
	}
	return &item, nil
}

func (f *fakeContratosRepo) Create(ctx context.Context, contrato *contratosdomain.Contrato) error {
	f.items[contrato.ID] = *contrato
	return nil
}

func (f *fakeContratosRepo) Update(ctx context.Context, contrato *contratosdomain.Contrato) error {
	f.items[contrato.ID] = *contrato
	return nil
}

func (f *fakeContratosRepo) SoftDelete(ctx context.Context, id string) (bool, error) {
	_, ok := f.items[id]
	delete(f.items, id)
	return ok, nil
}

type fakeSyncRepo struct {
	operations map[string]*syncdomain.OperationRecord
}

func (f *fakeSyncRepo) BeginBatch(ctx context.Context, batch *syncdomain.BatchRecord) (bool, *syncdomain.BatchRecord, error) {
	return true, nil, nil
}

func (f *fakeSyncRepo) CompleteBatch(ctx context.Context, batchID string, status syncdomain.BatchState, responseJSON []byte) error {
	return nil
}

func (f *fakeSyncRepo) ClaimFailedBatch(ctx context.Context, batchID string) (bool, error) {
	return false, nil
}

func (f *fakeSyncRepo) ReserveOperation(ctx context.Context, operation *syncdomain.OperationRecord) (bool, *syncdomain.OperationRecord, error) {
	key := operation.ContratoID + "|" + operation.OperationID
	if existing, ok := f.operations[key]; ok {
		copied := *existing
		return false, &copied, nil
	}
	copied := *operation
	f.operations[key] = &copied
	return true, nil, nil
}

func (f *fakeSyncRepo) UpdateOperation(ctx context.Context, operation *syncdomain.OperationRecord) error {
	copied := *operation
	f.operations[operation.ContratoID+"|"+operation.OperationID] = &copied
	return nil
}

func (f *fakeSyncRepo) ClaimFailedOperation(ctx context.Context, id string) (bool, error) {
	return false, nil
}

type fakeDashboardRepo struct {
	statsCalls int
}

func (f *fakeDashboardRepo) Stats(ctx context.Context, contratoID string, from, to time.Time) (dashboarddomain.Stats, error) {
	f.statsCalls++
	return dashboarddomain.Stats{Rondas: 3}, nil
}

func (f *fakeDashboardRepo) Timeseries(ctx context.Context, contratoID string, from, to time.Time, groupBy dashboarddomain.GroupBy) ([]dashboarddomain.TimeseriesPoint, error) {
	return nil, nil
}

type testServer struct {
	router    http.Handler
	dashboard *fakeDashboardRepo
}

func newTestServer(t *testing.T) testServer {
	t.Helper()

	contratos := contratosdomain.NewService(&fakeContratosRepo{items: map[string]contratosdomain.Contrato{
		contratoID: {ID: contratoID, Nome: "Edificio Aurora", Status: contratosdomain.StatusAtivo},
	}})
	dashboardRepo := &fakeDashboardRepo{}
	dashboard := dashboarddomain.NewServiceWithCache(dashboardRepo, nil, inmemory.NewDashboardCache(), dashboarddomain.Config{CacheTTL: time.Minute})
	sync := syncdomain.NewService(&fakeSyncRepo{operations: make(map[string]*syncdomain.OperationRecord)}, nil, nil)

	handlers := handler.New(contratos, nil, nil, dashboard, sync, logger.Nop())
	cfg := config.Config{Sync: config.SyncConfig{Enabled: true}}
	return testServer{router: NewRouter(cfg, handlers), dashboard: dashboardRepo}
}

func (s testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope %q: %v", rec.Body.String(), err)
	}
	return envelope.Error.Code
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestContratoPathValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/contratos/not-a-uuid", "")
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_request" {
		t.Fatalf("expected 400 invalid_request, got %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodGet, "/api/contratos/d0000000-0000-4000-8000-00000000000b", "")
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "contrato_not_found" {
		t.Fatalf("expected 404 contrato_not_found, got %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodGet, "/api/contratos/"+contratoID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestSyncBatchRequestValidation(t *testing.T) {
	srv := newTestServer(t)
	path := "/api/contratos/" + contratoID + "/sync"

	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{name: "bad json", body: `{"operations":`, status: http.StatusBadRequest, code: "invalid_json"},
		{name: "unknown field", body: `{"ops":[]}`, status: http.StatusBadRequest, code: "invalid_json"},
		{name: "empty", body: `{"operations":[]}`, status: http.StatusBadRequest, code: "invalid_request"},
		{name: "missing operation id", body: `{"operations":[{"kind":"CREATE","entity":"ronda"}]}`, status: http.StatusBadRequest, code: "invalid_request"},
	}
	for _, tc := range cases {
		rec := srv.do(t, http.MethodPost, path, tc.body)
		if rec.Code != tc.status || errorCode(t, rec) != tc.code {
			t.Fatalf("%s: expected %d %s, got %d %s", tc.name, tc.status, tc.code, rec.Code, rec.Body.String())
		}
	}

	ops := make([]string, syncdomain.MaxBatchOperations+1)
	for i := range ops {
		ops[i] = `{"operation_id":"op","kind":"DELETE","entity":"ronda","entity_id":"x"}`
	}
	rec := srv.do(t, http.MethodPost, path, `{"operations":[`+strings.Join(ops, ",")+`]}`)
	if rec.Code != http.StatusRequestEntityTooLarge || errorCode(t, rec) != "sync_batch_too_large" {
		t.Fatalf("expected 413 sync_batch_too_large, got %d", rec.Code)
	}
}

func TestSyncBatchReportsPerOperationFailure(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/contratos/"+contratoID+"/sync",
		`{"operations":[{"operation_id":"op-1","kind":"create","entity":"boleto","payload":{}}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}

	var response syncdomain.BatchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if response.Status != syncdomain.BatchStatusFailed || len(response.Results) != 1 {
		t.Fatalf("unexpected response %+v", response)
	}
	result := response.Results[0]
	if result.Kind != syncdomain.KindCreate || result.Error == nil || result.Error.Code != syncdomain.ErrorCodeUnsupportedOperation {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestDashboardCacheDroppedAfterWrite(t *testing.T) {
	srv := newTestServer(t)
	summaryPath := "/api/contratos/" + contratoID + "/dashboard?from=2024-03-01&to=2024-03-31"

	for i := 0; i < 2; i++ {
		rec := srv.do(t, http.MethodGet, summaryPath, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
		}
	}
	if srv.dashboard.statsCalls != 1 {
		t.Fatalf("expected cached summary, got %d repository calls", srv.dashboard.statsCalls)
	}

	srv.do(t, http.MethodPost, "/api/contratos/"+contratoID+"/sync",
		`{"operations":[{"operation_id":"op-1","kind":"DELETE","entity":"boleto","entity_id":"x"}]}`)

	rec := srv.do(t, http.MethodGet, summaryPath, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if srv.dashboard.statsCalls != 2 {
		t.Fatalf("expected write to drop the cached summary, got %d repository calls", srv.dashboard.statsCalls)
	}

	rec = srv.do(t, http.MethodGet, "/api/contratos/"+contratoID+"/dashboard?from=2024-03-01", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without to, got %d", rec.Code)
	}
}
