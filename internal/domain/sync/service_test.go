package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	stdsync "sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	agendadomain "ronda-app-go/internal/domain/agenda"
	rondasdomain "ronda-app-go/internal/domain/rondas"
	"ronda-app-go/pkg/logger"
)

const (
	contratoID = "c0000000-0000-4000-8000-00000000000a"
	rondaID    = "6f1c2d3e-4a5b-4c6d-8e7f-0123456789ab"
)

func TestProcessBatchDuplicateOperationID(t *testing.T) {
	svc, _, rondas, _ := newTestService()

	input := BatchInput{
		ContratoID: contratoID,
		Operations: []OperationInput{
			createRondaOp("11111111-1111-4111-8111-111111111111", rondaID, `{"nome":"Ronda Teste","data":"2024-03-10"}`),
		},
	}

	first, err := svc.ProcessBatch(context.Background(), input)
	if err != nil {
		t.Fatalf("first process failed: %v", err)
	}
	if first.Results[0].Status != ResultStatusApplied {
		t.Fatalf("expected first status applied, got %s", first.Results[0].Status)
	}
	if got := first.Results[0].EntityID; got == nil || *got != rondaID {
		t.Fatalf("expected entity id %s, got %v", rondaID, got)
	}

	second, err := svc.ProcessBatch(context.Background(), input)
	if err != nil {
		t.Fatalf("second process failed: %v", err)
	}
	if second.Results[0].Status != ResultStatusDuplicate {
		t.Fatalf("expected second status duplicate, got %s", second.Results[0].Status)
	}
	if rondas.createCalls != 1 {
		t.Fatalf("expected 1 ronda create call, got %d", rondas.createCalls)
	}
	if second.Status != BatchStatusSuccess {
		t.Fatalf("duplicates must not fail the batch, got %s", second.Status)
	}
}

func TestProcessBatchRepeatWithIdempotencyKeyReturnsCachedResponse(t *testing.T) {
	svc, _, rondas, _ := newTestService()

	input := BatchInput{
		ContratoID:     contratoID,
		IdempotencyKey: "batch-key-123456",
		Operations: []OperationInput{
			createRondaOp("22222222-2222-4222-8222-222222222222", rondaID, `{"nome":"Ronda Teste","data":"2024-03-10"}`),
		},
	}

	first, err := svc.ProcessBatch(context.Background(), input)
	if err != nil {
		t.Fatalf("first process failed: %v", err)
	}
	second, err := svc.ProcessBatch(context.Background(), input)
	if err != nil {
		t.Fatalf("second process failed: %v", err)
	}

	if first.SyncID != second.SyncID {
		t.Fatalf("expected same sync_id for replay, got %s and %s", first.SyncID, second.SyncID)
	}
	if second.Results[0].Status != ResultStatusApplied {
		t.Fatalf("expected cached applied result, got %s", second.Results[0].Status)
	}
	if rondas.createCalls != 1 {
		t.Fatalf("expected single create call, got %d", rondas.createCalls)
	}

	input.Operations[0].Payload = json.RawMessage(`{"nome":"Outra","data":"2024-03-10"}`)
	if _, err := svc.ProcessBatch(context.Background(), input); !errors.Is(err, ErrIdempotencyKeyReused) {
		t.Fatalf("expected ErrIdempotencyKeyReused, got %v", err)
	}
}

func TestProcessBatchKeyReusableAfterResponseNotStored(t *testing.T) {
	repo := newFakeSyncRepo()
	repo.failCompletes = 1
	rondas := newFakeRondasService()
	var logs bytes.Buffer
	svc := NewService(repo, rondas, &fakeAgendaService{},
		WithLogger(logger.New(logger.Options{Output: &logs, Level: slog.LevelDebug})))

	input := BatchInput{
		ContratoID:     contratoID,
		IdempotencyKey: "batch-key-retry",
		Operations: []OperationInput{
			createRondaOp("44444444-4444-4444-8444-444444444444", rondaID, `{"nome":"Ronda Teste","data":"2024-03-10"}`),
		},
	}

	first, err := svc.ProcessBatch(context.Background(), input)
	if err != nil {
		t.Fatalf("first process failed: %v", err)
	}
	if first.Results[0].Status != ResultStatusApplied {
		t.Fatalf("expected applied, got %s", first.Results[0].Status)
	}
	if got := repo.batchStatus(first.SyncID); got != BatchStateFailed {
		t.Fatalf("expected failed batch, got %s", got)
	}
	if !strings.Contains(logs.String(), "sync.batch: store response failed") {
		t.Fatalf("expected the storage failure to be logged, got %s", logs.String())
	}

	second, err := svc.ProcessBatch(context.Background(), input)
	if err != nil {
		t.Fatalf("retry with the same key must not stay in progress: %v", err)
	}
	if second.SyncID != first.SyncID {
		t.Fatalf("expected the retried batch to keep sync_id %s, got %s", first.SyncID, second.SyncID)
	}
	if second.Results[0].Status != ResultStatusDuplicate {
		t.Fatalf("expected duplicate on retry, got %s", second.Results[0].Status)
	}
	if rondas.createCalls != 1 {
		t.Fatalf("expected single create call, got %d", rondas.createCalls)
	}
	if got := repo.batchStatus(first.SyncID); got != BatchStateCompleted {
		t.Fatalf("expected completed batch, got %s", got)
	}

	third, err := svc.ProcessBatch(context.Background(), input)
	if err != nil {
		t.Fatalf("cached replay failed: %v", err)
	}
	if third.Results[0].Status != ResultStatusDuplicate || third.SyncID != first.SyncID {
		t.Fatalf("expected the stored retry response, got %+v", third)
	}
}

func TestProcessBatchPartialFail(t *testing.T) {
	svc, _, _, _ := newTestService()

	input := BatchInput{
		ContratoID: contratoID,
		Operations: []OperationInput{
			createRondaOp("33333333-3333-4333-8333-333333333333", rondaID, `{"nome":"Ronda Teste","data":"2024-03-10"}`),
			{
				OperationID: "44444444-4444-4444-8444-444444444444",
				Kind:        KindUpdate,
				Entity:      EntityAreaTecnica,
				EntityID:    "missing-area",
				Payload:     json.RawMessage(`{"status":"ATENCAO"}`),
			},
		},
	}

	response, err := svc.ProcessBatch(context.Background(), input)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if response.Status != BatchStatusPartialSuccess {
		t.Fatalf("expected partial_success, got %s", response.Status)
	}
	if response.Summary.Applied != 1 || response.Summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", response.Summary)
	}

	second := response.Results[1]
	if second.Error == nil || second.Error.Code != ErrorCodeNotFound || second.Error.Retryable {
		t.Fatalf("expected non-retryable not_found error, got %+v", second.Error)
	}
}

func TestProcessBatchParallelSameOperationID(t *testing.T) {
	svc, _, rondas, _ := newTestService()
	rondas.createDelay = 40 * time.Millisecond

	input := BatchInput{
		ContratoID: contratoID,
		Operations: []OperationInput{
			createRondaOp("55555555-5555-4555-8555-555555555555", rondaID, `{"nome":"Race","data":"2024-03-10"}`),
		},
	}

	var wg stdsync.WaitGroup
	wg.Add(2)

	responses := make([]*BatchResponse, 2)
	errs := make([]error, 2)

	for i := 0; i < 2; i++ {
		idx := i
		go func() {
			defer wg.Done()
			responses[idx], errs[idx] = svc.ProcessBatch(context.Background(), input)
		}()
	}
	wg.Wait()

	for i := range errs {
		if errs[i] != nil {
			t.Fatalf("request %d failed: %v", i, errs[i])
		}
	}

	if rondas.createCalls != 1 {
		t.Fatalf("expected exactly one create call, got %d", rondas.createCalls)
	}

	applied := 0
	other := 0
	for _, response := range responses {
		if response.Results[0].Status == ResultStatusApplied {
			applied++
		} else {
			other++
		}
	}
	if applied != 1 || other != 1 {
		t.Fatalf("expected one applied and one non-applied result, got %d and %d", applied, other)
	}
}

func TestProcessBatchCreateReplayWithNewOperationIDIsDuplicate(t *testing.T) {
	svc, _, rondas, _ := newTestService()
	ctx := context.Background()

	payload := `{"nome":"Ronda Teste","data":"2024-03-10"}`
	if _, err := svc.ProcessBatch(ctx, BatchInput{ContratoID: contratoID, Operations: []OperationInput{
		createRondaOp("66666666-6666-4666-8666-666666666666", rondaID, payload),
	}}); err != nil {
		t.Fatalf("first process failed: %v", err)
	}

	response, err := svc.ProcessBatch(ctx, BatchInput{ContratoID: contratoID, Operations: []OperationInput{
		createRondaOp("77777777-7777-4777-8777-777777777777", rondaID, payload),
	}})
	if err != nil {
		t.Fatalf("second process failed: %v", err)
	}
	if response.Results[0].Status != ResultStatusDuplicate {
		t.Fatalf("expected duplicate for existing id, got %s", response.Results[0].Status)
	}
	if rondas.createCalls != 2 {
		t.Fatalf("expected the service to be asked twice, got %d", rondas.createCalls)
	}
}

func TestProcessBatchDeleteMissingIsApplied(t *testing.T) {
	svc, _, _, _ := newTestService()

	response, err := svc.ProcessBatch(context.Background(), BatchInput{
		ContratoID: contratoID,
		Operations: []OperationInput{{
			OperationID: "88888888-8888-4888-8888-888888888888",
			Kind:        KindDelete,
			Entity:      EntityRonda,
			EntityID:    rondaID,
		}},
	})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if response.Results[0].Status != ResultStatusApplied {
		t.Fatalf("expected delete of a missing ronda to apply, got %+v", response.Results[0])
	}
}

func TestProcessBatchClassifiesClientErrors(t *testing.T) {
	svc, _, _, _ := newTestService()

	response, err := svc.ProcessBatch(context.Background(), BatchInput{
		ContratoID: contratoID,
		Operations: []OperationInput{
			createRondaOp("99999999-9999-4999-8999-999999999991", "", `{"nome":`),
			createRondaOp("99999999-9999-4999-8999-999999999992", "", `{"nome":""}`),
			{OperationID: "99999999-9999-4999-8999-999999999993", Kind: KindCreate, Entity: "laudo"},
			{OperationID: "99999999-9999-4999-8999-999999999994", Kind: KindUpdate, Entity: EntityRonda, Payload: json.RawMessage(`{"nome":"x"}`)},
			{OperationID: "", Kind: KindCreate, Entity: EntityRonda},
		},
	})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if response.Status != BatchStatusFailed {
		t.Fatalf("expected failed batch, got %s", response.Status)
	}

	want := []ErrorCode{
		ErrorCodeInvalidJSON,
		ErrorCodeInvalidPayload,
		ErrorCodeUnsupportedOperation,
		ErrorCodeInvalidRequest,
		ErrorCodeInvalidRequest,
	}
	for i, code := range want {
		result := response.Results[i]
		if result.Error == nil || result.Error.Code != code {
			t.Fatalf("result %d: expected %s, got %+v", i, code, result.Error)
		}
		if result.Error.Retryable {
			t.Fatalf("result %d: client errors must not be retryable", i)
		}
	}
}

func TestProcessBatchInternalErrorIsRetryableAndRemembered(t *testing.T) {
	svc, _, rondas, _ := newTestService()
	rondas.createErr = errors.New("connection reset")

	input := BatchInput{
		ContratoID: contratoID,
		Operations: []OperationInput{
			createRondaOp("aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa", rondaID, `{"nome":"Ronda Teste","data":"2024-03-10"}`),
		},
	}

	first, err := svc.ProcessBatch(context.Background(), input)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if first.Results[0].Error == nil || !first.Results[0].Error.Retryable {
		t.Fatalf("expected retryable internal error, got %+v", first.Results[0])
	}

	rondas.createErr = nil
	second, err := svc.ProcessBatch(context.Background(), input)
	if err != nil {
		t.Fatalf("second process failed: %v", err)
	}
	if second.Results[0].Status != ResultStatusApplied {
		t.Fatalf("expected retryable failure to be applied on replay, got %+v", second.Results[0])
	}
	if rondas.createCalls != 2 {
		t.Fatalf("expected two create attempts, got %d", rondas.createCalls)
	}

	third, err := svc.ProcessBatch(context.Background(), input)
	if err != nil {
		t.Fatalf("third process failed: %v", err)
	}
	if third.Results[0].Status != ResultStatusDuplicate {
		t.Fatalf("expected duplicate after success, got %+v", third.Results[0])
	}
}

func TestProcessBatchPermanentFailureIsRemembered(t *testing.T) {
	svc, _, rondas, _ := newTestService()

	input := BatchInput{
		ContratoID: contratoID,
		Operations: []OperationInput{
			createRondaOp("ffffffff-ffff-4fff-8fff-ffffffffffff", rondaID, `{"nome":""}`),
		},
	}
	for i := 0; i < 2; i++ {
		response, err := svc.ProcessBatch(context.Background(), input)
		if err != nil {
			t.Fatalf("process %d failed: %v", i, err)
		}
		if response.Results[0].Error == nil || response.Results[0].Error.Code != ErrorCodeInvalidPayload {
			t.Fatalf("process %d: expected invalid_payload, got %+v", i, response.Results[0])
		}
	}
	if rondas.createCalls != 1 {
		t.Fatalf("permanent failures must not be re-applied, got %d calls", rondas.createCalls)
	}
}

func TestProcessBatchOperationPayloadMismatch(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	op := createRondaOp("bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb", rondaID, `{"nome":"Ronda Teste","data":"2024-03-10"}`)
	if _, err := svc.ProcessBatch(ctx, BatchInput{ContratoID: contratoID, Operations: []OperationInput{op}}); err != nil {
		t.Fatalf("first process failed: %v", err)
	}

	op.Payload = json.RawMessage(`{"nome":"Outra","data":"2024-03-10"}`)
	response, err := svc.ProcessBatch(ctx, BatchInput{ContratoID: contratoID, Operations: []OperationInput{op}})
	if err != nil {
		t.Fatalf("second process failed: %v", err)
	}
	if response.Results[0].Error == nil || response.Results[0].Error.Code != ErrorCodeOperationPayloadMismatch {
		t.Fatalf("expected payload mismatch, got %+v", response.Results[0])
	}

	op.Payload = json.RawMessage("{ \"nome\": \"Ronda Teste\",\n \"data\": \"2024-03-10\" }")
	response, err = svc.ProcessBatch(ctx, BatchInput{ContratoID: contratoID, Operations: []OperationInput{op}})
	if err != nil {
		t.Fatalf("third process failed: %v", err)
	}
	if response.Results[0].Status != ResultStatusDuplicate {
		t.Fatalf("whitespace must not change the payload hash, got %+v", response.Results[0])
	}
}

func TestProcessBatchAgendaAndAreaRouting(t *testing.T) {
	svc, _, rondas, agenda := newTestService()

	response, err := svc.ProcessBatch(context.Background(), BatchInput{
		ContratoID: contratoID,
		Operations: []OperationInput{
			createRondaOp("cccccccc-cccc-4ccc-8ccc-cccccccccccc", rondaID, `{"nome":"Ronda Teste","data":"2024-03-10"}`),
			{
				OperationID: "dddddddd-dddd-4ddd-8ddd-dddddddddddd",
				Kind:        KindCreate,
				Entity:      EntityAreaTecnica,
				Payload:     json.RawMessage(fmt.Sprintf(`{"ronda_id":%q,"nome":"Bombas","status":"ATIVO"}`, rondaID)),
			},
			{
				OperationID: "eeeeeeee-eeee-4eee-8eee-eeeeeeeeeeee",
				Kind:        KindCreate,
				Entity:      EntityAgendaItem,
				Payload:     json.RawMessage(`{"titulo":"Leitura","data":"2024-03-11","recurrence":{"type":"weekly","week_days":[1,4]}}`),
			},
		},
	})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if response.Status != BatchStatusSuccess {
		t.Fatalf("expected success, got %+v", response.Results)
	}
	if len(rondas.areas) != 1 || rondas.areas[0].RondaID != rondaID {
		t.Fatalf("expected area routed to ronda %s, got %+v", rondaID, rondas.areas)
	}
	if len(agenda.created) != 1 {
		t.Fatalf("expected one agenda create, got %d", len(agenda.created))
	}
	rec := agenda.created[0].Recurrence
	if rec == nil || rec.Type != "WEEKLY" || len(rec.WeekDays) != 2 {
		t.Fatalf("unexpected recurrence: %+v", rec)
	}
}

func TestProcessBatchLimits(t *testing.T) {
	svc, _, _, _ := newTestService()

	if _, err := svc.ProcessBatch(context.Background(), BatchInput{ContratoID: contratoID}); !errors.Is(err, ErrNoOperations) {
		t.Fatalf("expected ErrNoOperations, got %v", err)
	}

	ops := make([]OperationInput, MaxBatchOperations+1)
	if _, err := svc.ProcessBatch(context.Background(), BatchInput{ContratoID: contratoID, Operations: ops}); !errors.Is(err, ErrBatchTooLarge) {
		t.Fatalf("expected ErrBatchTooLarge, got %v", err)
	}
}

func createRondaOp(operationID, entityID, payload string) OperationInput {
	return OperationInput{
		OperationID: operationID,
		Kind:        KindCreate,
		Entity:      EntityRonda,
		EntityID:    entityID,
		Payload:     json.RawMessage(payload),
	}
}

func newTestService() (*Service, *fakeSyncRepo, *fakeRondasService, *fakeAgendaService) {
	repo := newFakeSyncRepo()
	rondas := newFakeRondasService()
	agenda := &fakeAgendaService{}
	return NewService(repo, rondas, agenda), repo, rondas, agenda
}

type fakeSyncRepo struct {
	mu stdsync.Mutex

	batchesByID  map[string]BatchRecord
	batchesByKey map[string]string

	operationsByID  map[string]OperationRecord
	operationsByKey map[string]string

	// failCompletes makes that many CompleteBatch(completed) calls fail.
	failCompletes int
}

func newFakeSyncRepo() *fakeSyncRepo {
	return &fakeSyncRepo{
		batchesByID:     make(map[string]BatchRecord),
		batchesByKey:    make(map[string]string),
		operationsByID:  make(map[string]OperationRecord),
		operationsByKey: make(map[string]string),
	}
}

func (r *fakeSyncRepo) BeginBatch(_ context.Context, batch *BatchRecord) (bool, *BatchRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if batch.IdempotencyKey == nil {
		r.batchesByID[batch.ID] = *batch
		return true, nil, nil
	}

	key := batch.ContratoID + "|" + *batch.IdempotencyKey
	if id, ok := r.batchesByKey[key]; ok {
		existing := r.batchesByID[id]
		return false, &existing, nil
	}

	r.batchesByID[batch.ID] = *batch
	r.batchesByKey[key] = batch.ID
	return true, nil, nil
}

func (r *fakeSyncRepo) CompleteBatch(_ context.Context, batchID string, status BatchState, responseJSON []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if status == BatchStateCompleted && r.failCompletes > 0 {
		r.failCompletes--
		return errors.New("connection reset")
	}
	record, ok := r.batchesByID[batchID]
	if !ok {
		return nil
	}
	record.Status = status
	record.ResponseJSON = append([]byte{}, responseJSON...)
	r.batchesByID[batchID] = record
	return nil
}

func (r *fakeSyncRepo) ClaimFailedBatch(_ context.Context, batchID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.batchesByID[batchID]
	if !ok || record.Status != BatchStateFailed {
		return false, nil
	}
	record.Status = BatchStateProcessing
	r.batchesByID[batchID] = record
	return true, nil
}

func (r *fakeSyncRepo) batchStatus(batchID string) BatchState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batchesByID[batchID].Status
}

func (r *fakeSyncRepo) ReserveOperation(_ context.Context, operation *OperationRecord) (bool, *OperationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := operation.ContratoID + "|" + operation.OperationID
	if id, ok := r.operationsByKey[key]; ok {
		existing := r.operationsByID[id]
		return false, &existing, nil
	}

	r.operationsByID[operation.ID] = *operation
	r.operationsByKey[key] = operation.ID
	return true, nil, nil
}

func (r *fakeSyncRepo) UpdateOperation(_ context.Context, operation *OperationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.operationsByID[operation.ID]; !ok {
		return nil
	}
	r.operationsByID[operation.ID] = *operation
	return nil
}

func (r *fakeSyncRepo) ClaimFailedOperation(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.operationsByID[id]
	if !ok || record.Status != OperationStateFailed {
		return false, nil
	}
	record.Status = OperationStatePending
	r.operationsByID[id] = record
	return true, nil
}

type fakeRondasService struct {
	mu stdsync.Mutex

	createCalls int
	createDelay time.Duration
	createErr   error

	rondas map[string]rondasdomain.Ronda
	areas  []rondasdomain.AreaTecnica
}

func newFakeRondasService() *fakeRondasService {
	return &fakeRondasService{rondas: make(map[string]rondasdomain.Ronda)}
}

func (f *fakeRondasService) CreateRonda(_ context.Context, input rondasdomain.CreateRondaInput) (*rondasdomain.Ronda, error) {
	if f.createDelay > 0 {
		time.Sleep(f.createDelay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	if input.Nome == "" {
		return nil, fmt.Errorf("%w: nome is required", rondasdomain.ErrInvalidInput)
	}
	id := input.ID
	if id == "" {
		id = fmt.Sprintf("ronda-%d", f.createCalls)
	}
	if _, ok := f.rondas[id]; ok {
		return nil, rondasdomain.ErrAlreadyExists
	}
	ronda := rondasdomain.Ronda{ID: id, ContratoID: input.ContratoID, Nome: input.Nome}
	f.rondas[id] = ronda
	return &ronda, nil
}

func (f *fakeRondasService) UpdateRonda(_ context.Context, input rondasdomain.UpdateRondaInput) (*rondasdomain.Ronda, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ronda, ok := f.rondas[input.ID]
	if !ok {
		return nil, rondasdomain.ErrRondaNotFound
	}
	if input.Nome != nil {
		ronda.Nome = *input.Nome
	}
	f.rondas[input.ID] = ronda
	return &ronda, nil
}

func (f *fakeRondasService) DeleteRonda(_ context.Context, _ string, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.rondas[id]; !ok {
		return rondasdomain.ErrRondaNotFound
	}
	delete(f.rondas, id)
	return nil
}

func (f *fakeRondasService) CreateArea(_ context.Context, _ string, input rondasdomain.CreateAreaInput) (*rondasdomain.AreaTecnica, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.rondas[input.RondaID]; !ok {
		return nil, rondasdomain.ErrRondaNotFound
	}
	area := rondasdomain.AreaTecnica{ID: fmt.Sprintf("area-%d", len(f.areas)+1), RondaID: input.RondaID, Nome: input.Nome, Status: input.Status}
	f.areas = append(f.areas, area)
	return &area, nil
}

func (f *fakeRondasService) UpdateArea(_ context.Context, _ string, input rondasdomain.UpdateAreaInput) (*rondasdomain.AreaTecnica, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.areas {
		if f.areas[i].ID == input.ID {
			if input.Status != nil {
				f.areas[i].Status = *input.Status
			}
			area := f.areas[i]
			return &area, nil
		}
	}
	return nil, rondasdomain.ErrAreaNotFound
}

func (f *fakeRondasService) DeleteArea(context.Context, string, string) error {
	return rondasdomain.ErrAreaNotFound
}

func (f *fakeRondasService) CreateItem(_ context.Context, _ string, input rondasdomain.CreateItemInput) (*rondasdomain.ItemRelevante, error) {
	return &rondasdomain.ItemRelevante{ID: "item-1", RondaID: input.RondaID, Descricao: input.Descricao}, nil
}

func (f *fakeRondasService) UpdateItem(context.Context, string, rondasdomain.UpdateItemInput) (*rondasdomain.ItemRelevante, error) {
	return nil, rondasdomain.ErrItemNotFound
}

func (f *fakeRondasService) DeleteItem(context.Context, string, string) error {
	return rondasdomain.ErrItemNotFound
}

type fakeAgendaService struct {
	created []agendadomain.CreateItemInput
}

func (f *fakeAgendaService) CreateItem(_ context.Context, input agendadomain.CreateItemInput) (*agendadomain.Item, error) {
	f.created = append(f.created, input)
	return &agendadomain.Item{ID: fmt.Sprintf("agenda-%d", len(f.created)), ContratoID: input.ContratoID, Titulo: input.Titulo}, nil
}

func (f *fakeAgendaService) UpdateItem(context.Context, agendadomain.UpdateItemInput) (*agendadomain.Item, error) {
	return nil, agendadomain.ErrItemNotFound
}

func (f *fakeAgendaService) DeleteItem(context.Context, string, string) error {
	return agendadomain.ErrItemNotFound
}
