package sync

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	agendadomain "ronda-app-go/internal/domain/agenda"
	rondasdomain "ronda-app-go/internal/domain/rondas"
	"ronda-app-go/pkg/logger"
)

type RondasService interface {
	CreateRonda(ctx context.Context, input rondasdomain.CreateRondaInput) (*rondasdomain.Ronda, error)
	UpdateRonda(ctx context.Context, input rondasdomain.UpdateRondaInput) (*rondasdomain.Ronda, error)
	DeleteRonda(ctx context.Context, contratoID, id string) error
	CreateArea(ctx context.Context, contratoID string, input rondasdomain.CreateAreaInput) (*rondasdomain.AreaTecnica, error)
	UpdateArea(ctx context.Context, contratoID string, input rondasdomain.UpdateAreaInput) (*rondasdomain.AreaTecnica, error)
	DeleteArea(ctx context.Context, contratoID, id string) error
	CreateItem(ctx context.Context, contratoID string, input rondasdomain.CreateItemInput) (*rondasdomain.ItemRelevante, error)
	UpdateItem(ctx context.Context, contratoID string, input rondasdomain.UpdateItemInput) (*rondasdomain.ItemRelevante, error)
	DeleteItem(ctx context.Context, contratoID, id string) error
}

type AgendaService interface {
	CreateItem(ctx context.Context, input agendadomain.CreateItemInput) (*agendadomain.Item, error)
	UpdateItem(ctx context.Context, input agendadomain.UpdateItemInput) (*agendadomain.Item, error)
	DeleteItem(ctx context.Context, contratoID, id string) error
}

type Service struct {
	repo   Repository
	rondas RondasService
	agenda AgendaService
	log    logger.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func NewService(repo Repository, rondas RondasService, agenda AgendaService, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		rondas: rondas,
		agenda: agenda,
		log:    logger.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessBatch replays queued client operations in order. Every operation is
// applied at most once per contrato: a repeated operation_id reports the
// stored outcome instead of touching the data again, unless that outcome was
// a retryable failure.
func (s *Service) ProcessBatch(ctx context.Context, input BatchInput) (*BatchResponse, error) {
	if len(input.Operations) == 0 {
		return nil, ErrNoOperations
	}
	if len(input.Operations) > MaxBatchOperations {
		return nil, ErrBatchTooLarge
	}

	syncID := uuid.NewString()

	requestHash, err := hashRequest(input.Operations)
	if err != nil {
		return nil, err
	}

	idempotencyKey := strings.TrimSpace(input.IdempotencyKey)
	batchCreated := false

	if idempotencyKey != "" {
		batchID, cached, err := s.beginBatch(ctx, input.ContratoID, idempotencyKey, syncID, requestHash)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			return cached, nil
		}
		syncID = batchID
		batchCreated = true
	}

	response := BatchResponse{
		SyncID:  syncID,
		Results: make([]OperationResult, 0, len(input.Operations)),
		Summary: BatchSummary{
			Total: len(input.Operations),
		},
		ServerTime: s.now().UTC(),
	}

	for _, operation := range input.Operations {
		result := s.processOperation(ctx, input.ContratoID, operation)
		response.Results = append(response.Results, result)

		switch result.Status {
		case ResultStatusApplied:
			response.Summary.Applied++
		case ResultStatusDuplicate:
			response.Summary.Duplicate++
		default:
			response.Summary.Failed++
		}
	}

	response.Status = deriveBatchStatus(response.Summary)

	if batchCreated {
		// The operations already ran; a client disconnect must not leave the
		// batch in processing.
		s.finishBatch(context.WithoutCancel(ctx), syncID, response)
	}

	return &response, nil
}

// beginBatch registers the idempotency key. It returns the batch id to run
// under, or the stored response when the key already completed.
func (s *Service) beginBatch(ctx context.Context, contratoID, key, syncID, requestHash string) (string, *BatchResponse, error) {
	created, existing, err := s.repo.BeginBatch(ctx, &BatchRecord{
		ID:             syncID,
		ContratoID:     contratoID,
		IdempotencyKey: &key,
		RequestHash:    requestHash,
		Status:         BatchStateProcessing,
	})
	if err != nil {
		return "", nil, err
	}
	if created {
		return syncID, nil, nil
	}
	if existing == nil {
		return "", nil, ErrBatchInProgress
	}
	if existing.RequestHash != requestHash {
		return "", nil, ErrIdempotencyKeyReused
	}

	switch existing.Status {
	case BatchStateCompleted:
		var cached BatchResponse
		if err := json.Unmarshal(existing.ResponseJSON, &cached); err == nil {
			return "", &cached, nil
		}
	case BatchStateFailed:
		claimed, err := s.repo.ClaimFailedBatch(ctx, existing.ID)
		if err != nil {
			return "", nil, err
		}
		if claimed {
			s.log.Info("sync.batch: retrying failed batch", "sync_id", existing.ID, "contrato_id", contratoID)
			return existing.ID, nil, nil
		}
	}
	return "", nil, ErrBatchInProgress
}

// finishBatch stores the response for the idempotency key. When that fails
// the batch is marked failed so the key stays usable.
func (s *Service) finishBatch(ctx context.Context, batchID string, response BatchResponse) {
	encoded, err := json.Marshal(response)
	if err == nil {
		if err = s.repo.CompleteBatch(ctx, batchID, BatchStateCompleted, encoded); err == nil {
			return
		}
	}
	s.log.InternalError("sync.batch: store response failed", err, "sync_id", batchID)

	if err := s.repo.CompleteBatch(ctx, batchID, BatchStateFailed, nil); err != nil {
		s.log.InternalError("sync.batch: mark batch failed", err, "sync_id", batchID)
	}
}

func (s *Service) processOperation(ctx context.Context, contratoID string, operation OperationInput) OperationResult {
	base := OperationResult{
		OperationID: operation.OperationID,
		Kind:        operation.Kind,
		Entity:      operation.Entity,
	}
	if strings.TrimSpace(operation.OperationID) == "" {
		return failResult(base, ErrorCodeInvalidRequest, "operation_id is required", false)
	}

	payloadHash, err := hashOperation(operation)
	if err != nil {
		return failResult(base, ErrorCodeInternalError, "internal error", true)
	}

	reserved := &OperationRecord{
		ID:          uuid.NewString(),
		ContratoID:  contratoID,
		OperationID: operation.OperationID,
		Kind:        operation.Kind,
		Entity:      operation.Entity,
		EntityID:    nonEmptyStringPtr(operation.EntityID),
		PayloadHash: payloadHash,
		Status:      OperationStatePending,
	}

	created, existing, err := s.repo.ReserveOperation(ctx, reserved)
	if err != nil {
		return failResult(base, ErrorCodeInternalError, "internal error", true)
	}
	if !created {
		if !canRetry(existing, payloadHash) {
			return resultFromExisting(base, existing, payloadHash)
		}
		claimed, err := s.repo.ClaimFailedOperation(ctx, existing.ID)
		if err != nil {
			return failResult(base, ErrorCodeInternalError, "internal error", true)
		}
		if !claimed {
			return failResult(base, ErrorCodeBatchInProgress, "operation is being processed", true)
		}
		reserved = existing
		reserved.Status = OperationStatePending
		reserved.ErrorCode = nil
		reserved.ErrorMessage = nil
		reserved.Retryable = nil
	}

	entityID, applyErr := s.apply(ctx, contratoID, operation)
	result := classify(base, operation.Kind, entityID, applyErr)

	updateRecord := *reserved
	updateRecord.EntityID = cloneString(result.EntityID)
	if result.Status == ResultStatusFailed {
		updateRecord.Status = OperationStateFailed
		if result.Error != nil {
			code := result.Error.Code
			message := result.Error.Message
			retryable := result.Error.Retryable
			updateRecord.ErrorCode = &code
			updateRecord.ErrorMessage = &message
			updateRecord.Retryable = &retryable
		}
	} else {
		updateRecord.Status = OperationStateApplied
	}

	if err := s.repo.UpdateOperation(ctx, &updateRecord); err != nil {
		return failResult(base, ErrorCodeInternalError, "internal error", true)
	}

	return result
}

// apply performs the mutation and returns the id of the touched entity.
func (s *Service) apply(ctx context.Context, contratoID string, operation OperationInput) (string, error) {
	switch operation.Entity {
	case EntityRonda:
		return s.applyRonda(ctx, contratoID, operation)
	case EntityAreaTecnica:
		return s.applyArea(ctx, contratoID, operation)
	case EntityItemRelevante:
		return s.applyItem(ctx, contratoID, operation)
	case EntityAgendaItem:
		return s.applyAgenda(ctx, contratoID, operation)
	default:
		return "", errUnsupported
	}
}

func (s *Service) applyRonda(ctx context.Context, contratoID string, operation OperationInput) (string, error) {
	var payload rondaPayload
	if err := decodePayload(operation.Payload, &payload); err != nil {
		return "", err
	}
	id := pickID(operation.EntityID, payload.ID)

	switch operation.Kind {
	case KindCreate:
		input := rondasdomain.CreateRondaInput{
			ID:          id,
			ContratoID:  contratoID,
			Nome:        valueOr(payload.Nome, ""),
			Hora:        valueOr(payload.Hora, ""),
			Responsavel: valueOr(payload.Responsavel, ""),
			Observacoes: valueOr(payload.Observacoes, ""),
		}
		if payload.Data != nil {
			input.Data = *payload.Data
		}
		ronda, err := s.rondas.CreateRonda(ctx, input)
		if err != nil {
			return id, err
		}
		return ronda.ID, nil
	case KindUpdate:
		if id == "" {
			return "", errMissingID
		}
		_, err := s.rondas.UpdateRonda(ctx, rondasdomain.UpdateRondaInput{
			ID:          id,
			ContratoID:  contratoID,
			Nome:        payload.Nome,
			Data:        payload.Data,
			Hora:        payload.Hora,
			Responsavel: payload.Responsavel,
			Observacoes: payload.Observacoes,
		})
		return id, err
	case KindDelete:
		if id == "" {
			return "", errMissingID
		}
		return id, s.rondas.DeleteRonda(ctx, contratoID, id)
	default:
		return "", errUnsupported
	}
}

func (s *Service) applyArea(ctx context.Context, contratoID string, operation OperationInput) (string, error) {
	var payload areaPayload
	if err := decodePayload(operation.Payload, &payload); err != nil {
		return "", err
	}
	id := pickID(operation.EntityID, payload.ID)

	switch operation.Kind {
	case KindCreate:
		area, err := s.rondas.CreateArea(ctx, contratoID, rondasdomain.CreateAreaInput{
			ID:          id,
			RondaID:     payload.RondaID,
			Nome:        valueOr(payload.Nome, ""),
			Status:      valueOr(payload.Status, ""),
			Observacoes: valueOr(payload.Observacoes, ""),
			FotoURL:     payload.FotoURL,
		})
		if err != nil {
			return id, err
		}
		return area.ID, nil
	case KindUpdate:
		if id == "" {
			return "", errMissingID
		}
		_, err := s.rondas.UpdateArea(ctx, contratoID, rondasdomain.UpdateAreaInput{
			ID:          id,
			Nome:        payload.Nome,
			Status:      payload.Status,
			Observacoes: payload.Observacoes,
			FotoURL:     payload.FotoURL,
		})
		return id, err
	case KindDelete:
		if id == "" {
			return "", errMissingID
		}
		return id, s.rondas.DeleteArea(ctx, contratoID, id)
	default:
		return "", errUnsupported
	}
}

func (s *Service) applyItem(ctx context.Context, contratoID string, operation OperationInput) (string, error) {
	var payload itemPayload
	if err := decodePayload(operation.Payload, &payload); err != nil {
		return "", err
	}
	id := pickID(operation.EntityID, payload.ID)

	switch operation.Kind {
	case KindCreate:
		item, err := s.rondas.CreateItem(ctx, contratoID, rondasdomain.CreateItemInput{
			ID:         id,
			RondaID:    payload.RondaID,
			Descricao:  valueOr(payload.Descricao, ""),
			Prioridade: valueOr(payload.Prioridade, ""),
			FotoURL:    payload.FotoURL,
		})
		if err != nil {
			return id, err
		}
		return item.ID, nil
	case KindUpdate:
		if id == "" {
			return "", errMissingID
		}
		_, err := s.rondas.UpdateItem(ctx, contratoID, rondasdomain.UpdateItemInput{
			ID:         id,
			Descricao:  payload.Descricao,
			Prioridade: payload.Prioridade,
			Status:     payload.Status,
			FotoURL:    payload.FotoURL,
		})
		return id, err
	case KindDelete:
		if id == "" {
			return "", errMissingID
		}
		return id, s.rondas.DeleteItem(ctx, contratoID, id)
	default:
		return "", errUnsupported
	}
}

func (s *Service) applyAgenda(ctx context.Context, contratoID string, operation OperationInput) (string, error) {
	var payload agendaPayload
	if err := decodePayload(operation.Payload, &payload); err != nil {
		return "", err
	}
	id := pickID(operation.EntityID, payload.ID)

	rec, err := payload.Recurrence.toDomain()
	if err != nil {
		return id, err
	}

	switch operation.Kind {
	case KindCreate:
		input := agendadomain.CreateItemInput{
			ID:         id,
			ContratoID: contratoID,
			Titulo:     valueOr(payload.Titulo, ""),
			Descricao:  valueOr(payload.Descricao, ""),
			Hora:       valueOr(payload.Hora, ""),
			Recurrence: rec,
		}
		if payload.Data != nil {
			input.Data = *payload.Data
		}
		item, err := s.agenda.CreateItem(ctx, input)
		if err != nil {
			return id, err
		}
		return item.ID, nil
	case KindUpdate:
		if id == "" {
			return "", errMissingID
		}
		_, err := s.agenda.UpdateItem(ctx, agendadomain.UpdateItemInput{
			ID:          id,
			ContratoID:  contratoID,
			Titulo:      payload.Titulo,
			Descricao:   payload.Descricao,
			Data:        payload.Data,
			Hora:        payload.Hora,
			Recurrence:  rec,
			ClearRepeat: payload.ClearRecurrence,
		})
		return id, err
	case KindDelete:
		if id == "" {
			return "", errMissingID
		}
		return id, s.agenda.DeleteItem(ctx, contratoID, id)
	default:
		return "", errUnsupported
	}
}

// classify turns the outcome of apply into a result. Replaying a create whose
// id already exists counts as a duplicate, and deleting a missing entity
// counts as applied, so retried operations converge instead of failing.
func classify(base OperationResult, kind OperationKind, entityID string, err error) OperationResult {
	result := base
	result.EntityID = nonEmptyStringPtr(entityID)

	switch {
	case err == nil:
		result.Status = ResultStatusApplied
	case kind == KindCreate && (errors.Is(err, rondasdomain.ErrAlreadyExists) || errors.Is(err, agendadomain.ErrAlreadyExists)):
		result.Status = ResultStatusDuplicate
	case isNotFound(err) && kind == KindDelete:
		result.Status = ResultStatusApplied
	case isNotFound(err):
		result = failResult(result, ErrorCodeNotFound, err.Error(), false)
	case errors.Is(err, errBadJSON):
		result = failResult(result, ErrorCodeInvalidJSON, err.Error(), false)
	case errors.Is(err, errMissingID):
		result = failResult(result, ErrorCodeInvalidRequest, err.Error(), false)
	case errors.Is(err, errUnsupported):
		result = failResult(result, ErrorCodeUnsupportedOperation, "unsupported operation", false)
	case errors.Is(err, rondasdomain.ErrInvalidInput), errors.Is(err, agendadomain.ErrInvalidInput):
		result = failResult(result, ErrorCodeInvalidPayload, err.Error(), false)
	default:
		result = failResult(result, ErrorCodeInternalError, "internal error", true)
	}
	return result
}

func isNotFound(err error) bool {
	return errors.Is(err, rondasdomain.ErrRondaNotFound) ||
		errors.Is(err, rondasdomain.ErrAreaNotFound) ||
		errors.Is(err, rondasdomain.ErrItemNotFound) ||
		errors.Is(err, agendadomain.ErrItemNotFound)
}

// canRetry reports whether a stored operation failed in a way the client is
// told to retry, in which case the replay runs it again.
func canRetry(existing *OperationRecord, payloadHash string) bool {
	return existing != nil &&
		existing.PayloadHash == payloadHash &&
		existing.Status == OperationStateFailed &&
		valueOr(existing.Retryable, false)
}

func resultFromExisting(base OperationResult, existing *OperationRecord, payloadHash string) OperationResult {
	if existing == nil {
		return failResult(base, ErrorCodeBatchInProgress, "operation is being processed", true)
	}
	if existing.PayloadHash != payloadHash {
		return failResult(base, ErrorCodeOperationPayloadMismatch, "operation_id already used with different payload", false)
	}
	if existing.Status == OperationStatePending {
		return failResult(base, ErrorCodeBatchInProgress, "operation is being processed", true)
	}

	result := base
	result.EntityID = cloneString(existing.EntityID)

	if existing.Status == OperationStateFailed {
		result.Status = ResultStatusFailed
		if existing.ErrorCode != nil {
			result.Error = &OperationError{
				Code:      *existing.ErrorCode,
				Message:   valueOr(existing.ErrorMessage, "operation failed"),
				Retryable: valueOr(existing.Retryable, false),
			}
		} else {
			result.Error = &OperationError{
				Code:      ErrorCodeInternalError,
				Message:   "internal error",
				Retryable: true,
			}
		}
		return result
	}

	result.Status = ResultStatusDuplicate
	return result
}

func failResult(base OperationResult, code ErrorCode, message string, retryable bool) OperationResult {
	base.Status = ResultStatusFailed
	base.Error = &OperationError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
	}
	return base
}

func deriveBatchStatus(summary BatchSummary) BatchStatus {
	if summary.Failed == 0 {
		return BatchStatusSuccess
	}
	if summary.Applied > 0 || summary.Duplicate > 0 {
		return BatchStatusPartialSuccess
	}
	return BatchStatusFailed
}

func hashRequest(operations []OperationInput) (string, error) {
	hashes := make([]string, 0, len(operations))
	for _, operation := range operations {
		hash, err := hashOperation(operation)
		if err != nil {
			return "", err
		}
		hashes = append(hashes, operation.OperationID+":"+hash)
	}
	return hashValue(hashes)
}

// hashOperation fingerprints what an operation does. The payload is
// compacted first so whitespace differences between retries do not count.
func hashOperation(operation OperationInput) (string, error) {
	payload := operation.Payload
	var compacted bytes.Buffer
	if err := json.Compact(&compacted, payload); err == nil {
		payload = compacted.Bytes()
	}

	value := struct {
		Kind     OperationKind `json:"kind"`
		Entity   Entity        `json:"entity"`
		EntityID string        `json:"entity_id,omitempty"`
		Payload  string        `json:"payload"`
	}{
		Kind:     operation.Kind,
		Entity:   operation.Entity,
		EntityID: strings.TrimSpace(operation.EntityID),
		Payload:  string(payload),
	}

	return hashValue(value)
}

func hashValue(value interface{}) (string, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func nonEmptyStringPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func valueOr[T any](value *T, fallback T) T {
	if value == nil {
		return fallback
	}
	return *value
}
