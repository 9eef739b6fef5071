package sync

import (
	"time"

	"github.com/goccy/go-json"
)

const MaxBatchOperations = 100

type OperationKind string

const (
	KindCreate OperationKind = "CREATE"
	KindUpdate OperationKind = "UPDATE"
	KindDelete OperationKind = "DELETE"
)

type Entity string

const (
	EntityRonda         Entity = "ronda"
	EntityAreaTecnica   Entity = "area_tecnica"
	EntityItemRelevante Entity = "item_relevante"
	EntityAgendaItem    Entity = "agenda_item"
)

type ResultStatus string

const (
	ResultStatusApplied   ResultStatus = "applied"
	ResultStatusDuplicate ResultStatus = "duplicate"
	ResultStatusFailed    ResultStatus = "failed"
)

type BatchStatus string

const (
	BatchStatusSuccess        BatchStatus = "success"
	BatchStatusPartialSuccess BatchStatus = "partial_success"
	BatchStatusFailed         BatchStatus = "failed"
)

type ErrorCode string

const (
	ErrorCodeInvalidRequest                ErrorCode = "invalid_request"
	ErrorCodeInvalidJSON                   ErrorCode = "invalid_json"
	ErrorCodeInvalidPayload                ErrorCode = "invalid_payload"
	ErrorCodeUnsupportedOperation          ErrorCode = "unsupported_operation"
	ErrorCodeOperationPayloadMismatch      ErrorCode = "operation_payload_mismatch"
	ErrorCodeNotFound                      ErrorCode = "not_found"
	ErrorCodeContratoNotFound              ErrorCode = "contrato_not_found"
	ErrorCodeSyncBatchTooLarge             ErrorCode = "sync_batch_too_large"
	ErrorCodeIdempotencyKeyPayloadMismatch ErrorCode = "idempotency_key_payload_mismatch"
	ErrorCodeBatchInProgress               ErrorCode = "batch_in_progress"
	ErrorCodeInternalError                 ErrorCode = "internal_error"
)

type BatchState string

const (
	BatchStateProcessing BatchState = "processing"
	BatchStateCompleted  BatchState = "completed"
	// BatchStateFailed marks a batch whose response could not be stored. A
	// retry with the same key claims it again.
	BatchStateFailed BatchState = "failed"
)

type OperationState string

const (
	OperationStatePending OperationState = "pending"
	OperationStateApplied OperationState = "applied"
	OperationStateFailed  OperationState = "failed"
)

type BatchInput struct {
	ContratoID     string
	IdempotencyKey string
	Operations     []OperationInput
}

// OperationInput is one queued mutation as the offline client recorded it.
// EntityID names the target of UPDATE and DELETE and, when set, the id a
// CREATE should use.
type OperationInput struct {
	OperationID string
	Kind        OperationKind
	Entity      Entity
	EntityID    string
	Payload     json.RawMessage
}

type BatchResponse struct {
	SyncID     string            `json:"sync_id"`
	Status     BatchStatus       `json:"status"`
	Summary    BatchSummary      `json:"summary"`
	Results    []OperationResult `json:"results"`
	ServerTime time.Time         `json:"server_time"`
}

type BatchSummary struct {
	Total     int `json:"total"`
	Applied   int `json:"applied"`
	Duplicate int `json:"duplicate"`
	Failed    int `json:"failed"`
}

type OperationResult struct {
	OperationID string          `json:"operation_id"`
	Kind        OperationKind   `json:"kind"`
	Entity      Entity          `json:"entity"`
	Status      ResultStatus    `json:"status"`
	EntityID    *string         `json:"entity_id,omitempty"`
	Error       *OperationError `json:"error,omitempty"`
}

type OperationError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
}

type BatchRecord struct {
	ID             string     `gorm:"type:uuid;primaryKey"`
	ContratoID     string     `gorm:"type:uuid;not null;index"`
	IdempotencyKey *string    `gorm:"column:idempotency_key"`
	RequestHash    string     `gorm:"not null"`
	Status         BatchState `gorm:"not null"`
	ResponseJSON   []byte     `gorm:"type:jsonb;column:response_json"`
	CreatedAt      time.Time  `gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime"`
}

func (BatchRecord) TableName() string {
	return "sync_batches"
}

type OperationRecord struct {
	ID           string         `gorm:"type:uuid;primaryKey"`
	ContratoID   string         `gorm:"type:uuid;not null;index"`
	OperationID  string         `gorm:"not null"`
	Kind         OperationKind  `gorm:"not null"`
	Entity       Entity         `gorm:"not null"`
	EntityID     *string        `gorm:"column:entity_id"`
	PayloadHash  string         `gorm:"not null;column:payload_hash"`
	Status       OperationState `gorm:"not null"`
	ErrorCode    *ErrorCode     `gorm:"column:error_code"`
	ErrorMessage *string        `gorm:"column:error_message"`
	Retryable    *bool          `gorm:"column:retryable"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
}

func (OperationRecord) TableName() string {
	return "sync_operations"
}
