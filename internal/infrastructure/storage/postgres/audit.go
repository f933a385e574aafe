package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/klauspost/compress/zstd"

	"medistock/internal/core/appctx"
	"medistock/internal/core/id"
	"medistock/internal/core/tenant"
	"medistock/pkg/logger"
)

// AuditAction classifies an audited operation.
type AuditAction string

const (
	AuditActionSale       AuditAction = "sale"
	AuditActionCancel     AuditAction = "cancel"
	AuditActionPurchase   AuditAction = "purchase"
	AuditActionReturn     AuditAction = "return"
	AuditActionAdjustment AuditAction = "adjustment"
	AuditActionPayment    AuditAction = "payment"
)

// AuditEntry is one recorded operation. Large payloads are stored
// zstd-compressed.
type AuditEntry struct {
	ID         id.ID       `db:"id"`
	CompanyID  id.ID       `db:"company_id"`
	EntityType string      `db:"entity_type"`
	EntityID   id.ID       `db:"entity_id"`
	Action     AuditAction `db:"action"`
	UserID     string      `db:"user_id"`

	Payload           json.RawMessage `db:"payload"`
	PayloadCompressed []byte          `db:"payload_compressed"`

	CreatedAt time.Time `db:"created_at"`
}

const auditTable = "audit_log"

// AuditService records engine operations for traceability. Failures are
// logged, never propagated; an audit problem must not fail the operation
// it describes.
type AuditService struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	// compressThreshold decides when the payload moves to the compressed
	// column.
	compressThreshold int
}

// NewAuditService creates an audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditService{
		txManager:         txManager,
		builder:           squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Record stores one audit entry. The payload is marshalled from v.
// A nil service drops entries.
func (s *AuditService) Record(ctx context.Context, entityType string, entityID id.ID, action AuditAction, v any) {
	if s == nil {
		return
	}

	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		logger.Error(ctx, "audit entry without company", "error", err)
		return
	}

	payload, err := json.Marshal(v)
	if err != nil {
		logger.Error(ctx, "marshal audit payload", "error", err)
		return
	}

	entry := AuditEntry{
		ID:         id.New(),
		CompanyID:  companyID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		UserID:     appctx.GetUserID(ctx),
		CreatedAt:  time.Now().UTC(),
	}

	if len(payload) >= s.compressThreshold {
		entry.PayloadCompressed = s.encoder.EncodeAll(payload, nil)
	} else {
		entry.Payload = payload
	}

	q := s.builder.Insert(auditTable).
		Columns("id", "company_id", "entity_type", "entity_id", "action", "user_id",
			"payload", "payload_compressed", "created_at").
		Values(entry.ID, entry.CompanyID, entry.EntityType, entry.EntityID, entry.Action, entry.UserID,
			entry.Payload, entry.PayloadCompressed, entry.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		logger.Error(ctx, "build audit insert", "error", err)
		return
	}
	if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		logger.Error(ctx, "write audit entry", "error", err, "entity_type", entityType, "entity_id", entityID)
	}
}

// DecodePayload returns the entry payload, transparently decompressing.
func (s *AuditService) DecodePayload(entry AuditEntry) (json.RawMessage, error) {
	if len(entry.PayloadCompressed) == 0 {
		return entry.Payload, nil
	}
	raw, err := s.decoder.DecodeAll(entry.PayloadCompressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress audit payload: %w", err)
	}
	return raw, nil
}
