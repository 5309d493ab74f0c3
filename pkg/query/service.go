// Package query is the read path over the audit ledger. It re-asserts the
// field projection at the boundary: even if a store grows extra columns, only
// the five exposable fields leave this layer.
package query

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/procurex/tenderseal/pkg/ledger"
)

// DefaultLimit caps the audit trail read when callers pass no usable limit.
const DefaultLimit = 1000

// Service exposes the audit trail to callers.
type Service struct {
	ledger   ledger.Ledger
	maxLimit int
	log      *slog.Logger
	tracer   trace.Tracer
}

// NewService creates a Service reading from the given ledger. maxLimit is the
// read ceiling; values <= 0 fall back to DefaultLimit.
func NewService(l ledger.Ledger, maxLimit int, log *slog.Logger) *Service {
	if maxLimit <= 0 {
		maxLimit = DefaultLimit
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		ledger:   l,
		maxLimit: maxLimit,
		log:      log,
		tracer:   otel.Tracer("tenderseal/query"),
	}
}

// GetAuditTrail returns up to limit audit entries, newest first. Limits
// outside (0, maxLimit] are clamped to the ceiling.
func (s *Service) GetAuditTrail(ctx context.Context, limit int) ([]ledger.AuditEntry, error) {
	if limit <= 0 || limit > s.maxLimit {
		limit = s.maxLimit
	}

	ctx, span := s.tracer.Start(ctx, "query.GetAuditTrail", trace.WithAttributes(
		attribute.Int("limit", limit),
	))
	defer span.End()

	entries, err := s.ledger.ListDescending(ctx, limit)
	if err != nil {
		s.log.Error("audit trail read failed", "op", "getAuditTrail", "error", err)
		return nil, err
	}

	// Field-by-field copy, so a widened store type cannot leak through.
	out := make([]ledger.AuditEntry, len(entries))
	for i, e := range entries {
		out[i] = ledger.AuditEntry{
			TenderID:           e.TenderID,
			ContentFingerprint: e.ContentFingerprint,
			CreatedAt:          e.CreatedAt,
			SubmitterID:        e.SubmitterID,
			Status:             e.Status,
		}
	}
	return out, nil
}
