// Package governance records governance events (deadline changes, amendment
// notices) against a tender with a deterministic verification hash, so third
// parties can re-derive the hash without trusting the ledger.
package governance

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/procurex/tenderseal/pkg/crypto"
)

// SystemIdentity is recorded when no updater is supplied.
const SystemIdentity = "system"

// hashDelimiter joins the hash input fields. Part of the wire contract:
// changing it breaks hash reproducibility for external verifiers.
const hashDelimiter = ":"

// Update is a recorded governance event. Created once, never mutated.
type Update struct {
	TenderID      string    `json:"tenderId"`
	UpdateContent string    `json:"updateContent"`
	UpdatedBy     string    `json:"updatedBy"`
	UpdateHash    string    `json:"updateHash"`
	Timestamp     time.Time `json:"timestamp"`
}

// Recorder hashes and appends governance updates.
type Recorder struct {
	store  Store
	log    *slog.Logger
	tracer trace.Tracer
}

// NewRecorder creates a Recorder appending to the given store.
func NewRecorder(store Store, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{
		store:  store,
		log:    log,
		tracer: otel.Tracer("tenderseal/governance"),
	}
}

// HashUpdate computes the deterministic update hash:
// SHA-256 over "tenderId:updateContent:updatedBy".
func HashUpdate(tenderID, updateContent, updatedBy string) string {
	return crypto.DigestFast(tenderID + hashDelimiter + updateContent + hashDelimiter + updatedBy)
}

// RecordUpdate hashes the event, stamps it and appends it to the
// tender_updates stream. Identical inputs always reproduce the identical
// UpdateHash; only the timestamp varies between calls.
func (r *Recorder) RecordUpdate(ctx context.Context, tenderID, updateContent, updatedBy string) (Update, error) {
	if updatedBy == "" {
		updatedBy = SystemIdentity
	}

	ctx, span := r.tracer.Start(ctx, "governance.RecordUpdate", trace.WithAttributes(
		attribute.String("tender.id", tenderID),
		attribute.String("updated.by", updatedBy),
	))
	defer span.End()

	update := Update{
		TenderID:      tenderID,
		UpdateContent: updateContent,
		UpdatedBy:     updatedBy,
		UpdateHash:    HashUpdate(tenderID, updateContent, updatedBy),
		Timestamp:     time.Now().UTC(),
	}

	if err := r.store.Append(ctx, update); err != nil {
		r.log.Error("governance update append failed", "op", "recordUpdate", "tenderId", tenderID, "error", err)
		return Update{}, err
	}

	r.log.Info("governance update recorded",
		"tenderId", tenderID,
		"updatedBy", updatedBy,
		"updateHash", update.UpdateHash,
	)
	return update, nil
}
